// Package cache implements CacheManager (spec §4.6): a disk-backed store of
// database backups keyed by StateHash, with hit tracking and size-bounded
// garbage collection under a single-writer file lock.
//
// Grounded on core/types/validation_cache.go's cache-with-eviction shape
// (mutex-guarded map with get/put) generalized from an in-memory cache to a
// disk-backed one; the single-writer discipline follows the pack-wide
// gofrs/flock usage, since the teacher itself has no on-disk
// read-modify-write state of its own.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"github.com/aiedail92/DBBranchManager/internal/statehash"
)

// BackupStreamer streams a live database backup to outPath (the
// `backupDatabase` external collaborator, spec §6). internal/sqlrunner
// implements it.
type BackupStreamer interface {
	BackupDatabase(connection, dbName, outPath string) error
}

// Manager is CacheManager. RootPath holds `caches/<db>/<hex>` backup files
// and `hit.json`. MaxCacheSize < 0 means unbounded.
type Manager struct {
	RootPath     string
	MaxCacheSize int64
	AutoGC       bool
	Streamer     BackupStreamer
}

func (m *Manager) hitTablePath() string {
	return filepath.Join(m.RootPath, "hit.json")
}

func (m *Manager) dbDir(dbName string) string {
	return filepath.Join(m.RootPath, "caches", dbName)
}

func (m *Manager) filePath(dbName string, hash statehash.StateHash) string {
	return filepath.Join(m.dbDir(dbName), hash.String())
}

// withLock runs fn under an exclusive OS lock on hit.json, reading the
// table before and writing it back after, unless fn reports dirty=false.
func (m *Manager) withLock(fn func(hitTable) (hitTable, bool, error)) error {
	if err := os.MkdirAll(m.RootPath, 0o755); err != nil {
		return fmt.Errorf("cache: creating %s: %w", m.RootPath, err)
	}

	lock := flock.New(m.hitTablePath())
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("cache: locking %s: %w", m.hitTablePath(), err)
	}
	defer lock.Unlock()

	table, err := readHitTable(m.hitTablePath())
	if err != nil {
		return fmt.Errorf("cache: reading hit table: %w", err)
	}

	updated, dirty, err := fn(table)
	if err != nil {
		return err
	}
	if !dirty {
		return nil
	}
	if err := writeHitTable(m.hitTablePath(), updated); err != nil {
		return fmt.Errorf("cache: writing hit table: %w", err)
	}
	return nil
}

// TryGet returns the cache file path for (dbName, hash) if it exists on
// disk (spec §4.6 tryGet). When updateHit is true it also touches the hit
// table; a failure to do so is ignored and not reported to the caller,
// matching the interface tree.CacheLookup needs.
func (m *Manager) TryGet(dbName string, hash statehash.StateHash, updateHit bool) (string, bool) {
	path := m.filePath(dbName, hash)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	if updateHit {
		_ = m.UpdateHits([]HitKey{{DBName: dbName, Hash: hash}})
	}
	return path, true
}

// HitKey names one (database, fingerprint) pair touched by UpdateHits.
type HitKey struct {
	DBName string
	Hash   statehash.StateHash
}

// UpdateHits touches hitTable[db][hex] = now for every key, under exclusive
// lock (spec §4.6 updateHits).
func (m *Manager) UpdateHits(keys []HitKey) error {
	if len(keys) == 0 {
		return nil
	}
	now := time.Now().Unix()
	return m.withLock(func(t hitTable) (hitTable, bool, error) {
		for _, k := range keys {
			t.set(k.DBName, k.Hash.String(), now)
		}
		return t, true, nil
	})
}

// Add streams a backup for dbName at hash into the cache (spec §4.6 add).
// A pre-existing file is a no-op. On streaming failure the partial file is
// deleted and the hit table is left untouched; the caller (tree.Run) logs
// the failure as a warning rather than failing the deployment.
func (m *Manager) Add(connection, dbName string, hash statehash.StateHash) error {
	path := m.filePath(dbName, hash)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if m.AutoGC {
		if err := m.GarbageCollect(true); err != nil {
			return fmt.Errorf("cache: pre-add garbage collection: %w", err)
		}
	}

	if err := os.MkdirAll(m.dbDir(dbName), 0o755); err != nil {
		return fmt.Errorf("cache: creating %s: %w", m.dbDir(dbName), err)
	}

	if err := m.Streamer.BackupDatabase(connection, dbName, path); err != nil {
		os.Remove(path)
		return fmt.Errorf("cache: backing up %s: %w", dbName, err)
	}

	return m.UpdateHits([]HitKey{{DBName: dbName, Hash: hash}})
}

type liveEntry struct {
	dbName string
	hex    string
	path   string
	size   int64
	lastHit int64
}

// GarbageCollect reconciles files against the hit table and evicts the
// coldest entries until total size is within MaxCacheSize (spec §4.6
// garbageCollect). silent controls nothing about behavior today — it is
// accepted for parity with the spec's signature and to let Add's pre-GC
// pass stay silent at the call site rather than emitting its own log line.
func (m *Manager) GarbageCollect(silent bool) error {
	return m.withLock(func(t hitTable) (hitTable, bool, error) {
		entries, err := m.listCacheFiles()
		if err != nil {
			return nil, false, err
		}

		// Step 2: delete orphan files (no hit entry, or unparsable name).
		live := entries[:0]
		for _, e := range entries {
			if !isValidHex(e.hex) {
				os.Remove(e.path)
				continue
			}
			ticks, ok := t.getRaw(e.dbName, e.hex)
			if !ok {
				os.Remove(e.path)
				continue
			}
			e.lastHit = ticks
			live = append(live, e)
		}

		// Step 3: drop forgotten hit entries (no backing file).
		liveSet := make(map[string]bool, len(live))
		for _, e := range live {
			liveSet[e.dbName+"/"+e.hex] = true
		}
		for db, byHex := range t {
			for hex := range byHex {
				if !liveSet[db+"/"+hex] {
					delete(byHex, hex)
				}
			}
			if len(byHex) == 0 {
				delete(t, db)
			}
		}

		// Step 4: size-bounded eviction, oldest hit first.
		if m.MaxCacheSize >= 0 {
			sort.Slice(live, func(i, j int) bool { return live[i].lastHit < live[j].lastHit })
			var total int64
			for _, e := range live {
				total += e.size
			}
			i := 0
			for total > m.MaxCacheSize && i < len(live) {
				e := live[i]
				os.Remove(e.path)
				if byHex, ok := t[e.dbName]; ok {
					delete(byHex, e.hex)
					if len(byHex) == 0 {
						delete(t, e.dbName)
					}
				}
				total -= e.size
				i++
			}
		}

		return t, true, nil
	})
}

// listCacheFiles enumerates every file under RootPath/caches/<db>/<name>.
func (m *Manager) listCacheFiles() ([]liveEntry, error) {
	base := filepath.Join(m.RootPath, "caches")
	var entries []liveEntry

	dbDirs, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	for _, dbDir := range dbDirs {
		if !dbDir.IsDir() {
			continue
		}
		dbName := dbDir.Name()
		files, err := os.ReadDir(filepath.Join(base, dbName))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			info, err := f.Info()
			if err != nil {
				return nil, err
			}
			entries = append(entries, liveEntry{
				dbName: dbName,
				hex:    f.Name(),
				path:   filepath.Join(base, dbName, f.Name()),
				size:   info.Size(),
			})
		}
	}
	return entries, nil
}
