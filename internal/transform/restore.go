package transform

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/aiedail92/DBBranchManager/internal/logx"
	"github.com/aiedail92/DBBranchManager/internal/statehash"
)

// DatabaseBackup names a database and the backup file to restore it from.
type DatabaseBackup struct {
	Name       string
	BackupPath string
}

// RestoreDatabasesTransform implements the baseline-restore and cache-restore
// shape from spec §4.3: restores Databases, in order, from their backup
// files (or, when ResultHash is set, is the cache-substitution leaf Calculate
// installs in place of a cache-hit subtree — spec §4.4 rule 1c).
type RestoreDatabasesTransform struct {
	Connection string
	Databases  []DatabaseBackup

	// ResultHash, when non-nil, is the fixed fingerprint this restore must
	// reproduce: the cache-restore shape. CalculateTransform then returns
	// ResultHash unconditionally rather than deriving it from backup file
	// metadata, because Calculate's rewrite rule already fixed the tree's
	// hash_out to this value when it substituted this leaf in (spec §4.4
	// rule 1c: "Return (replacement, h, changed=true, cacheHash=h)") — the
	// replacement's own CalculateTransform must agree with that h on every
	// subsequent evaluation, including the one the Run pass implicitly
	// relies on via the calculate/run agreement invariant (spec §4.3).
	ResultHash *statehash.StateHash

	Restorer DatabaseRestorer
}

func (r *RestoreDatabasesTransform) CalculateTransform(in statehash.StateHash) (statehash.StateHash, error) {
	if r.ResultHash != nil {
		return *r.ResultHash, nil
	}

	tr := statehash.NewTransformer(in)
	for _, db := range r.Databases {
		if err := tr.Transform([]byte(db.Name)); err != nil {
			return statehash.StateHash{}, err
		}
		if err := tr.Transform([]byte{0}); err != nil {
			return statehash.StateHash{}, err
		}

		info, err := os.Stat(db.BackupPath)
		if err != nil {
			return statehash.StateHash{}, fmt.Errorf("restore: stat %s: %w", db.BackupPath, err)
		}

		if err := tr.Transform([]byte(db.BackupPath)); err != nil {
			return statehash.StateHash{}, err
		}
		var buf [16]byte
		binary.BigEndian.PutUint64(buf[0:8], uint64(info.Size()))
		binary.BigEndian.PutUint64(buf[8:16], uint64(info.ModTime().UnixNano()))
		if err := tr.Transform(buf[:]); err != nil {
			return statehash.StateHash{}, err
		}
	}
	return tr.Finish()
}

func (r *RestoreDatabasesTransform) GetRequirements(sink *RequirementSink) {
	sink.Check("SQL restore adapter configured", r.Restorer != nil)
	if r.ResultHash != nil {
		// Cache-restore shape: the backup paths point into the cache store,
		// which CacheManager.tryGet already verified exist before this leaf
		// was substituted in.
		return
	}
	for _, db := range r.Databases {
		_, err := os.Stat(db.BackupPath)
		sink.Check(fmt.Sprintf("backup file %q for database %q exists", db.BackupPath, db.Name), err == nil)
	}
}

func (r *RestoreDatabasesTransform) RunTransform(in statehash.StateHash, dryRun bool, log *logx.Logger) (statehash.StateHash, error) {
	out, err := r.CalculateTransform(in)
	if err != nil {
		return statehash.StateHash{}, err
	}

	if dryRun {
		log.Log(fmt.Sprintf("restore: would restore %d database(s)", len(r.Databases)))
		return out, nil
	}

	for _, db := range r.Databases {
		if err := r.Restorer.RestoreDatabase(r.Connection, db.Name, db.BackupPath); err != nil {
			return statehash.StateHash{}, fmt.Errorf("restore: database %q: %w", db.Name, err)
		}
	}
	log.Log(fmt.Sprintf("restore: restored %d database(s)", len(r.Databases)))
	return out, nil
}
