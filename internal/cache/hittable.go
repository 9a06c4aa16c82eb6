package cache

import (
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/aiedail92/DBBranchManager/internal/statehash"
)

// hitTable is the in-memory form of hit.json (spec §6):
// `{ [dbName]: { [hexHash]: int64-ticks, … }, … }`.
type hitTable map[string]map[string]int64

func readHitTable(path string) (hitTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return hitTable{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return hitTable{}, nil
	}
	var t hitTable
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	if t == nil {
		t = hitTable{}
	}
	return t, nil
}

func writeHitTable(path string, t hitTable) error {
	raw, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func (t hitTable) set(dbName, hex string, ticks int64) {
	if t[dbName] == nil {
		t[dbName] = make(map[string]int64)
	}
	t[dbName][hex] = ticks
}

func (t hitTable) getRaw(dbName, hex string) (int64, bool) {
	byHex, ok := t[dbName]
	if !ok {
		return 0, false
	}
	ticks, ok := byHex[hex]
	return ticks, ok
}

// isValidHex reports whether s is a well-formed StateHash hex encoding —
// used by GarbageCollect's orphan rule (spec §4.6 step 2 exception: "files
// whose name does not parse as a valid hex hash are also deleted").
func isValidHex(s string) bool {
	if len(s) != statehash.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
