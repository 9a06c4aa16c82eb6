package statehash

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// separator delimits the relative name from the length-prefixed content in
// the canonical "smart file" encoding (spec §4.2). Any byte not legal in a
// path component works; NUL is the conventional choice.
const fileSmartSeparator = 0x00

// ErrAlreadyFinished is returned by Transform/TransformFileSmart/Finish once
// Finish has already been called on a Transformer.
var ErrAlreadyFinished = errors.New("statehash: transformer already finished")

// Transformer is a scoped accumulator seeded with a StateHash. Callers must
// call Finish exactly once on every exit path; Go has no destructors, so
// unlike the teacher's invariant-panic style this is enforced by returning
// ErrAlreadyFinished on reuse rather than by a runtime guarantee.
type Transformer struct {
	h        hash.Hash
	finished bool
}

// NewTransformer creates a Transformer seeded with h. Feeding the seed bytes
// first and then further bytes via Transform makes mix(h, a‖b) equal to
// mix(mix(h,a), b): both are just the seed followed by a‖b written into the
// same incremental hash state.
func NewTransformer(seed StateHash) *Transformer {
	hh, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256(nil) only errors on a bad key length; nil is always
		// valid, so this is an internal invariant, not a user error.
		panic(fmt.Sprintf("statehash: blake2b.New256(nil): %v", err))
	}
	hh.Write(seed[:])
	return &Transformer{h: hh}
}

// Transform folds raw bytes into the running state.
func (t *Transformer) Transform(b []byte) error {
	if t.finished {
		return ErrAlreadyFinished
	}
	t.h.Write(b)
	return nil
}

// TransformFileSmart folds a canonical encoding of a file into the running
// state: the relative name (with path separators normalized to '/'), a
// separator byte, the content length as a fixed-width big-endian uint64,
// and the content itself. relName must already be relative to whatever root
// the caller is enumerating under; absPath is the file to read content from.
//
// Line endings are NOT normalized — only the path separator is, per spec
// §4.2 ("line-ending and path-separator normalization mandatory... do not
// normalize content" — path separators are metadata, content is opaque).
func (t *Transformer) TransformFileSmart(relName, absPath string) error {
	if t.finished {
		return ErrAlreadyFinished
	}

	normalized := filepath.ToSlash(relName)
	t.h.Write([]byte(normalized))
	t.h.Write([]byte{fileSmartSeparator})

	f, err := os.Open(absPath)
	if err != nil {
		return fmt.Errorf("statehash: opening %s: %w", absPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("statehash: stat %s: %w", absPath, err)
	}

	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(info.Size()))
	t.h.Write(lenBuf[:])

	if _, err := io.Copy(t.h, f); err != nil {
		return fmt.Errorf("statehash: reading %s: %w", absPath, err)
	}
	return nil
}

// Finish finalizes the accumulator into a StateHash. Subsequent calls to
// Transform, TransformFileSmart, or Finish fail with ErrAlreadyFinished.
func (t *Transformer) Finish() (StateHash, error) {
	if t.finished {
		return StateHash{}, ErrAlreadyFinished
	}
	t.finished = true

	var out StateHash
	copy(out[:], t.h.Sum(nil))
	return out, nil
}

// Mix is the one-shot convenience form of the StateHash fold operation:
// mix(h, bytes) -> new StateHash.
func Mix(seed StateHash, b []byte) StateHash {
	tr := NewTransformer(seed)
	_ = tr.Transform(b)
	out, _ := tr.Finish()
	return out
}

// NormalizeRelPath converts an OS path separator style to the canonical
// forward-slash form used throughout deterministic enumeration (spec §9).
func NormalizeRelPath(p string) string {
	return filepath.ToSlash(strings.TrimPrefix(p, string(filepath.Separator)))
}
