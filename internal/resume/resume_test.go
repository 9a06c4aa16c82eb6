package resume

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aiedail92/DBBranchManager/internal/dbbmerr"
	"github.com/aiedail92/DBBranchManager/internal/statehash"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), ".dbbm.resume"))
	h := statehash.Mix(statehash.Empty, []byte("leaf"))

	require.NoError(t, s.Save(h))
	got, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestLoadMissingIsResumeMissing(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), ".dbbm.resume"))
	_, err := s.Load()
	require.Error(t, err)
	var derr *dbbmerr.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, dbbmerr.KindResumeMissing, derr.Kind)
}

func TestLoadInvalidContentsIsResumeInvalid(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, ".dbbm.resume"))
	require.NoError(t, os.WriteFile(s.Path, []byte("not-a-hash"), 0o644))

	_, err := s.Load()
	require.Error(t, err)
	var derr *dbbmerr.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, dbbmerr.KindResumeInvalid, derr.Kind)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), ".dbbm.resume"))
	require.NoError(t, s.Delete())
	require.NoError(t, s.Save(statehash.Empty))
	require.NoError(t, s.Delete())
	require.NoError(t, s.Delete())
}
