package copytask

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aiedail92/DBBranchManager/internal/task"
	"github.com/aiedail92/DBBranchManager/internal/transform"
)

func TestBuildResolvesRelativePaths(t *testing.T) {
	cfg := task.Config{Kind: "copy", Parameters: map[string]interface{}{
		"from":  "src",
		"to":    "dst",
		"regex": `\.sql$`,
	}}
	ctx := task.NewContext()

	tr, err := build(cfg, ctx, "/features/f1")
	require.NoError(t, err)

	got, _, err := task.Global().Build(cfg, ctx, "/features/f1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, tr)

	copyTr, ok := tr.(*transform.CopyTransform)
	require.True(t, ok)
	require.Equal(t, filepath.Join("/features/f1", "src"), copyTr.From)
	require.Equal(t, filepath.Join("/features/f1", "dst"), copyTr.To)
}

func TestBuildMissingParameter(t *testing.T) {
	cfg := task.Config{Kind: "copy", Parameters: map[string]interface{}{"from": "src"}}
	_, err := build(cfg, task.NewContext(), "/base")
	require.Error(t, err)
}
