package sqltask

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aiedail92/DBBranchManager/internal/task"
	"github.com/aiedail92/DBBranchManager/internal/transform"
)

func TestBuildDefaultsExecuteTrue(t *testing.T) {
	cfg := task.Config{Kind: "sql", Parameters: map[string]interface{}{
		"path":  "scripts",
		"regex": `^\d+.*\.sql$`,
		"templates": map[string]interface{}{
			"pre":  "BEGIN\n",
			"item": "-- $(f:name)\n",
			"post": "END\n",
		},
	}}
	ctx := task.NewContext().WithVar("unused", "x")
	ctx.FeatureAttrs["name"] = "f1"
	ctx.ActiveEnv = "dev"
	ctx.Connection = "conn"

	tr, err := build(cfg, ctx, "/features/f1")
	require.NoError(t, err)
	sqlTr, ok := tr.(*transform.SqlTransform)
	require.True(t, ok)
	require.True(t, sqlTr.Execute)
	require.Equal(t, "dev", sqlTr.Env)
	require.Equal(t, "conn", sqlTr.Connection)
	require.Equal(t, "BEGIN\n", sqlTr.Templates.Pre)
}

func TestBuildExecuteFalse(t *testing.T) {
	cfg := task.Config{Kind: "sql", Parameters: map[string]interface{}{
		"path":    "scripts",
		"regex":   `\.sql$`,
		"execute": false,
	}}
	tr, err := build(cfg, task.NewContext(), "/base")
	require.NoError(t, err)
	sqlTr := tr.(*transform.SqlTransform)
	require.False(t, sqlTr.Execute)
}
