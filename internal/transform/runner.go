package transform

// SqlExecutor is the `sqlCmdExec` external collaborator from spec §6: runs a
// rendered SQL script against a connection, returning a non-nil error
// (typically wrapping *dbbmerr.Error with KindSqlFailure) on non-zero exit.
type SqlExecutor interface {
	ExecuteScript(connection, scriptText string) error
}

// DatabaseRestorer is the `restoreDatabase` external collaborator.
type DatabaseRestorer interface {
	RestoreDatabase(connection, dbName, backupPath string) error
}

// Renderer expands a template string with extra per-call bindings layered
// over a transform's ambient Context (spec §4.3 SqlTransform: "appends
// templates.item with variable `file` bound to its relative name").
// internal/task's *Context implements this.
type Renderer interface {
	Render(template string, extra map[string]string) (string, error)
}
