package ports

import "context"

// ScriptRunner executes backend-supplied script nodes. This is a deliberate
// trust boundary: the backend sends source code and a fixed set of named
// arguments, and the runner must confine evaluation to exactly those
// capabilities. The default configuration runs nothing.
type ScriptRunner interface {
	Run(ctx context.Context, src string, args map[string]any) error
}

// NopScriptRunner ignores every script node.
type NopScriptRunner struct{}

// Run implements ScriptRunner.
func (NopScriptRunner) Run(context.Context, string, map[string]any) error { return nil }
