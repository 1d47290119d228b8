package script_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice/internal/script"
)

func TestRunner_BindsArgs(t *testing.T) {
	r := script.New()
	out := make(map[string]any)
	err := r.Run(context.Background(), `out["doubled"] = n * 2`, map[string]any{
		"n":   21,
		"out": out,
	})
	require.NoError(t, err)
	assert.Equal(t, 42, out["doubled"])
}

func TestRunner_NoStdlibByDefault(t *testing.T) {
	r := script.New()
	err := r.Run(context.Background(), `import "os"
os.Exit(1)`, nil)
	require.Error(t, err)
}

func TestRunner_StdlibOptIn(t *testing.T) {
	r := script.New(script.WithStdlib())
	out := make(map[string]any)
	err := r.Run(context.Background(), `import "strings"
out["v"] = strings.ToUpper("ok")`, map[string]any{"out": out})
	require.NoError(t, err)
	assert.Equal(t, "OK", out["v"])
}

func TestRunner_SkipsInvalidArgNames(t *testing.T) {
	r := script.New()
	err := r.Run(context.Background(), `_ = 1`, map[string]any{
		"bad-name": 1,
		"":         2,
		"9lives":   3,
	})
	require.NoError(t, err)
}

func TestRunner_OwnMainSeesArgs(t *testing.T) {
	r := script.New()
	out := make(map[string]any)
	err := r.Run(context.Background(), `func main() {
	out["ran"] = true
}`, map[string]any{"out": out})
	require.NoError(t, err)
	assert.Equal(t, true, out["ran"])
}

func TestRunner_UnexportableArgSkipped(t *testing.T) {
	r := script.New()
	err := r.Run(context.Background(), `_ = 1`, map[string]any{"_hidden": 1})
	require.NoError(t, err)
}

func TestRunner_SyntaxErrorSurfaces(t *testing.T) {
	r := script.New()
	err := r.Run(context.Background(), `this is not go`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script:")
}

func TestRunner_FreshInterpreterPerRun(t *testing.T) {
	r := script.New()
	require.NoError(t, r.Run(context.Background(), `x := 1
_ = x`, nil))
	// x from the previous run is not visible
	err := r.Run(context.Background(), `_ = x`, nil)
	require.Error(t, err)
}
