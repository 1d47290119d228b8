// Package script evaluates backend-supplied script nodes in an embedded
// interpreter. Scripts are untrusted by default: a fresh interpreter is
// created per run, only the node's named arguments are bound, and the
// standard library stays out unless explicitly enabled.
package script

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/aretw0/lattice/pkg/ports"
)

// Runner runs script node sources as Go snippets.
type Runner struct {
	useStdlib bool
	logger    *slog.Logger
}

var _ ports.ScriptRunner = (*Runner)(nil)

// Option configures a Runner.
type Option func(*Runner)

// WithStdlib grants scripts access to the Go standard library. Off by
// default; enable only for trusted backends.
func WithStdlib() Option {
	return func(r *Runner) { r.useStdlib = true }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// argsPkg is the synthetic import path the node arguments are exported
// under; path.Base yields the package name scripts see.
const argsPkg = "lattice/args/args"

// Run implements ports.ScriptRunner. Each call evaluates src in a fresh
// interpreter. Args are exported through a synthetic "args" package and
// aliased back to their bare names in a prelude, so scripts reference
// them as plain identifiers; nothing leaks between runs.
func (r *Runner) Run(ctx context.Context, src string, args map[string]any) error {
	in := interp.New(interp.Options{})
	if r.useStdlib {
		if err := in.Use(stdlib.Symbols); err != nil {
			return fmt.Errorf("script: bind stdlib: %w", err)
		}
	}

	exports := make(map[string]reflect.Value, len(args))
	names := make([]string, 0, len(args))
	for name, value := range args {
		if !validIdent(name) {
			r.logger.Warn("script arg skipped, not an identifier", "arg", name)
			continue
		}
		if value == nil {
			continue
		}
		exported := exportName(name)
		if exported == "" {
			r.logger.Warn("script arg skipped, not exportable", "arg", name)
			continue
		}
		if _, dup := exports[exported]; dup {
			r.logger.Warn("script arg skipped, name collision", "arg", name)
			continue
		}
		exports[exported] = reflect.ValueOf(value)
		names = append(names, name)
	}
	sort.Strings(names)

	if len(exports) > 0 {
		if err := in.Use(interp.Exports{argsPkg: exports}); err != nil {
			return fmt.Errorf("script: bind args: %w", err)
		}
	}
	in.ImportUsed()

	var topDecls, localDecls strings.Builder
	for _, name := range names {
		fmt.Fprintf(&topDecls, "var %s = args.%s\n", name, exportName(name))
		fmt.Fprintf(&localDecls, "%s := args.%s\n_ = %s\n", name, exportName(name), name)
	}

	// declarations only resolve inside a function body; sources with
	// imports or their own main stay top-level in REPL mode, with the
	// aliases evaluated up front as package vars
	if strings.Contains(src, "func main()") || strings.Contains(src, "import ") {
		if topDecls.Len() > 0 {
			if _, err := in.EvalWithContext(ctx, topDecls.String()); err != nil {
				return fmt.Errorf("script: bind args: %w", err)
			}
		}
	} else {
		src = "func main() {\n" + localDecls.String() + src + "\n}"
	}
	if _, err := in.EvalWithContext(ctx, src); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

// exportName capitalizes an arg name so it is visible through the args
// package. Names that cannot be exported ("_x") return "".
func exportName(name string) string {
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	if runes[0] < 'A' || runes[0] > 'Z' {
		return ""
	}
	return string(runes)
}

func validIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
