// Package upload bridges an external upload widget to the session state.
//
// File widgets never move bytes through the submission path. The widget
// uploads directly to storage and reports resource URLs; the bridge writes
// the JSON-encoded URL list into the field's hidden carrier slot and fires
// an immediate change, so the backend only ever sees URLs.
package upload

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// ApplyFunc receives the carrier field name and its new JSON value whenever
// a field's upload set changes. It is expected to route into the immediate
// submission path.
type ApplyFunc func(field string, value string)

// Bridge watches file fields and mirrors completed uploads into carrier
// slots via an ApplyFunc.
type Bridge struct {
	uploader ports.Uploader
	apply    ApplyFunc
	logger   *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger used for per-file failures.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a bridge between uploader and apply.
func New(uploader ports.Uploader, apply ApplyFunc, opts ...Option) *Bridge {
	b := &Bridge{
		uploader: uploader,
		apply:    apply,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Watch starts the uploader for one field. Every completion callback is
// reduced to a stable URL list and applied to the carrier slot.
func (b *Bridge) Watch(ctx context.Context, spec ports.UploadSpec) error {
	if b.uploader == nil {
		return nil
	}
	return b.uploader.Start(ctx, spec, func(uploads []ports.CompletedUpload) {
		value, n := Encode(uploads, spec.Multiple, b.logger.With("field", spec.Name))
		b.logger.Debug("uploads applied", "field", spec.Name, "count", n)
		b.apply(spec.Name, value)
	})
}

// WatchTree starts watchers for every file input in a tree. Specs are
// derived from the node props the same way the renderer reads them.
func (b *Bridge) WatchTree(ctx context.Context, tree []domain.TreeNode) error {
	var firstErr error
	domain.WalkAll(tree, func(n domain.TreeNode) bool {
		if n.InputType() != "file" || n.FieldName() == "" {
			return true
		}
		spec := SpecFromNode(n)
		if err := b.Watch(ctx, spec); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

// SpecFromNode builds an UploadSpec from a file input node.
func SpecFromNode(n domain.TreeNode) ports.UploadSpec {
	spec := ports.UploadSpec{
		Name:     n.FieldName(),
		Multiple: n.PropBool("multiple"),
		Initial:  n.Prop("defaultValue"),
	}
	switch accept := n.Prop("accept").(type) {
	case string:
		if accept != "" {
			spec.Accept = []string{accept}
		}
	case []any:
		for _, a := range accept {
			if s, ok := a.(string); ok {
				spec.Accept = append(spec.Accept, s)
			}
		}
	case []string:
		spec.Accept = accept
	}
	return spec
}

// Encode reduces a completion set to the carrier's JSON value. Failed files
// are logged and skipped, the rest ordered by completion time (URL breaks
// ties) so the list is deterministic across callback order. Single-file
// fields keep only the earliest completion. Returns the JSON text and the
// number of URLs encoded.
func Encode(uploads []ports.CompletedUpload, multiple bool, logger *slog.Logger) (string, int) {
	done := make([]ports.CompletedUpload, 0, len(uploads))
	for _, u := range uploads {
		if u.Err != nil {
			if logger != nil {
				logger.Warn("upload failed", "url", u.URL, "err", u.Err)
			}
			continue
		}
		done = append(done, u)
	}
	sort.SliceStable(done, func(i, j int) bool {
		if !done[i].CompletedAt.Equal(done[j].CompletedAt) {
			return done[i].CompletedAt.Before(done[j].CompletedAt)
		}
		return done[i].URL < done[j].URL
	})
	if !multiple && len(done) > 1 {
		done = done[:1]
	}
	urls := make([]string, len(done))
	for i, u := range done {
		urls[i] = u.URL
	}
	data, err := json.Marshal(urls)
	if err != nil {
		return "[]", 0
	}
	return string(data), len(urls)
}
