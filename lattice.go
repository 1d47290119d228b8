package lattice

import (
	"context"
	"log/slog"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/lattice/internal/render"
	"github.com/aretw0/lattice/internal/runtime"
	latticehttp "github.com/aretw0/lattice/pkg/adapters/http"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/upload"
)

// Re-exported render surface. Hosts walk Elements and drive Controls; the
// types live with the dispatcher but belong to the public API.
type (
	Element       = render.Element
	Control       = render.Control
	ChangeEvent   = render.ChangeEvent
	RendererFunc  = render.RendererFunc
	RenderContext = render.Context
)

// Client is the high-level entry point for the Lattice library. It wires
// the form orchestrator, the node dispatcher, the backend transport and
// the side channels into one page session.
type Client struct {
	form     *Form
	registry *render.Registry
	bindings *render.BindingCache

	mu      sync.Mutex
	backend ports.Backend
	query   url.Values
	watched map[string]bool // upload fields already being watched

	realtime ports.RealtimeSource
	rtCancel context.CancelFunc
	channels []string

	uploads  *upload.Bridge
	uploader ports.Uploader
	scripts  ports.ScriptRunner
	boundary func(error)
	metrics  *runtime.Metrics
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	formOpts []runtime.Option
}

// Form is the submit orchestrator type, re-exported for hosts that build
// their own wiring.
type Form = runtime.Form

// Option defines a functional option for configuring the Client.
type Option func(*Client)

// WithBackend injects a custom submission transport, bypassing the default
// HTTP transport for the page URL.
func WithBackend(b ports.Backend) Option {
	return func(c *Client) { c.backend = b }
}

// WithQuery sets the page query parameters for the default HTTP transport.
func WithQuery(query url.Values) Option {
	return func(c *Client) { c.query = query }
}

// WithRealtime attaches a realtime source; each push on a subscribed
// channel resubmits the page while idle.
func WithRealtime(source ports.RealtimeSource) Option {
	return func(c *Client) { c.realtime = source }
}

// WithUploader attaches an upload widget; completed uploads land in the
// file field's carrier slot and submit immediately.
func WithUploader(u ports.Uploader) Option {
	return func(c *Client) { c.uploader = u }
}

// WithScripts sets the runner for backend script nodes. Default: scripts
// are ignored.
func WithScripts(runner ports.ScriptRunner) Option {
	return func(c *Client) { c.scripts = runner }
}

// WithLogger sets a custom structured logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithErrorBoundary sets the page-level sink for transport failures.
func WithErrorBoundary(fn func(error)) Option {
	return func(c *Client) { c.boundary = fn }
}

// WithMetrics registers submission metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) { c.metrics = runtime.NewMetrics(reg) }
}

// WithFormOptions forwards extra options to the underlying form (debounce
// window, clock injection).
func WithFormOptions(opts ...runtime.Option) Option {
	return func(c *Client) { c.formOpts = append(c.formOpts, opts...) }
}

// WithRenderer registers an extra node renderer under name, on top of the
// builtin set.
func WithRenderer(name string, fn render.RendererFunc) Option {
	return func(c *Client) { c.registry.Register(name, fn) }
}

// New initializes a Client for one page. By default it submits to pageURL
// over HTTP; with WithBackend the pageURL may be empty.
func New(pageURL string, opts ...Option) (*Client, error) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		registry: render.NewBuiltins(),
		bindings: render.NewBindingCache(),
		watched:  make(map[string]bool),
		scripts:  ports.NopScriptRunner{},
		logger:   slog.New(slog.DiscardHandler),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.backend == nil {
		c.backend = latticehttp.NewTransport(pageURL,
			latticehttp.WithQuery(c.query),
			latticehttp.WithTransportLogger(c.logger))
	}

	formOpts := []runtime.Option{
		// the form sees the client's current backend so Navigate can swap
		// transports without rebuilding the form
		runtime.WithBackend(ports.BackendFunc(c.submit)),
		runtime.WithLogger(c.logger),
		runtime.WithContext(ctx),
		runtime.WithResponseHook(c.onResponse),
	}
	if c.metrics != nil {
		formOpts = append(formOpts, runtime.WithMetrics(c.metrics))
	}
	if c.boundary != nil {
		formOpts = append(formOpts, runtime.WithErrorBoundary(c.boundary))
	}
	formOpts = append(formOpts, c.formOpts...)
	c.form = runtime.NewForm(formOpts...)

	if c.uploader != nil {
		c.uploads = upload.New(c.uploader, c.applyUpload, upload.WithLogger(c.logger))
	}
	return c, nil
}

func (c *Client) submit(ctx context.Context, sub domain.Submission) (*domain.Response, error) {
	c.mu.Lock()
	backend := c.backend
	c.mu.Unlock()
	return backend.Submit(ctx, sub)
}

// Open performs the initial page load.
func (c *Client) Open() error {
	return c.form.Rerun()
}

// Rerun resubmits the current state unchanged. Returns
// domain.ErrSubmissionInFlight when a submission is already outstanding.
func (c *Client) Rerun() error {
	return c.form.Rerun()
}

// UpdateSessionState shallow-merges partial into the session state and
// submits.
func (c *Client) UpdateSessionState(partial map[string]any) error {
	return c.form.UpdateSessionState(partial)
}

// SetSessionState replaces the session state wholesale and submits.
func (c *Client) SetSessionState(full map[string]any) error {
	return c.form.SetSessionState(full)
}

// Navigate switches the client to a new page URL with fresh state and
// performs the load. A custom backend injected via WithBackend is replaced.
func (c *Client) Navigate(pageURL string, query url.Values) error {
	c.mu.Lock()
	c.backend = latticehttp.NewTransport(pageURL,
		latticehttp.WithQuery(query),
		latticehttp.WithTransportLogger(c.logger))
	c.mu.Unlock()
	return c.form.SetSessionState(map[string]any{})
}

// SessionState returns the live session state map, shared by reference
// with every rendered control.
func (c *Client) SessionState() domain.SessionState {
	return c.form.State()
}

// Tree returns the node tree from the latest response.
func (c *Client) Tree() []domain.TreeNode {
	return c.form.Tree()
}

// Orchestrator exposes the underlying form for advanced wiring.
func (c *Client) Orchestrator() *Form {
	return c.form
}

// WaitIdle blocks until no edit is pending and no submission is in flight,
// or ctx is done. Debounced edits settle in two steps (timer fire, then
// the round trip), so callers wait here rather than on individual phases.
func (c *Client) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if c.form.Phase() == runtime.PhaseIdle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Apply installs a backend response directly, without a round trip. Useful
// for embedding a pre-rendered payload or driving tests.
func (c *Client) Apply(resp *domain.Response) {
	c.form.Apply(resp)
}

// Render renders the current tree into the element structure hosts draw
// from. Bindings persist between calls keyed by control identity; a
// control absent from one render cycle loses its binding.
func (c *Client) Render() []*Element {
	rc := &render.Context{
		State:           c.form.State(),
		OnChange:        c.form.HandleChange,
		OnBlur:          c.form.HandleBlur,
		DebouncePending: c.form.DebouncePending,
		Bindings:        c.bindings,
		Scripts:         c.scripts,
		Logger:          c.logger,
	}
	return c.registry.RenderTree(rc, c.form.Tree())
}

// Close stops the realtime subscription and cancels in-flight work.
func (c *Client) Close() error {
	c.cancel()
	return nil
}

// onResponse runs after every applied response: it follows the channel set
// for realtime and starts upload watchers for new file fields.
func (c *Client) onResponse(resp *domain.Response) {
	if resp == nil {
		return
	}
	c.resubscribe(resp.Channels)
	c.watchUploads(resp.Children)
}

func (c *Client) resubscribe(channels []string) {
	if c.realtime == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if slices.Equal(channels, c.channels) {
		return
	}
	if c.rtCancel != nil {
		c.rtCancel()
		c.rtCancel = nil
	}
	c.channels = slices.Clone(channels)
	if len(channels) == 0 {
		return
	}

	subCtx, cancel := context.WithCancel(c.ctx)
	events, err := c.realtime.Subscribe(subCtx, channels)
	if err != nil {
		// degrade to user-driven interaction only
		cancel()
		c.logger.Warn("realtime subscribe failed", "err", err)
		return
	}
	c.rtCancel = cancel
	c.logger.Debug("realtime subscribed", "channels", channels)
	go func() {
		for range events {
			c.form.RealtimeEvent()
		}
		if subCtx.Err() == nil {
			// the source closed the stream on its own; the page stays
			// usable through user-driven submits
			c.logger.Warn("realtime stream lost", "err", domain.ErrChannelClosed)
		}
	}()
}

func (c *Client) watchUploads(tree []domain.TreeNode) {
	if c.uploads == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	domain.WalkAll(tree, func(n domain.TreeNode) bool {
		if n.InputType() != "file" || n.FieldName() == "" || c.watched[n.FieldName()] {
			return true
		}
		c.watched[n.FieldName()] = true
		if err := c.uploads.Watch(c.ctx, upload.SpecFromNode(n)); err != nil {
			c.logger.Warn("upload watch failed", "field", n.FieldName(), "err", err)
		}
		return true
	})
}

// applyUpload routes a finished upload set into the immediate submission
// path; file carriers never debounce.
func (c *Client) applyUpload(field, value string) {
	c.form.HandleChange(render.ChangeEvent{Field: field, Kind: "file", Value: value})
}
