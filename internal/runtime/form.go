package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lattice/internal/render"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/transform"
)

// Phase is the form's submission state.
type Phase int

const (
	// PhaseIdle: nothing scheduled, nothing in flight.
	PhaseIdle Phase = iota
	// PhaseEditPending: a debounced edit is waiting for its timer (or a
	// numeric stepper is waiting for blur).
	PhaseEditPending
	// PhaseSubmitting: one request is outstanding. No second submission
	// starts until it lands.
	PhaseSubmitting
)

// DefaultDebounce is the quiescence window for text-like edits.
const DefaultDebounce = 500 * time.Millisecond

// Form owns one logical form's tree, state and submission lifecycle.
type Form struct {
	mu sync.Mutex

	phase           Phase
	debouncePending bool
	blurPending     bool
	timer           Timer

	tree       []domain.TreeNode
	state      domain.SessionState
	transforms transform.Map
	channels   []string

	// dirty tracks edits made while a submission is in flight; they
	// re-apply last-write-wins on top of the fresh state when the
	// response lands.
	dirty map[string]any

	submitterName  string
	submitterValue any

	backend  ports.Backend
	clock    Clock
	delay    time.Duration
	logger   *slog.Logger
	metrics  *Metrics
	boundary func(error)

	// onResponse observes every applied response (e.g. to resubscribe
	// realtime channels). Called outside the lock.
	onResponse func(*domain.Response)

	ctx context.Context
}

// Option configures a Form.
type Option func(*Form)

// WithBackend sets the submission transport.
func WithBackend(b ports.Backend) Option {
	return func(f *Form) { f.backend = b }
}

// WithClock injects a timer source, for tests.
func WithClock(c Clock) Option {
	return func(f *Form) { f.clock = c }
}

// WithDebounce overrides the quiescence window.
func WithDebounce(d time.Duration) Option {
	return func(f *Form) { f.delay = d }
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Form) { f.logger = l }
}

// WithMetrics attaches submission metrics.
func WithMetrics(m *Metrics) Option {
	return func(f *Form) { f.metrics = m }
}

// WithErrorBoundary sets the page-level error sink for transport failures.
func WithErrorBoundary(fn func(error)) Option {
	return func(f *Form) { f.boundary = fn }
}

// WithResponseHook observes every applied response.
func WithResponseHook(fn func(*domain.Response)) Option {
	return func(f *Form) { f.onResponse = fn }
}

// WithContext sets the base context for outgoing submissions.
func WithContext(ctx context.Context) Option {
	return func(f *Form) { f.ctx = ctx }
}

// NewForm creates an idle form with no tree.
func NewForm(opts ...Option) *Form {
	f := &Form{
		state:      make(domain.SessionState),
		transforms: make(transform.Map),
		dirty:      make(map[string]any),
		clock:      RealClock(),
		delay:      DefaultDebounce,
		logger:     slog.New(slog.DiscardHandler),
		boundary:   func(error) {},
		ctx:        context.Background(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Phase reports the current submission phase.
func (f *Form) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// DebouncePending reports whether a debounced edit is scheduled. String
// bindings consult this before resyncing from server state.
func (f *Form) DebouncePending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.debouncePending
}

// State returns the live session state map (shared by reference).
func (f *Form) State() domain.SessionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Tree returns the current node tree.
func (f *Form) Tree() []domain.TreeNode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tree
}

// Channels returns the realtime channel set from the latest response.
func (f *Form) Channels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channels
}

// Transforms returns the current field-kind manifest.
func (f *Form) Transforms() transform.Map {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transforms
}

// Apply installs a backend response wholesale: new tree, new state, new
// transform manifest. Edits recorded while a submission was in flight
// re-apply on top, so they read as newer than the just-received state.
func (f *Form) Apply(resp *domain.Response) {
	f.mu.Lock()
	f.applyLocked(resp)
	hook := f.onResponse
	f.mu.Unlock()
	if hook != nil && resp != nil {
		hook(resp)
	}
}

func (f *Form) applyLocked(resp *domain.Response) {
	if resp == nil {
		return
	}
	fresh := resp.State
	if fresh == nil {
		fresh = make(domain.SessionState)
	}
	for field, value := range f.dirty {
		fresh[field] = value
	}
	f.dirty = make(map[string]any)
	f.tree = resp.Children
	f.state = fresh
	f.channels = resp.Channels
	f.transforms = transform.Build(resp.Children)
}

// HandleChange is the single entry point for every control edit. Dispatch
// follows the control class: text-like edits debounce, numeric steppers
// wait for blur, everything else submits immediately.
func (f *Form) HandleChange(ev render.ChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ev.SubmitDisabled {
		return
	}
	if ev.Field != "" && !ev.Submitter {
		// widget bindings write the shared map before firing; side-channel
		// events (upload carriers) carry their value only here
		f.state[ev.Field] = ev.Value
	}
	if f.phase == PhaseSubmitting && ev.Field != "" {
		// snapshot already taken; remember the edit for the next state
		f.dirty[ev.Field] = ev.Value
	}

	switch {
	case isTextLike(ev.Kind):
		f.debouncePending = true
		if f.phase != PhaseSubmitting {
			f.phase = PhaseEditPending
		}
		f.metrics.debounceScheduled()
		if f.timer == nil {
			f.timer = f.clock.AfterFunc(f.delay, f.onDebounceFire)
		} else {
			f.timer.Reset(f.delay)
		}
	case ev.Kind == "number" && ev.Focused:
		// steppers reject intermediate states while typing, so postpone
		// autocorrection until focus leaves the control; further edits
		// before blur are swallowed
		if f.debouncePending {
			return
		}
		f.debouncePending = true
		f.blurPending = true
		if f.phase != PhaseSubmitting {
			f.phase = PhaseEditPending
		}
	default:
		if ev.Submitter {
			f.submitterName = ev.Field
			f.submitterValue = ev.Value
		}
		f.submitLocked()
	}
}

// HandleBlur reports focus loss for a field; a postponed numeric edit
// submits exactly once here.
func (f *Form) HandleBlur(field string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.blurPending {
		return
	}
	f.blurPending = false
	f.debouncePending = false
	f.submitLocked()
}

func (f *Form) onDebounceFire() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.debouncePending {
		return
	}
	f.debouncePending = false
	f.submitLocked()
}

// Rerun submits the current state unchanged. Returns
// domain.ErrSubmissionInFlight when one is already outstanding.
func (f *Form) Rerun() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitLocked()
}

// UpdateSessionState shallow-merges partial into the state and submits.
func (f *Form) UpdateSessionState(partial map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Merge(partial)
	if f.phase == PhaseSubmitting {
		for k, v := range partial {
			f.dirty[k] = v
		}
	}
	return f.submitLocked()
}

// SetSessionState replaces the state by key and submits.
func (f *Form) SetSessionState(full map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.ReplaceByKey(full)
	return f.submitLocked()
}

// RealtimeEvent handles a server push: while idle the form resubmits
// unconditionally; while a submission is in flight the event is dropped.
func (f *Form) RealtimeEvent() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase != PhaseIdle {
		f.metrics.realtimeDropped()
		f.logger.Debug("realtime event dropped, form busy", "phase", int(f.phase))
		return
	}
	f.metrics.realtimeApplied()
	_ = f.submitLocked()
}

// submitLocked starts one submission; the caller holds f.mu.
func (f *Form) submitLocked() error {
	if f.backend == nil {
		return domain.ErrNoBackend
	}
	if f.phase == PhaseSubmitting {
		f.logger.Debug("submission suppressed, one already in flight")
		return domain.ErrSubmissionInFlight
	}
	f.phase = PhaseSubmitting
	f.debouncePending = false
	f.blurPending = false

	sub := domain.Submission{
		State:          f.state.Clone(),
		Transforms:     f.transforms,
		SubmitterName:  f.submitterName,
		SubmitterValue: f.submitterValue,
	}
	if sub.SubmitterName != "" {
		sub.State[sub.SubmitterName] = sub.SubmitterValue
	}
	f.submitterName = ""
	f.submitterValue = nil

	f.metrics.submitStarted()
	started := time.Now()
	go func() {
		resp, err := f.backend.Submit(f.ctx, sub)
		f.complete(resp, err, time.Since(started))
	}()
	return nil
}

// complete applies one submission outcome. Failure leaves the user's edits
// in place (nothing is rolled back) so a retry is just "try again".
func (f *Form) complete(resp *domain.Response, err error, took time.Duration) {
	f.mu.Lock()
	f.phase = PhaseIdle
	if err != nil {
		f.dirty = make(map[string]any)
		f.metrics.submitFinished("error", took)
		f.logger.Warn("submission failed", "err", err)
		boundary := f.boundary
		f.mu.Unlock()
		boundary(err)
		return
	}
	f.applyLocked(resp)
	f.metrics.submitFinished("ok", took)
	hook := f.onResponse
	f.mu.Unlock()
	if hook != nil {
		hook(resp)
	}
}

// isTextLike reports whether a control kind debounces. Generally text
// entry is slow and everything else is fast.
func isTextLike(kind string) bool {
	switch kind {
	case "text", "textarea", "email", "url", "password", "search", "tel", "code-editor":
		return true
	}
	return false
}
