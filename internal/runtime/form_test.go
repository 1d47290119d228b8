package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice/internal/render"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/transform"
)

// fakeClock fires debounce timers only when told to.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	mu      sync.Mutex
	fn      func()
	pending bool
	resets  int
}

func (c *fakeClock) AfterFunc(_ time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{fn: fn, pending: true}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := t.pending
	t.pending = false
	return was
}

func (t *fakeTimer) Reset(time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := t.pending
	t.pending = true
	t.resets++
	return was
}

// Fire simulates the debounce window elapsing.
func (c *fakeClock) Fire() {
	c.mu.Lock()
	timers := append([]*fakeTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range timers {
		t.mu.Lock()
		pending := t.pending
		t.pending = false
		fn := t.fn
		t.mu.Unlock()
		if pending {
			fn()
		}
	}
}

// fakeBackend records submissions and optionally blocks until released.
type fakeBackend struct {
	mu      sync.Mutex
	subs    []domain.Submission
	resp    *domain.Response
	err     error
	release chan struct{}
}

func (b *fakeBackend) Submit(_ context.Context, sub domain.Submission) (*domain.Response, error) {
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	release := b.release
	b.mu.Unlock()
	if release != nil {
		<-release
	}
	if b.err != nil {
		return nil, b.err
	}
	if b.resp != nil {
		return b.resp, nil
	}
	// echo the submitted state back, like a backend that accepts the edit
	return &domain.Response{State: sub.State.Clone()}, nil
}

func (b *fakeBackend) submissions() []domain.Submission {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Submission(nil), b.subs...)
}

func waitIdle(t *testing.T, f *Form) {
	t.Helper()
	require.Eventually(t, func() bool { return f.Phase() == PhaseIdle },
		time.Second, time.Millisecond, "form never returned to idle")
}

func TestForm_DebounceCollapsing(t *testing.T) {
	clock := &fakeClock{}
	backend := &fakeBackend{}
	f := NewForm(WithBackend(backend), WithClock(clock))
	f.Apply(&domain.Response{
		Children: []domain.TreeNode{{Name: "input", Props: map[string]any{"type": "text", "name": "q"}}},
		State:    domain.SessionState{"q": "a"},
	})

	// N rapid edits within the window
	for _, v := range []string{"ab", "abc", "abcd"} {
		f.State()["q"] = v
		f.HandleChange(render.ChangeEvent{Field: "q", Kind: "text", Value: v})
	}
	assert.True(t, f.DebouncePending(), "debounce flag should be set while pending")
	assert.Empty(t, backend.submissions(), "nothing submits before the window elapses")

	clock.Fire()
	waitIdle(t, f)

	subs := backend.submissions()
	require.Len(t, subs, 1, "N rapid edits must collapse to one submission")
	assert.Equal(t, "abcd", subs[0].State["q"], "submission carries only the last value")
	assert.False(t, f.DebouncePending())
}

func TestForm_EndToEndText(t *testing.T) {
	// tree [{input text q, defaultValue a}], state {q:"a"}: type "ab",
	// wait out the window, expect one submission with q == "ab"
	clock := &fakeClock{}
	backend := &fakeBackend{}
	f := NewForm(WithBackend(backend), WithClock(clock))
	f.Apply(&domain.Response{
		Children: []domain.TreeNode{{Name: "input", Props: map[string]any{
			"type": "text", "name": "q", "defaultValue": "a",
		}}},
		State: domain.SessionState{"q": "a"},
	})

	rc := &render.Context{
		State:           f.State(),
		OnChange:        f.HandleChange,
		OnBlur:          f.HandleBlur,
		DebouncePending: f.DebouncePending,
		Bindings:        render.NewBindingCache(),
	}
	elements := render.Builtins().RenderTree(rc, f.Tree())
	ctrl := elements[0].Control.(*render.TextControl)
	require.Equal(t, "a", ctrl.Value())

	ctrl.Input("ab")
	clock.Fire()
	waitIdle(t, f)

	subs := backend.submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "ab", subs[0].State["q"])
	assert.Equal(t, "text", subs[0].Transforms["q"])
}

func TestForm_CheckboxSubmitsImmediately(t *testing.T) {
	backend := &fakeBackend{}
	f := NewForm(WithBackend(backend), WithClock(&fakeClock{}))
	f.Apply(&domain.Response{
		Children: []domain.TreeNode{{Name: "input", Props: map[string]any{
			"type": "checkbox", "name": "agree",
		}}},
		State: domain.SessionState{"agree": false},
	})

	rc := &render.Context{
		State:           f.State(),
		OnChange:        f.HandleChange,
		DebouncePending: f.DebouncePending,
		Bindings:        render.NewBindingCache(),
	}
	elements := render.Builtins().RenderTree(rc, f.Tree())
	elements[0].Control.(*render.CheckedControl).SetChecked(true)
	waitIdle(t, f)

	subs := backend.submissions()
	require.Len(t, subs, 1, "checkbox edits submit with no debounce")

	// the receiver decodes via the attached manifest
	decoded := subs[0].State.Clone()
	transform.Map(subs[0].Transforms).Apply(decoded)
	assert.Equal(t, true, decoded["agree"])
}

func TestForm_NumberStepperWaitsForBlur(t *testing.T) {
	backend := &fakeBackend{}
	f := NewForm(WithBackend(backend), WithClock(&fakeClock{}))
	f.Apply(&domain.Response{
		Children: []domain.TreeNode{{Name: "input", Props: map[string]any{
			"type": "number", "name": "n",
		}}},
		State: domain.SessionState{"n": "1"},
	})

	// several edits before focus leaves: all swallowed
	for _, v := range []string{"2", "25", "250"} {
		f.State()["n"] = v
		f.HandleChange(render.ChangeEvent{Field: "n", Kind: "number", Value: v, Focused: true})
	}
	assert.Empty(t, backend.submissions(), "no submission before blur")

	f.HandleBlur("n")
	waitIdle(t, f)
	require.Len(t, backend.submissions(), 1, "exactly one submission fires on blur")

	// a second blur without a pending edit is a no-op
	f.HandleBlur("n")
	time.Sleep(5 * time.Millisecond)
	assert.Len(t, backend.submissions(), 1)
}

func TestForm_AtMostOneInFlight(t *testing.T) {
	backend := &fakeBackend{release: make(chan struct{})}
	f := NewForm(WithBackend(backend), WithClock(&fakeClock{}))
	f.Apply(&domain.Response{State: domain.SessionState{"x": 1}})

	require.NoError(t, f.Rerun())
	require.Eventually(t, func() bool { return len(backend.submissions()) == 1 },
		time.Second, time.Millisecond)

	err := f.Rerun()
	assert.ErrorIs(t, err, domain.ErrSubmissionInFlight)

	close(backend.release)
	waitIdle(t, f)
	assert.Len(t, backend.submissions(), 1, "second rerun must not create a request")
}

func TestForm_EditDuringFlightReapplies(t *testing.T) {
	backend := &fakeBackend{
		release: make(chan struct{}),
		resp:    &domain.Response{State: domain.SessionState{"q": "server-fresh"}},
	}
	f := NewForm(WithBackend(backend), WithClock(&fakeClock{}))
	f.Apply(&domain.Response{State: domain.SessionState{"q": "old"}})

	require.NoError(t, f.Rerun())
	require.Eventually(t, func() bool { return len(backend.submissions()) == 1 },
		time.Second, time.Millisecond)

	// an edit lands after the snapshot but before the response
	f.State()["q"] = "typed-mid-flight"
	f.HandleChange(render.ChangeEvent{Field: "q", Kind: "text", Value: "typed-mid-flight"})

	close(backend.release)
	waitIdle(t, f)

	// the response must not silently overwrite the newer edit
	assert.Equal(t, "typed-mid-flight", f.State()["q"])
}

func TestForm_RealtimeEvents(t *testing.T) {
	t.Run("idle triggers rerun", func(t *testing.T) {
		backend := &fakeBackend{}
		f := NewForm(WithBackend(backend), WithClock(&fakeClock{}))
		f.Apply(&domain.Response{State: domain.SessionState{}})

		f.RealtimeEvent()
		waitIdle(t, f)
		assert.Len(t, backend.submissions(), 1)
	})

	t.Run("in flight drops the event", func(t *testing.T) {
		backend := &fakeBackend{release: make(chan struct{})}
		f := NewForm(WithBackend(backend), WithClock(&fakeClock{}))
		f.Apply(&domain.Response{State: domain.SessionState{}})

		require.NoError(t, f.Rerun())
		require.Eventually(t, func() bool { return len(backend.submissions()) == 1 },
			time.Second, time.Millisecond)
		f.RealtimeEvent()

		close(backend.release)
		waitIdle(t, f)
		assert.Len(t, backend.submissions(), 1, "realtime during flight is dropped, not queued")
	})
}

func TestForm_TransportFailureKeepsEdits(t *testing.T) {
	backend := &fakeBackend{err: context.DeadlineExceeded}
	var boundaryErr error
	f := NewForm(
		WithBackend(backend),
		WithClock(&fakeClock{}),
		WithErrorBoundary(func(err error) { boundaryErr = err }),
	)
	f.Apply(&domain.Response{State: domain.SessionState{"q": "typed"}})

	require.NoError(t, f.Rerun())
	waitIdle(t, f)

	assert.ErrorIs(t, boundaryErr, context.DeadlineExceeded)
	assert.Equal(t, "typed", f.State()["q"], "edits are not rolled back on failure")
	assert.Equal(t, PhaseIdle, f.Phase(), "failed submission returns the form to idle")
}

func TestForm_SubmitterAttached(t *testing.T) {
	backend := &fakeBackend{}
	f := NewForm(WithBackend(backend), WithClock(&fakeClock{}))
	f.Apply(&domain.Response{State: domain.SessionState{"q": "v"}})

	f.HandleChange(render.ChangeEvent{Field: "__run", Kind: "button", Value: "go", Submitter: true})
	waitIdle(t, f)

	subs := backend.submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "go", subs[0].State["__run"], "submitter rides under its own field name")
	assert.Equal(t, "v", subs[0].State["q"])
}

func TestForm_UploadCarrierLandsInState(t *testing.T) {
	// upload completions have no binding writing the shared map for them;
	// the change event is the only carrier of the URL list
	backend := &fakeBackend{}
	f := NewForm(WithBackend(backend), WithClock(&fakeClock{}))
	f.Apply(&domain.Response{
		Children: []domain.TreeNode{{Name: "input", Props: map[string]any{
			"type": "file", "name": "attachment",
		}}},
		State: domain.SessionState{},
	})

	f.HandleChange(render.ChangeEvent{Field: "attachment", Kind: "file", Value: `["https://files/x.pdf"]`})
	waitIdle(t, f)

	subs := backend.submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, `["https://files/x.pdf"]`, subs[0].State["attachment"], "submitted snapshot carries the URL list")
	assert.Equal(t, `["https://files/x.pdf"]`, f.State()["attachment"])
}

func TestForm_ProgrammaticSurface(t *testing.T) {
	backend := &fakeBackend{}
	f := NewForm(WithBackend(backend), WithClock(&fakeClock{}))
	f.Apply(&domain.Response{State: domain.SessionState{"a": 1, "b": 2}})

	require.NoError(t, f.UpdateSessionState(map[string]any{"b": 20, "c": 30}))
	waitIdle(t, f)
	subs := backend.submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, 20, subs[0].State["b"])
	assert.Equal(t, 30, subs[0].State["c"])

	// replace-by-key: keys absent from the replacement become nil
	require.NoError(t, f.SetSessionState(map[string]any{"a": 9}))
	waitIdle(t, f)
	subs = backend.submissions()
	require.Len(t, subs, 2)
	assert.Equal(t, 9, subs[1].State["a"])
	assert.Nil(t, subs[1].State["b"])
}

func TestForm_SubmitDisabled(t *testing.T) {
	backend := &fakeBackend{}
	f := NewForm(WithBackend(backend), WithClock(&fakeClock{}))
	f.Apply(&domain.Response{State: domain.SessionState{}})

	f.HandleChange(render.ChangeEvent{Field: "x", Kind: "checkbox", Value: "on", SubmitDisabled: true})
	time.Sleep(5 * time.Millisecond)
	assert.Empty(t, backend.submissions())
}
