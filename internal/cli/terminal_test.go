package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/runtime"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/upload"
)

type echoBackend struct {
	mu    sync.Mutex
	tree  []domain.TreeNode
	count int
}

func (b *echoBackend) Submit(_ context.Context, sub domain.Submission) (*domain.Response, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.count++
	return &domain.Response{Children: b.tree, State: sub.State.Clone()}, nil
}

func (b *echoBackend) submissions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func settle(t *testing.T, client *lattice.Client) {
	t.Helper()
	require.Eventually(t, func() bool {
		return client.Orchestrator().Phase() == runtime.PhaseIdle
	}, 2*time.Second, 5*time.Millisecond)
}

func newTestTerminal(t *testing.T) (*Terminal, *echoBackend, *bytes.Buffer) {
	t.Helper()
	backend := &echoBackend{tree: []domain.TreeNode{
		{Name: "markdown", Props: map[string]any{"body": "# Title"}},
		{Name: "input", Props: map[string]any{"type": "text", "name": "q", "label": "Query"}},
		{Name: "input", Props: map[string]any{"type": "checkbox", "name": "exact"}},
		{Name: "gui-button", Props: map[string]any{"name": "go", "label": "Search", "value": "yes"}},
	}}
	client, err := lattice.New("",
		lattice.WithBackend(backend),
		lattice.WithFormOptions(runtime.WithDebounce(time.Millisecond)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.Open())
	settle(t, client)

	out := &bytes.Buffer{}
	term := NewTerminal(client, out)
	term.Draw()
	return term, backend, out
}

func TestTerminal_DrawIndexesControls(t *testing.T) {
	term, _, out := newTestTerminal(t)

	assert.Contains(t, out.String(), "Query:")
	assert.Contains(t, out.String(), "(1) Search")
	assert.Contains(t, term.fields, "q")
	assert.Contains(t, term.fields, "exact")
	require.Len(t, term.buttons, 1)
}

func TestTerminal_SetTextField(t *testing.T) {
	term, backend, _ := newTestTerminal(t)

	changed, err := term.Handle("set q hello world")
	require.NoError(t, err)
	assert.True(t, changed)

	require.Eventually(t, func() bool {
		return backend.submissions() == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "hello world", term.client.SessionState()["q"])
}

func TestTerminal_ToggleAndPress(t *testing.T) {
	term, backend, _ := newTestTerminal(t)

	changed, err := term.Handle("toggle exact")
	require.NoError(t, err)
	assert.True(t, changed)
	settle(t, term.client)

	changed, err = term.Handle("press 1")
	require.NoError(t, err)
	assert.True(t, changed)
	require.Eventually(t, func() bool {
		return backend.submissions() == 3
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "yes", term.client.SessionState()["go"])
}

func TestTerminal_AttachUploadsIntoCarrier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		json.NewEncoder(w).Encode(map[string]string{"url": "https://cdn.test/" + header.Filename})
	}))
	defer srv.Close()

	backend := &echoBackend{tree: []domain.TreeNode{
		{Name: "input", Props: map[string]any{"type": "file", "name": "attachment"}},
	}}
	uploader := upload.NewHTTPUploader(srv.URL)
	client, err := lattice.New("",
		lattice.WithBackend(backend),
		lattice.WithUploader(uploader),
	)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Open())
	settle(t, client)

	term := NewTerminal(client, &bytes.Buffer{}, WithUploader(uploader))
	term.Draw()

	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("pdf"), 0o644))

	changed, err := term.Handle("attach attachment " + path)
	require.NoError(t, err)
	assert.True(t, changed)
	settle(t, client)

	var urls []string
	carrier, _ := client.SessionState()["attachment"].(string)
	require.NoError(t, json.Unmarshal([]byte(carrier), &urls))
	assert.Equal(t, []string{"https://cdn.test/report.pdf"}, urls)
}

func TestTerminal_AttachWithoutUploader(t *testing.T) {
	term, _, _ := newTestTerminal(t)
	_, err := term.Handle("attach q somefile")
	assert.ErrorContains(t, err, "no upload endpoint")
}

func TestTerminal_Errors(t *testing.T) {
	term, _, _ := newTestTerminal(t)

	_, err := term.Handle("set nosuch x")
	assert.Error(t, err)
	_, err = term.Handle("press 9")
	assert.Error(t, err)
	_, err = term.Handle("frobnicate")
	assert.Error(t, err)

	changed, err := term.Handle("state")
	require.NoError(t, err)
	assert.False(t, changed)
}
