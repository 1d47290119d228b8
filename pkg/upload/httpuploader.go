package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lattice/pkg/ports"
)

// HTTPUploader implements ports.Uploader over a multipart upload endpoint.
// Each file POSTs as a "file" part; the endpoint answers {"url": "..."}.
// Hosts feed it local paths via Add; completions fan out to the watcher
// registered by Start.
type HTTPUploader struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger

	mu      sync.Mutex
	watches map[string]*watchEntry
}

type watchEntry struct {
	spec       ports.UploadSpec
	onComplete func([]ports.CompletedUpload)
	done       []ports.CompletedUpload
}

// HTTPUploaderOption configures an HTTPUploader.
type HTTPUploaderOption func(*HTTPUploader)

// WithUploadClient overrides the HTTP client.
func WithUploadClient(client *http.Client) HTTPUploaderOption {
	return func(u *HTTPUploader) {
		if client != nil {
			u.client = client
		}
	}
}

// WithUploadLogger sets the logger.
func WithUploadLogger(logger *slog.Logger) HTTPUploaderOption {
	return func(u *HTTPUploader) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// NewHTTPUploader creates an uploader posting to endpoint.
func NewHTTPUploader(endpoint string, opts ...HTTPUploaderOption) *HTTPUploader {
	u := &HTTPUploader{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
		logger:   slog.New(slog.DiscardHandler),
		watches:  make(map[string]*watchEntry),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

var _ ports.Uploader = (*HTTPUploader)(nil)

// Start registers a watcher for the field. A field restarted by a new tree
// keeps its completed set; the spec is refreshed in place.
func (u *HTTPUploader) Start(ctx context.Context, spec ports.UploadSpec, onComplete func([]ports.CompletedUpload)) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if entry, ok := u.watches[spec.Name]; ok {
		entry.spec = spec
		entry.onComplete = onComplete
		return nil
	}
	u.watches[spec.Name] = &watchEntry{spec: spec, onComplete: onComplete}
	return nil
}

// Add uploads local files for a watched field and reports the grown
// completion set. Files rejected by the accept filter and transport
// failures land in the set as per-file errors.
func (u *HTTPUploader) Add(ctx context.Context, field string, paths ...string) error {
	u.mu.Lock()
	entry, ok := u.watches[field]
	u.mu.Unlock()
	if !ok {
		return fmt.Errorf("field %q has no upload watcher", field)
	}

	for _, path := range paths {
		completed := ports.CompletedUpload{CompletedAt: time.Now()}
		if err := accepts(entry.spec.Accept, path); err != nil {
			completed.Err = err
		} else if url, err := u.post(ctx, path); err != nil {
			completed.Err = err
			u.logger.Warn("upload failed", "field", field, "path", path, "err", err)
		} else {
			completed.URL = url
			u.logger.Debug("upload complete", "field", field, "url", url)
		}

		u.mu.Lock()
		entry.done = append(entry.done, completed)
		done := append([]ports.CompletedUpload(nil), entry.done...)
		notify := entry.onComplete
		u.mu.Unlock()

		if notify != nil {
			notify(done)
		}
	}
	return nil
}

// Clear drops the completed set for a field and notifies with the empty
// list, blanking the carrier.
func (u *HTTPUploader) Clear(field string) {
	u.mu.Lock()
	entry, ok := u.watches[field]
	if ok {
		entry.done = nil
	}
	var notify func([]ports.CompletedUpload)
	if ok {
		notify = entry.onComplete
	}
	u.mu.Unlock()
	if notify != nil {
		notify(nil)
	}
}

func (u *HTTPUploader) post(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var body strings.Builder
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, strings.NewReader(body.String()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("upload endpoint replied %s", resp.Status)
	}

	var payload struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if payload.URL == "" {
		return "", fmt.Errorf("upload endpoint returned no url")
	}
	return payload.URL, nil
}

// accepts checks a path against the accept filter. Entries are either
// extensions (".pdf") or mime prefixes ("image/*"); extension entries match
// case-insensitively, mime entries match by a best-effort extension guess.
func accepts(accept []string, path string) error {
	if len(accept) == 0 {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range accept {
		a = strings.TrimSpace(strings.ToLower(a))
		switch {
		case a == "":
			continue
		case strings.HasPrefix(a, "."):
			if a == ext {
				return nil
			}
		case strings.HasSuffix(a, "/*"):
			if guessMime(ext, strings.TrimSuffix(a, "/*")) {
				return nil
			}
		default:
			if a == ext || "."+a == ext {
				return nil
			}
		}
	}
	return fmt.Errorf("file type %q not accepted", ext)
}

// guessMime maps common extensions onto top-level mime families, enough for
// client-side accept filtering. The endpoint still validates for real.
func guessMime(ext, family string) bool {
	families := map[string][]string{
		"image": {".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"},
		"video": {".mp4", ".webm", ".mov", ".avi"},
		"audio": {".mp3", ".wav", ".ogg", ".flac"},
		"text":  {".txt", ".md", ".csv"},
	}
	for _, e := range families[family] {
		if e == ext {
			return true
		}
	}
	return false
}
