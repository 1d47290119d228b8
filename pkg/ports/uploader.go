package ports

import (
	"context"
	"time"
)

// CompletedUpload is one finished file upload for a field.
type CompletedUpload struct {
	URL         string
	CompletedAt time.Time
	Err         error // per-file failure; scoped to this file only
}

// Uploader is the external upload widget contract: given a field's
// configuration it owns transport and retry, and reports the final resource
// URL list for that field whenever uploads complete or are removed.
type Uploader interface {
	// Start begins watching a field. onComplete is invoked with the full
	// current list every time it changes.
	Start(ctx context.Context, spec UploadSpec, onComplete func([]CompletedUpload)) error
}

// UploadSpec describes one file input field.
type UploadSpec struct {
	Name     string   // field name (the state key's carrier input)
	Accept   []string // accepted mime types / extensions, nil = any
	Multiple bool
	Initial  any // value from the last server response
	Meta     map[string]string
}
