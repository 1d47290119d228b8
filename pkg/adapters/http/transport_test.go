package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	latticehttp "github.com/aretw0/lattice/pkg/adapters/http"
	"github.com/aretw0/lattice/pkg/domain"
)

func TestTransport_Submit(t *testing.T) {
	var gotBody map[string]any
	var gotQuery url.Values
	var gotContentType string

	srv := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		gotQuery = r.URL.Query()
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))

		json.NewEncoder(w).Encode(domain.Response{
			Children: []domain.TreeNode{{Name: "pre", Props: map[string]any{"body": "hi"}}},
			State:    domain.SessionState{"q": "go"},
			Channels: []string{"run/1"},
		})
	}))
	defer srv.Close()

	tr := latticehttp.NewTransport(srv.URL+"/page",
		latticehttp.WithQuery(url.Values{"run_id": {"r-1"}}),
		latticehttp.WithHeader("Cookie", "session=abc"),
	)

	resp, err := tr.Submit(context.Background(), domain.Submission{
		State:      domain.SessionState{"q": "go", "count": "3"},
		Transforms: map[string]string{"count": "number"},
	})
	require.NoError(t, err)

	assert.Equal(t, "r-1", gotQuery.Get("run_id"))
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, map[string]any{"q": "go", "count": "3"}, gotBody["state"])
	assert.Equal(t, map[string]any{"count": "number"}, gotBody["transforms"])

	require.Len(t, resp.Children, 1)
	assert.Equal(t, "pre", resp.Children[0].Name)
	assert.Equal(t, domain.SessionState{"q": "go"}, resp.State)
	assert.Equal(t, []string{"run/1"}, resp.Channels)
}

func TestTransport_NonSuccessIsTypedError(t *testing.T) {
	srv := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		stdhttp.Error(w, "boom", stdhttp.StatusBadGateway)
	}))
	defer srv.Close()

	tr := latticehttp.NewTransport(srv.URL)
	resp, err := tr.Submit(context.Background(), domain.Submission{State: domain.SessionState{}})
	require.Nil(t, resp)

	var statusErr *latticehttp.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, stdhttp.StatusBadGateway, statusErr.Code)
	assert.Contains(t, statusErr.Body, "boom")
}

func TestTransport_AbsentChildrenMeansEmpty(t *testing.T) {
	srv := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		io.WriteString(w, `{"state":{}}`)
	}))
	defer srv.Close()

	tr := latticehttp.NewTransport(srv.URL)
	resp, err := tr.Submit(context.Background(), domain.Submission{State: domain.SessionState{}})
	require.NoError(t, err)
	assert.Nil(t, resp.Children)
}

func TestTransport_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		io.WriteString(w, `not json`)
	}))
	defer srv.Close()

	tr := latticehttp.NewTransport(srv.URL)
	_, err := tr.Submit(context.Background(), domain.Submission{State: domain.SessionState{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}
