package http_test

import (
	"bufio"
	"context"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	latticehttp "github.com/aretw0/lattice/pkg/adapters/http"
)

// fakeSource is a RealtimeSource the test can tick by hand.
type fakeSource struct {
	gotChannels []string
	events      chan struct{}
}

func (f *fakeSource) Subscribe(ctx context.Context, channels []string) (<-chan struct{}, error) {
	f.gotChannels = channels
	return f.events, nil
}

func TestGateway_Health(t *testing.T) {
	gw := latticehttp.NewGateway(nil)
	srv := httptest.NewServer(gw)
	defer srv.Close()

	resp, err := stdhttp.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestGateway_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "lattice_test_total"})
	reg.MustRegister(counter)
	counter.Inc()

	gw := latticehttp.NewGateway(nil, latticehttp.WithMetricsGatherer(reg))
	srv := httptest.NewServer(gw)
	defer srv.Close()

	resp, err := stdhttp.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "lattice_test_total 1")
}

func TestGateway_RealtimeStream(t *testing.T) {
	source := &fakeSource{events: make(chan struct{}, 1)}
	gw := latticehttp.NewGateway(source)
	srv := httptest.NewServer(gw)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := stdhttp.NewRequestWithContext(ctx, stdhttp.MethodGet, srv.URL+"/__/realtime/?channels=run/1,run/2", nil)
	require.NoError(t, err)
	resp, err := stdhttp.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	// connection handshake
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping", strings.TrimSpace(line))

	source.events <- struct{}{}

	var sawState bool
	for !sawState {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.TrimSpace(line) == "event: state" {
			sawState = true
		}
	}
	assert.Equal(t, []string{"run/1", "run/2"}, source.gotChannels)

	// source closing ends the stream
	close(source.events)
	for {
		if _, err = reader.ReadString('\n'); err != nil {
			break
		}
	}
	assert.ErrorIs(t, err, io.EOF)
}

func TestGateway_RealtimeRequiresChannels(t *testing.T) {
	gw := latticehttp.NewGateway(&fakeSource{events: make(chan struct{})})
	srv := httptest.NewServer(gw)
	defer srv.Close()

	resp, err := stdhttp.Get(srv.URL + "/__/realtime/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, stdhttp.StatusBadRequest, resp.StatusCode)
}

func TestGateway_RealtimeWithoutSource(t *testing.T) {
	gw := latticehttp.NewGateway(nil)
	srv := httptest.NewServer(gw)
	defer srv.Close()

	resp, err := stdhttp.Get(srv.URL + "/__/realtime/?channels=a")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, stdhttp.StatusServiceUnavailable, resp.StatusCode)
}
