package registry_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusk-dataflow/rusk/core/registry"
)

func newTestMux(t *testing.T) (http.Handler, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	reg := registry.New(ctx, 16)
	return reg.Mux(nil), cancel
}

func doJSON(t *testing.T, mux http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = httptest.NewRequest(method, path, bytes.NewReader(b))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

// TestS1CreateAndInspectSource exercises spec.md's S1 scenario: a freshly
// created source reports Stopped/count=0, Running after Start, and still
// count=0 after a tick with no peers.
func TestS1CreateAndInspectSource(t *testing.T) {
	t.Parallel()

	mux, cancel := newTestMux(t)
	defer cancel()

	w := doJSON(t, mux, http.MethodPost, "/processor/create", registry.RequestDetails{ProcessorName: "adder"})
	require.Equal(t, http.StatusOK, w.Code)

	var created registry.ResponseDetails
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, "Stopped", created.Status)
	assert.NotEmpty(t, created.ProcessorID)

	w = doJSON(t, mux, http.MethodGet, "/processor/get_info/"+created.ProcessorID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info registry.ProcessorInfo
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	assert.Equal(t, "Stopped", info.Status)
	assert.EqualValues(t, 0, info.PacketsProcessedCount)

	w = doJSON(t, mux, http.MethodPatch, "/processor/start", registry.RequestDetails{ProcessorID: created.ProcessorID})
	require.Equal(t, http.StatusOK, w.Code)
	var started registry.ResponseDetails
	require.NoError(t, json.NewDecoder(w.Body).Decode(&started))
	assert.Equal(t, "Running", started.Status)

	time.Sleep(300 * time.Millisecond)

	w = doJSON(t, mux, http.MethodGet, "/processor/get_info/"+created.ProcessorID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	assert.EqualValues(t, 0, info.PacketsProcessedCount, "no peers means no successful fan-out")
}

// TestS2ConnectAndStopStalls exercises spec.md's S2 scenario: connecting a
// running source to a running transform advances both counters, and
// stopping the source halts further advancement.
func TestS2ConnectAndStopStalls(t *testing.T) {
	t.Parallel()

	mux, cancel := newTestMux(t)
	defer cancel()

	w := doJSON(t, mux, http.MethodPost, "/processor/create", registry.RequestDetails{ProcessorName: "adder"})
	require.Equal(t, http.StatusOK, w.Code)
	var src registry.ResponseDetails
	require.NoError(t, json.NewDecoder(w.Body).Decode(&src))

	w = doJSON(t, mux, http.MethodPost, "/processor/create", registry.RequestDetails{ProcessorName: "doubler"})
	require.Equal(t, http.StatusOK, w.Code)
	var dst registry.ResponseDetails
	require.NoError(t, json.NewDecoder(w.Body).Decode(&dst))

	w = doJSON(t, mux, http.MethodPatch, "/processor/start", registry.RequestDetails{ProcessorID: dst.ProcessorID})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, mux, http.MethodPost, "/processor/connect", registry.ProcessorConnectionRequest{
		SourceProcessorID:      src.ProcessorID,
		DestinationProcessorID: dst.ProcessorID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, mux, http.MethodPatch, "/processor/start", registry.RequestDetails{ProcessorID: src.ProcessorID})
	require.Equal(t, http.StatusOK, w.Code)

	time.Sleep(300 * time.Millisecond)

	getCount := func(id string) int64 {
		w := doJSON(t, mux, http.MethodGet, "/processor/get_info/"+id, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var info registry.ProcessorInfo
		require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
		return info.PacketsProcessedCount
	}

	assert.GreaterOrEqual(t, getCount(src.ProcessorID), int64(1))
	assert.GreaterOrEqual(t, getCount(dst.ProcessorID), int64(1))

	w = doJSON(t, mux, http.MethodPatch, "/processor/stop", registry.RequestDetails{ProcessorID: src.ProcessorID})
	require.Equal(t, http.StatusOK, w.Code)

	after := getCount(src.ProcessorID)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, after, getCount(src.ProcessorID), "stopped source must not advance further")
}

// TestS4ConnectUnknownDestination is spec.md's S4: Connect to an id absent
// from the peers map returns 404.
func TestS4ConnectUnknownDestination(t *testing.T) {
	t.Parallel()

	mux, cancel := newTestMux(t)
	defer cancel()

	w := doJSON(t, mux, http.MethodPost, "/processor/create", registry.RequestDetails{ProcessorName: "adder"})
	require.Equal(t, http.StatusOK, w.Code)
	var src registry.ResponseDetails
	require.NoError(t, json.NewDecoder(w.Body).Decode(&src))

	w = doJSON(t, mux, http.MethodPost, "/processor/connect", registry.ProcessorConnectionRequest{
		SourceProcessorID:      src.ProcessorID,
		DestinationProcessorID: "00000000-0000-0000-0000-000000000000",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateUnknownProcessorName(t *testing.T) {
	t.Parallel()

	mux, cancel := newTestMux(t)
	defer cancel()

	w := doJSON(t, mux, http.MethodPost, "/processor/create", registry.RequestDetails{ProcessorName: "does-not-exist"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStatusUnknownID(t *testing.T) {
	t.Parallel()

	mux, cancel := newTestMux(t)
	defer cancel()

	w := doJSON(t, mux, http.MethodGet, "/processor/get_status?processor_id=00000000-0000-0000-0000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClusterInfoAggregatesEveryProcessor(t *testing.T) {
	t.Parallel()

	mux, cancel := newTestMux(t)
	defer cancel()

	w := doJSON(t, mux, http.MethodPost, "/processor/create", registry.RequestDetails{ProcessorName: "adder"})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, mux, http.MethodPost, "/processor/create", registry.RequestDetails{ProcessorName: "uppercase"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, mux, http.MethodGet, "/cluster/get_info", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var info registry.ClusterInfoResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	assert.Equal(t, "rusk", info.ClusterName)
	assert.Len(t, info.Processors, 2)
}
