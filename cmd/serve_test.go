//go:build !integration

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/hertta/internal/config"
	"github.com/sells-group/hertta/internal/pipeline"
	"github.com/sells-group/hertta/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestBuildMuxHealthEndpoint(t *testing.T) {
	mux := buildMux(nil, store.New())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestBuildMuxPostJobsAcceptsAndReportsFailure(t *testing.T) {
	st := store.New()
	p := pipeline.New(&config.Settings{}, st)
	mux := buildMux(p, st)

	// An empty job body has no scenarios, so the job is expected to fail
	// fast during expand.Expand's scenario-weight normalization, without
	// ever touching the solver subprocess.
	payload := jobRequestBody{}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader(raw))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)
	var accepted map[string]int64
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &accepted))
	jobID, ok := accepted["job_id"]
	require.True(t, ok)

	deadline := time.Now().Add(2 * time.Second)
	var job store.Job
	for time.Now().Before(deadline) {
		job, err = st.Get(jobID)
		require.NoError(t, err)
		if job.State == store.JobFailed || job.State == store.JobFinished {
			break
		}
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, store.JobFailed, job.State)

	statusReq := httptest.NewRequest(http.MethodGet, "/jobs/"+strconv.FormatInt(jobID, 10), nil)
	statusRR := httptest.NewRecorder()
	mux.ServeHTTP(statusRR, statusReq)
	assert.Equal(t, http.StatusOK, statusRR.Code)

	var view map[string]any
	require.NoError(t, json.Unmarshal(statusRR.Body.Bytes(), &view))
	assert.Equal(t, "Failed", view["state"])
	assert.NotEmpty(t, view["message"])
}

func TestBuildMuxGetJobsUnknownIDReturnsNotFound(t *testing.T) {
	st := store.New()
	mux := buildMux(nil, st)

	req := httptest.NewRequest(http.MethodGet, "/jobs/999", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBuildMuxPostJobsRejectsMalformedBody(t *testing.T) {
	st := store.New()
	mux := buildMux(nil, st)

	req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader([]byte("not json")))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
