package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/finmetrics/internal/analysis"
	"github.com/sells-group/finmetrics/internal/config"
	"github.com/sells-group/finmetrics/internal/model"
	"github.com/sells-group/finmetrics/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	return New(config.ServerConfig{Port: 8080}, st, nil, nil, analysis.PolicyConfidenceWeighted)
}

func sampleRequestBody(t *testing.T) []byte {
	t.Helper()

	req := map[string]any{
		"source": "test-company",
		"fact_set": map[string]any{
			"facts": map[string]any{
				"revenue":          1000000,
				"operating_profit": 150000,
				"depreciation":     50000,
				"amortization":     20000,
				"profit_after_tax": 80000,
			},
			"company_type": "general",
			"free_text":    "All figures reported in USD thousands.",
			"context": map[string]any{
				"period_date": 2023,
			},
			"external_confidence": 90,
		},
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return body
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAnalyze(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(sampleRequestBody(t)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	require.NotNil(t, resp.Result)
	require.NotNil(t, resp.Result.Metrics.Revenue)
	assert.InDelta(t, 1000000, *resp.Result.Metrics.Revenue, 0.001)
	require.NotNil(t, resp.Result.Metrics.EBITDA)
	assert.InDelta(t, 220000, *resp.Result.Metrics.EBITDA, 0.001)
	require.NotNil(t, resp.Result.CurrencyInfo.Code)
	assert.Equal(t, "USD", *resp.Result.CurrencyInfo.Code)

	// The run is persisted with the final result.
	run, err := srv.store.GetRun(context.Background(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, "test-company", run.Source)
	require.NotNil(t, run.Result)
}

func TestAnalyzeBadBody(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeMissingFactSet(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader([]byte(`{"source":"x"}`)))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "fact_set is required")
}

func TestAnalyzeNoNumericFacts(t *testing.T) {
	srv := newTestServer(t)

	body := []byte(`{"source":"empty-co","fact_set":{"facts":{"notes":"n/a"},"company_type":"general"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// The failed run is still recorded.
	runs, err := srv.store.ListRuns(context.Background(), store.RunFilter{Source: "empty-co"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
}

func TestAnalyzePolicyOverride(t *testing.T) {
	srv := newTestServer(t)

	var req map[string]any
	require.NoError(t, json.Unmarshal(sampleRequestBody(t), &req))
	req["policy"] = "completeness"
	body, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httpReq)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAnalyzeDocumentUnconfigured(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze/document", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListRuns(t *testing.T) {
	srv := newTestServer(t)

	for i := 0; i < 3; i++ {
		_, err := srv.store.CreateRun(context.Background(), fmt.Sprintf("co-%d", i))
		require.NoError(t, err)
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var runs []model.AnalysisRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	assert.Len(t, runs, 3)
}

func TestListRunsStatusFilter(t *testing.T) {
	srv := newTestServer(t)

	run, err := srv.store.CreateRun(context.Background(), "done-co")
	require.NoError(t, err)
	require.NoError(t, srv.store.UpdateRunStatus(context.Background(), run.ID, model.RunStatusComplete))
	_, err = srv.store.CreateRun(context.Background(), "queued-co")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs?status=complete", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var runs []model.AnalysisRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "done-co", runs[0].Source)
}

func TestListRunsEmpty(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestGetRun(t *testing.T) {
	srv := newTestServer(t)

	run, err := srv.store.CreateRun(context.Background(), "lookup-co")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/"+run.ID, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got model.AnalysisRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "lookup-co", got.Source)
}

func TestGetRunNotFound(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/does-not-exist", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
