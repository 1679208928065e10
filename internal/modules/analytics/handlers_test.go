package analytics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camdash/camdash/internal/database"
	"github.com/camdash/camdash/internal/modules/snapshots"
)

type fakeActions struct {
	ids map[string]bool
}

func (f *fakeActions) RecentlyActioned(days int) (map[string]bool, error) {
	return f.ids, nil
}

// writeDailyMetrics writes a 14-day snapshot where spend clearly works:
// previous week 100/400/10/100 per day, current week 130/560/14/130.
func writeDailyMetrics(t *testing.T, dir string) {
	t.Helper()
	anchor, err := time.Parse("2006-01-02", "2026-08-20")
	require.NoError(t, err)

	metrics := make([]map[string]interface{}, 0, 14)
	for i := 0; i < 14; i++ {
		spend, sales, nc, amz := 100.0, 400.0, 10, 100.0
		if i >= 7 {
			spend, sales, nc, amz = 130.0, 560.0, 14, 130.0
		}
		metrics = append(metrics, map[string]interface{}{
			"date":           anchor.AddDate(0, 0, i-13).Format("2006-01-02"),
			"spend":          spend,
			"sales":          sales,
			"orders":         nc * 2,
			"nc_orders":      nc,
			"amz_us_sales":   amz,
			"google_spend":   spend * 0.6,
			"facebook_spend": spend * 0.4,
		})
	}

	data, err := json.Marshal(map[string]interface{}{"metrics": metrics})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "daily_metrics.json"), data, 0644))
}

func setupHandlers(t *testing.T, actions RecentActions) (*Handlers, *HistoryRepository) {
	t.Helper()

	dir := t.TempDir()
	writeDailyMetrics(t, dir)
	store := snapshots.NewStore(dir, zerolog.Nop())
	require.NoError(t, store.Reload())

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	history := NewHistoryRepository(db.Conn(), zerolog.Nop())
	h := NewHandlers(store, NewEngine(DefaultConfig()), history, actions, zerolog.Nop())
	return h, history
}

func metricsRouter(h *Handlers) chi.Router {
	r := chi.NewRouter()
	r.Mount("/api/metrics", h.Routes())
	r.Mount("/api/analysis", h.HistoryRoutes())
	return r
}

func TestHandleCorrelation(t *testing.T) {
	h, history := setupHandlers(t, nil)
	router := metricsRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/metrics/correlation?days=7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var result SpendOutcomeCorrelation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, VerdictConfident, result.Verdict.Status)
	assert.Equal(t, DirectionUp, result.SpendDirection)
	assert.Equal(t, 7, result.Period.Days)

	// Reads never write history; runs are recorded by the refresh job.
	runs, err := history.List(10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestHandleCorrelation_InvalidDays(t *testing.T) {
	h, _ := setupHandlers(t, nil)
	router := metricsRouter(h)

	for _, q := range []string{"days=3", "days=abc", "days=0"} {
		req := httptest.NewRequest(http.MethodGet, "/api/metrics/correlation?"+q, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestHandleCorrelation_InsufficientData(t *testing.T) {
	h, _ := setupHandlers(t, nil)
	router := metricsRouter(h)

	// 30-day comparison needs 60 days; the snapshot has 14.
	req := httptest.NewRequest(http.MethodGet, "/api/metrics/correlation?days=30", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Need at least 60 days of data, have 14", body["detail"])
}

func TestHandleChannelCorrelation(t *testing.T) {
	h, _ := setupHandlers(t, nil)
	router := metricsRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/metrics/correlation/channels?days=7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var result ChannelCorrelationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Channels, 2)
	assert.Greater(t, result.Channels["google"].SpendChangePct, 0.0)
}

func TestHandleRecommendations_FiltersActioned(t *testing.T) {
	h, _ := setupHandlers(t, nil)
	router := metricsRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/metrics/recommendations?days=7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var first RecommendationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, StrategyScale, first.Strategy.Overall)
	require.NotEmpty(t, first.Recommendations)

	// Same request with the top recommendation marked done drops it.
	h2, _ := setupHandlers(t, &fakeActions{ids: map[string]bool{first.Recommendations[0].ID: true}})
	router2 := metricsRouter(h2)
	rec2 := httptest.NewRecorder()
	router2.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/api/metrics/recommendations?days=7", nil))
	require.Equal(t, http.StatusOK, rec2.Code)

	var second RecommendationsResponse
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &second))
	assert.Len(t, second.Recommendations, len(first.Recommendations)-1)
}

func TestHandleHaloTrend(t *testing.T) {
	h, _ := setupHandlers(t, nil)
	router := metricsRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/metrics/halo-effect?days=30", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var result HaloTrend
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 14, result.Summary.DataPoints)
	assert.NotEmpty(t, result.Summary.CorrelationStrength)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/metrics/halo-effect?days=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSummary(t *testing.T) {
	h, _ := setupHandlers(t, nil)
	router := metricsRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/metrics/summary?days=7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	for _, key := range []string{"period", "verdict", "strategy", "efficiency", "top_actions"} {
		assert.Contains(t, body, key)
	}
}

func TestHandleTimeframes(t *testing.T) {
	h, _ := setupHandlers(t, nil)
	router := metricsRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/metrics/timeframes", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		DaysLoaded int `json:"days_loaded"`
		Timeframes []struct {
			Days      int  `json:"days"`
			Required  int  `json:"required"`
			Available bool `json:"available"`
		} `json:"timeframes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 14, body.DaysLoaded)
	require.Len(t, body.Timeframes, 3)
	assert.True(t, body.Timeframes[0].Available)  // 7-day needs 14
	assert.False(t, body.Timeframes[1].Available) // 14-day needs 28
	assert.False(t, body.Timeframes[2].Available) // 30-day needs 60
}

func TestHandleHistoryEndpoints(t *testing.T) {
	h, history := setupHandlers(t, nil)
	router := metricsRouter(h)

	// Record one run the way the refresh job does.
	result, err := NewEngine(DefaultConfig()).ComputeCorrelation(buildSeries(t,
		dayValues{spend: 100, revenue: 200, newCustomers: 5, amazon: 50},
		dayValues{spend: 150, revenue: 300, newCustomers: 8, amazon: 80},
		7), 7)
	require.NoError(t, err)
	_, err = history.Record(result)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Runs []AnalysisRun `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Runs, 1)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/analysis/history/%d", list.Runs[0].ID), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var payload SpendOutcomeCorrelation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, VerdictConfident, payload.Verdict.Status)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/history/9999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
