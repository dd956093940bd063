package dashboard

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiefleurent/fno_tracker/internal/models"
	"github.com/eddiefleurent/fno_tracker/internal/report"
	"github.com/eddiefleurent/fno_tracker/internal/storage"
)

func newTestServer(t *testing.T, token string) (*Server, *storage.MockStorage, string) {
	t.Helper()
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "report"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "performance"), 0o750))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := storage.NewMockStorage()
	s, err := NewServer(Config{Port: 0, AuthToken: token, BaseDir: base}, store, logger)
	require.NoError(t, err)
	return s, store, base
}

func get(t *testing.T, s *Server, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t, "")

	rec := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestAuthMiddleware(t *testing.T) {
	s, _, _ := newTestServer(t, "secret")

	assert.Equal(t, http.StatusUnauthorized, get(t, s, "/").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, s, "/", "X-Auth-Token", "wrong").Code)
	assert.Equal(t, http.StatusOK, get(t, s, "/", "X-Auth-Token", "secret").Code)
	assert.Equal(t, http.StatusOK, get(t, s, "/?token=secret").Code)
	assert.Equal(t, http.StatusOK, get(t, s, "/health").Code, "health bypasses auth")
}

func TestListReports_NewestFirst(t *testing.T) {
	s, _, base := newTestServer(t, "")
	dir := filepath.Join(base, "report")
	writeFile(t, filepath.Join(dir, "fno_evening_report_2025-06-18.md"), "# a")
	writeFile(t, filepath.Join(dir, "fno_morning_report_2025-06-19.md"), "# b")
	writeFile(t, filepath.Join(dir, "fno_evening_report_2025-06-19.md"), "# c")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	rec := get(t, s, "/api/reports")
	require.Equal(t, http.StatusOK, rec.Code)

	var reports []ReportInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reports))
	assert.Equal(t, []ReportInfo{
		{Name: "fno_evening_report_2025-06-19.md", Mode: "evening", Date: "2025-06-19"},
		{Name: "fno_morning_report_2025-06-19.md", Mode: "morning", Date: "2025-06-19"},
		{Name: "fno_evening_report_2025-06-18.md", Mode: "evening", Date: "2025-06-18"},
	}, reports)
}

func TestListReports_MissingDirectory(t *testing.T) {
	s, _, base := newTestServer(t, "")
	require.NoError(t, os.RemoveAll(filepath.Join(base, "report")))

	rec := get(t, s, "/api/reports")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestIndex(t *testing.T) {
	s, store, base := newTestServer(t, "")
	writeFile(t, filepath.Join(base, "report", "fno_evening_report_2025-06-19.md"), "# r")
	require.NoError(t, store.AppendPerformance(models.PerformanceLogEntry{
		Date: "2025-06-19", Symbol: "BANKNIFTY", Outcome: models.OutcomePending, Score: 70,
	}))

	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `href="/reports/fno_evening_report_2025-06-19.md"`)
	assert.Contains(t, body, "Total Trades: <strong>1</strong>")
	assert.Contains(t, body, "70.00")
}

func TestIndex_EmptyState(t *testing.T) {
	s, _, _ := newTestServer(t, "")

	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No reports yet.")
}

func TestReport_RendersMarkdown(t *testing.T) {
	s, _, base := newTestServer(t, "")
	md := "# 📊 FnO Tracker Report\n\n- Call OI: `1,200`\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"
	writeFile(t, filepath.Join(base, "report", "fno_evening_report_2025-06-19.md"), md)

	rec := get(t, s, "/reports/fno_evening_report_2025-06-19.md")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h1>📊 FnO Tracker Report</h1>")
	assert.Contains(t, body, "<code>1,200</code>")
	assert.Contains(t, body, "<table>")
}

func TestReport_NotFound(t *testing.T) {
	s, _, base := newTestServer(t, "")
	writeFile(t, filepath.Join(base, "report", "notes.md"), "# private")

	assert.Equal(t, http.StatusNotFound, get(t, s, "/reports/notes.md").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/reports/fno_morning_report_2025-01-01.md").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/reports/..%2Fconfig.yaml").Code)
}

func TestSummaryPage(t *testing.T) {
	s, _, base := newTestServer(t, "")
	sum := report.RenderSummary(report.Summary{}, true)
	writeFile(t, filepath.Join(base, "performance", report.SummaryFile), sum)

	rec := get(t, s, "/performance/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "FnO Performance Summary")
	assert.Contains(t, body, `src="`+report.HistogramFile+`"`)
}

func TestSummaryPage_Missing(t *testing.T) {
	s, _, _ := newTestServer(t, "")
	assert.Equal(t, http.StatusNotFound, get(t, s, "/performance/").Code)
}

func TestChart(t *testing.T) {
	s, _, base := newTestServer(t, "")
	png := "\x89PNG\r\n\x1a\nfake"
	writeFile(t, filepath.Join(base, "performance", report.OutcomePieFile), png)
	writeFile(t, filepath.Join(base, "performance", "performance_log.csv"), "Date\n")

	rec := get(t, s, "/performance/"+report.OutcomePieFile)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, png, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, s, "/performance/"+report.HistogramFile).Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/performance/performance_log.csv").Code)
}

func TestStats(t *testing.T) {
	s, store, _ := newTestServer(t, "")
	for _, e := range []models.PerformanceLogEntry{
		{Date: "2025-06-17", Symbol: "NIFTY", Outcome: models.OutcomeHitTarget, Score: 80},
		{Date: "2025-06-18", Symbol: "BANKNIFTY", Outcome: models.OutcomeHitStop, Score: 60},
		{Date: "2025-06-19", Symbol: "BANKNIFTY", Outcome: models.OutcomePending, Score: 70},
	} {
		require.NoError(t, store.AppendPerformance(e))
	}

	rec := get(t, s, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var got report.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 1, got.Wins)
	assert.Equal(t, 1, got.Losses)
	assert.Equal(t, 1, got.Pending)
	assert.Equal(t, 70.0, got.AvgScore)
	require.Len(t, got.Top, 3)
	assert.Equal(t, "NIFTY", got.Top[0].Symbol)
}

func TestStats_LoadError(t *testing.T) {
	s, store, _ := newTestServer(t, "")
	store.SetLoadError(errors.New("disk gone"))

	assert.Equal(t, http.StatusInternalServerError, get(t, s, "/api/stats").Code)
	assert.Equal(t, http.StatusInternalServerError, get(t, s, "/").Code)
}

func TestStaticAssets(t *testing.T) {
	s, _, _ := newTestServer(t, "")

	rec := get(t, s, "/static/style.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "font-family")
}
