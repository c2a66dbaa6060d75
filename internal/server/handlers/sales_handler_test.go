package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/plotsales/internal/domain/models"
	"github.com/mamadbah2/plotsales/internal/service/ledger"
)

type stubLedger struct {
	submitErr error
	loadErr   error
	submitted []models.RecordInput
}

func (s *stubLedger) Submit(_ context.Context, in models.RecordInput) (models.SalesRecord, error) {
	s.submitted = append(s.submitted, in)
	if s.submitErr != nil {
		return models.SalesRecord{}, s.submitErr
	}
	return models.SalesRecord{ID: "rec-1", ReportType: in.ReportType}, nil
}

func (s *stubLedger) Authorize(key string) error {
	if key != "good" {
		return ledger.ErrUnauthorized
	}
	return nil
}

func (s *stubLedger) Load(_ context.Context, key string) ([]models.SalesRecord, error) {
	if err := s.Authorize(key); err != nil {
		return nil, err
	}
	return nil, s.loadErr
}

func (s *stubLedger) Schedule(_ context.Context, key string) ([]models.ScheduleEntry, error) {
	return nil, s.Authorize(key)
}

type stubReports struct {
	exportErr error
	partial   bool
}

func (s *stubReports) Dashboard(context.Context) (models.DashboardSummary, error) {
	return models.DashboardSummary{}, nil
}

func (s *stubReports) Narrative(context.Context) string { return "steady week" }

func (s *stubReports) ExportCSV(_ context.Context, w io.Writer) error {
	if s.partial {
		_, _ = io.WriteString(w, "ID,Type\n")
	}
	return s.exportErr
}

func newEngine(h *SalesHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/records", h.ListRecords)
	r.POST("/records", h.SubmitRecord)
	r.GET("/export.csv", h.RequireAdmin(), h.ExportCSV)
	r.POST("/analysis", h.RequireAdmin(), h.Analysis)
	r.GET("/snapshot", h.RequireAdmin(), h.LatestSnapshot)
	return r
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitRecord_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "validation", err: &models.ValidationError{Field: "date", Reason: "is required"}, status: http.StatusBadRequest},
		{name: "lock timeout", err: ledger.ErrLockTimeout, status: http.StatusServiceUnavailable},
		{name: "store failure", err: errors.New("sheets down"), status: http.StatusBadGateway},
		{name: "ok", status: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &stubLedger{submitErr: tt.err}
			r := newEngine(NewSalesHandler(l, &stubReports{}, nil))

			w := serve(r, http.MethodPost, "/records", `{"reportType":"FINAL_PAYMENT","actualPrice":1,"receivedAmount":"1"}`)
			assert.Equal(t, tt.status, w.Code)
			require.Len(t, l.submitted, 1)
			assert.Equal(t, models.ReportFinalPayment, l.submitted[0].ReportType)
		})
	}
}

func TestSubmitRecord_ValidationCarriesField(t *testing.T) {
	l := &stubLedger{submitErr: &models.ValidationError{Field: "salesRep", Reason: "is required"}}
	r := newEngine(NewSalesHandler(l, &stubReports{}, nil))

	w := serve(r, http.MethodPost, "/records", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"salesRep"`)
}

func TestListRecords_StoreFailure(t *testing.T) {
	l := &stubLedger{loadErr: errors.New("timeout")}
	r := newEngine(NewSalesHandler(l, &stubReports{}, nil))

	w := serve(r, http.MethodGet, "/records?adminKey=good", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = serve(r, http.MethodGet, "/records", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"invalid admin key","data":[]}`, w.Body.String())
}

func TestExportCSV_Headers(t *testing.T) {
	h := NewSalesHandler(&stubLedger{}, &stubReports{partial: true}, nil)
	h.now = func() time.Time { return time.Date(2024, 5, 6, 23, 0, 0, 0, time.UTC) }
	r := newEngine(h)

	w := serve(r, http.MethodGet, "/export.csv?adminKey=good", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="sales_report_2024-05-06.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "ID,Type\n", w.Body.String())
}

func TestExportCSV_FailureBeforeWrite(t *testing.T) {
	r := newEngine(NewSalesHandler(&stubLedger{}, &stubReports{exportErr: errors.New("boom")}, nil))

	w := serve(r, http.MethodGet, "/export.csv?adminKey=good", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), "unable to export records")
}

func TestAnalysis(t *testing.T) {
	r := newEngine(NewSalesHandler(&stubLedger{}, &stubReports{}, nil))

	w := serve(r, http.MethodPost, "/analysis", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/analysis", nil)
	req.Header.Set(AdminKeyHeader, "good")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","analysis":"steady week"}`, rec.Body.String())
}

type stubSnapshots struct {
	snapshot *models.DailySnapshot
}

func (s stubSnapshots) LatestSnapshot(context.Context) (*models.DailySnapshot, error) {
	return s.snapshot, nil
}

func TestLatestSnapshot(t *testing.T) {
	h := NewSalesHandler(&stubLedger{}, &stubReports{}, nil)
	r := newEngine(h)

	w := serve(r, http.MethodGet, "/snapshot?adminKey=good", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	h.WithSnapshots(stubSnapshots{})
	w = serve(r, http.MethodGet, "/snapshot?adminKey=good", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	h.WithSnapshots(stubSnapshots{snapshot: &models.DailySnapshot{Date: "2024-05-06", Narrative: "calm"}})
	w = serve(r, http.MethodGet, "/snapshot?adminKey=good", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"2024-05-06"`)
}
