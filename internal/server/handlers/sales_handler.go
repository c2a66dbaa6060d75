package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/plotsales/internal/domain/models"
	"github.com/mamadbah2/plotsales/internal/export"
	"github.com/mamadbah2/plotsales/internal/service/ledger"
)

// AdminKeyParam is the query parameter carrying the shared admin key.
const AdminKeyParam = "adminKey"

// AdminKeyHeader may carry the admin key instead of the query string.
const AdminKeyHeader = "X-Admin-Key"

// Ledger is the ingestion and read side used by the handler.
type Ledger interface {
	Submit(ctx context.Context, in models.RecordInput) (models.SalesRecord, error)
	Authorize(key string) error
	Load(ctx context.Context, key string) ([]models.SalesRecord, error)
	Schedule(ctx context.Context, key string) ([]models.ScheduleEntry, error)
}

// Reports is the dashboard side used by the handler.
type Reports interface {
	Dashboard(ctx context.Context) (models.DashboardSummary, error)
	Narrative(ctx context.Context) string
	ExportCSV(ctx context.Context, w io.Writer) error
}

// SnapshotReader exposes the archived daily snapshots.
type SnapshotReader interface {
	LatestSnapshot(ctx context.Context) (*models.DailySnapshot, error)
}

// SalesHandler serves sales submissions and the admin dashboard.
type SalesHandler struct {
	ledger    Ledger
	reports   Reports
	snapshots SnapshotReader
	logger    *zap.Logger
	now       func() time.Time
}

// NewSalesHandler constructs the HTTP handler adapter.
func NewSalesHandler(l Ledger, reports Reports, logger *zap.Logger) *SalesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalesHandler{ledger: l, reports: reports, logger: logger, now: time.Now}
}

// WithSnapshots enables the archived snapshot endpoint.
func (h *SalesHandler) WithSnapshots(r SnapshotReader) *SalesHandler {
	h.snapshots = r
	return h
}

// RequireAdmin rejects requests without the shared admin key.
func (h *SalesHandler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.ledger.Authorize(adminKey(c)); err != nil {
			h.logger.Warn("admin key rejected", zap.String("path", c.Request.URL.Path), zap.String("client_ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "data": []any{}})
			return
		}
		c.Next()
	}
}

// ListRecords returns every stored record.
func (h *SalesHandler) ListRecords(c *gin.Context) {
	records, err := h.ledger.Load(c.Request.Context(), adminKey(c))
	if err != nil {
		if errors.Is(err, ledger.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "data": []any{}})
			return
		}
		h.logger.Error("failed loading records", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": "unable to load records", "data": []any{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": records})
}

// SubmitRecord appends one sales record from a form payload.
func (h *SalesHandler) SubmitRecord(c *gin.Context) {
	var in models.RecordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.logger.Warn("invalid sales payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request body"})
		return
	}

	record, err := h.ledger.Submit(c.Request.Context(), in)
	if err != nil {
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": verr.Error(), "field": verr.Field})
		case errors.Is(err, ledger.ErrLockTimeout):
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": err.Error()})
		default:
			h.logger.Error("failed appending record", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": "unable to save record"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "id": record.ID, "data": record})
}

// Dashboard returns the aggregate dashboard view.
func (h *SalesHandler) Dashboard(c *gin.Context) {
	summary, err := h.reports.Dashboard(c.Request.Context())
	if err != nil {
		h.logger.Error("failed building dashboard", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": "unable to load dashboard"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": summary})
}

// Schedule returns the install schedule.
func (h *SalesHandler) Schedule(c *gin.Context) {
	entries, err := h.ledger.Schedule(c.Request.Context(), adminKey(c))
	if err != nil {
		h.logger.Error("failed loading schedule", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": "unable to load schedule", "data": []any{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": entries})
}

// ExportCSV downloads every record as a CSV attachment.
func (h *SalesHandler) ExportCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(h.now())))

	if err := h.reports.ExportCSV(c.Request.Context(), c.Writer); err != nil {
		h.logger.Error("failed exporting csv", zap.Error(err))
		if !c.Writer.Written() {
			c.Header("Content-Type", "")
			c.Header("Content-Disposition", "")
			c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": "unable to export records"})
		}
	}
}

// Analysis returns the advisory narrative summary.
func (h *SalesHandler) Analysis(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "analysis": h.reports.Narrative(c.Request.Context())})
}

// LatestSnapshot returns the most recent archived daily snapshot.
func (h *SalesHandler) LatestSnapshot(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "snapshot archive is disabled"})
		return
	}

	snapshot, err := h.snapshots.LatestSnapshot(c.Request.Context())
	if err != nil {
		h.logger.Error("failed loading snapshot", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": "unable to load snapshot"})
		return
	}
	if snapshot == nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "no snapshot archived yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": snapshot})
}

func adminKey(c *gin.Context) string {
	if key := c.Query(AdminKeyParam); key != "" {
		return key
	}
	return c.GetHeader(AdminKeyHeader)
}
