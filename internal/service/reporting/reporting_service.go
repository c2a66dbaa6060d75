package reporting

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/plotsales/internal/analytics"
	"github.com/mamadbah2/plotsales/internal/domain/models"
	"github.com/mamadbah2/plotsales/internal/export"
	"github.com/mamadbah2/plotsales/pkg/clients/anthropic"
)

// Messages returned by Narrative instead of an error.
const (
	NarrativeDisabled = "AI analysis is disabled. Set ANTHROPIC_API_KEY to enable it."
	NarrativeNoData   = "There are no sales reports to analyse yet."
	NarrativeFailed   = "Sorry, the analysis could not be generated. Please try again later."
)

// RecordSource supplies the record snapshot to aggregate.
type RecordSource interface {
	Records(ctx context.Context) ([]models.SalesRecord, error)
}

// Service exposes dashboard analytics over the full record snapshot.
type Service struct {
	source     RecordSource
	summarizer anthropic.Client
	logger     *zap.Logger
}

// NewService wires a new reporting service instance. summarizer may be nil.
func NewService(source RecordSource, summarizer anthropic.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, summarizer: summarizer, logger: logger}
}

// Dashboard recomputes the dashboard summary from every stored record.
func (s *Service) Dashboard(ctx context.Context) (models.DashboardSummary, error) {
	records, err := s.source.Records(ctx)
	if err != nil {
		return models.DashboardSummary{}, fmt.Errorf("load dashboard records: %w", err)
	}
	return analytics.Summarize(records), nil
}

// Narrative asks the summarizer for commentary on the current records. It is
// advisory: every failure degrades to a fixed message.
func (s *Service) Narrative(ctx context.Context) string {
	if s.summarizer == nil {
		return NarrativeDisabled
	}

	records, err := s.source.Records(ctx)
	if err != nil {
		s.logger.Warn("narrative records unavailable", zap.Error(err))
		return NarrativeFailed
	}
	return s.narrate(ctx, records)
}

func (s *Service) narrate(ctx context.Context, records []models.SalesRecord) string {
	if s.summarizer == nil {
		return NarrativeDisabled
	}
	if len(records) == 0 {
		return NarrativeNoData
	}

	text, err := s.summarizer.SummarizeSales(ctx, digest(records))
	if err != nil {
		s.logger.Warn("narrative summary failed", zap.Error(err))
		return NarrativeFailed
	}
	return text
}

// ExportCSV streams every record as CSV.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	records, err := s.source.Records(ctx)
	if err != nil {
		return fmt.Errorf("load export records: %w", err)
	}
	return export.WriteCSV(w, records)
}

// DailySnapshot captures the dashboard and its narrative for the day of now.
func (s *Service) DailySnapshot(ctx context.Context, now time.Time) (models.DailySnapshot, error) {
	records, err := s.source.Records(ctx)
	if err != nil {
		return models.DailySnapshot{}, fmt.Errorf("load snapshot records: %w", err)
	}

	snapshot := models.DailySnapshot{
		Date:      now.Format(models.DateLayout),
		Summary:   analytics.Summarize(records),
		CreatedAt: now.UTC(),
	}
	if s.summarizer != nil {
		snapshot.Narrative = s.narrate(ctx, records)
	}
	return snapshot, nil
}

// FormatDigest renders a snapshot as a plain text message.
func FormatDigest(snapshot models.DailySnapshot) string {
	sum := snapshot.Summary

	var b strings.Builder
	fmt.Fprintf(&b, "Sales digest %s\n", snapshot.Date)
	fmt.Fprintf(&b, "Records: %d (new sales %d)\n", sum.RecordCount, sum.NewSaleCount)
	fmt.Fprintf(&b, "Total actual: %.0f\n", sum.TotalActual)
	fmt.Fprintf(&b, "Received: %.0f\n", sum.TotalReceived)
	fmt.Fprintf(&b, "Outstanding: %.0f\n", sum.TotalBalance)

	if len(sum.RevenueByRep) > 0 {
		b.WriteString("By rep:\n")
		for _, r := range sum.RevenueByRep {
			fmt.Fprintf(&b, "- %s: %.0f\n", r.SalesRep, r.Revenue)
		}
	}
	if len(sum.UnitsByProduct) > 0 {
		b.WriteString("By product:\n")
		for _, p := range sum.UnitsByProduct {
			fmt.Fprintf(&b, "- %s: %d\n", p.ProductType, p.Units)
		}
	}
	if snapshot.Narrative != "" {
		b.WriteString("\n")
		b.WriteString(snapshot.Narrative)
	}

	return strings.TrimRight(b.String(), "\n")
}

func digest(records []models.SalesRecord) []anthropic.SalesDigest {
	out := make([]anthropic.SalesDigest, 0, len(records))
	for _, r := range records {
		out = append(out, anthropic.SalesDigest{
			Type:     string(r.ReportType),
			Date:     r.Date,
			Rep:      r.SalesRep,
			Product:  r.ProductType,
			Price:    r.ActualPrice,
			Received: r.ReceivedAmount,
			Source:   string(r.Source),
			Discount: fmt.Sprintf("%.1f%%", r.DiscountRate*100),
		})
	}
	return out
}
