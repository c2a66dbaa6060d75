package sheets

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/plotsales/internal/analytics"
	"github.com/mamadbah2/plotsales/internal/config"
	"github.com/mamadbah2/plotsales/internal/domain/models"
)

// Ledger tab columns, A through Q.
const (
	colSubmittedAt = iota
	colDate
	colReportType
	colSalesRep
	colUnitID
	colProductType
	colBuyerName
	colUserName
	colInstallDate
	colListPrice
	colActualPrice
	colReceived
	colBalance
	colSource
	colReferrer
	colNotes
	colID
	ledgerColumns
)

var ledgerHeader = []interface{}{
	"Submitted At", "Date", "Report Type", "Sales Rep", "Unit ID",
	"Product Type", "Buyer", "User", "Install Date",
	"List Price", "Actual Price", "Received", "Balance",
	"Source", "Referrer", "Notes", "ID",
}

var scheduleHeader = []interface{}{
	"Install Date", "Unit ID", "Product Type", "User", "Buyer", "Sales Rep", "Notes",
}

// LedgerStore keeps sales records in the ledger tab and maintains the install
// schedule tab as a projection of it.
type LedgerStore struct {
	repo        Repository
	ledgerTab   string
	scheduleTab string
	logger      *zap.Logger
}

// NewLedgerStore wires a ledger store on top of a sheets repository.
func NewLedgerStore(repo Repository, cfg config.SheetsConfig, logger *zap.Logger) *LedgerStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerStore{
		repo:        repo,
		ledgerTab:   cfg.LedgerTab,
		scheduleTab: cfg.ScheduleTab,
		logger:      logger,
	}
}

// Init creates both tabs with their header rows when missing.
func (s *LedgerStore) Init(ctx context.Context) error {
	if err := s.repo.EnsureSheet(ctx, s.ledgerTab, ledgerHeader); err != nil {
		return fmt.Errorf("ensure ledger tab: %w", err)
	}
	if err := s.repo.EnsureSheet(ctx, s.scheduleTab, scheduleHeader); err != nil {
		return fmt.Errorf("ensure schedule tab: %w", err)
	}
	return nil
}

// Append writes one ledger row. When the record carries an install date the
// schedule tab is rebuilt from the ledger. Rebuild failures are logged and do
// not fail the append.
func (s *LedgerStore) Append(ctx context.Context, record models.SalesRecord) error {
	if err := s.repo.WriteRow(ctx, A1(s.ledgerTab, "A:Q"), recordToRow(record)); err != nil {
		return err
	}

	if record.InstallDate == "" {
		return nil
	}

	// The row is stored; a stale schedule is repaired by the next rebuild.
	if err := s.rebuildSchedule(ctx); err != nil {
		s.logger.Error("schedule rebuild failed", zap.String("record_id", record.ID), zap.Error(err))
	}
	return nil
}

// LoadAll reads every ledger row in sheet order.
func (s *LedgerStore) LoadAll(ctx context.Context) ([]models.SalesRecord, error) {
	rows, err := s.repo.ReadRange(ctx, A1(s.ledgerTab, "A2:Q"))
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	records := make([]models.SalesRecord, 0, len(rows))
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		rec := rowToRecord(row)
		if rec.ID == "" {
			rec.ID = fmt.Sprintf("row-%d", i+2)
		}
		records = append(records, rec)
	}

	s.logger.Debug("ledger loaded", zap.Int("records", len(records)))
	return records, nil
}

// LoadSchedule returns the install schedule derived from the ledger.
func (s *LedgerStore) LoadSchedule(ctx context.Context) ([]models.ScheduleEntry, error) {
	records, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.InstallSchedule(records), nil
}

func (s *LedgerStore) rebuildSchedule(ctx context.Context) error {
	entries, err := s.LoadSchedule(ctx)
	if err != nil {
		return err
	}

	if err := s.repo.ClearRange(ctx, A1(s.scheduleTab, "A2:G")); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []interface{}{e.InstallDate, e.UnitID, e.ProductType, e.UserName, e.BuyerName, e.SalesRep, e.Notes})
	}

	if err := s.repo.UpdateRange(ctx, A1(s.scheduleTab, "A2"), rows); err != nil {
		return err
	}

	s.logger.Debug("schedule rebuilt", zap.Int("entries", len(entries)))
	return nil
}

func recordToRow(r models.SalesRecord) []interface{} {
	row := make([]interface{}, ledgerColumns)
	row[colSubmittedAt] = r.Timestamp.UTC().Format(time.RFC3339Nano)
	row[colDate] = r.Date
	row[colReportType] = string(r.ReportType)
	row[colSalesRep] = r.SalesRep
	row[colUnitID] = r.UnitID
	row[colProductType] = r.ProductType
	row[colBuyerName] = r.BuyerName
	row[colUserName] = r.UserName
	row[colInstallDate] = r.InstallDate
	row[colListPrice] = r.ListPrice
	row[colActualPrice] = r.ActualPrice
	row[colReceived] = r.ReceivedAmount
	row[colBalance] = r.BalanceAmount
	row[colSource] = string(r.Source)
	row[colReferrer] = r.Referrer
	row[colNotes] = r.Notes
	row[colID] = r.ID
	return row
}

func rowToRecord(row []interface{}) models.SalesRecord {
	list := cellFloat(row, colListPrice)
	actual := cellFloat(row, colActualPrice)
	received := cellFloat(row, colReceived)
	derived := models.DeriveAmounts(list, actual, received)

	var ts time.Time
	if parsed, err := time.Parse(time.RFC3339Nano, cell(row, colSubmittedAt)); err == nil {
		ts = parsed
	}

	return models.SalesRecord{
		ID:             cell(row, colID),
		ReportType:     models.ReportType(cell(row, colReportType)),
		Date:           cell(row, colDate),
		SalesRep:       cell(row, colSalesRep),
		UnitID:         cell(row, colUnitID),
		ProductType:    cell(row, colProductType),
		BuyerName:      cell(row, colBuyerName),
		UserName:       cell(row, colUserName),
		InstallDate:    cell(row, colInstallDate),
		ListPrice:      list,
		ActualPrice:    actual,
		ReceivedAmount: received,
		BalanceAmount:  cellFloat(row, colBalance),
		Source:         models.CustomerSource(cell(row, colSource)),
		Referrer:       cell(row, colReferrer),
		Notes:          cell(row, colNotes),
		DiscountAmount: derived.DiscountAmount,
		DiscountRate:   derived.DiscountRate,
		Timestamp:      ts,
	}
}

func cell(row []interface{}, idx int) string {
	if idx >= len(row) || row[idx] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[idx]))
}

func cellFloat(row []interface{}, idx int) float64 {
	str := strings.ReplaceAll(cell(row, idx), ",", "")
	if str == "" {
		return 0
	}
	v, err := strconv.ParseFloat(str, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func isBlank(row []interface{}) bool {
	for i := range row {
		if cell(row, i) != "" {
			return false
		}
	}
	return true
}
