package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mamadbah2/plotsales/internal/domain/models"
)

// utf8BOM lets spreadsheet applications detect the encoding of non-ASCII names.
const utf8BOM = "\ufeff"

// Header is the column layout of the sales CSV export.
var Header = []string{
	"ID", "Type", "Date", "Rep", "Unit", "Product", "Buyer", "User",
	"List Price", "Actual Price", "Received", "Balance", "Source", "Referrer", "Notes",
}

// Filename returns the download name for an export produced on day t.
func Filename(t time.Time) string {
	return fmt.Sprintf("sales_report_%s.csv", t.Format(models.DateLayout))
}

// WriteCSV writes the records with a UTF-8 byte-order mark and a header row.
func WriteCSV(w io.Writer, records []models.SalesRecord) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("csv: write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.ID,
			string(r.ReportType),
			r.Date,
			r.SalesRep,
			r.UnitID,
			r.ProductType,
			r.BuyerName,
			r.UserName,
			formatAmount(r.ListPrice),
			formatAmount(r.ActualPrice),
			formatAmount(r.ReceivedAmount),
			formatAmount(r.BalanceAmount),
			string(r.Source),
			r.Referrer,
			r.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv: write row %s: %w", r.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	return nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
