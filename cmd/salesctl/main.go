package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/plotsales/internal/analytics"
	"github.com/mamadbah2/plotsales/internal/domain/models"
	"github.com/mamadbah2/plotsales/internal/export"
	"github.com/mamadbah2/plotsales/internal/service/reporting"
	"github.com/mamadbah2/plotsales/pkg/clients/salesapi"
	"github.com/mamadbah2/plotsales/pkg/logger"
)

func main() {
	log := logger.Must(logger.New(logger.Options{Level: os.Getenv("LOG_LEVEL"), Development: true}))
	defer func() { _ = log.Sync() }()

	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded", zap.Error(err))
	}

	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal("salesctl failed", zap.Error(err))
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "salesctl",
		Usage:  "Submit and inspect plot sales reports",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Usage:   "Base URL of the sales server",
				Value:   "http://localhost:8080",
				EnvVars: []string{"SALES_API_URL"},
			},
			&cli.StringFlag{
				Name:    "admin-key",
				Usage:   "Admin key for read operations",
				EnvVars: []string{"ADMIN_KEY"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "submit",
				Usage:  "Submit one sales report",
				Flags:  submitFlags(),
				Action: runSubmit,
			},
			{
				Name:  "summary",
				Usage: "Aggregate every stored record and print a digest",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "recent",
						Usage: "Number of most recent records to list",
						Value: analytics.DefaultRecentWindow,
					},
				},
				Action: runSummary,
			},
			{
				Name:   "dashboard",
				Usage:  "Print the dashboard computed by the server",
				Action: runDashboard,
			},
			{
				Name:  "export",
				Usage: "Write every stored record to a CSV file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output path, defaults to sales_report_<date>.csv",
					},
				},
				Action: runExport,
			},
		},
	}
}

func submitFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "type", Usage: "NEW_SALE or FINAL_PAYMENT", Value: string(models.ReportNewSale)},
		&cli.StringFlag{Name: "date", Usage: "Transaction date (YYYY-MM-DD), defaults to today"},
		&cli.StringFlag{Name: "rep", Usage: "Sales rep, or OTHER with --custom-rep", Required: true},
		&cli.StringFlag{Name: "custom-rep", Usage: "Sales rep name when --rep=OTHER"},
		&cli.StringFlag{Name: "unit", Usage: "Unit id"},
		&cli.StringFlag{Name: "product", Usage: "Product type", Value: string(models.ProductPersonalNiche)},
		&cli.StringFlag{Name: "custom-product", Usage: "Product name when --product=OTHER"},
		&cli.StringFlag{Name: "buyer", Usage: "Buyer name", Required: true},
		&cli.StringFlag{Name: "user", Usage: "Name of the person the unit is for"},
		&cli.StringFlag{Name: "install-date", Usage: "Install date (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "list", Usage: "List price"},
		&cli.StringFlag{Name: "actual", Usage: "Actual price", Required: true},
		&cli.StringFlag{Name: "received", Usage: "Amount received", Required: true},
		&cli.StringFlag{Name: "source", Usage: "Customer source", Value: string(models.SourceWalkIn)},
		&cli.StringFlag{Name: "referrer", Usage: "Referrer name"},
		&cli.StringFlag{Name: "notes", Usage: "Free text notes"},
		&cli.BoolFlag{Name: "dry-run", Usage: "Validate and print the derived record without sending it"},
	}
}

func inputFromFlags(c *cli.Context) models.RecordInput {
	date := c.String("date")
	if date == "" {
		date = time.Now().Format(models.DateLayout)
	}

	in := models.RecordInput{
		ReportType:        models.ReportType(c.String("type")),
		Date:              date,
		SalesRep:          c.String("rep"),
		CustomSalesRep:    c.String("custom-rep"),
		UnitID:            c.String("unit"),
		ProductType:       models.ProductType(c.String("product")),
		CustomProductType: c.String("custom-product"),
		BuyerName:         c.String("buyer"),
		UserName:          c.String("user"),
		InstallDate:       c.String("install-date"),
		ActualPrice:       models.NumericInput{Raw: c.String("actual"), Present: true},
		ReceivedAmount:    models.NumericInput{Raw: c.String("received"), Present: true},
		Source:            models.CustomerSource(c.String("source")),
		Referrer:          c.String("referrer"),
		Notes:             c.String("notes"),
	}
	if c.IsSet("list") {
		in.ListPrice = models.NumericInput{Raw: c.String("list"), Present: true}
	}
	return in
}

func runSubmit(c *cli.Context) error {
	in := inputFromFlags(c)

	if c.Bool("dry-run") {
		record, err := models.NewRecord(in)
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, record)
	}

	record, err := client(c).Submit(c.Context, in)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, record)
}

func runSummary(c *cli.Context) error {
	records, err := client(c).LoadAll(c.Context)
	if err != nil {
		return err
	}

	snapshot := models.DailySnapshot{
		Date:    time.Now().Format(models.DateLayout),
		Summary: analytics.Summarize(records),
	}
	fmt.Fprintln(c.App.Writer, reporting.FormatDigest(snapshot))

	recent := analytics.RecentWindow(records, c.Int("recent"))
	if len(recent) == 0 {
		return nil
	}
	fmt.Fprintln(c.App.Writer, "Recent:")
	for _, r := range recent {
		fmt.Fprintf(c.App.Writer, "- %s %s %s %s %.0f\n", r.Date, r.ReportType.Label(), r.SalesRep, r.BuyerName, r.ActualPrice)
	}
	return nil
}

func runDashboard(c *cli.Context) error {
	summary, err := client(c).Dashboard(c.Context)
	if err != nil {
		return err
	}

	snapshot := models.DailySnapshot{Date: time.Now().Format(models.DateLayout), Summary: summary}
	fmt.Fprintln(c.App.Writer, reporting.FormatDigest(snapshot))
	return nil
}

func runExport(c *cli.Context) error {
	records, err := client(c).LoadAll(c.Context)
	if err != nil {
		return err
	}

	path := c.String("out")
	if path == "" {
		path = export.Filename(time.Now())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteCSV(f, records); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "wrote %d records to %s\n", len(records), path)
	return nil
}

func client(c *cli.Context) *salesapi.Client {
	return salesapi.NewClient(c.String("server"), c.String("admin-key"))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
