package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"pamadmin/internal/core"
	"pamadmin/internal/log"
)

// SheetsConfig locates the spreadsheet and the service account used to
// write to it. CredentialsJSON wins over CredentialsFile.
type SheetsConfig struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// SheetsExporter writes month reports to one tab per month of a Google
// spreadsheet, e.g. "2025-11 Attendance".
type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	logger        *log.Logger
}

// NewSheetsExporter authenticates with a service account.
func NewSheetsExporter(ctx context.Context, cfg SheetsConfig, logger *log.Logger) (*SheetsExporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	var creds []byte
	switch {
	case cfg.CredentialsJSON != "":
		creds = []byte(cfg.CredentialsJSON)
	case cfg.CredentialsFile != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		creds = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewSheetsExporterWithService(svc, cfg, logger), nil
}

// NewSheetsExporterWithService wraps an already configured service.
func NewSheetsExporterWithService(svc *gsheet.Service, cfg SheetsConfig, logger *log.Logger) *SheetsExporter {
	if logger == nil {
		logger = log.Discard()
	}
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = "Attendance"
	}
	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetBase:     base,
		logger:        logger.WithComponent(log.ComponentReport),
	}
}

// SheetName is the tab used for month m.
func (e *SheetsExporter) SheetName(m core.Month) string {
	return m.String() + " " + e.sheetBase
}

// Export replaces the month's tab with the summary table followed by the
// per-day grid, creating the tab when missing. It returns the written
// range.
func (e *SheetsExporter) Export(ctx context.Context, r core.MonthReport) (string, error) {
	name := e.SheetName(r.Status.Month)
	if err := e.ensureSheet(ctx, name); err != nil {
		return "", err
	}

	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, "'"+name+"'", &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear sheet %s: %w", name, err)
	}

	values := SheetValues(r)
	width := 0
	for _, row := range values {
		width = max(width, len(row))
	}
	rng := cellRange(name, width, len(values))

	_, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}

	e.logger.InfoContext(ctx, "Month exported to Google Sheets",
		log.FieldMonth, r.Status.Month.String(),
		"range", rng,
		"rows", len(values))
	return rng, nil
}

func (e *SheetsExporter) ensureSheet(ctx context.Context, name string) error {
	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == name {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: name}},
	}}}
	if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", name, err)
	}
	e.logger.InfoContext(ctx, "Sheet created", "sheet", name)
	return nil
}

// SheetValues lays out the summary table, a blank row and the day grid.
func SheetValues(r core.MonthReport) [][]any {
	values := [][]any{{"Attendance " + r.Status.Month.Label()}, anyRow(SummaryHeader)}
	values = append(values, SummaryRows(r)...)
	values = append(values, []any{}, anyRow(DayHeader(r.Status)))
	values = append(values, DayRows(r.Status)...)
	return values
}
