package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/shopledger/internal/config"
	"github.com/mamadbah2/shopledger/internal/domain/models"
)

const (
	dateLayout        = "2006-01-02"
	dailyReportsRange = "DailyReports!A:J"
	reportDatesRange  = "DailyReports!A:A"
)

// Repository defines the persistence operations supported by the Google Sheets adapter.
type Repository interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// WriteRow appends the provided values to the supplied sheet range.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}

// ReadRange returns the cell values of sheetRange, row by row. Empty
// trailing rows are not returned.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	r.logger.Debug("sheet range read", zap.String("range", sheetRange), zap.Int("rows", len(resp.Values)))
	return resp.Values, nil
}

// ReportArchive appends archived daily reports as spreadsheet rows.
type ReportArchive struct {
	repo   Repository
	logger *zap.Logger
}

// NewReportArchive wraps a sheets repository as a daily report sink.
func NewReportArchive(repo Repository, logger *zap.Logger) *ReportArchive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportArchive{repo: repo, logger: logger}
}

// SaveDailyReport appends one row per report to the DailyReports sheet.
// A day that already has a row is left alone, so a rerun of the job does
// not archive it twice.
func (a *ReportArchive) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	day := report.Date.Format(dateLayout)

	archived, err := a.hasReport(ctx, day)
	if err != nil {
		return err
	}
	if archived {
		a.logger.Info("daily report already archived, skipping", zap.String("date", day))
		return nil
	}
	return a.repo.WriteRow(ctx, dailyReportsRange, DailyReportRow(report))
}

func (a *ReportArchive) hasReport(ctx context.Context, day string) (bool, error) {
	rows, err := a.repo.ReadRange(ctx, reportDatesRange)
	if err != nil {
		return false, fmt.Errorf("list archived report dates: %w", err)
	}
	for _, row := range rows {
		if len(row) > 0 && fmt.Sprint(row[0]) == day {
			return true, nil
		}
	}
	return false, nil
}

// DailyReportRow flattens a report into the DailyReports column order:
// date, revenue, cogs, gross profit, expenses, net profit, purchases,
// outflows, transaction count, inventory value.
func DailyReportRow(report models.DailyReport) []interface{} {
	s := report.Summary
	return []interface{}{
		report.Date.Format(dateLayout),
		s.Revenue.StringFixed(2),
		s.COGS.StringFixed(2),
		s.GrossProfit.StringFixed(2),
		s.OperatingExpenses.StringFixed(2),
		s.NetProfit.StringFixed(2),
		s.PurchasesTotal.StringFixed(2),
		s.TotalOutflows.StringFixed(2),
		s.TransactionCount,
		report.InventoryValue.StringFixed(2),
	}
}
