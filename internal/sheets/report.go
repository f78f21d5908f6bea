// Package sheets pushes a construction's monthly cost table to a Google
// Sheets report spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"constrfin/internal/schedule"
)

type ReportClient struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewFromEnv builds a report client from service-account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context, spreadsheetID, sheetName string) (*ReportClient, error) {
	if spreadsheetID == "" || sheetName == "" {
		return nil, errors.New("spreadsheet id and sheet name are required")
	}

	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &ReportClient{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// WriteMonthlyReport replaces the report sheet's contents with the
// monthly cost breakdown and the grand total.
func (c *ReportClient) WriteMonthlyReport(ctx context.Context, constructionName string, agg schedule.Aggregates) error {
	rows := buildReportRows(constructionName, agg)

	clearRange := fmt.Sprintf("%s!A:C", c.sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear report range: %w", err)
	}

	writeRange := fmt.Sprintf("%s!A1:C%d", c.sheetName, len(rows))
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write report range: %w", err)
	}

	slog.InfoContext(ctx, "Monthly cost report written",
		"construction", constructionName,
		"rows", len(rows),
		"spreadsheet_id", c.spreadsheetID)
	return nil
}

func buildReportRows(constructionName string, agg schedule.Aggregates) [][]interface{} {
	rows := [][]interface{}{
		{"Construction", "Month", "Cost"},
	}
	for _, m := range agg.Monthly {
		rows = append(rows, []interface{}{
			constructionName,
			m.Month.Format("Jan 2006"),
			m.Cost.StringFixed(2),
		})
	}
	rows = append(rows, []interface{}{constructionName, "Total", agg.Total.StringFixed(2)})
	return rows
}
