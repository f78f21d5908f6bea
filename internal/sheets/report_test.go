package sheets

import (
	"testing"

	"github.com/shopspring/decimal"

	"constrfin/internal/core"
	"constrfin/internal/schedule"
)

func TestBuildReportRows(t *testing.T) {
	agg := schedule.Aggregates{
		Monthly: []schedule.MonthCost{
			{Month: core.NewDate(2024, 12, 1), Cost: decimal.NewFromInt(3100)},
			{Month: core.NewDate(2025, 1, 1), Cost: decimal.RequireFromString("1550.50")},
		},
		Total: decimal.RequireFromString("4650.50"),
	}

	rows := buildReportRows("Block A", agg)
	if len(rows) != 4 {
		t.Fatalf("expected header + 2 months + total, got %d rows", len(rows))
	}
	if rows[1][1] != "Dec 2024" || rows[1][2] != "3100.00" {
		t.Fatalf("unexpected first month row: %v", rows[1])
	}
	if rows[2][1] != "Jan 2025" {
		t.Fatalf("months out of order: %v", rows[2])
	}
	if rows[3][1] != "Total" || rows[3][2] != "4650.50" {
		t.Fatalf("unexpected total row: %v", rows[3])
	}
}
