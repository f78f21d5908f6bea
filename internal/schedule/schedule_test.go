package schedule

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"constrfin/internal/core"
)

func position(name string, start, end [3]int, cost int64) core.Position {
	return core.Position{
		Name:      name,
		StartDate: core.NewDate(start[0], start[1], start[2]),
		EndDate:   core.NewDate(end[0], end[1], end[2]),
		Cost:      decimal.NewFromInt(cost),
	}
}

func TestNormalizeSwapsReversedDates(t *testing.T) {
	p := position("Foundation", [3]int{2024, 2, 1}, [3]int{2024, 1, 1}, 3100)
	got, err := Normalize([]core.Position{p})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if got[0].Start != core.NewDate(2024, 1, 1) || got[0].End != core.NewDate(2024, 2, 1) {
		t.Fatalf("dates not swapped: %v - %v", got[0].Start, got[0].End)
	}
	if got[0].Days != 31 {
		t.Fatalf("expected 31 days after swap, got %d", got[0].Days)
	}
}

func TestNormalizeAbortsWholeSchedule(t *testing.T) {
	good := position("Foundation", [3]int{2024, 1, 1}, [3]int{2024, 2, 1}, 3100)

	zeroCost := position("Roof", [3]int{2024, 3, 1}, [3]int{2024, 4, 1}, 0)
	if _, err := Normalize([]core.Position{good, zeroCost}); !errors.Is(err, ErrEmptySchedule) {
		t.Fatalf("zero cost: expected ErrEmptySchedule, got %v", err)
	}

	zeroLength := position("Roof", [3]int{2024, 3, 1}, [3]int{2024, 3, 1}, 500)
	if _, err := Normalize([]core.Position{good, zeroLength}); !errors.Is(err, ErrEmptySchedule) {
		t.Fatalf("zero length: expected ErrEmptySchedule, got %v", err)
	}
}

func TestNormalizeResolvesOtherName(t *testing.T) {
	p := position(core.OtherName, [3]int{2024, 1, 1}, [3]int{2024, 1, 11}, 100)
	p.OtherName = "Custom Work"
	got, err := Normalize([]core.Position{p})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if got[0].Name != "Custom Work" {
		t.Fatalf("expected Custom Work, got %q", got[0].Name)
	}
}

func TestDistributionConservesCost(t *testing.T) {
	normalized, err := Normalize([]core.Position{
		position("Foundation", [3]int{2024, 5, 1}, [3]int{2024, 5, 11}, 10000),
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	samples := BuildDistribution(normalized)
	if len(samples) != 10 {
		t.Fatalf("expected 10 samples, got %d", len(samples))
	}
	sum := decimal.Zero
	for _, s := range samples {
		if !s.Cost.Equal(decimal.NewFromInt(1000)) {
			t.Fatalf("expected 1000 per day, got %s", s.Cost)
		}
		sum = sum.Add(s.Cost)
	}
	if !sum.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("samples do not sum back to cost: %s", sum)
	}
	// [start, end): the end date itself carries no sample
	last := samples[len(samples)-1]
	if last.Date != core.NewDate(2024, 5, 10) {
		t.Fatalf("expected last sample on 2024-05-10, got %v", last.Date)
	}
}

func TestAggregateAcrossMonthBoundary(t *testing.T) {
	_, agg, err := Build([]core.Position{
		position("Foundation", [3]int{2024, 1, 1}, [3]int{2024, 2, 1}, 3100),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(agg.Monthly) != 1 {
		t.Fatalf("expected 1 month bucket, got %d", len(agg.Monthly))
	}
	// 31 samples of 100, all dated within January
	if agg.Monthly[0].Month != core.NewDate(2024, 1, 1) {
		t.Fatalf("expected January bucket, got %v", agg.Monthly[0].Month)
	}
	if !agg.Monthly[0].Cost.Equal(decimal.NewFromInt(3100)) {
		t.Fatalf("expected 3100 in January, got %s", agg.Monthly[0].Cost)
	}
	if !agg.Total.Equal(decimal.NewFromInt(3100)) {
		t.Fatalf("expected total 3100, got %s", agg.Total)
	}
}

func TestAggregateSplitsMonths(t *testing.T) {
	_, agg, err := Build([]core.Position{
		position("Foundation", [3]int{2024, 1, 16}, [3]int{2024, 2, 15}, 3000),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(agg.Monthly) != 2 {
		t.Fatalf("expected 2 month buckets, got %d", len(agg.Monthly))
	}
	// 30 days at 100/day: 16 in January, 14 in February
	if !agg.Monthly[0].Cost.Equal(decimal.NewFromInt(1600)) {
		t.Fatalf("expected 1600 in January, got %s", agg.Monthly[0].Cost)
	}
	if !agg.Monthly[1].Cost.Equal(decimal.NewFromInt(1400)) {
		t.Fatalf("expected 1400 in February, got %s", agg.Monthly[1].Cost)
	}
}

func TestAggregateOrdersMonthsByDateNotString(t *testing.T) {
	// "01-2025" sorts before "12-2024" lexicographically; chronological
	// ordering must win.
	_, agg, err := Build([]core.Position{
		position("Foundation", [3]int{2024, 12, 1}, [3]int{2025, 2, 1}, 6200),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(agg.Monthly) != 2 {
		t.Fatalf("expected 2 month buckets, got %d", len(agg.Monthly))
	}
	if agg.Monthly[0].Month != core.NewDate(2024, 12, 1) {
		t.Fatalf("expected December 2024 first, got %v", agg.Monthly[0].Month)
	}
	if agg.Monthly[1].Month != core.NewDate(2025, 1, 1) {
		t.Fatalf("expected January 2025 second, got %v", agg.Monthly[1].Month)
	}
}

func TestAggregateMergesSharedDisplayNames(t *testing.T) {
	a := position(core.OtherName, [3]int{2024, 1, 1}, [3]int{2024, 1, 11}, 1000)
	a.OtherName = "Custom Work"
	b := position(core.OtherName, [3]int{2024, 3, 1}, [3]int{2024, 3, 11}, 2000)
	b.OtherName = "Custom Work"

	_, agg, err := Build([]core.Position{a, b})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(agg.Positions) != 1 {
		t.Fatalf("expected 1 merged position entry, got %d", len(agg.Positions))
	}
	if agg.Positions[0].Position != "Custom Work" {
		t.Fatalf("expected Custom Work, got %q", agg.Positions[0].Position)
	}
	if !agg.Positions[0].Cost.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("expected merged cost 3000, got %s", agg.Positions[0].Cost)
	}
}

func TestAggregateTotalsAgree(t *testing.T) {
	_, agg, err := Build([]core.Position{
		position("Foundation", [3]int{2024, 1, 10}, [3]int{2024, 3, 20}, 7000),
		position("Roof", [3]int{2024, 2, 5}, [3]int{2024, 4, 15}, 3000),
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	byMonth := decimal.Zero
	for _, m := range agg.Monthly {
		byMonth = byMonth.Add(m.Cost)
	}
	byPosition := decimal.Zero
	for _, p := range agg.Positions {
		byPosition = byPosition.Add(p.Cost)
	}
	if !agg.Total.Equal(byMonth) {
		t.Fatalf("total %s != monthly sum %s", agg.Total, byMonth)
	}
	if !agg.Total.Equal(byPosition) {
		t.Fatalf("total %s != position sum %s", agg.Total, byPosition)
	}
}

func TestBuildEmptyInput(t *testing.T) {
	normalized, agg, err := Build(nil)
	if err != nil {
		t.Fatalf("expected ok for empty input, got %v", err)
	}
	if len(normalized) != 0 || len(agg.Monthly) != 0 || !agg.Total.IsZero() {
		t.Fatalf("expected empty result, got %v %v", normalized, agg)
	}
}
