// Package schedule turns a construction's discrete cost intervals into a
// daily cost distribution and the aggregate tables the chart annotates.
//
// The pipeline is strictly forward: Normalize -> BuildDistribution ->
// Aggregate. Nothing here outlives one render call.
package schedule

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"constrfin/internal/core"
)

// ErrEmptySchedule signals a zero-cost or zero-length position. The whole
// render aborts, not just the offending position: callers rely on the blank
// schedule page in that case.
var ErrEmptySchedule = errors.New("empty schedule")

type (
	// DisplayPosition is a normalized, render-ready view of a position:
	// dates in the right order, "other" resolved to its free-text name.
	// It is derived once and never mutated afterwards.
	DisplayPosition struct {
		Name  string
		Start time.Time
		End   time.Time
		Cost  decimal.Decimal
		Days  int
	}

	// DailySample is one day's share of a position's cost.
	DailySample struct {
		Position string
		Date     time.Time
		Cost     decimal.Decimal
	}

	// MonthCost is the cost booked in one calendar month. Month is the
	// first day of the month at midnight UTC, which keeps ordering
	// chronological even across year boundaries.
	MonthCost struct {
		Month time.Time
		Cost  decimal.Decimal
	}

	// PositionMonthCost is the cost booked for one position in one month.
	PositionMonthCost struct {
		Month    time.Time
		Position string
		Cost     decimal.Decimal
	}

	// PositionCost is one position's cost over the whole schedule.
	PositionCost struct {
		Position string
		Cost     decimal.Decimal
	}

	// Aggregates holds the four cost tables the renderer annotates.
	Aggregates struct {
		Monthly         []MonthCost
		PositionMonthly []PositionMonthCost
		Positions       []PositionCost
		Total           decimal.Decimal
	}
)

// Normalize canonicalizes positions in caller order. Reversed date ranges
// are swapped rather than rejected. A position with zero cost or a
// zero-length interval aborts the entire schedule with ErrEmptySchedule.
func Normalize(positions []core.Position) ([]DisplayPosition, error) {
	out := make([]DisplayPosition, 0, len(positions))
	for _, p := range positions {
		start, end := p.StartDate, p.EndDate
		if start.After(end) {
			start, end = end, start
		}
		days := int(end.Sub(start).Hours() / 24)
		if p.Cost.IsZero() || days == 0 {
			return nil, ErrEmptySchedule
		}
		out = append(out, DisplayPosition{
			Name:  p.DisplayName(),
			Start: start,
			End:   end,
			Cost:  p.Cost,
			Days:  days,
		})
	}
	return out, nil
}

// BuildDistribution expands each position into one sample per calendar day
// from Start inclusive to End exclusive, each carrying cost/days.
func BuildDistribution(positions []DisplayPosition) []DailySample {
	var samples []DailySample
	for _, p := range positions {
		perDay := p.Cost.Div(decimal.NewFromInt(int64(p.Days)))
		day := p.Start
		for i := 0; i < p.Days; i++ {
			samples = append(samples, DailySample{
				Position: p.Name,
				Date:     day,
				Cost:     perDay,
			})
			day = day.AddDate(0, 0, 1)
		}
	}
	return samples
}

// monthStart truncates a date to the first of its month.
func monthStart(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Aggregate rolls the daily samples up into the four cost tables. Samples
// sharing a display name merge under one key; that is intended for multiple
// "other" positions resolved to the same custom text.
func Aggregate(samples []DailySample) Aggregates {
	var agg Aggregates

	monthly := make(map[time.Time]decimal.Decimal)
	type pmKey struct {
		month    time.Time
		position string
	}
	positionMonthly := make(map[pmKey]decimal.Decimal)
	positions := make(map[string]decimal.Decimal)
	var positionOrder []string

	for _, s := range samples {
		m := monthStart(s.Date)
		monthly[m] = monthly[m].Add(s.Cost)
		k := pmKey{month: m, position: s.Position}
		positionMonthly[k] = positionMonthly[k].Add(s.Cost)
		if _, seen := positions[s.Position]; !seen {
			positionOrder = append(positionOrder, s.Position)
		}
		positions[s.Position] = positions[s.Position].Add(s.Cost)
		agg.Total = agg.Total.Add(s.Cost)
	}

	for m, c := range monthly {
		agg.Monthly = append(agg.Monthly, MonthCost{Month: m, Cost: c})
	}
	sort.Slice(agg.Monthly, func(i, j int) bool {
		return agg.Monthly[i].Month.Before(agg.Monthly[j].Month)
	})

	for k, c := range positionMonthly {
		agg.PositionMonthly = append(agg.PositionMonthly, PositionMonthCost{
			Month:    k.month,
			Position: k.position,
			Cost:     c,
		})
	}
	sort.Slice(agg.PositionMonthly, func(i, j int) bool {
		a, b := agg.PositionMonthly[i], agg.PositionMonthly[j]
		if !a.Month.Equal(b.Month) {
			return a.Month.Before(b.Month)
		}
		return a.Position < b.Position
	})

	for _, name := range positionOrder {
		agg.Positions = append(agg.Positions, PositionCost{Position: name, Cost: positions[name]})
	}

	return agg
}

// Build runs the full pipeline for an ordered position list.
func Build(positions []core.Position) ([]DisplayPosition, Aggregates, error) {
	normalized, err := Normalize(positions)
	if err != nil {
		return nil, Aggregates{}, err
	}
	return normalized, Aggregate(BuildDistribution(normalized)), nil
}
