package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validPosition() Position {
	return Position{
		Order:     1,
		Name:      "Foundation",
		StartDate: NewDate(2024, 1, 1),
		EndDate:   NewDate(2024, 2, 1),
		Cost:      decimal.NewFromInt(3100),
	}
}

func TestPositionValidate(t *testing.T) {
	if err := validPosition().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Position)
		want   error
	}{
		{"zero order", func(p *Position) { p.Order = 0 }, ErrInvalidOrder},
		{"negative order", func(p *Position) { p.Order = -3 }, ErrInvalidOrder},
		{"blank name", func(p *Position) { p.Name = "  " }, ErrEmptyName},
		{"name off catalogue", func(p *Position) { p.Name = "Landscaping" }, ErrUnknownName},
		{"other without other name", func(p *Position) { p.Name = OtherName }, ErrMissingOtherName},
		{"zero start", func(p *Position) { p.StartDate = time.Time{} }, ErrZeroDate},
		{"end before start", func(p *Position) { p.EndDate = NewDate(2023, 12, 31) }, ErrDateOrder},
		{"zero cost", func(p *Position) { p.Cost = decimal.Zero }, ErrInvalidCost},
		{"negative cost", func(p *Position) { p.Cost = decimal.NewFromInt(-1) }, ErrInvalidCost},
	}
	for _, tc := range cases {
		p := validPosition()
		tc.mutate(&p)
		if err := p.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestPositionDisplayName(t *testing.T) {
	p := validPosition()
	if got := p.DisplayName(); got != "Foundation" {
		t.Fatalf("expected Foundation, got %q", got)
	}
	p.Name = OtherName
	p.OtherName = "Custom Work"
	if got := p.DisplayName(); got != "Custom Work" {
		t.Fatalf("expected Custom Work, got %q", got)
	}
}

func TestConstructionValidate(t *testing.T) {
	if err := (Construction{Name: "Residential block A"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Construction{Name: "   "}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}
