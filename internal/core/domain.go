package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OtherName is the sentinel position name meaning "use the free-text name".
const OtherName = "other"

// PositionNames is the fixed catalogue of work kinds a position can be
// registered under, in form order. The trailing "other" entry unlocks the
// free-text OtherName field.
var PositionNames = []string{
	"Preparatory works",
	"Foundation",
	"Monolithic works",
	"Masonry works",
	"Windows",
	"Roof",
	"Doors",
	"Decoration",
	"Ebbs, eaves, covers",
	"Metal products",
	"Elevators",
	"Facade, insulation",
	"Grounding, lightning protection",
	"Internal power supply",
	"Low current networks",
	"Internal sewerage K1",
	"Internal sewerage K2",
	"Internal water supply B1",
	"Gas supply, boilers",
	"External power supply",
	"External gas supply",
	"External sewerage K1",
	"External sewerage K2",
	"External water supply B1",
	"Improvement",
	"Total expenditures",
	OtherName,
}

type (
	// Construction is a named project owning an ordered set of positions.
	Construction struct {
		ID     int64
		UserID int64
		Name   string
	}

	// Position is one line item of a construction's cost schedule.
	Position struct {
		ID             int64
		UserID         int64
		ConstructionID int64
		Order          int
		Name           string
		OtherName      string
		StartDate      time.Time
		EndDate        time.Time
		Cost           decimal.Decimal
	}
)

var (
	ErrEmptyName        = errors.New("empty name")
	ErrUnknownName      = errors.New("unknown position name")
	ErrMissingOtherName = errors.New("other name required for 'other' positions")
	ErrInvalidOrder     = errors.New("order must be positive")
	ErrInvalidCost      = errors.New("cost must be positive")
	ErrZeroDate         = errors.New("date cannot be zero")
	ErrDateOrder        = errors.New("end date cannot be earlier than start date")
)

// NewDate builds a midnight-UTC calendar date.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func (c Construction) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if len(c.Name) > 255 {
		return errors.New("construction name too long (max 255 characters)")
	}
	return nil
}

// DisplayName resolves the "other" sentinel to the position's free-text name.
func (p Position) DisplayName() string {
	if p.Name == OtherName {
		return p.OtherName
	}
	return p.Name
}

func (p Position) Validate() error {
	if p.Order < 1 {
		return ErrInvalidOrder
	}
	if len(strings.TrimSpace(p.Name)) == 0 {
		return ErrEmptyName
	}
	known := false
	for _, n := range PositionNames {
		if p.Name == n {
			known = true
			break
		}
	}
	if !known {
		return ErrUnknownName
	}
	if p.Name == OtherName && len(strings.TrimSpace(p.OtherName)) == 0 {
		return ErrMissingOtherName
	}
	if len(p.OtherName) > 100 {
		return errors.New("other name too long (max 100 characters)")
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return ErrZeroDate
	}
	if p.EndDate.Before(p.StartDate) {
		return ErrDateOrder
	}
	if !p.Cost.IsPositive() {
		return ErrInvalidCost
	}
	return nil
}
