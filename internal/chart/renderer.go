// Package chart renders a construction cost schedule as a stacked
// Gantt-style figure: one horizontal bar per position on a shared date
// axis, with monthly, per-position and grand cost totals annotated as
// text. The figure is drawn once; PNG and PDF are two encodings of the
// same pixels so preview and download cannot drift.
package chart

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"constrfin/internal/core"
	"constrfin/internal/schedule"
)

// Figure geometry: 18x12 inches at 300 DPI, like the reference layout.
const (
	renderDPI    = 300
	figureWidth  = 18 * renderDPI
	figureHeight = 12 * renderDPI

	marginLeft   = 900
	marginRight  = 460
	marginTop    = 430
	marginBottom = 340

	barFraction = 0.4 // bar height as a share of the row

	labelFontSize = 12
	titleFontSize = 20
)

var (
	barFill    = drawing.Color{R: 0, G: 0, B: 255, A: 76} // blue, alpha 0.3
	barStroke  = drawing.ColorBlack
	gridColor  = drawing.Color{R: 128, G: 128, B: 128, A: 76}
	labelColor = drawing.ColorBlack
)

// ErrNoPositions is returned when there is nothing to draw. Callers are
// expected to show the blank schedule page instead.
var ErrNoPositions = errors.New("no positions to draw")

// AnnotationError marks a failure while placing a cost label. The request
// degrades to a plain-text diagnostic instead of a chart; it is never a
// server fault.
type AnnotationError struct {
	Err error
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("plotting cost information: %v", e.Err)
}

func (e *AnnotationError) Unwrap() error { return e.Err }

// Artifact is one rendered figure. Both encodings come from the same
// drawn image.
type Artifact struct {
	png []byte
}

// PNG returns the raster encoding.
func (a *Artifact) PNG() []byte { return a.png }

// Base64PNG returns the raster encoding for inline embedding.
func (a *Artifact) Base64PNG() string {
	return base64.StdEncoding.EncodeToString(a.png)
}

// Render draws the schedule figure. Positions arrive normalized, in
// caller order; the first position occupies the top row. The title is
// the construction display name and may be blank.
func Render(title string, positions []schedule.DisplayPosition, agg schedule.Aggregates) (*Artifact, error) {
	if len(positions) == 0 {
		return nil, ErrNoPositions
	}

	minStart, maxEnd := positions[0].Start, positions[0].End
	for _, p := range positions[1:] {
		if p.Start.Before(minStart) {
			minStart = p.Start
		}
		if p.End.After(maxEnd) {
			maxEnd = p.End
		}
	}
	span := maxEnd.Sub(minStart)
	if span <= 0 {
		return nil, &AnnotationError{Err: errors.New("degenerate date axis")}
	}

	r, err := gochart.PNG(figureWidth, figureHeight)
	if err != nil {
		return nil, fmt.Errorf("create raster surface: %w", err)
	}
	font, err := gochart.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	r.SetDPI(renderDPI)
	r.SetFont(font)

	plotWidth := figureWidth - marginLeft - marginRight
	plotHeight := figureHeight - marginTop - marginBottom
	rowHeight := float64(plotHeight) / float64(len(positions))

	xAt := func(t time.Time) int {
		frac := float64(t.Sub(minStart)) / float64(span)
		return marginLeft + int(frac*float64(plotWidth))
	}
	rowTop := func(i int) float64 {
		return float64(marginTop) + float64(i)*rowHeight
	}

	drawGrid(r, positions, minStart, maxEnd, xAt, rowTop)
	drawBars(r, positions, xAt, rowTop, rowHeight)
	drawAxisLabels(r, positions, minStart, maxEnd, xAt, rowTop, rowHeight)

	if err := drawAnnotations(r, positions, agg, minStart, maxEnd, xAt, rowTop); err != nil {
		return nil, err
	}

	if title != "" {
		r.SetFontSize(titleFontSize)
		r.SetFontColor(labelColor)
		box := r.MeasureText(title)
		r.Text(title, (figureWidth-box.Width())/2, marginTop/2)
	}

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return &Artifact{png: buf.Bytes()}, nil
}

// monthStarts lists the first-of-month dates falling inside [min, max].
func monthStarts(min, max time.Time) []time.Time {
	var out []time.Time
	m := time.Date(min.Year(), min.Month(), 1, 0, 0, 0, 0, time.UTC)
	if m.Before(min) {
		m = m.AddDate(0, 1, 0)
	}
	for !m.After(max) {
		out = append(out, m)
		m = m.AddDate(0, 1, 0)
	}
	return out
}

func drawGrid(r gochart.Renderer, positions []schedule.DisplayPosition, min, max time.Time, xAt func(time.Time) int, rowTop func(int) float64) {
	r.SetStrokeColor(gridColor)
	r.SetStrokeWidth(1)
	for _, m := range monthStarts(min, max) {
		x := xAt(m)
		r.MoveTo(x, marginTop)
		r.LineTo(x, figureHeight-marginBottom)
		r.Stroke()
	}
	for i := 0; i <= len(positions); i++ {
		y := int(rowTop(i))
		r.MoveTo(marginLeft, y)
		r.LineTo(figureWidth-marginRight, y)
		r.Stroke()
	}
}

func drawBars(r gochart.Renderer, positions []schedule.DisplayPosition, xAt func(time.Time) int, rowTop func(int) float64, rowHeight float64) {
	pad := rowHeight * (1 - barFraction) / 2
	for i, p := range positions {
		x0, x1 := xAt(p.Start), xAt(p.End)
		y0 := int(rowTop(i) + pad)
		y1 := int(rowTop(i) + pad + rowHeight*barFraction)

		r.SetFillColor(barFill)
		r.SetStrokeColor(barStroke)
		r.SetStrokeWidth(2)
		r.MoveTo(x0, y0)
		r.LineTo(x1, y0)
		r.LineTo(x1, y1)
		r.LineTo(x0, y1)
		r.Close()
		r.FillStroke()
	}
}

func drawAxisLabels(r gochart.Renderer, positions []schedule.DisplayPosition, min, max time.Time, xAt func(time.Time) int, rowTop func(int) float64, rowHeight float64) {
	r.SetFontSize(labelFontSize)
	r.SetFontColor(labelColor)

	// y axis: display names, right-aligned against the plot
	for i, p := range positions {
		box := r.MeasureText(p.Name)
		y := int(rowTop(i) + rowHeight/2 + float64(box.Height())/2)
		r.Text(p.Name, marginLeft-box.Width()-30, y)
	}

	// x axis: abbreviated month + year at each month boundary
	for _, m := range monthStarts(min, max) {
		r.Text(m.Format("Jan 2006"), xAt(m), figureHeight-marginBottom+70)
	}
}

// positionIndex mirrors the row lookup the annotations depend on: the
// first row whose display name matches. A miss is an annotation failure,
// not a crash.
func positionIndex(positions []schedule.DisplayPosition, name string) (int, error) {
	for i, p := range positions {
		if p.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no row for position %q", name)
}

func drawAnnotations(r gochart.Renderer, positions []schedule.DisplayPosition, agg schedule.Aggregates, min, max time.Time, xAt func(time.Time) int, rowTop func(int) float64) error {
	r.SetFontSize(labelFontSize)
	r.SetFontColor(labelColor)

	clampX := func(t time.Time) int {
		if t.Before(min) {
			return xAt(min)
		}
		return xAt(t)
	}

	// Monthly totals above all bars.
	for _, m := range agg.Monthly {
		r.Text(core.FormatCost(m.Cost), clampX(m.Month)+10, marginTop-40)
	}

	// Per-position month subtotals at the month start on the row.
	for _, pm := range agg.PositionMonthly {
		idx, err := positionIndex(positions, pm.Position)
		if err != nil {
			return &AnnotationError{Err: err}
		}
		r.Text(core.FormatCost(pm.Cost), clampX(pm.Month)+10, int(rowTop(idx))+50)
	}

	// Position totals at the right edge of the chart.
	for _, pc := range agg.Positions {
		idx, err := positionIndex(positions, pc.Position)
		if err != nil {
			return &AnnotationError{Err: err}
		}
		r.Text(core.FormatCost(pc.Cost), xAt(max)+20, int(rowTop(idx))+50)
	}

	// Grand total as a figure-level caption, bottom right.
	total := "Total: " + core.FormatCost(agg.Total)
	box := r.MeasureText(total)
	r.Text(total, figureWidth-marginRight-box.Width(), figureHeight-60)

	return nil
}
