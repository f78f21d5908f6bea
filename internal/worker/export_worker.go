// Package worker re-renders schedule exports when a construction's
// positions change.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"constrfin/internal/amqp"
	"constrfin/internal/chart"
	"constrfin/internal/ports"
	"constrfin/internal/schedule"
	"constrfin/internal/storage"
)

// ExportWorker consumes schedule-changed messages and keeps the on-disk
// PDF export (and the optional Sheets report) in sync with the database.
type ExportWorker struct {
	constructions ports.ConstructionStore
	positions     ports.PositionStore
	report        ports.ReportWriter // nil when Sheets reporting is disabled
	exportDir     string
}

func NewExportWorker(constructions ports.ConstructionStore, positions ports.PositionStore, report ports.ReportWriter, exportDir string) *ExportWorker {
	return &ExportWorker{
		constructions: constructions,
		positions:     positions,
		report:        report,
		exportDir:     exportDir,
	}
}

func (w *ExportWorker) exportPath(constructionID int64) string {
	return filepath.Join(w.exportDir, fmt.Sprintf("schedule-%d.pdf", constructionID))
}

// HandleScheduleChanged re-renders one construction's exports. Conditions
// that re-delivery cannot fix (deleted construction, empty schedule,
// annotation failures) are logged and acknowledged, not requeued.
func (w *ExportWorker) HandleScheduleChanged(ctx context.Context, msg *amqp.ScheduleChangedMessage) error {
	construction, err := w.constructions.GetConstruction(ctx, msg.UserID, msg.ConstructionID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.InfoContext(ctx, "Construction gone, removing export",
			"construction_id", msg.ConstructionID)
		return w.removeExport(msg.ConstructionID)
	}
	if err != nil {
		return fmt.Errorf("load construction: %w", err)
	}

	positions, err := w.positions.ListPositions(ctx, msg.UserID, msg.ConstructionID)
	if err != nil {
		return fmt.Errorf("load positions: %w", err)
	}
	if len(positions) == 0 {
		slog.InfoContext(ctx, "No positions, removing export",
			"construction_id", msg.ConstructionID)
		return w.removeExport(msg.ConstructionID)
	}

	normalized, agg, err := schedule.Build(positions)
	if errors.Is(err, schedule.ErrEmptySchedule) {
		slog.WarnContext(ctx, "Empty schedule condition, skipping export",
			"construction_id", msg.ConstructionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("build schedule: %w", err)
	}

	art, err := chart.Render(construction.Name, normalized, agg)
	if err != nil {
		var annErr *chart.AnnotationError
		if errors.As(err, &annErr) {
			slog.WarnContext(ctx, "Annotation failure, skipping export",
				"construction_id", msg.ConstructionID, "error", annErr)
			return nil
		}
		return fmt.Errorf("render schedule: %w", err)
	}

	pdf, err := art.PDF()
	if err != nil {
		return fmt.Errorf("encode pdf: %w", err)
	}
	if err := w.writeExport(msg.ConstructionID, pdf); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Schedule export written",
		"construction_id", msg.ConstructionID,
		"path", w.exportPath(msg.ConstructionID),
		"bytes", len(pdf))

	if w.report != nil {
		if err := w.report.WriteMonthlyReport(ctx, construction.Name, agg); err != nil {
			// The PDF is already on disk; a report push failure should
			// retry on the next change, not block the queue.
			slog.ErrorContext(ctx, "Monthly report push failed",
				"construction_id", msg.ConstructionID, "error", err)
		}
	}

	return nil
}

func (w *ExportWorker) writeExport(constructionID int64, pdf []byte) error {
	if err := os.MkdirAll(w.exportDir, 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	path := w.exportPath(constructionID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, pdf, 0644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize export: %w", err)
	}
	return nil
}

func (w *ExportWorker) removeExport(constructionID int64) error {
	err := os.Remove(w.exportPath(constructionID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove export: %w", err)
	}
	return nil
}
