package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"constrfin/internal/chart"
	"constrfin/internal/schedule"
	"constrfin/internal/storage"
)

type scheduleData struct {
	UserID         int64
	ConstructionID int64
	Construction   string
	ChartPNG       string // base64-encoded, empty when there is nothing to draw
}

// renderChart returns the construction's chart, serving from cache when a
// fresh copy is available.
func (s *Server) renderChart(r *http.Request, userID, constructionID int64, title string) (*chart.Artifact, error) {
	key := chartCacheKey(userID, constructionID)
	if artifact, ok := s.chartCache.Get(key); ok {
		return artifact, nil
	}

	positions, err := s.positions.ListPositions(r.Context(), userID, constructionID)
	if err != nil {
		return nil, err
	}

	display, agg, err := schedule.Build(positions)
	if err != nil {
		return nil, err
	}

	artifact, err := chart.Render(title, display, agg)
	if err != nil {
		return nil, err
	}

	s.chartCache.Set(key, artifact)
	return artifact, nil
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlInt64(r, "userID")
	constructionID, ok2 := urlInt64(r, "constructionID")
	if !ok || !ok2 {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	construction, err := s.constructions.GetConstruction(r.Context(), userID, constructionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("Failed loading construction", "construction_id", constructionID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := scheduleData{
		UserID:         userID,
		ConstructionID: constructionID,
		Construction:   construction.Name,
	}

	artifact, err := s.renderChart(r, userID, constructionID, construction.Name)
	if err != nil {
		var annErr *chart.AnnotationError
		switch {
		case errors.Is(err, schedule.ErrEmptySchedule), errors.Is(err, chart.ErrNoPositions):
			// Nothing drawable yet; show the page without a chart.
			s.render(w, "schedule.html", data)
		case errors.As(err, &annErr):
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			fmt.Fprintf(w, "Error %v.\n", annErr)
		default:
			slog.Error("Failed rendering schedule",
				"construction_id", constructionID, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	if r.URL.Query().Get("download_pdf") != "" {
		pdf, err := artifact.PDF()
		if err != nil {
			slog.Error("Failed encoding schedule PDF",
				"construction_id", constructionID, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="schedule.pdf"`)
		_, _ = w.Write(pdf)
		return
	}

	data.ChartPNG = artifact.Base64PNG()
	s.render(w, "schedule.html", data)
}
