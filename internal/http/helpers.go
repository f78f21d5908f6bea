package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"constrfin/internal/core"
)

// urlInt64 extracts a numeric path parameter, returning ok=false when the
// segment is missing or not a positive integer.
func urlInt64(r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// parseDate parses a date string in YYYY-MM-DD format into a UTC midnight time.
func parseDate(dateStr string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(dateStr))
	if err != nil {
		return time.Time{}, err
	}
	return core.NewDate(parsed.Year(), int(parsed.Month()), parsed.Day()), nil
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// render executes the named template, logging failures instead of exposing them.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("Template execution failed", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// chartCacheKey identifies a rendered chart by owner and construction.
func chartCacheKey(userID, constructionID int64) string {
	return strconv.FormatInt(userID, 10) + "/" + strconv.FormatInt(constructionID, 10)
}

// invalidateChart drops any cached chart for the construction and, when a
// publisher is configured, announces the schedule change. Publish failures
// are logged and otherwise ignored so a broker outage never blocks a save.
func (s *Server) invalidateChart(r *http.Request, userID, constructionID int64) {
	s.chartCache.Delete(chartCacheKey(userID, constructionID))

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishScheduleChanged(r.Context(), userID, constructionID); err != nil {
		slog.Warn("Failed publishing schedule change",
			"user_id", userID,
			"construction_id", constructionID,
			"error", err)
	}
}
