package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"constrfin/internal/core"
	"constrfin/internal/storage"
)

const dateLayout = "2006-01-02"

// positionRow is a position prepared for display.
type positionRow struct {
	ID        int64
	Order     int
	Name      string
	StartDate string
	EndDate   string
	Cost      string
}

type positionListData struct {
	UserID         int64
	ConstructionID int64
	Construction   string
	Positions      []positionRow
}

type positionFormData struct {
	UserID         int64
	ConstructionID int64
	ID             int64
	Names          []string
	Order          string
	Name           string
	OtherName      string
	StartDate      string
	EndDate        string
	Cost           string
	Error          string
	Edit           bool
}

type positionDeleteData struct {
	UserID         int64
	ConstructionID int64
	Position       positionRow
}

func toRow(p core.Position) positionRow {
	return positionRow{
		ID:        p.ID,
		Order:     p.Order,
		Name:      p.DisplayName(),
		StartDate: p.StartDate.Format(dateLayout),
		EndDate:   p.EndDate.Format(dateLayout),
		Cost:      core.FormatCost(p.Cost),
	}
}

func (s *Server) handlePositionList(w http.ResponseWriter, r *http.Request) {
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

	positions, err := s.positions.ListPositions(r.Context(), userID, constructionID)
	if err != nil {
		slog.Error("Failed listing positions", "construction_id", constructionID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rows := make([]positionRow, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, toRow(p))
	}

	s.render(w, "positions_list.html", positionListData{
		UserID:         userID,
		ConstructionID: constructionID,
		Construction:   construction.Name,
		Positions:      rows,
	})
}

// parsePositionForm reads a submitted position form into a core.Position,
// echoing the raw values back through data for re-display on error.
func parsePositionForm(r *http.Request, data *positionFormData) (core.Position, error) {
	if err := r.ParseForm(); err != nil {
		return core.Position{}, err
	}

	data.Order = sanitizeInput(r.PostFormValue("position_order"))
	data.Name = sanitizeInput(r.PostFormValue("name"))
	data.OtherName = sanitizeInput(r.PostFormValue("other_name"))
	data.StartDate = sanitizeInput(r.PostFormValue("start_date"))
	data.EndDate = sanitizeInput(r.PostFormValue("end_date"))
	data.Cost = sanitizeInput(r.PostFormValue("cost"))

	p := core.Position{
		Name:      data.Name,
		OtherName: data.OtherName,
	}

	order, err := strconv.Atoi(data.Order)
	if err != nil {
		return p, fmt.Errorf("invalid order: %q", data.Order)
	}
	p.Order = order

	p.StartDate, err = parseDate(data.StartDate)
	if err != nil {
		return p, fmt.Errorf("invalid start date: %q", data.StartDate)
	}
	p.EndDate, err = parseDate(data.EndDate)
	if err != nil {
		return p, fmt.Errorf("invalid end date: %q", data.EndDate)
	}

	p.Cost, err = core.ParseCost(data.Cost)
	if err != nil {
		return p, fmt.Errorf("invalid cost: %q", data.Cost)
	}

	return p, nil
}

func (s *Server) handlePositionAdd(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlInt64(r, "userID")
	constructionID, ok2 := urlInt64(r, "constructionID")
	if !ok || !ok2 {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	data := positionFormData{
		UserID:         userID,
		ConstructionID: constructionID,
		Names:          core.PositionNames,
		StartDate:      time.Now().UTC().Format(dateLayout),
		EndDate:        time.Now().UTC().Format(dateLayout),
	}

	if r.Method == http.MethodGet {
		s.render(w, "position_form.html", data)
		return
	}

	p, err := parsePositionForm(r, &data)
	if err != nil {
		data.Error = err.Error()
		s.render(w, "position_form.html", data)
		return
	}
	p.UserID = userID
	p.ConstructionID = constructionID

	if err := p.Validate(); err != nil {
		data.Error = err.Error()
		s.render(w, "position_form.html", data)
		return
	}

	if _, err := s.positions.CreatePosition(r.Context(), p); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			data.Error = "A position with this order or name already exists."
			s.render(w, "position_form.html", data)
			return
		}
		slog.Error("Failed creating position", "construction_id", constructionID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.invalidateChart(r, userID, constructionID)
	http.Redirect(w, r, fmt.Sprintf("/positions/%d/%d/", userID, constructionID), http.StatusSeeOther)
}

func (s *Server) handlePositionEdit(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlInt64(r, "userID")
	constructionID, ok2 := urlInt64(r, "constructionID")
	positionID, ok3 := urlInt64(r, "positionID")
	if !ok || !ok2 || !ok3 {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	existing, err := s.positions.GetPosition(r.Context(), userID, positionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("Failed loading position", "position_id", positionID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := positionFormData{
		UserID:         userID,
		ConstructionID: constructionID,
		ID:             positionID,
		Names:          core.PositionNames,
		Order:          strconv.Itoa(existing.Order),
		Name:           existing.Name,
		OtherName:      existing.OtherName,
		StartDate:      existing.StartDate.Format(dateLayout),
		EndDate:        existing.EndDate.Format(dateLayout),
		Cost:           existing.Cost.String(),
		Edit:           true,
	}

	if r.Method == http.MethodGet {
		s.render(w, "position_form.html", data)
		return
	}

	p, err := parsePositionForm(r, &data)
	if err != nil {
		data.Error = err.Error()
		s.render(w, "position_form.html", data)
		return
	}
	p.ID = positionID
	p.UserID = userID
	p.ConstructionID = constructionID

	if err := p.Validate(); err != nil {
		data.Error = err.Error()
		s.render(w, "position_form.html", data)
		return
	}

	if err := s.positions.UpdatePosition(r.Context(), p); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			data.Error = "A position with this order or name already exists."
			s.render(w, "position_form.html", data)
			return
		}
		slog.Error("Failed updating position", "position_id", positionID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.invalidateChart(r, userID, constructionID)
	http.Redirect(w, r, fmt.Sprintf("/positions/%d/%d/", userID, constructionID), http.StatusSeeOther)
}

func (s *Server) handlePositionDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlInt64(r, "userID")
	constructionID, ok2 := urlInt64(r, "constructionID")
	positionID, ok3 := urlInt64(r, "positionID")
	if !ok || !ok2 || !ok3 {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	existing, err := s.positions.GetPosition(r.Context(), userID, positionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("Failed loading position", "position_id", positionID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if r.Method == http.MethodGet {
		s.render(w, "position_confirm_delete.html", positionDeleteData{
			UserID:         userID,
			ConstructionID: constructionID,
			Position:       toRow(existing),
		})
		return
	}

	if err := s.positions.DeletePosition(r.Context(), userID, positionID); err != nil {
		slog.Error("Failed deleting position", "position_id", positionID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.invalidateChart(r, userID, constructionID)
	http.Redirect(w, r, fmt.Sprintf("/positions/%d/%d/", userID, constructionID), http.StatusSeeOther)
}
