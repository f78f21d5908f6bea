package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"constrfin/internal/core"
	"constrfin/internal/storage"
)

type constructionListData struct {
	UserID        int64
	Constructions []core.Construction
}

type constructionFormData struct {
	UserID int64
	ID     int64
	Name   string
	Error  string
	Edit   bool
}

type constructionDeleteData struct {
	UserID       int64
	Construction core.Construction
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.render(w, "index.html", nil)
}

func (s *Server) handleConstructionList(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlInt64(r, "userID")
	if !ok {
		http.Error(w, "Invalid user", http.StatusBadRequest)
		return
	}

	list, err := s.constructions.ListConstructions(r.Context(), userID)
	if err != nil {
		slog.Error("Failed listing constructions", "user_id", userID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "constructions_list.html", constructionListData{
		UserID:        userID,
		Constructions: list,
	})
}

func (s *Server) handleConstructionAdd(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlInt64(r, "userID")
	if !ok {
		http.Error(w, "Invalid user", http.StatusBadRequest)
		return
	}

	data := constructionFormData{UserID: userID}

	if r.Method == http.MethodGet {
		s.render(w, "construction_form.html", data)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	c := core.Construction{
		UserID: userID,
		Name:   sanitizeInput(r.PostFormValue("name")),
	}
	data.Name = c.Name

	if err := c.Validate(); err != nil {
		data.Error = err.Error()
		s.render(w, "construction_form.html", data)
		return
	}

	if _, err := s.constructions.CreateConstruction(r.Context(), c); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			data.Error = "A construction with this name already exists."
			s.render(w, "construction_form.html", data)
			return
		}
		slog.Error("Failed creating construction", "user_id", userID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/constructions/%d/", userID), http.StatusSeeOther)
}

func (s *Server) handleConstructionEdit(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlInt64(r, "userID")
	constructionID, ok2 := urlInt64(r, "constructionID")
	if !ok || !ok2 {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	existing, err := s.constructions.GetConstruction(r.Context(), userID, constructionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("Failed loading construction", "construction_id", constructionID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := constructionFormData{
		UserID: userID,
		ID:     constructionID,
		Name:   existing.Name,
		Edit:   true,
	}

	if r.Method == http.MethodGet {
		s.render(w, "construction_form.html", data)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	existing.Name = sanitizeInput(r.PostFormValue("name"))
	data.Name = existing.Name

	if err := existing.Validate(); err != nil {
		data.Error = err.Error()
		s.render(w, "construction_form.html", data)
		return
	}

	if err := s.constructions.UpdateConstruction(r.Context(), existing); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			data.Error = "A construction with this name already exists."
			s.render(w, "construction_form.html", data)
			return
		}
		slog.Error("Failed updating construction", "construction_id", constructionID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.invalidateChart(r, userID, constructionID)
	http.Redirect(w, r, fmt.Sprintf("/constructions/%d/", userID), http.StatusSeeOther)
}

func (s *Server) handleConstructionDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlInt64(r, "userID")
	constructionID, ok2 := urlInt64(r, "constructionID")
	if !ok || !ok2 {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	existing, err := s.constructions.GetConstruction(r.Context(), userID, constructionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.Error("Failed loading construction", "construction_id", constructionID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if r.Method == http.MethodGet {
		s.render(w, "construction_confirm_delete.html", constructionDeleteData{
			UserID:       userID,
			Construction: existing,
		})
		return
	}

	if err := s.constructions.DeleteConstruction(r.Context(), userID, constructionID); err != nil {
		slog.Error("Failed deleting construction", "construction_id", constructionID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.invalidateChart(r, userID, constructionID)
	http.Redirect(w, r, fmt.Sprintf("/constructions/%d/", userID), http.StatusSeeOther)
}
