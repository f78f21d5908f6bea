package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"constrfin/internal/core"
)

func seedSchedule(t *testing.T, store *fakeStore) int64 {
	t.Helper()

	cid, err := store.CreateConstruction(context.Background(), core.Construction{UserID: 1, Name: "Block A"})
	if err != nil {
		t.Fatalf("seed construction: %v", err)
	}

	positions := []core.Position{
		{
			UserID: 1, ConstructionID: cid, Order: 1, Name: "Foundation",
			StartDate: core.NewDate(2024, 5, 1), EndDate: core.NewDate(2024, 5, 31),
			Cost: decimal.NewFromInt(10000),
		},
		{
			UserID: 1, ConstructionID: cid, Order: 2, Name: "Roof",
			StartDate: core.NewDate(2024, 6, 1), EndDate: core.NewDate(2024, 6, 30),
			Cost: decimal.NewFromInt(5000),
		},
	}
	for _, p := range positions {
		if _, err := store.CreatePosition(context.Background(), p); err != nil {
			t.Fatalf("seed position: %v", err)
		}
	}
	return cid
}

func TestScheduleInlineChart(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store)
	seedSchedule(t, store)

	rec := doRequest(s, http.MethodGet, "/schedule/1/1/", "1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "data:image/png;base64,") {
		t.Fatal("response does not embed a base64 chart image")
	}
}

func TestSchedulePDFDownload(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store)
	seedSchedule(t, store)

	rec := doRequest(s, http.MethodGet, "/schedule/1/1/?download_pdf=1", "1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="schedule.pdf"` {
		t.Fatalf("Content-Disposition = %q", got)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF-") {
		t.Fatal("body is not a PDF document")
	}
}

func TestScheduleNoPositions(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store)
	if _, err := store.CreateConstruction(context.Background(), core.Construction{UserID: 1, Name: "Block A"}); err != nil {
		t.Fatalf("seed construction: %v", err)
	}

	rec := doRequest(s, http.MethodGet, "/schedule/1/1/", "1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "data:image/png") {
		t.Fatal("empty schedule should not embed a chart")
	}
}

func TestScheduleAbortsOnZeroCost(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store)
	cid := seedSchedule(t, store)

	// One position without cost information blanks the whole schedule.
	if _, err := store.CreatePosition(context.Background(), core.Position{
		UserID: 1, ConstructionID: cid, Order: 3, Name: "Windows",
		StartDate: core.NewDate(2024, 7, 1), EndDate: core.NewDate(2024, 7, 31),
		Cost: decimal.Zero,
	}); err != nil {
		t.Fatalf("seed position: %v", err)
	}

	rec := doRequest(s, http.MethodGet, "/schedule/1/1/", "1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "data:image/png") {
		t.Fatal("schedule with a zero-cost position should render blank")
	}
}

func TestScheduleUnknownConstruction(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store)

	rec := doRequest(s, http.MethodGet, "/schedule/1/99/", "1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestScheduleCacheInvalidation(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store)
	cid := seedSchedule(t, store)

	rec := doRequest(s, http.MethodGet, "/schedule/1/1/", "1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("first render: status = %d", rec.Code)
	}
	if _, ok := s.chartCache.Get(chartCacheKey(1, cid)); !ok {
		t.Fatal("chart not cached after render")
	}

	// Deleting a position must drop the cached chart.
	positions, _ := store.ListPositions(context.Background(), 1, cid)
	rec = doRequest(s, http.MethodPost,
		"/positions/1/1/"+strconv.FormatInt(positions[0].ID, 10)+"/delete", "1", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("delete: status = %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := s.chartCache.Get(chartCacheKey(1, cid)); ok {
		t.Fatal("cached chart survived a mutation")
	}
}
