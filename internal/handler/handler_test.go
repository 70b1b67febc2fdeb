package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/table-reservations/internal/model"
	"github.com/go-chi/chi/v5"
)

// slotsRouter mounts only the slot-listing route. The guards under test fire
// before any service call, so the handler needs no wired services.
func slotsRouter() http.Handler {
	h := NewReservationHandler(nil, nil, nil)
	r := chi.NewRouter()
	r.Get("/reservations/available-slots/{restaurantId}/{date}", h.AvailableSlots)
	return r
}

func TestAvailableSlotsRejectsPastDate(t *testing.T) {
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	req := httptest.NewRequest(http.MethodGet, "/reservations/available-slots/r1/"+yesterday, nil)
	rec := httptest.NewRecorder()
	slotsRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp model.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Error != "cannot book a past date" {
		t.Errorf("error = %q, want %q", resp.Error, "cannot book a past date")
	}
}

func TestAvailableSlotsRejectsMalformedDate(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/reservations/available-slots/r1/01-09-2026x", nil)
	rec := httptest.NewRecorder()
	slotsRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
