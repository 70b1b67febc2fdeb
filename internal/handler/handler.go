// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/example/table-reservations/internal/model"
	"github.com/example/table-reservations/internal/repository"
	"github.com/example/table-reservations/internal/service"
	"github.com/example/table-reservations/internal/timeslot"
	"github.com/go-chi/chi/v5"
)

// ReservationHandler holds all HTTP handlers for the reservation API.
type ReservationHandler struct {
	restaurants  service.RestaurantStore
	availability *service.AvailabilityService
	reservations *service.ReservationService
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(
	restaurants service.RestaurantStore,
	availability *service.AvailabilityService,
	reservations *service.ReservationService,
) *ReservationHandler {
	return &ReservationHandler{
		restaurants:  restaurants,
		availability: availability,
		reservations: reservations,
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps domain errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	var cerr *repository.CapacityError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.As(err, &cerr):
		writeError(w, http.StatusConflict,
			fmt.Sprintf("insufficient capacity: %d spaces available", cerr.AvailableSpaces))
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrForbidden):
		// Forbidden deliberately reads as not-found: callers cannot probe for
		// other users' reservations.
		writeError(w, http.StatusNotFound, "not found or access denied")
	case errors.Is(err, repository.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ─── Restaurant ───────────────────────────────────────────────────────────────

// GetRestaurant handles GET /restaurants/{id}
func (h *ReservationHandler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	restaurant, err := h.restaurants.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, restaurant)
}

// ─── Availability ─────────────────────────────────────────────────────────────

// CheckAvailability handles GET /reservations/availability
// Query: restaurantId, date, time, partySize.
func (h *ReservationHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	restaurantID := q.Get("restaurantId")
	date := q.Get("date")
	if restaurantID == "" || date == "" || q.Get("time") == "" || q.Get("partySize") == "" {
		writeError(w, http.StatusBadRequest, "restaurantId, date, time and partySize are required")
		return
	}
	t, err := timeslot.Parse(q.Get("time"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	partySize, err := strconv.Atoi(q.Get("partySize"))
	if err != nil || partySize < 1 {
		writeError(w, http.StatusBadRequest, "partySize must be a positive integer")
		return
	}

	avail, err := h.availability.CheckAvailability(r.Context(), restaurantID, date, t, partySize)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, avail)
}

// AvailableSlots handles GET /reservations/available-slots/{restaurantId}/{date}
func (h *ReservationHandler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantId")
	date := chi.URLParam(r, "date")

	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date: want YYYY-MM-DD")
		return
	}
	// No booking in the past. ISO dates compare lexicographically, so a plain
	// string comparison against today's date avoids any day-boundary
	// truncation issues.
	if date < time.Now().UTC().Format("2006-01-02") {
		writeError(w, http.StatusBadRequest, "cannot book a past date")
		return
	}

	slots, err := h.availability.AvailableSlots(r.Context(), restaurantID, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if slots == nil {
		slots = []model.Slot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"restaurantId":   restaurantID,
		"date":           date,
		"availableSlots": slots,
	})
}

// ─── Reservation lifecycle ────────────────────────────────────────────────────

// CreateReservation handles POST /reservations
func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req model.CreateReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.reservations.Create(r.Context(), userID(r), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ModifyReservation handles PUT /reservations/{id}
func (h *ReservationHandler) ModifyReservation(w http.ResponseWriter, r *http.Request) {
	var req model.ModifyReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.reservations.Modify(r.Context(), userID(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CancelReservation handles DELETE /reservations/{id}
func (h *ReservationHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.reservations.Cancel(r.Context(), userID(r), isAdmin(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "reservation cancelled",
		"reservation": res,
	})
}

// ListByDate handles GET /reservations/{restaurantId}/{date}
func (h *ReservationHandler) ListByDate(w http.ResponseWriter, r *http.Request) {
	list, err := h.reservations.ListByDate(r.Context(),
		chi.URLParam(r, "restaurantId"), chi.URLParam(r, "date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []model.Reservation{}
	}
	writeJSON(w, http.StatusOK, list)
}

// ─── Admin ────────────────────────────────────────────────────────────────────

// ListReservations handles GET /admin/reservations
// Optional query filters: status, date, restaurantId.
func (h *ReservationHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.reservations.List(r.Context(), repository.ListFilter{
		Status:       model.Status(q.Get("status")),
		Date:         q.Get("date"),
		RestaurantID: q.Get("restaurantId"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []model.Reservation{}
	}
	writeJSON(w, http.StatusOK, list)
}

// ListPending handles GET /admin/reservations/pending
func (h *ReservationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	list, err := h.reservations.ListPending(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []model.Reservation{}
	}
	writeJSON(w, http.StatusOK, list)
}

// AcceptReservation handles PUT /admin/reservations/{id}/accept
func (h *ReservationHandler) AcceptReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.reservations.Accept(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RejectReservation handles PUT /admin/reservations/{id}/reject
func (h *ReservationHandler) RejectReservation(w http.ResponseWriter, r *http.Request) {
	var req model.RejectReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.reservations.Reject(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// OverrideStatus handles PUT /admin/reservations/{id}/status
func (h *ReservationHandler) OverrideStatus(w http.ResponseWriter, r *http.Request) {
	var req model.StatusOverrideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.reservations.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
