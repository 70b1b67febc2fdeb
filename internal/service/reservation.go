package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/table-reservations/internal/model"
	"github.com/example/table-reservations/internal/repository"
	"github.com/example/table-reservations/internal/timeslot"
)

// notifyTimeout bounds a single fire-and-forget notification attempt.
const notifyTimeout = 15 * time.Second

// dateLayout is the calendar-date wire format.
const dateLayout = "2006-01-02"

// ReservationService is the lifecycle state machine: it validates input,
// consults the availability engine before any capacity-affecting transition,
// and delegates the atomic check-and-write to the store.
type ReservationService struct {
	restaurants  RestaurantStore
	reservations ReservationStore
	availability *AvailabilityService
	users        UserDirectory
	notifier     Notifier
}

// NewReservationService constructs a ReservationService. users and notifier
// may be nil, in which case no emails are sent.
func NewReservationService(
	restaurants RestaurantStore,
	reservations ReservationStore,
	availability *AvailabilityService,
	users UserDirectory,
	notifier Notifier,
) *ReservationService {
	return &ReservationService{
		restaurants:  restaurants,
		reservations: reservations,
		availability: availability,
		users:        users,
		notifier:     notifier,
	}
}

// Create books a table for userID: validates the request, checks capacity,
// and inserts the reservation in pending state. The store re-checks capacity
// inside its transaction, so a stale pre-check can never overbook. Returns
// *repository.CapacityError when the party does not fit.
func (s *ReservationService) Create(ctx context.Context, userID string, req model.CreateReservationRequest) (*model.Reservation, error) {
	if userID == "" {
		return nil, &model.ValidationError{Field: "userId", Reason: "required"}
	}
	if req.RestaurantID == "" {
		return nil, &model.ValidationError{Field: "restaurantId", Reason: "required"}
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	t, err := parseTime(req.Time)
	if err != nil {
		return nil, err
	}
	if err := validPartySize(req.PartySize); err != nil {
		return nil, err
	}

	restaurant, err := s.restaurants.GetByID(ctx, req.RestaurantID)
	if err != nil {
		return nil, err
	}
	avail, err := s.availability.checkForRestaurant(ctx, restaurant, date, t, req.PartySize, "")
	if err != nil {
		return nil, err
	}
	if !avail.Available {
		return nil, &repository.CapacityError{
			AvailableSpaces: avail.AvailableSpaces,
			MaxCapacity:     avail.MaxCapacity,
			RequestedSize:   req.PartySize,
		}
	}

	res, err := s.reservations.Book(ctx, &model.Reservation{
		UserID:          userID,
		RestaurantID:    req.RestaurantID,
		Date:            date,
		Time:            t,
		PartySize:       req.PartySize,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		return nil, err
	}

	s.notifyPending(res, restaurant.Name, false)
	return res, nil
}

// Modify changes an existing reservation owned by userID. Date, time, and
// party size are capacity-relevant: changing any of them re-runs the
// availability check against all other reservations (the reservation's own
// occupancy is excluded) and, when the reservation was already confirmed,
// demotes it back to pending for re-approval.
func (s *ReservationService) Modify(ctx context.Context, userID, reservationID string, req model.ModifyReservationRequest) (*model.Reservation, error) {
	// Format checks do not depend on the stored record; surface validation
	// errors before any store access.
	var newDate string
	if req.Date != nil {
		d, err := parseDate(*req.Date)
		if err != nil {
			return nil, err
		}
		newDate = d
	}
	var newTime timeslot.Time
	if req.Time != nil {
		t, err := parseTime(*req.Time)
		if err != nil {
			return nil, err
		}
		newTime = t
	}
	if req.PartySize != nil {
		if err := validPartySize(*req.PartySize); err != nil {
			return nil, err
		}
	}

	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, repository.ErrForbidden
	}
	if res.Status.Terminal() {
		return nil, fmt.Errorf("reservation is %s: %w", res.Status, repository.ErrInvalidTransition)
	}

	capacityRelevant := false
	if req.Date != nil && newDate != res.Date {
		res.Date = newDate
		capacityRelevant = true
	}
	if req.Time != nil && newTime != res.Time {
		res.Time = newTime
		capacityRelevant = true
	}
	if req.PartySize != nil && *req.PartySize != res.PartySize {
		res.PartySize = *req.PartySize
		capacityRelevant = true
	}
	if req.SpecialRequests != nil {
		res.SpecialRequests = *req.SpecialRequests
	}

	if !capacityRelevant {
		return s.reservations.Update(ctx, res)
	}

	restaurant, err := s.restaurants.GetByID(ctx, res.RestaurantID)
	if err != nil {
		return nil, err
	}
	avail, err := s.availability.checkForRestaurant(ctx, restaurant, res.Date, res.Time, res.PartySize, res.ID)
	if err != nil {
		return nil, err
	}
	if !avail.Available {
		return nil, &repository.CapacityError{
			AvailableSpaces: avail.AvailableSpaces,
			MaxCapacity:     avail.MaxCapacity,
			RequestedSize:   res.PartySize,
		}
	}

	demoted := res.Status == model.StatusConfirmed
	if demoted {
		res.Status = model.StatusPending
	}

	updated, err := s.reservations.Reschedule(ctx, res)
	if err != nil {
		return nil, err
	}

	if demoted {
		s.notifyPending(updated, restaurant.Name, true)
	}
	return updated, nil
}

// Cancel releases a reservation's seats. Only the owner (or an admin) may
// cancel, and only from a non-terminal state.
func (s *ReservationService) Cancel(ctx context.Context, userID string, isAdmin bool, reservationID string) (*model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && res.UserID != userID {
		return nil, repository.ErrForbidden
	}
	if res.Status.Terminal() {
		return nil, fmt.Errorf("reservation is %s: %w", res.Status, repository.ErrInvalidTransition)
	}
	return s.reservations.SetStatus(ctx, reservationID, model.StatusCancelled, "")
}

// Accept confirms a pending reservation. Accepting anything but a pending
// reservation is an invalid transition.
func (s *ReservationService) Accept(ctx context.Context, reservationID string) (*model.Reservation, error) {
	return s.transition(ctx, reservationID, model.StatusConfirmed, "")
}

// Reject declines a pending reservation with a reason and notifies the guest.
func (s *ReservationService) Reject(ctx context.Context, reservationID, reason string) (*model.Reservation, error) {
	res, err := s.transition(ctx, reservationID, model.StatusRejected, reason)
	if err != nil {
		return nil, err
	}
	s.notifyRejected(ctx, res)
	return res, nil
}

// SetStatus is the admin override: any target status is accepted as long as
// the state machine permits the transition from the current state.
func (s *ReservationService) SetStatus(ctx context.Context, reservationID string, status model.Status) (*model.Reservation, error) {
	if !status.Valid() {
		return nil, &model.ValidationError{Field: "status", Reason: "unknown status " + string(status)}
	}
	return s.transition(ctx, reservationID, status, "")
}

func (s *ReservationService) transition(ctx context.Context, reservationID string, next model.Status, reason string) (*model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !res.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%s -> %s: %w", res.Status, next, repository.ErrInvalidTransition)
	}
	return s.reservations.SetStatus(ctx, reservationID, next, reason)
}

// ListPending returns the admin approval queue, ordered by (date, time).
func (s *ReservationService) ListPending(ctx context.Context) ([]model.Reservation, error) {
	return s.reservations.ListPending(ctx)
}

// ListByDate returns a restaurant's reservations for one date, ordered by
// time.
func (s *ReservationService) ListByDate(ctx context.Context, restaurantID, date string) ([]model.Reservation, error) {
	if _, err := parseDate(date); err != nil {
		return nil, err
	}
	return s.reservations.ListByDate(ctx, restaurantID, date)
}

// List returns reservations matching an admin filter.
func (s *ReservationService) List(ctx context.Context, f repository.ListFilter) ([]model.Reservation, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, &model.ValidationError{Field: "status", Reason: "unknown status " + string(f.Status)}
	}
	if f.Date != "" {
		if _, err := parseDate(f.Date); err != nil {
			return nil, err
		}
	}
	return s.reservations.List(ctx, f)
}

// ── Notifications ────────────────────────────────────────────────────────────

// notifyPending emails the guest (and the admin inbox) about a new or
// re-submitted pending reservation. Delivery runs in the background; a
// failure is logged and never fails the triggering operation.
func (s *ReservationService) notifyPending(res *model.Reservation, restaurantName string, isModification bool) {
	if s.notifier == nil {
		return
	}
	n := Notification{
		ReservationID:   res.ID,
		RestaurantName:  restaurantName,
		Date:            res.Date,
		Time:            res.Time,
		PartySize:       res.PartySize,
		SpecialRequests: res.SpecialRequests,
		IsModification:  isModification,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		s.fillContact(ctx, &n, res.UserID)
		if err := s.notifier.ReservationPending(ctx, n); err != nil {
			log.Printf("notify reservation %s: %v", res.ID, err)
		}
	}()
}

func (s *ReservationService) notifyRejected(ctx context.Context, res *model.Reservation) {
	if s.notifier == nil {
		return
	}
	restaurantName := res.RestaurantID
	if restaurant, err := s.restaurants.GetByID(ctx, res.RestaurantID); err == nil {
		restaurantName = restaurant.Name
	}
	n := Notification{
		ReservationID:  res.ID,
		RestaurantName: restaurantName,
		Date:           res.Date,
		Time:           res.Time,
		PartySize:      res.PartySize,
		Reason:         res.RejectionReason,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		s.fillContact(ctx, &n, res.UserID)
		if err := s.notifier.ReservationRejected(ctx, n); err != nil {
			log.Printf("notify rejection %s: %v", res.ID, err)
		}
	}()
}

func (s *ReservationService) fillContact(ctx context.Context, n *Notification, userID string) {
	if s.users == nil {
		return
	}
	contact, err := s.users.GetContact(ctx, userID)
	if err != nil {
		log.Printf("lookup contact for user %s: %v", userID, err)
		return
	}
	n.UserName = contact.Name
	n.UserEmail = contact.Email
	n.UserPhone = contact.Phone
}

// ── Validation helpers ───────────────────────────────────────────────────────

func parseDate(s string) (string, error) {
	if s == "" {
		return "", &model.ValidationError{Field: "date", Reason: "required"}
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", &model.ValidationError{Field: "date", Reason: "want YYYY-MM-DD"}
	}
	return s, nil
}

func parseTime(s string) (timeslot.Time, error) {
	if s == "" {
		return 0, &model.ValidationError{Field: "time", Reason: "required"}
	}
	t, err := timeslot.Parse(s)
	if err != nil {
		return 0, &model.ValidationError{Field: "time", Reason: "want HH:MM"}
	}
	return t, nil
}

func validPartySize(n int) error {
	if n < model.MinPartySize || n > model.MaxPartySize {
		return &model.ValidationError{
			Field:  "partySize",
			Reason: fmt.Sprintf("must be between %d and %d", model.MinPartySize, model.MaxPartySize),
		}
	}
	return nil
}
