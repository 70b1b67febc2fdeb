// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer: the availability engine and
// the reservation lifecycle.
package service

import (
	"context"

	"github.com/example/table-reservations/internal/model"
	"github.com/example/table-reservations/internal/timeslot"
	"golang.org/x/sync/errgroup"
)

// slotInterval is the spacing of candidate booking times within opening
// hours, in minutes.
const slotInterval = 30

// slotProbeConcurrency bounds the parallel availability checks performed by
// AvailableSlots.
const slotProbeConcurrency = 8

// AvailabilityService answers "can this party be seated" and "what slots are
// free" from the current ledger state. It reserves nothing itself; the
// authoritative check happens again inside the store transaction when a
// reservation is actually written.
type AvailabilityService struct {
	restaurants  RestaurantStore
	reservations ReservationStore
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(restaurants RestaurantStore, reservations ReservationStore) *AvailabilityService {
	return &AvailabilityService{restaurants: restaurants, reservations: reservations}
}

// CheckAvailability reports whether partySize seats are free at the given
// date and time. Returns repository.ErrNotFound when the restaurant does not
// exist.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, restaurantID, date string, t timeslot.Time, partySize int) (*model.Availability, error) {
	if _, err := parseDate(date); err != nil {
		return nil, err
	}
	if err := validPartySize(partySize); err != nil {
		return nil, err
	}
	restaurant, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	return s.checkForRestaurant(ctx, restaurant, date, t, partySize, "")
}

// checkForRestaurant runs the capacity check against an already-loaded
// profile. exclude, when non-empty, leaves one reservation out of the overlap
// sum (the modify re-check).
//
// The probed window spans the service duration on both sides of the requested
// time: it catches parties that would still be seated when this one arrives
// and parties that would arrive before this one leaves.
func (s *AvailabilityService) checkForRestaurant(ctx context.Context, restaurant *model.Restaurant, date string, t timeslot.Time, partySize int, exclude string) (*model.Availability, error) {
	windowStart := t.Sub(restaurant.ServiceDuration)
	windowEnd := t.Add(restaurant.ServiceDuration)

	occupied, err := s.reservations.OccupiedCapacity(ctx, restaurant.ID, date, windowStart, windowEnd, restaurant.ServiceDuration, exclude)
	if err != nil {
		return nil, err
	}

	spaces := restaurant.MaxCapacity - occupied
	return &model.Availability{
		Available:       spaces >= partySize,
		AvailableSpaces: spaces,
		MaxCapacity:     restaurant.MaxCapacity,
		RequestedSize:   partySize,
	}, nil
}

// AvailableSlots lists the open booking times of a restaurant on one date, in
// chronological order. Each candidate slot is probed with a party of one and
// dropped when no space remains.
//
// Probes run concurrently; a probe that fails (a transient store error, say)
// silently drops its slot instead of aborting the listing. Listing free times
// is best-effort by design: a partial answer beats none.
func (s *AvailabilityService) AvailableSlots(ctx context.Context, restaurantID, date string) ([]model.Slot, error) {
	if _, err := parseDate(date); err != nil {
		return nil, err
	}
	restaurant, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	times := timeslot.Slots(restaurant.OpeningTime, restaurant.ClosingTime, slotInterval)
	// Each probe writes only its own index, so no lock is needed.
	results := make([]*model.Slot, len(times))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(slotProbeConcurrency)
	for i, t := range times {
		i, t := i, t
		g.Go(func() error {
			avail, err := s.checkForRestaurant(gctx, restaurant, date, t, 1, "")
			if err != nil || avail.AvailableSpaces <= 0 {
				return nil
			}
			results[i] = &model.Slot{
				Time:            t,
				AvailableSpaces: avail.AvailableSpaces,
				MaxCapacity:     avail.MaxCapacity,
			}
			return nil
		})
	}
	_ = g.Wait()

	slots := make([]model.Slot, 0, len(results))
	for _, s := range results {
		if s != nil {
			slots = append(slots, *s)
		}
	}
	return slots, nil
}
