package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/table-reservations/internal/model"
	"github.com/example/table-reservations/internal/repository"
	"github.com/example/table-reservations/internal/timeslot"
)

// memStore is an in-memory RestaurantStore + ReservationStore for unit tests.
// A single mutex serialises Book/Reschedule the way the Postgres row lock
// does, so it gives the same atomicity guarantee as the real store.
type memStore struct {
	mu           sync.Mutex
	restaurants  map[string]*model.Restaurant
	reservations map[string]*model.Reservation
	seq          int
}

func newMemStore() *memStore {
	return &memStore{
		restaurants:  make(map[string]*model.Restaurant),
		reservations: make(map[string]*model.Reservation),
	}
}

func (m *memStore) addRestaurant(r *model.Restaurant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restaurants[r.ID] = r
}

func (m *memStore) GetByID(ctx context.Context, id string) (*model.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.restaurants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// reservationStore adapts memStore to the ReservationStore interface; kept as
// a separate type because both interfaces declare GetByID.
type reservationStore struct {
	*memStore
}

func (m reservationStore) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

// occupiedLocked mirrors the SQL overlap predicate: active statuses only,
// closed-interval intersection, optional self-exclusion. Caller holds mu.
func (m *memStore) occupiedLocked(restaurantID, date string, winStart, winEnd timeslot.Time, duration int, exclude string) int {
	total := 0
	for _, res := range m.reservations {
		if res.RestaurantID != restaurantID || res.Date != date || res.ID == exclude {
			continue
		}
		if res.Status != model.StatusPending && res.Status != model.StatusConfirmed {
			continue
		}
		start := res.Time.Minutes()
		end := start + duration
		if start <= winEnd.Minutes() && end >= winStart.Minutes() {
			total += res.PartySize
		}
	}
	return total
}

func (m reservationStore) OccupiedCapacity(ctx context.Context, restaurantID, date string, winStart, winEnd timeslot.Time, duration int, exclude string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.occupiedLocked(restaurantID, date, winStart, winEnd, duration, exclude), nil
}

func (m reservationStore) Book(ctx context.Context, res *model.Reservation) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	restaurant, ok := m.restaurants[res.RestaurantID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	available := restaurant.MaxCapacity - m.occupiedLocked(
		res.RestaurantID, res.Date,
		res.Time.Sub(restaurant.ServiceDuration), res.Time.Add(restaurant.ServiceDuration),
		restaurant.ServiceDuration, "")
	if available < res.PartySize {
		return nil, &repository.CapacityError{
			AvailableSpaces: available,
			MaxCapacity:     restaurant.MaxCapacity,
			RequestedSize:   res.PartySize,
		}
	}
	m.seq++
	now := time.Now().UTC()
	cp := *res
	cp.ID = fmt.Sprintf("res-%d", m.seq)
	cp.Status = model.StatusPending
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.reservations[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m reservationStore) Reschedule(ctx context.Context, res *model.Reservation) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	restaurant, ok := m.restaurants[res.RestaurantID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if _, ok := m.reservations[res.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	available := restaurant.MaxCapacity - m.occupiedLocked(
		res.RestaurantID, res.Date,
		res.Time.Sub(restaurant.ServiceDuration), res.Time.Add(restaurant.ServiceDuration),
		restaurant.ServiceDuration, res.ID)
	if available < res.PartySize {
		return nil, &repository.CapacityError{
			AvailableSpaces: available,
			MaxCapacity:     restaurant.MaxCapacity,
			RequestedSize:   res.PartySize,
		}
	}
	cp := *res
	cp.UpdatedAt = time.Now().UTC()
	m.reservations[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m reservationStore) Update(ctx context.Context, res *model.Reservation) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[res.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	cp := *res
	cp.UpdatedAt = time.Now().UTC()
	m.reservations[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m reservationStore) SetStatus(ctx context.Context, id string, status model.Status, reason string) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	res.Status = status
	res.RejectionReason = reason
	res.UpdatedAt = time.Now().UTC()
	cp := *res
	return &cp, nil
}

func (m reservationStore) ListPending(ctx context.Context) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, res := range m.reservations {
		if res.Status == model.StatusPending {
			out = append(out, *res)
		}
	}
	sortReservations(out)
	return out, nil
}

func (m reservationStore) ListByDate(ctx context.Context, restaurantID, date string) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, res := range m.reservations {
		if res.RestaurantID == restaurantID && res.Date == date {
			out = append(out, *res)
		}
	}
	sortReservations(out)
	return out, nil
}

func (m reservationStore) List(ctx context.Context, f repository.ListFilter) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, res := range m.reservations {
		if f.Status != "" && res.Status != f.Status {
			continue
		}
		if f.Date != "" && res.Date != f.Date {
			continue
		}
		if f.RestaurantID != "" && res.RestaurantID != f.RestaurantID {
			continue
		}
		out = append(out, *res)
	}
	sortReservations(out)
	return out, nil
}

func sortReservations(rs []model.Reservation) {
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0; j-- {
			a, b := rs[j-1], rs[j]
			if a.Date < b.Date || (a.Date == b.Date && a.Time <= b.Time) {
				break
			}
			rs[j-1], rs[j] = b, a
		}
	}
}

// recordNotifier captures notifications on a channel so tests can wait for
// the fire-and-forget goroutine.
type recordNotifier struct {
	pending  chan Notification
	rejected chan Notification
}

func newRecordNotifier() *recordNotifier {
	return &recordNotifier{
		pending:  make(chan Notification, 8),
		rejected: make(chan Notification, 8),
	}
}

func (n *recordNotifier) ReservationPending(ctx context.Context, m Notification) error {
	n.pending <- m
	return nil
}

func (n *recordNotifier) ReservationRejected(ctx context.Context, m Notification) error {
	n.rejected <- m
	return nil
}
