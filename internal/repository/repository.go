// Package repository implements all database queries for the reservation
// system. It uses pgx directly (no ORM) for transparency and performance.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/table-reservations/internal/model"
	"github.com/example/table-reservations/internal/timeslot"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when a reservation exists but the caller does not
// own it.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidTransition is returned when a status change is attempted that the
// lifecycle state machine does not permit.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrStoreUnavailable marks persistence-layer failures (connection loss,
// query timeout) as opposed to domain outcomes.
var ErrStoreUnavailable = errors.New("store unavailable")

// CapacityError is returned when an availability check fails. It carries the
// spaces that were still free so callers can report them.
type CapacityError struct {
	AvailableSpaces int
	MaxCapacity     int
	RequestedSize   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("insufficient capacity: %d spaces available, %d requested", e.AvailableSpaces, e.RequestedSize)
}

// storeErr wraps an infrastructure failure so callers can detect it with
// errors.Is(err, ErrStoreUnavailable) without losing the underlying cause.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, ErrStoreUnavailable)
}

// activeStatusesSQL is the single status filter used by every occupancy
// query. Only these states hold seats.
const activeStatusesSQL = `status IN ('pending', 'confirmed')`

// RestaurantRepository handles persistence for restaurant profiles.
type RestaurantRepository struct {
	db *pgxpool.Pool
}

// NewRestaurantRepository constructs a RestaurantRepository.
func NewRestaurantRepository(db *pgxpool.Pool) *RestaurantRepository {
	return &RestaurantRepository{db: db}
}

const restaurantColumns = `id, name, max_capacity, opening_time, closing_time,
	service_duration, phone, address, description, created_at`

func scanRestaurant(row pgx.Row) (*model.Restaurant, error) {
	var r model.Restaurant
	err := row.Scan(&r.ID, &r.Name, &r.MaxCapacity, &r.OpeningTime, &r.ClosingTime,
		&r.ServiceDuration, &r.Phone, &r.Address, &r.Description, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	// Validate on read: a malformed profile must never drive a scheduling
	// decision.
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("restaurant %s: %w", r.ID, err)
	}
	return &r, nil
}

// GetByID returns a single restaurant profile or ErrNotFound.
func (r *RestaurantRepository) GetByID(ctx context.Context, id string) (*model.Restaurant, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`, id)
	rest, err := scanRestaurant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, storeErr("get restaurant", err)
	}
	return rest, nil
}

// ReservationRepository handles persistence for reservations, including the
// capacity ledger and the transactional booking path.
type ReservationRepository struct {
	db *pgxpool.Pool
}

// NewReservationRepository constructs a ReservationRepository.
func NewReservationRepository(db *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{db: db}
}

const reservationColumns = `id, user_id, restaurant_id,
	to_char(reservation_date, 'YYYY-MM-DD'), reservation_time, party_size,
	status, special_requests, rejection_reason, created_at, updated_at`

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(&res.ID, &res.UserID, &res.RestaurantID, &res.Date, &res.Time,
		&res.PartySize, &res.Status, &res.SpecialRequests, &res.RejectionReason,
		&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GetByID returns a single reservation or ErrNotFound.
func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storeErr("get reservation", err)
	}
	return res, nil
}

// occupiedSQL sums the party sizes of active reservations whose service
// window [reservation_time, reservation_time + service_duration] intersects
// the closed interval [$3, $4]. Touching endpoints count as overlapping.
// $6 optionally excludes one reservation from the sum (re-checking a modify
// must not count the reservation's own prior occupancy).
const occupiedSQL = `
	SELECT COALESCE(SUM(party_size), 0)
	FROM reservations
	WHERE restaurant_id = $1
	  AND reservation_date = $2
	  AND ` + activeStatusesSQL + `
	  AND reservation_time <= $4
	  AND reservation_time + $5 >= $3
	  AND ($6 = '' OR id <> $6)`

// OccupiedCapacity returns the aggregate seats held by active reservations of
// (restaurantID, date) overlapping [windowStart, windowEnd]. serviceDuration
// is the restaurant's per-party seating time in minutes; exclude, when
// non-empty, names a reservation left out of the sum.
func (r *ReservationRepository) OccupiedCapacity(ctx context.Context, restaurantID, date string, windowStart, windowEnd timeslot.Time, serviceDuration int, exclude string) (int, error) {
	var occupied int
	err := r.db.QueryRow(ctx, occupiedSQL,
		restaurantID, date, windowStart.Minutes(), windowEnd.Minutes(), serviceDuration, exclude,
	).Scan(&occupied)
	if err != nil {
		return 0, storeErr("sum occupied capacity", err)
	}
	return occupied, nil
}

// Book inserts a new reservation after re-checking capacity inside a single
// transaction.
//
// The naive read-then-insert sequence is racy: two requests can both observe
// spare capacity and both insert, overshooting max_capacity. Book closes the
// race with pessimistic locking: it first takes a row-level lock on the
// restaurant (SELECT ... FOR UPDATE), which serialises concurrent bookings
// for that restaurant. Only one transaction at a time can read the overlap
// sum and write its row; the capacity invariant holds at every commit.
func (r *ReservationRepository) Book(ctx context.Context, res *model.Reservation) (*model.Reservation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, storeErr("begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	maxCapacity, serviceDuration, err := lockRestaurant(ctx, tx, res.RestaurantID)
	if err != nil {
		return nil, err
	}

	available, err := availableWithin(ctx, tx, res, maxCapacity, serviceDuration, "")
	if err != nil {
		return nil, err
	}
	if available < res.PartySize {
		err = &CapacityError{AvailableSpaces: available, MaxCapacity: maxCapacity, RequestedSize: res.PartySize}
		return nil, err
	}

	now := time.Now().UTC()
	res.ID = uuid.New().String()
	res.Status = model.StatusPending
	res.CreatedAt = now
	res.UpdatedAt = now
	_, err = tx.Exec(ctx,
		`INSERT INTO reservations (id, user_id, restaurant_id, reservation_date,
			reservation_time, party_size, status, special_requests, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		res.ID, res.UserID, res.RestaurantID, res.Date, res.Time.Minutes(),
		res.PartySize, res.Status, res.SpecialRequests, res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		return nil, storeErr("insert reservation", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, storeErr("commit transaction", err)
	}
	return res, nil
}

// Reschedule updates a reservation's capacity-relevant fields (and status)
// after re-checking capacity inside a transaction. The reservation's own row
// is excluded from the overlap sum, so a party shifting or shrinking never
// collides with its previous occupancy. Locking mirrors Book.
func (r *ReservationRepository) Reschedule(ctx context.Context, res *model.Reservation) (*model.Reservation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, storeErr("begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	maxCapacity, serviceDuration, err := lockRestaurant(ctx, tx, res.RestaurantID)
	if err != nil {
		return nil, err
	}

	available, err := availableWithin(ctx, tx, res, maxCapacity, serviceDuration, res.ID)
	if err != nil {
		return nil, err
	}
	if available < res.PartySize {
		err = &CapacityError{AvailableSpaces: available, MaxCapacity: maxCapacity, RequestedSize: res.PartySize}
		return nil, err
	}

	res.UpdatedAt = time.Now().UTC()
	tag, err := tx.Exec(ctx,
		`UPDATE reservations
		 SET reservation_date = $2, reservation_time = $3, party_size = $4,
		     status = $5, special_requests = $6, updated_at = $7
		 WHERE id = $1`,
		res.ID, res.Date, res.Time.Minutes(), res.PartySize, res.Status,
		res.SpecialRequests, res.UpdatedAt,
	)
	if err != nil {
		return nil, storeErr("update reservation", err)
	}
	if tag.RowsAffected() == 0 {
		err = ErrNotFound
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, storeErr("commit transaction", err)
	}
	return res, nil
}

// lockRestaurant takes the row-level lock that serialises bookings for one
// restaurant and returns its capacity profile.
func lockRestaurant(ctx context.Context, tx pgx.Tx, restaurantID string) (maxCapacity, serviceDuration int, err error) {
	err = tx.QueryRow(ctx,
		`SELECT max_capacity, service_duration FROM restaurants WHERE id = $1 FOR UPDATE`,
		restaurantID,
	).Scan(&maxCapacity, &serviceDuration)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrNotFound
		}
		return 0, 0, storeErr("lock restaurant row", err)
	}
	return maxCapacity, serviceDuration, nil
}

// availableWithin computes the spaces still free around res's requested time,
// inside the caller's transaction. The window spans serviceDuration on both
// sides of the requested time: wide enough to catch parties still seated when
// this one arrives and parties arriving before this one leaves.
func availableWithin(ctx context.Context, tx pgx.Tx, res *model.Reservation, maxCapacity, serviceDuration int, exclude string) (int, error) {
	windowStart := res.Time.Sub(serviceDuration)
	windowEnd := res.Time.Add(serviceDuration)
	var occupied int
	err := tx.QueryRow(ctx, occupiedSQL,
		res.RestaurantID, res.Date, windowStart.Minutes(), windowEnd.Minutes(), serviceDuration, exclude,
	).Scan(&occupied)
	if err != nil {
		return 0, storeErr("sum occupied capacity", err)
	}
	return maxCapacity - occupied, nil
}

// Update persists non-capacity field changes (special requests) without a
// capacity re-check.
func (r *ReservationRepository) Update(ctx context.Context, res *model.Reservation) (*model.Reservation, error) {
	res.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx,
		`UPDATE reservations SET special_requests = $2, updated_at = $3 WHERE id = $1`,
		res.ID, res.SpecialRequests, res.UpdatedAt,
	)
	if err != nil {
		return nil, storeErr("update reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return res, nil
}

// SetStatus updates a reservation's lifecycle state and returns the updated
// record. Transition legality is the service layer's responsibility; this is
// a plain write.
func (r *ReservationRepository) SetStatus(ctx context.Context, id string, status model.Status, reason string) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRow(ctx,
		`UPDATE reservations
		 SET status = $2, rejection_reason = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+reservationColumns,
		id, status, reason,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storeErr("set reservation status", err)
	}
	return res, nil
}

// ListPending returns all pending reservations ordered by (date, time)
// ascending, the order an admin works through the approval queue.
func (r *ReservationRepository) ListPending(ctx context.Context) ([]model.Reservation, error) {
	return r.list(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE status = 'pending'
		 ORDER BY reservation_date ASC, reservation_time ASC`)
}

// ListByDate returns all reservations of a restaurant on one date, ordered by
// time ascending.
func (r *ReservationRepository) ListByDate(ctx context.Context, restaurantID, date string) ([]model.Reservation, error) {
	return r.list(ctx,
		`SELECT `+reservationColumns+`
		 FROM reservations
		 WHERE restaurant_id = $1 AND reservation_date = $2
		 ORDER BY reservation_time ASC`,
		restaurantID, date)
}

// ListFilter narrows the admin reservation listing. Zero fields match
// everything.
type ListFilter struct {
	Status       model.Status
	Date         string
	RestaurantID string
}

// List returns reservations matching the filter, newest first.
func (r *ReservationRepository) List(ctx context.Context, f ListFilter) ([]model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE 1=1`
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if f.Date != "" {
		args = append(args, f.Date)
		query += fmt.Sprintf(` AND reservation_date = $%d`, len(args))
	}
	if f.RestaurantID != "" {
		args = append(args, f.RestaurantID)
		query += fmt.Sprintf(` AND restaurant_id = $%d`, len(args))
	}
	query += ` ORDER BY reservation_date DESC, reservation_time DESC`
	return r.list(ctx, query, args...)
}

func (r *ReservationRepository) list(ctx context.Context, query string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list reservations", err)
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, storeErr("scan reservation", err)
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list reservations", err)
	}
	return out, nil
}
