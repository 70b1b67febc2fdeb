package service

import (
	"context"

	"github.com/example/table-reservations/internal/model"
	"github.com/example/table-reservations/internal/repository"
	"github.com/example/table-reservations/internal/timeslot"
)

// RestaurantStore is the persistence surface the availability engine needs
// from the restaurant side.
type RestaurantStore interface {
	GetByID(ctx context.Context, id string) (*model.Restaurant, error)
}

// ReservationStore is the persistence surface of the reservation lifecycle.
// Book and Reschedule must run their capacity check and write atomically; the
// engine performs no locking of its own.
type ReservationStore interface {
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	OccupiedCapacity(ctx context.Context, restaurantID, date string, windowStart, windowEnd timeslot.Time, serviceDuration int, exclude string) (int, error)
	Book(ctx context.Context, res *model.Reservation) (*model.Reservation, error)
	Reschedule(ctx context.Context, res *model.Reservation) (*model.Reservation, error)
	Update(ctx context.Context, res *model.Reservation) (*model.Reservation, error)
	SetStatus(ctx context.Context, id string, status model.Status, reason string) (*model.Reservation, error)
	ListPending(ctx context.Context) ([]model.Reservation, error)
	ListByDate(ctx context.Context, restaurantID, date string) ([]model.Reservation, error)
	List(ctx context.Context, f repository.ListFilter) ([]model.Reservation, error)
}

// UserDirectory resolves a user id to contact details for notifications. It
// is a read-only collaborator; identity itself arrives pre-verified.
type UserDirectory interface {
	GetContact(ctx context.Context, userID string) (*model.UserContact, error)
}

// Notification carries everything the mailer needs about a reservation event.
type Notification struct {
	ReservationID   string
	UserName        string
	UserEmail       string
	UserPhone       string
	RestaurantName  string
	Date            string
	Time            timeslot.Time
	PartySize       int
	SpecialRequests string
	Reason          string
	IsModification  bool
}

// Notifier delivers reservation emails. Calls are fire-and-forget from the
// lifecycle's point of view: failures are logged, never propagated.
type Notifier interface {
	// ReservationPending announces a new or re-submitted pending reservation
	// to the guest and the admin inbox.
	ReservationPending(ctx context.Context, n Notification) error
	// ReservationRejected tells the guest their reservation was declined.
	ReservationRejected(ctx context.Context, n Notification) error
}
