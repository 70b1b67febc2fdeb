// Package model defines the core domain types for the reservation system.
package model

import (
	"time"

	"github.com/example/table-reservations/internal/timeslot"
)

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ActiveStatuses is the one set of states that count toward occupied capacity.
// Every occupancy query filters on exactly this set.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further transitions may leave s.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine permits moving from s to
// next:
//
//	pending   -> confirmed | rejected | cancelled
//	confirmed -> cancelled | completed | pending (capacity-relevant modify)
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusRejected || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCancelled || next == StatusCompleted || next == StatusPending
	}
	return false
}

// Restaurant is the scheduling profile of a restaurant: aggregate seating
// capacity, opening hours, and how long one party occupies its seats.
type Restaurant struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	MaxCapacity     int           `json:"maxCapacity"`
	OpeningTime     timeslot.Time `json:"openingTime"`
	ClosingTime     timeslot.Time `json:"closingTime"`
	ServiceDuration int           `json:"serviceDurationMinutes"`
	Phone           string        `json:"phone,omitempty"`
	Address         string        `json:"address,omitempty"`
	Description     string        `json:"description,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// Validate rejects malformed profiles read from the store.
func (r *Restaurant) Validate() error {
	if r.MaxCapacity <= 0 {
		return &ValidationError{Field: "maxCapacity", Reason: "must be positive"}
	}
	if r.ServiceDuration <= 0 {
		return &ValidationError{Field: "serviceDurationMinutes", Reason: "must be positive"}
	}
	if r.ClosingTime <= r.OpeningTime {
		return &ValidationError{Field: "closingTime", Reason: "must be after openingTime"}
	}
	return nil
}

// Reservation is a single booking request and its lifecycle state. Date is a
// calendar date ("2006-01-02"); Time is the party's arrival time.
type Reservation struct {
	ID              string        `json:"id"`
	UserID          string        `json:"userId"`
	RestaurantID    string        `json:"restaurantId"`
	Date            string        `json:"date"`
	Time            timeslot.Time `json:"time"`
	PartySize       int           `json:"partySize"`
	Status          Status        `json:"status"`
	SpecialRequests string        `json:"specialRequests,omitempty"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// MinPartySize and MaxPartySize bound a single booking, independent of any
// restaurant's capacity.
const (
	MinPartySize = 1
	MaxPartySize = 20
)

// Availability is the outcome of a capacity check at one date/time.
type Availability struct {
	Available       bool `json:"available"`
	AvailableSpaces int  `json:"availableSpaces"`
	MaxCapacity     int  `json:"maxCapacity"`
	RequestedSize   int  `json:"requestedSize"`
}

// Slot is one open booking time offered to new bookers.
type Slot struct {
	Time            timeslot.Time `json:"time"`
	AvailableSpaces int           `json:"availableSpaces"`
	MaxCapacity     int           `json:"maxCapacity"`
}

// CreateReservationRequest is the payload for booking a table.
type CreateReservationRequest struct {
	RestaurantID    string `json:"restaurantId"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	PartySize       int    `json:"partySize"`
	SpecialRequests string `json:"specialRequests"`
}

// ModifyReservationRequest is the payload for changing an existing booking.
// Nil fields are left unchanged.
type ModifyReservationRequest struct {
	Date            *string `json:"date"`
	Time            *string `json:"time"`
	PartySize       *int    `json:"partySize"`
	SpecialRequests *string `json:"specialRequests"`
}

// RejectReservationRequest carries the admin's reason for a rejection.
type RejectReservationRequest struct {
	Reason string `json:"reason"`
}

// StatusOverrideRequest is the payload for the admin status endpoint.
type StatusOverrideRequest struct {
	Status Status `json:"status"`
}

// UserContact is the contact record the notifier needs about a guest. It is
// read-only here; account management lives with the identity collaborator.
type UserContact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationError reports a malformed input field, detected before any store
// access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}
