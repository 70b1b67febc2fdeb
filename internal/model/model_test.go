package model

import (
	"errors"
	"testing"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusPending, true}, // capacity-relevant modify demotes
		{StatusConfirmed, StatusRejected, false},
		{StatusRejected, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusPending, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.ok {
			t.Errorf("%s -> %s = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusPending:   false,
		StatusConfirmed: false,
		StatusRejected:  true,
		StatusCancelled: true,
		StatusCompleted: true,
	}
	for s, want := range terminal {
		if got := s.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, got, want)
		}
	}
}

func TestRestaurantValidate(t *testing.T) {
	good := Restaurant{ID: "r1", MaxCapacity: 10, OpeningTime: 540, ClosingTime: 1320, ServiceDuration: 90}
	if err := good.Validate(); err != nil {
		t.Errorf("valid profile rejected: %v", err)
	}

	cases := []struct {
		name string
		r    Restaurant
	}{
		{"zero capacity", Restaurant{MaxCapacity: 0, OpeningTime: 540, ClosingTime: 1320, ServiceDuration: 90}},
		{"zero duration", Restaurant{MaxCapacity: 10, OpeningTime: 540, ClosingTime: 1320, ServiceDuration: 0}},
		{"hours wrap", Restaurant{MaxCapacity: 10, OpeningTime: 1320, ClosingTime: 540, ServiceDuration: 90}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.r.Validate()
			if err == nil {
				t.Fatal("malformed profile accepted")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("got %T, want *ValidationError", err)
			}
		})
	}
}
