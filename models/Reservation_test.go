package models

import (
	"testing"
	"time"
)

func TestReservationStatusCanTransition(t *testing.T) {
	all := []ReservationStatus{
		ReservationPending, ReservationConfirmed, ReservationCancelled, ReservationCompleted,
	}

	allowed := map[ReservationStatus][]ReservationStatus{
		ReservationPending:   {ReservationConfirmed, ReservationCancelled},
		ReservationConfirmed: {ReservationCompleted, ReservationCancelled},
		ReservationCancelled: {},
		ReservationCompleted: {},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if to == ok {
					want = true
				}
			}
			if got := from.CanTransition(to); got != want {
				t.Errorf("%s -> %s: CanTransition = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestReservationStatusTerminal(t *testing.T) {
	if ReservationPending.Terminal() || ReservationConfirmed.Terminal() {
		t.Error("pending and confirmed are not terminal")
	}
	if !ReservationCancelled.Terminal() || !ReservationCompleted.Terminal() {
		t.Error("cancelled and completed are terminal")
	}
}

func TestReservationOverlapsRange(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, time.June, d, 0, 0, 0, 0, time.UTC)
	}
	r := &Reservation{CheckIn: day(1), CheckOut: day(5)}

	if !r.OverlapsRange(day(4), day(8)) {
		t.Error("partial overlap not detected")
	}
	if r.OverlapsRange(day(5), day(8)) {
		t.Error("range starting at check-out must not overlap")
	}
	if r.OverlapsRange(day(8), day(10)) {
		t.Error("disjoint range must not overlap")
	}
}
