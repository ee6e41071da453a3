package types

import "testing"

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		want     bool
	}{
		{BookingRequested, BookingConfirmed, true},
		{BookingRequested, BookingRejected, true},
		{BookingRequested, BookingCancelled, true},
		{BookingRequested, BookingCompleted, false},
		{BookingConfirmed, BookingInProgress, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingRejected, false},
		{BookingInProgress, BookingCompleted, true},
		{BookingInProgress, BookingCancelled, false},
		{BookingCompleted, BookingCancelled, false},
		{BookingCancelled, BookingConfirmed, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestBookingStatus_IsActive(t *testing.T) {
	for s, want := range map[BookingStatus]bool{
		BookingRequested:  false,
		BookingConfirmed:  true,
		BookingInProgress: true,
		BookingCompleted:  false,
	} {
		if got := s.IsActive(); got != want {
			t.Errorf("%s.IsActive() = %v", s, got)
		}
	}
}

func TestBookingStatus_IsFinal(t *testing.T) {
	if !BookingCompleted.IsFinal() || !BookingRejected.IsFinal() || BookingConfirmed.IsFinal() {
		t.Fatal("unexpected IsFinal result")
	}
}
