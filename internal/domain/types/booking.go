package types

// BookingStatus of a rider's seat on a ride.
type BookingStatus string

const (
	BookingRequested  BookingStatus = "requested"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingRejected   BookingStatus = "rejected"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingRequested:  {BookingConfirmed, BookingRejected, BookingCancelled},
	BookingConfirmed:  {BookingInProgress, BookingCancelled},
	BookingInProgress: {BookingCompleted},
}

func (s BookingStatus) String() string {
	return string(s)
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingRequested, BookingConfirmed, BookingRejected,
		BookingInProgress, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a booking may move from s to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsActive is true while a driver location for the booking is meaningful.
func (s BookingStatus) IsActive() bool {
	return s == BookingConfirmed || s == BookingInProgress
}

// IsFinal is true once no transition leaves s.
func (s BookingStatus) IsFinal() bool {
	return len(bookingTransitions[s]) == 0
}
