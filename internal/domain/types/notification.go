package types

// NotificationKind is the backend kind string stored on every notification row.
type NotificationKind string

func (k NotificationKind) String() string {
	return string(k)
}

const (
	KindRideAccepted         NotificationKind = "ride_accepted"
	KindDriverArrived        NotificationKind = "driver_arrived"
	KindTripStarted          NotificationKind = "trip_started"
	KindTripCompleted        NotificationKind = "trip_completed"
	KindBookingConfirmed     NotificationKind = "booking_confirmed"
	KindBookingCancelled     NotificationKind = "booking_cancelled"
	KindNewRideRequest       NotificationKind = "new_ride_request"
	KindPromotional          NotificationKind = "promotional"
	KindVerificationApproved NotificationKind = "verification_approved"
	KindVerificationRejected NotificationKind = "verification_rejected"
	KindNewMessage           NotificationKind = "new_message"
)
