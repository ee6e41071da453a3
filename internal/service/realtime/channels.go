package realtime

const (
	driverLocationPrefix = "driver-location-"
	rideStatusPrefix     = "ride-status-"
	bookingUpdatesPrefix = "booking-updates-"
	rideRequestsPrefix   = "ride-requests-"
	chatPrefix           = "chat-"
	carChatPrefix        = "car-chat-"
)

func DriverLocationChannel(bookingID string) string { return driverLocationPrefix + bookingID }

func RideStatusChannel(bookingID string) string { return rideStatusPrefix + bookingID }

func BookingUpdatesChannel(userID string) string { return bookingUpdatesPrefix + userID }

func RideRequestsChannel(driverID string) string { return rideRequestsPrefix + driverID }

func ChatChannel(bookingID string) string { return chatPrefix + bookingID }

func CarChatChannel(listingID string) string { return carChatPrefix + listingID }
