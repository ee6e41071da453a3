package types

// ChangeType of a row event delivered by the change feed.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Tables observed by the change feed.
const (
	TableBookings     = "bookings"
	TableChatMessages = "chat_messages"
	TableCarChats     = "car_chats"
)

// Broadcast events.
const (
	EventLocationUpdate = "location_update"
)
