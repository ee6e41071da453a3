package notification

import (
	"strconv"
	"strings"

	"github.com/hpyride/hpyride/internal/domain/types"
)

// Template is a rendered notification ready to be stored and pushed.
type Template struct {
	Kind  types.NotificationKind
	Title string
	Body  string
	Data  map[string]string
}

func RideAccepted(driverName string) Template {
	return Template{
		Kind:  types.KindRideAccepted,
		Title: "🎉 Ride Accepted!",
		Body:  driverName + " accepted your ride request!",
	}
}

func DriverArrived(driverName, vehicleNo string) Template {
	return Template{
		Kind:  types.KindDriverArrived,
		Title: "🚗 Driver Arrived",
		Body:  driverName + " has arrived in " + vehicleNo + ". Please head to the pickup point.",
	}
}

func TripStarted() Template {
	return Template{
		Kind:  types.KindTripStarted,
		Title: "🛣️ Trip Started",
		Body:  "Your trip has started. Enjoy the ride!",
	}
}

func TripCompleted(fare float64) Template {
	return Template{
		Kind:  types.KindTripCompleted,
		Title: "✅ Trip Completed",
		Body:  "You have reached your destination. Fare: ₹" + strconv.FormatFloat(fare, 'f', -1, 64),
	}
}

func BookingConfirmed(pickup, date string) Template {
	return Template{
		Kind:  types.KindBookingConfirmed,
		Title: "📅 Booking Confirmed",
		Body:  "Your seat from " + pickup + " on " + date + " is confirmed.",
	}
}

func BookingCancelled(reason string) Template {
	return Template{
		Kind:  types.KindBookingCancelled,
		Title: "❌ Booking Cancelled",
		Body:  strings.TrimSpace("Your booking has been cancelled. " + reason),
	}
}

func NewRideRequest(riderName, pickup string) Template {
	return Template{
		Kind:  types.KindNewRideRequest,
		Title: "🔔 New Ride Request",
		Body:  riderName + " wants to join your ride from " + pickup + ".",
	}
}

func Promotional(title, body string) Template {
	return Template{
		Kind:  types.KindPromotional,
		Title: title,
		Body:  body,
	}
}

func VerificationReviewed(approved bool, reason string) Template {
	if approved {
		return Template{
			Kind:  types.KindVerificationApproved,
			Title: "✅ Verification Approved",
			Body:  "Your documents have been verified. You can now offer rides.",
		}
	}
	return Template{
		Kind:  types.KindVerificationRejected,
		Title: "⚠️ Verification Rejected",
		Body:  strings.TrimSpace("Your verification was rejected. " + reason),
	}
}

func NewMessage(senderName, text string) Template {
	const preview = 80
	if r := []rune(text); len(r) > preview {
		text = string(r[:preview]) + "…"
	}
	return Template{
		Kind:  types.KindNewMessage,
		Title: "💬 " + senderName,
		Body:  text,
	}
}

// With returns a copy of t carrying an extra data entry.
func (t Template) With(key, value string) Template {
	data := make(map[string]string, len(t.Data)+1)
	for k, v := range t.Data {
		data[k] = v
	}
	data[key] = value
	t.Data = data
	return t
}
