package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/carpool/internal/model"
)

// StatusDisplay is the emoji and label shown for a booking status.
type StatusDisplay struct {
	Emoji string
	Text  string
}

func GetStatusDisplay(status model.BookingStatus) StatusDisplay {
	displays := map[model.BookingStatus]StatusDisplay{
		model.BookingStatusPending:   {"⏳", "Waiting for the driver"},
		model.BookingStatusAccepted:  {"✅", "Accepted"},
		model.BookingStatusRejected:  {"🚫", "Rejected"},
		model.BookingStatusCancelled: {"❌", "Cancelled"},
		model.BookingStatusCompleted: {"✔️", "Completed"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Unknown"}
}

// FormatEvent renders a booking event as a Telegram HTML message.
func FormatEvent(event model.BookingEvent) string {
	var sb strings.Builder

	switch event.Kind {
	case model.BookingEventCreated:
		sb.WriteString("🚗 <b>New booking request</b>\n")
		if event.Booking != nil {
			sb.WriteString(fmt.Sprintf("Seats: %d\n", event.Booking.Seats))
			if msg := strings.TrimSpace(event.Booking.Message); msg != "" {
				sb.WriteString(fmt.Sprintf("Message: <i>%s</i>\n", html.EscapeString(msg)))
			}
		}
	case model.BookingEventStatusChanged:
		status := model.BookingStatus("")
		if event.Booking != nil {
			status = event.Booking.Status
		}
		d := GetStatusDisplay(status)
		sb.WriteString(fmt.Sprintf("%s <b>Booking %s</b>\n", d.Emoji, strings.ToLower(d.Text)))
	case model.BookingEventRideCancelled:
		sb.WriteString("❌ <b>Ride cancelled by the driver</b>\n")
	case model.BookingEventRideCompleted:
		sb.WriteString("🏁 <b>Ride completed</b>\nDon't forget to leave a review.\n")
	default:
		sb.WriteString("ℹ️ <b>Booking update</b>\n")
	}

	if r := event.Ride; r != nil {
		sb.WriteString(fmt.Sprintf("%s → %s\n",
			html.EscapeString(r.PickupLocation),
			html.EscapeString(r.DropLocation),
		))
		sb.WriteString(fmt.Sprintf("🕐 %s\n", r.DepartsAt.Format("02.01.2006 15:04")))
	}

	return strings.TrimRight(sb.String(), "\n")
}
