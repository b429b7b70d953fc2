package notifications

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// SearchAgainLink builds the deep link embedded in driver-cancellation
// notices so the rider can rerun their search with the route and date
// preserved.
func SearchAgainLink(origin, dest string, departAt time.Time) string {
	params := url.Values{}
	params.Set("origin", origin)
	params.Set("dest", dest)
	params.Set("date", departAt.UTC().Format("2006-01-02"))
	return "/search?" + params.Encode()
}

// DriverCancelledNotice tells the rider their booking was cancelled by the
// driver, with an apology template and a prebuilt search-again link.
func DriverCancelledNotice(riderID uuid.UUID, riderEmail, riderName string, bookingID uuid.UUID, origin, dest string, departAt time.Time) *Notification {
	return &Notification{
		Type:           TypeBookingCancelled,
		Channel:        ChannelPush,
		RecipientID:    riderID,
		RecipientEmail: riderEmail,
		BookingID:      bookingID,
		TemplateData: map[string]interface{}{
			"template":          "driver_cancelled_apology",
			"rider_name":        riderName,
			"origin":            origin,
			"dest":              dest,
			"depart_at":         departAt.UTC().Format(time.RFC3339),
			"search_again_link": SearchAgainLink(origin, dest, departAt),
		},
	}
}

// RiderCancelledNotice tells the driver a rider has cancelled. urgent is set
// for late cancellations so the gateway can escalate the delivery.
func RiderCancelledNotice(driverID uuid.UUID, driverEmail, riderName string, bookingID uuid.UUID, seats int, urgent bool) *Notification {
	return &Notification{
		Type:           TypeBookingCancelled,
		Channel:        ChannelPush,
		RecipientID:    driverID,
		RecipientEmail: driverEmail,
		BookingID:      bookingID,
		TemplateData: map[string]interface{}{
			"template":   "rider_cancelled",
			"rider_name": riderName,
			"seats":      seats,
			"urgent":     urgent,
		},
	}
}

// BookingRequestedNotice tells the driver a rider has booked seats
func BookingRequestedNotice(driverID uuid.UUID, driverEmail, riderName string, bookingID uuid.UUID, seats int) *Notification {
	return &Notification{
		Type:           TypeBookingRequested,
		Channel:        ChannelPush,
		RecipientID:    driverID,
		RecipientEmail: driverEmail,
		BookingID:      bookingID,
		TemplateData: map[string]interface{}{
			"template":   "booking_requested",
			"rider_name": riderName,
			"seats":      seats,
		},
	}
}

// BookingConfirmedNotice tells the rider the driver accepted their booking
func BookingConfirmedNotice(riderID uuid.UUID, riderEmail string, bookingID uuid.UUID, origin, dest string, departAt time.Time) *Notification {
	return &Notification{
		Type:           TypeBookingConfirmed,
		Channel:        ChannelPush,
		RecipientID:    riderID,
		RecipientEmail: riderEmail,
		BookingID:      bookingID,
		TemplateData: map[string]interface{}{
			"template":  "booking_confirmed",
			"origin":    origin,
			"dest":      dest,
			"depart_at": departAt.UTC().Format(time.RFC3339),
		},
	}
}

// FinalShareNotice tells a rider their authoritative share after settlement
func FinalShareNotice(riderID uuid.UUID, riderEmail string, bookingID uuid.UUID, finalShareCents int64) *Notification {
	return &Notification{
		Type:           TypeFinalShare,
		Channel:        ChannelEmail,
		RecipientID:    riderID,
		RecipientEmail: riderEmail,
		BookingID:      bookingID,
		TemplateData: map[string]interface{}{
			"template":          "final_share",
			"final_share_cents": finalShareCents,
			"final_share_text":  fmt.Sprintf("$%d.%02d", finalShareCents/100, finalShareCents%100),
		},
	}
}

// DisputeOpenedNotice tells the counterparty a dispute was opened. The
// opener is assumed already aware.
func DisputeOpenedNotice(recipientID uuid.UUID, recipientEmail, openerName string, bookingID, disputeID uuid.UUID) *Notification {
	return &Notification{
		Type:           TypeDisputeOpened,
		Channel:        ChannelEmail,
		RecipientID:    recipientID,
		RecipientEmail: recipientEmail,
		BookingID:      bookingID,
		TemplateData: map[string]interface{}{
			"template":    "dispute_opened",
			"opener_name": openerName,
			"dispute_id":  disputeID.String(),
		},
	}
}
