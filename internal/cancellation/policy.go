package cancellation

import (
	"time"

	"github.com/campuspool/backend/internal/bookings"
)

// Verdict is the policy outcome for a cancellation attempt
type Verdict struct {
	Actor               bookings.Actor `json:"actor"`
	Late                bool           `json:"late"`
	Tags                []string       `json:"tags"`
	EtiquettePaymentDue bool           `json:"etiquette_payment_due"`
}

// Evaluate applies the cancellation policy. A rider cancelling strictly
// inside the window before departure is tagged late-cancel and owes the
// etiquette payment; at exactly the window boundary the cancellation is
// still free. Drivers cancel fee-free at any time.
func Evaluate(actor bookings.Actor, departAt, now time.Time, windowHours float64) Verdict {
	verdict := Verdict{Actor: actor, Tags: []string{}}
	if actor != bookings.ActorRider {
		return verdict
	}

	hoursUntilDeparture := departAt.Sub(now).Hours()
	if hoursUntilDeparture < windowHours {
		verdict.Late = true
		verdict.Tags = append(verdict.Tags, bookings.TagLateCancel)
		verdict.EtiquettePaymentDue = true
	}
	return verdict
}
