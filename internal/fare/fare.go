// Package fare computes per-booking cost shares for a ride. All amounts are
// integer cents; the estimate and the final settlement are deliberately
// separate computations and must never be conflated.
package fare

import (
	"errors"

	"github.com/google/uuid"
)

// ErrZeroSeatsBooked is returned when settlement is attempted with no active
// bookings. A ride that reached in_progress always has at least one.
var ErrZeroSeatsBooked = errors.New("no booked seats to settle against")

// EstimatePerSeat returns the pessimistic per-seat estimate computed against
// the ride's designed capacity: ceil(totalCostCents / seatsTotal). It does
// not depend on how many seats are booked, so later bookings never change it.
func EstimatePerSeat(totalCostCents int64, seatsTotal int) int64 {
	if seatsTotal <= 0 {
		return 0
	}
	n := int64(seatsTotal)
	return (totalCostCents + n - 1) / n
}

// Estimate returns the booking's authorization estimate: the per-seat
// estimate multiplied by the seats requested.
func Estimate(totalCostCents int64, seatsTotal, seats int) int64 {
	return EstimatePerSeat(totalCostCents, seatsTotal) * int64(seats)
}

// Seating is one booking's seat holding, in creation order.
type Seating struct {
	BookingID uuid.UUID
	Seats     int
}

// Share is the settled amount for one booking.
type Share struct {
	BookingID   uuid.UUID
	Seats       int
	AmountCents int64
}

// Settle computes the final share for each booking against the ride's total
// cost. Seat holdings must be given in booking creation order; the remainder
// after floor division is distributed front to back, at most one cent per
// seat held, so the shares always sum to totalCostCents exactly.
func Settle(totalCostCents int64, seatings []Seating) ([]Share, error) {
	var totalSeats int64
	for _, s := range seatings {
		totalSeats += int64(s.Seats)
	}
	if totalSeats <= 0 {
		return nil, ErrZeroSeatsBooked
	}

	baseSharePerSeat := totalCostCents / totalSeats
	remainder := totalCostCents % totalSeats

	shares := make([]Share, 0, len(seatings))
	for _, s := range seatings {
		amount := baseSharePerSeat * int64(s.Seats)

		extra := remainder
		if extra > int64(s.Seats) {
			extra = int64(s.Seats)
		}
		amount += extra
		remainder -= extra

		shares = append(shares, Share{
			BookingID:   s.BookingID,
			Seats:       s.Seats,
			AmountCents: amount,
		})
	}

	return shares, nil
}
