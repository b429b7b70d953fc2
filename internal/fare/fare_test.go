package fare

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seatings(seatCounts ...int) []Seating {
	s := make([]Seating, len(seatCounts))
	for i, seats := range seatCounts {
		s[i] = Seating{BookingID: uuid.New(), Seats: seats}
	}
	return s
}

func sum(shares []Share) int64 {
	var total int64
	for _, s := range shares {
		total += s.AmountCents
	}
	return total
}

func TestEstimatePerSeat(t *testing.T) {
	tests := []struct {
		name       string
		totalCents int64
		seatsTotal int
		expect     int64
	}{
		{"even division", 15000, 3, 5000},
		{"rounds up", 10000, 3, 3334},
		{"single seat", 10000, 1, 10000},
		{"one cent", 1, 4, 1},
		{"zero cost", 0, 3, 0},
		{"zero capacity", 15000, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, EstimatePerSeat(tt.totalCents, tt.seatsTotal))
		})
	}
}

func TestEstimate_MultipliesBySeatsRequested(t *testing.T) {
	// 15000 / 3 seats capacity = 5000 per seat
	assert.Equal(t, int64(5000), Estimate(15000, 3, 1))
	assert.Equal(t, int64(10000), Estimate(15000, 3, 2))
}

func TestEstimate_UnaffectedByOtherBookings(t *testing.T) {
	// The estimate depends only on designed capacity, never on how many
	// seats happen to be booked at estimation time.
	first := Estimate(15000, 3, 1)
	second := Estimate(15000, 3, 1)
	assert.Equal(t, first, second)
}

func TestSettle_EvenSplit(t *testing.T) {
	// Two single-seat bookings against 15000: floor(15000/2)=7500, remainder 0
	shares, err := Settle(15000, seatings(1, 1))
	require.NoError(t, err)
	require.Len(t, shares, 2)

	assert.Equal(t, int64(7500), shares[0].AmountCents)
	assert.Equal(t, int64(7500), shares[1].AmountCents)
	assert.Equal(t, int64(15000), sum(shares))
}

func TestSettle_RemainderGoesToEarliestBooking(t *testing.T) {
	// Three single-seat bookings against 100: base=33, remainder=1
	shares, err := Settle(100, seatings(1, 1, 1))
	require.NoError(t, err)
	require.Len(t, shares, 3)

	assert.Equal(t, int64(34), shares[0].AmountCents)
	assert.Equal(t, int64(33), shares[1].AmountCents)
	assert.Equal(t, int64(33), shares[2].AmountCents)
	assert.Equal(t, int64(100), sum(shares))
}

func TestSettle_RemainderBoundPerSeats(t *testing.T) {
	// 7 seats total against 1003: base=143, remainder=2.
	// First booking holds 1 seat, so it can absorb at most 1 extra cent;
	// the second cent falls to the next booking.
	shares, err := Settle(1003, seatings(1, 2, 4))
	require.NoError(t, err)

	assert.Equal(t, int64(143+1), shares[0].AmountCents)
	assert.Equal(t, int64(286+1), shares[1].AmountCents)
	assert.Equal(t, int64(572), shares[2].AmountCents)
	assert.Equal(t, int64(1003), sum(shares))
}

func TestSettle_ExactnessProperty(t *testing.T) {
	// Settlement exactness over a spread of costs and seat layouts
	layouts := [][]int{{1}, {1, 1}, {2, 3}, {1, 2, 3, 4}, {5, 1, 1}, {1, 1, 1, 1, 1, 1, 1}}
	costs := []int64{0, 1, 99, 100, 101, 15000, 99999, 1000001}

	for _, layout := range layouts {
		for _, cost := range costs {
			shares, err := Settle(cost, seatings(layout...))
			require.NoError(t, err)
			assert.Equal(t, cost, sum(shares), "layout %v cost %d", layout, cost)

			var totalSeats int64
			for _, s := range seatings(layout...) {
				totalSeats += int64(s.Seats)
			}
			base := cost / totalSeats
			for i, share := range shares {
				// Each booking absorbs at most one extra cent per seat held
				assert.LessOrEqual(t, share.AmountCents, base*int64(layout[i])+int64(layout[i]),
					"layout %v cost %d booking %d", layout, cost, i)
				assert.GreaterOrEqual(t, share.AmountCents, base*int64(layout[i]))
			}
		}
	}
}

func TestSettle_NonZeroShareForSeatHolders(t *testing.T) {
	shares, err := Settle(15000, seatings(1, 2))
	require.NoError(t, err)
	for _, s := range shares {
		assert.Positive(t, s.AmountCents)
	}
}

func TestSettle_ZeroSeatsBooked(t *testing.T) {
	_, err := Settle(15000, nil)
	assert.ErrorIs(t, err, ErrZeroSeatsBooked)

	_, err = Settle(15000, []Seating{})
	assert.ErrorIs(t, err, ErrZeroSeatsBooked)
}

func TestSettle_Deterministic(t *testing.T) {
	s := seatings(2, 1, 3)
	first, err := Settle(1000, s)
	require.NoError(t, err)
	second, err := Settle(1000, s)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
