package helpers

import (
	"time"

	"github.com/google/uuid"

	"github.com/campuspool/backend/internal/bookings"
	"github.com/campuspool/backend/internal/rides"
)

// CreateTestRide creates an open ride with default values
func CreateTestRide(driverID uuid.UUID) *rides.Ride {
	now := time.Now().UTC()
	return &rides.Ride{
		ID:             uuid.New(),
		DriverID:       driverID,
		OriginText:     "North Campus",
		DestText:       "Downtown Station",
		DepartAt:       now.Add(48 * time.Hour),
		TotalCostCents: 15000,
		SeatsTotal:     3,
		SeatsAvailable: 3,
		Status:         rides.RideStatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// CreateTestBooking creates an authorized booking with default values
func CreateTestBooking(rideID, riderID uuid.UUID) *bookings.Booking {
	now := time.Now().UTC()
	code := "123456"
	expires := now.Add(24 * time.Hour)
	return &bookings.Booking{
		ID:                uuid.New(),
		RideID:            rideID,
		RiderID:           riderID,
		Seats:             1,
		Status:            bookings.BookingStatusAuthorized,
		AuthEstimateCents: 5000,
		TripStartOTP:      &code,
		OTPExpiresAt:      &expires,
		Tags:              []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// CreateTestParty creates contact info for one side of a booking
func CreateTestParty(id uuid.UUID, name, email string) *bookings.Party {
	return &bookings.Party{ID: id, FullName: name, Email: email}
}

// CreateTestContext bundles a booking with its ride and both parties
func CreateTestContext(ride *rides.Ride, booking *bookings.Booking) *bookings.Context {
	return &bookings.Context{
		Booking: booking,
		Ride:    ride,
		Rider:   CreateTestParty(booking.RiderID, "Ada Rider", "ada@campus.edu"),
		Driver:  CreateTestParty(ride.DriverID, "Dan Driver", "dan@campus.edu"),
	}
}
