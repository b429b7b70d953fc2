package bookings

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"
)

const tripCodeTTL = 24 * time.Hour

// GenerateTripCode returns a six digit trip-start code and its expiry. The
// code is shown only to the rider and verified by the driver at pickup.
func GenerateTripCode() (string, time.Time) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64()), time.Now().UTC().Add(tripCodeTTL)
}

// OTPVerifier verifies trip-start codes stored on the booking
type OTPVerifier struct{}

func NewOTPVerifier() *OTPVerifier {
	return &OTPVerifier{}
}

func (v *OTPVerifier) Verify(_ context.Context, booking *Booking, code string) bool {
	if booking.TripStartOTP == nil || code == "" {
		return false
	}
	if booking.OTPExpiresAt != nil && time.Now().UTC().After(*booking.OTPExpiresAt) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*booking.TripStartOTP), []byte(code)) == 1
}
