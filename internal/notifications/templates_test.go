package notifications_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/campuspool/backend/internal/notifications"
)

func TestSearchAgainLink(t *testing.T) {
	departAt := time.Date(2026, 9, 12, 18, 30, 0, 0, time.UTC)

	link := notifications.SearchAgainLink("North Campus", "Downtown Station", departAt)

	assert.Contains(t, link, "/search?")
	assert.Contains(t, link, "origin=North+Campus")
	assert.Contains(t, link, "dest=Downtown+Station")
	assert.Contains(t, link, "date=2026-09-12")
}

func TestDriverCancelledNotice(t *testing.T) {
	riderID := uuid.New()
	bookingID := uuid.New()
	departAt := time.Date(2026, 9, 12, 18, 30, 0, 0, time.UTC)

	n := notifications.DriverCancelledNotice(riderID, "ada@campus.edu", "Ada", bookingID,
		"North Campus", "Downtown Station", departAt)

	assert.Equal(t, notifications.TypeBookingCancelled, n.Type)
	assert.Equal(t, riderID, n.RecipientID)
	assert.Equal(t, "driver_cancelled_apology", n.TemplateData["template"])
	link, _ := n.TemplateData["search_again_link"].(string)
	assert.Contains(t, link, "date=2026-09-12")
}

func TestRiderCancelledNotice(t *testing.T) {
	n := notifications.RiderCancelledNotice(uuid.New(), "dan@campus.edu", "Ada", uuid.New(), 2, true)

	assert.Equal(t, notifications.TypeBookingCancelled, n.Type)
	assert.Equal(t, 2, n.TemplateData["seats"])
	assert.Equal(t, true, n.TemplateData["urgent"])
}

func TestFinalShareNotice(t *testing.T) {
	n := notifications.FinalShareNotice(uuid.New(), "ada@campus.edu", uuid.New(), 7534)

	assert.Equal(t, notifications.TypeFinalShare, n.Type)
	assert.Equal(t, notifications.ChannelEmail, n.Channel)
	assert.Equal(t, int64(7534), n.TemplateData["final_share_cents"])
	assert.Equal(t, "$75.34", n.TemplateData["final_share_text"])
}

func TestDisputeOpenedNotice(t *testing.T) {
	disputeID := uuid.New()

	n := notifications.DisputeOpenedNotice(uuid.New(), "dan@campus.edu", "Ada", uuid.New(), disputeID)

	assert.Equal(t, notifications.TypeDisputeOpened, n.Type)
	assert.Equal(t, "Ada", n.TemplateData["opener_name"])
	assert.Equal(t, disputeID.String(), n.TemplateData["dispute_id"])
}
