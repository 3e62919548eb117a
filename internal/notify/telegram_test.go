package notify

import (
	"testing"
	"time"

	"fleetbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBot struct {
	sent []tgbotapi.Chattable
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func TestAdminNotifierBroadcasts(t *testing.T) {
	bot := &fakeBot{}
	logger := zerolog.Nop()
	n := NewAdminNotifier(bot, []int64{100, 200}, &logger)

	b := &models.Booking{
		Reference:   "ref-9",
		VehicleName: "Toyota Hiace",
		StartDate:   time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC),
	}

	n.BookingCreated(b)
	require.Len(t, bot.sent, 2)

	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(100), msg.ChatID)
	assert.Contains(t, msg.Text, "ref-9")
	assert.Contains(t, msg.Text, "Toyota Hiace")

	n.BookingReviewed(b, models.StatusApproved)
	require.Len(t, bot.sent, 4)

	msg, ok = bot.sent[2].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Contains(t, msg.Text, models.StatusApproved)
}

func TestAdminNotifierNilSafe(t *testing.T) {
	var n *AdminNotifier
	assert.NotPanics(t, func() {
		n.BookingCreated(&models.Booking{})
		n.BookingReviewed(&models.Booking{}, models.StatusRejected)
	})
}
