package notify

import (
	"fmt"

	"fleetbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramSender is the subset of the bot API the notifier needs.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// AdminNotifier pushes short booking alerts to the configured admin chats.
// It is optional: a nil notifier is safe to call.
type AdminNotifier struct {
	bot     TelegramSender
	chatIDs []int64
	logger  zerolog.Logger
}

func NewAdminNotifier(bot TelegramSender, chatIDs []int64, logger *zerolog.Logger) *AdminNotifier {
	var l zerolog.Logger
	if logger != nil {
		l = logger.With().Str("component", "admin_notifier").Logger()
	}
	return &AdminNotifier{bot: bot, chatIDs: chatIDs, logger: l}
}

// BookingCreated alerts admins about a new request waiting for review.
func (n *AdminNotifier) BookingCreated(b *models.Booking) {
	if n == nil || n.bot == nil {
		return
	}

	text := fmt.Sprintf(
		"New booking request %s\nVehicle: %s\nDates: %s to %s\nCustomer: %s",
		b.Reference,
		vehicleLabel(b),
		b.StartDate.Format(models.DateLayout),
		b.EndDate.Format(models.DateLayout),
		b.CustomerName,
	)
	n.broadcast(text)
}

// BookingReviewed alerts admins that a request was approved or rejected.
func (n *AdminNotifier) BookingReviewed(b *models.Booking, decision string) {
	if n == nil || n.bot == nil {
		return
	}

	text := fmt.Sprintf(
		"Booking %s is now %s\nVehicle: %s\nDates: %s to %s",
		b.Reference,
		decision,
		vehicleLabel(b),
		b.StartDate.Format(models.DateLayout),
		b.EndDate.Format(models.DateLayout),
	)
	n.broadcast(text)
}

func (n *AdminNotifier) broadcast(text string) {
	for _, chatID := range n.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("admin notification failed")
		}
	}
}

func vehicleLabel(b *models.Booking) string {
	if b.VehicleName != "" {
		return b.VehicleName
	}
	return b.VehicleID
}
