package notify

import (
	"context"
	"time"

	"fleetbook/internal/events"
	"fleetbook/internal/models"
	"fleetbook/internal/worker"

	"github.com/rs/zerolog"
)

// MailEnqueuer schedules a notification email for asynchronous delivery.
type MailEnqueuer interface {
	EnqueueMail(ctx context.Context, kind string, booking *models.Booking, oldStatus, newStatus string) error
}

// SenderStatus reports whether the outbound mail transport is usable.
type SenderStatus interface {
	Enabled() bool
}

// Dispatcher translates booking lifecycle events into notifications. It runs
// strictly after the state change that triggered it, and its failures are
// logged, never propagated to the caller that mutated the booking.
type Dispatcher struct {
	queue    MailEnqueuer
	sender   SenderStatus
	telegram *AdminNotifier
	logger   zerolog.Logger
}

func NewDispatcher(queue MailEnqueuer, sender SenderStatus, telegram *AdminNotifier, logger *zerolog.Logger) *Dispatcher {
	var l zerolog.Logger
	if logger != nil {
		l = logger.With().Str("component", "notify").Logger()
	}
	return &Dispatcher{queue: queue, sender: sender, telegram: telegram, logger: l}
}

// Register subscribes the dispatcher to the booking event stream.
func (d *Dispatcher) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, d.handleCreated)
	bus.Subscribe(events.EventBookingStatusChanged, d.handleStatusChanged)
}

func (d *Dispatcher) handleCreated(e *events.Event) error {
	payload, err := events.DecodeBookingPayload(e)
	if err != nil {
		d.logger.Error().Err(err).Msg("decode booking created event")
		return nil
	}
	b := payload.Booking
	if b == nil {
		return nil
	}

	d.telegram.BookingCreated(b)

	if !d.shouldMail(b) {
		return nil
	}
	d.enqueue(worker.KindRequestReceived, b, "", "")
	return nil
}

func (d *Dispatcher) handleStatusChanged(e *events.Event) error {
	payload, err := events.DecodeBookingPayload(e)
	if err != nil {
		d.logger.Error().Err(err).Msg("decode booking status event")
		return nil
	}
	b := payload.Booking
	if b == nil {
		return nil
	}

	// Only terminal decisions notify the customer. A no-op transition
	// produces nothing.
	if !models.IsTerminalStatus(payload.NewStatus) || payload.NewStatus == payload.OldStatus {
		return nil
	}

	d.telegram.BookingReviewed(b, payload.NewStatus)

	if !d.shouldMail(b) {
		return nil
	}
	d.enqueue(worker.KindStatusUpdate, b, payload.OldStatus, payload.NewStatus)
	return nil
}

func (d *Dispatcher) shouldMail(b *models.Booking) bool {
	if b.CustomerEmail == "" {
		d.logger.Info().Str("reference", b.Reference).Msg("booking has no customer email, skipping mail")
		return false
	}
	if d.sender != nil && !d.sender.Enabled() {
		d.logger.Info().Str("reference", b.Reference).Msg("mailer disabled, skipping mail")
		return false
	}
	return true
}

func (d *Dispatcher) enqueue(kind string, b *models.Booking, oldStatus, newStatus string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.queue.EnqueueMail(ctx, kind, b, oldStatus, newStatus); err != nil {
		d.logger.Error().Err(err).
			Str("kind", kind).
			Str("reference", b.Reference).
			Msg("enqueue notification mail")
	}
}
