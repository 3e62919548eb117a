package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fleetbook/internal/database"
	"fleetbook/internal/mailer"
	"fleetbook/internal/metrics"
	"fleetbook/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	KindRequestReceived = "request_received"
	KindStatusUpdate    = "status_update"
)

// Sender is the outbound mail transport consumed by the worker.
type Sender interface {
	Enabled() bool
	Send(ctx context.Context, msg mailer.Message) error
}

// mailTaskPayload is persisted in MailTask.Payload as JSON.
type mailTaskPayload struct {
	Booking   *models.Booking `json:"booking"`
	OldStatus string          `json:"old_status,omitempty"`
	NewStatus string          `json:"new_status,omitempty"`
}

// MailWorker drains the mail outbox and delivers notification emails.
// Delivery is best-effort: a failing send is retried with backoff, and after
// MaxRetries the task lands in the dead-letter list. Nothing here ever
// reaches back into booking state.
type MailWorker struct {
	db            *database.DB
	sender        Sender
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.MailTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        zerolog.Logger
}

// NewMailWorker builds a worker with sane defaults. redisClient may be nil;
// the worker then runs on the in-memory queue plus outbox polling alone.
func NewMailWorker(db *database.DB, sender Sender, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *MailWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = models.DefaultMaxMailRetries
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	var workerLogger zerolog.Logger
	if logger != nil {
		workerLogger = logger.With().Str("component", "mail_worker").Logger()
	}

	return &MailWorker{
		db:            db,
		sender:        sender,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.MailTask, models.MailQueueSize),
		redisQueueKey: "mail:queue",
		deadLetterKey: "mail:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        workerLogger,
	}
}

// EnqueueMail persists a notification task to the outbox and schedules it via
// redis or the in-memory queue. The task survives a restart either way
// because the outbox row is written first.
func (w *MailWorker) EnqueueMail(ctx context.Context, kind string, booking *models.Booking, oldStatus, newStatus string) error {
	if kind == "" {
		return errors.New("task kind is required")
	}
	if booking == nil || booking.ID == 0 {
		return errors.New("booking id is required")
	}

	payloadBytes, err := json.Marshal(mailTaskPayload{
		Booking:   booking,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.MailTask{
		Kind:      kind,
		BookingID: booking.ID,
		Recipient: booking.CustomerEmail,
		Payload:   string(payloadBytes),
		Status:    "pending",
	}

	if err := w.db.CreateMailTask(ctx, &task); err != nil {
		return fmt.Errorf("persist mail task: %w", err)
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("redis push failed, falling back to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("in-memory queue full, task left to outbox polling")
	}

	return nil
}

// Start launches the main loop; stops when ctx is done.
func (w *MailWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("mail worker started")
	defer w.logger.Info().Msg("mail worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingMailTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("fetch pending mail tasks")
			w.sleep(ctx)
			continue
		}
		if len(tasks) == 0 {
			w.sleep(ctx)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *MailWorker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.pollInterval):
	}
}

func (w *MailWorker) tryLocalQueue() (models.MailTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.MailTask{}, false
	}
}

func (w *MailWorker) pushRedis(ctx context.Context, task models.MailTask) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, raw).Err()
}

func (w *MailWorker) tryRedis(ctx context.Context) (models.MailTask, bool) {
	if w.redis == nil {
		return models.MailTask{}, false
	}

	raw, err := w.redis.RPop(ctx, w.redisQueueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			w.logger.Warn().Err(err).Msg("redis pop failed")
		}
		return models.MailTask{}, false
	}

	var task models.MailTask
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		w.logger.Error().Err(err).Str("raw", raw).Msg("decode queued mail task")
		return models.MailTask{}, false
	}
	return task, true
}

func (w *MailWorker) processTask(ctx context.Context, task *models.MailTask) {
	var payload mailTaskPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil || payload.Booking == nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("invalid mail task payload")
		w.markStatus(ctx, task.ID, "failed", "invalid payload", nil)
		return
	}

	if !w.sender.Enabled() {
		// Mail transport not configured: the notification is a convenience,
		// not a guarantee. Close the task without delivery.
		w.logger.Info().Int64("task_id", task.ID).Msg("mailer disabled, skipping notification")
		w.markStatus(ctx, task.ID, "completed", "skipped: mailer disabled", nil)
		return
	}

	msg := w.renderMessage(task.Kind, payload)

	sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	err := w.sender.Send(sendCtx, msg)
	cancel()

	if err == nil {
		metrics.IncMailSent()
		w.markStatus(ctx, task.ID, "completed", "", nil)
		return
	}

	w.logger.Error().Err(err).
		Int64("task_id", task.ID).
		Int64("booking_id", task.BookingID).
		Str("kind", task.Kind).
		Msg("mail delivery failed")

	if int(task.RetryCount)+1 >= w.retryPolicy.MaxRetries {
		metrics.IncMailFailed()
		w.markStatus(ctx, task.ID, "failed", err.Error(), nil)
		w.pushDeadLetter(ctx, task)
		return
	}

	next := time.Now().Add(w.retryPolicy.NextDelay(int(task.RetryCount) + 1))
	w.markStatus(ctx, task.ID, "retry", err.Error(), &next)
}

func (w *MailWorker) renderMessage(kind string, payload mailTaskPayload) mailer.Message {
	switch kind {
	case KindStatusUpdate:
		newStatus := payload.NewStatus
		if newStatus == "" {
			newStatus = payload.Booking.Status
		}
		return mailer.StatusUpdate(payload.Booking, newStatus, payload.Booking.AdminNote)
	default:
		return mailer.RequestReceived(payload.Booking)
	}
}

func (w *MailWorker) markStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) {
	if err := w.db.UpdateMailTaskStatus(ctx, id, status, errMsg, nextRetryAt); err != nil {
		w.logger.Error().Err(err).Int64("task_id", id).Msg("update mail task status")
	}
}

func (w *MailWorker) pushDeadLetter(ctx context.Context, task *models.MailTask) {
	if w.redis == nil {
		return
	}
	raw, err := json.Marshal(task)
	if err != nil {
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, raw).Err(); err != nil {
		w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("dead letter push failed")
	}
}
