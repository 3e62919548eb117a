package models

import "time"

// MailTask is an outbox row for a queued notification email.
type MailTask struct {
	ID          int64      `json:"id"`
	Kind        string     `json:"kind"`
	BookingID   int64      `json:"booking_id"`
	Recipient   string     `json:"recipient"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"` // pending, retry, completed, failed
	RetryCount  int64      `json:"retry_count"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}
