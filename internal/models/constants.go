package models

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// ActiveStatuses are the statuses that hold a vehicle for their date range.
// REJECTED bookings release the vehicle and are excluded from conflict checks.
var ActiveStatuses = []string{StatusPending, StatusApproved}

// IsValidStatus reports whether s is one of the known booking statuses.
func IsValidStatus(s string) bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// IsTerminalStatus reports whether s accepts no further transitions.
func IsTerminalStatus(s string) bool {
	return s == StatusApproved || s == StatusRejected
}

// IsValidDecision reports whether s is a status an administrator may assign.
func IsValidDecision(s string) bool {
	return s == StatusApproved || s == StatusRejected
}

const (
	// DateLayout is the wire format for booking calendar dates.
	DateLayout = "2006-01-02"

	// MailQueueSize is the in-memory mail worker queue size.
	MailQueueSize = 128

	// DefaultMaxMailRetries bounds delivery attempts per notification.
	DefaultMaxMailRetries = 5
)
