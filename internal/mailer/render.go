package mailer

import (
	"fmt"
	"html"

	"fleetbook/internal/models"
)

const defaultAdminNote = "No notes provided."

// RequestReceived renders the "request received" notification sent when a
// booking is created in PENDING state.
func RequestReceived(b *models.Booking) Message {
	name := b.CustomerName
	if name == "" {
		name = "Customer"
	}

	body := fmt.Sprintf(`
        <h2>Hi %s,</h2>
        <p>We have received your booking request. Our team will review and confirm it shortly.</p>
        <p><strong>Status:</strong> %s</p>
        <hr/>
        <h3>Booking Details</h3>
        %s
        <p>If you need to make changes, reply to this email with your booking ID: <strong>%s</strong>.</p>
    `,
		html.EscapeString(name),
		models.StatusPending,
		bookingDetailsHTML(b),
		html.EscapeString(b.Reference),
	)

	return Message{
		To:      b.CustomerEmail,
		ToName:  b.CustomerName,
		Subject: fmt.Sprintf("Booking Request Received - %s", b.Reference),
		HTML:    body,
	}
}

// StatusUpdate renders the notification sent when an administrator approves
// or rejects a booking.
func StatusUpdate(b *models.Booking, newStatus, adminNote string) Message {
	name := b.CustomerName
	if name == "" {
		name = "Customer"
	}
	if adminNote == "" {
		adminNote = defaultAdminNote
	}

	body := fmt.Sprintf(`
        <h2>Hi %s,</h2>
        <p>Your booking status has been updated to: <strong>%s</strong></p>
        <p><strong>Admin Note:</strong> %s</p>
        <hr/>
        <h3>Booking Details</h3>
        %s
    `,
		html.EscapeString(name),
		html.EscapeString(newStatus),
		html.EscapeString(adminNote),
		bookingDetailsHTML(b),
	)

	return Message{
		To:      b.CustomerEmail,
		ToName:  b.CustomerName,
		Subject: fmt.Sprintf("Booking Update: %s - %s", newStatus, b.Reference),
		HTML:    body,
	}
}

func bookingDetailsHTML(b *models.Booking) string {
	vehicle := b.VehicleName
	if vehicle == "" {
		vehicle = b.VehicleID
	}
	if vehicle == "" {
		vehicle = "N/A"
	}
	pickup := b.PickupLocation
	if pickup == "" {
		pickup = "N/A"
	}
	dropoff := b.DropoffLocation
	if dropoff == "" {
		dropoff = "N/A"
	}

	return fmt.Sprintf(`
        <ul>
            <li><strong>Vehicle:</strong> %s</li>
            <li><strong>Dates:</strong> %s to %s</li>
            <li><strong>Pick-up:</strong> %s</li>
            <li><strong>Drop-off:</strong> %s</li>
        </ul>
    `,
		html.EscapeString(vehicle),
		b.StartDate.Format(models.DateLayout),
		b.EndDate.Format(models.DateLayout),
		html.EscapeString(pickup),
		html.EscapeString(dropoff),
	)
}
