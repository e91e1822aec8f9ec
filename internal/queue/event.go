// Package queue carries booking events over RabbitMQ: the publisher used
// after a verified payment and the consumer that records them.
package queue

// BookingPaidQueue is the durable queue the events travel on.
const BookingPaidQueue = "booking.paid"

// BookingPaidEvent is published once the payment gateway's signature has
// been verified by the backend.  It carries enough to log or notify without
// calling the API again.
type BookingPaidEvent struct {
	SessionID  string   `json:"session_id"`
	UserID     string   `json:"user_id"`
	UserEmail  string   `json:"user_email,omitempty"`
	OrderID    string   `json:"order_id"`
	PaymentID  string   `json:"payment_id"`
	BookingIDs []string `json:"booking_ids"`
	Amount     int64    `json:"amount"` // smallest currency unit
	Currency   string   `json:"currency"`
	PaidAt     string   `json:"paid_at"`
}
