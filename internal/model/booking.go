package model

import "time"

// Booking is a confirmed (paid) stay as listed on the guest's bookings page.
type Booking struct {
	ID        string     `json:"_id"`
	Villa     VillaRef   `json:"villa"`
	User      *BookingBy `json:"user,omitempty"`
	CheckIn   time.Time  `json:"checkIn"`
	CheckOut  time.Time  `json:"checkOut"`
	Price     float64    `json:"price"`
	Status    string     `json:"status"`
	Guests    int        `json:"guests"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// BookingBy is the guest block of a booking detail.
type BookingBy struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PaymentOrder is the gateway order created by the backend for the cart.
type PaymentOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency,omitempty"`
}

// CreatedOrder is the backend answer to create-order: the gateway order and
// the pending bookings it pays for.
type CreatedOrder struct {
	Order      PaymentOrder `json:"order"`
	BookingIDs []string     `json:"bookingIds"`
}

// GatewayResponse is the signed payload the checkout widget hands back on
// success.  It is forwarded verbatim for server-side signature checks.
type GatewayResponse struct {
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

// PaymentVerification is posted to the verify endpoint.
type PaymentVerification struct {
	GatewayResponse
	BookingIDs []string `json:"bookingIds" validate:"required,min=1"`
}
