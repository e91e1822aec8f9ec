package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/villa-web/internal/apiclient"
	"github.com/iliyamo/villa-web/internal/model"
	"github.com/iliyamo/villa-web/internal/queue"
	"github.com/iliyamo/villa-web/internal/store"
)

const (
	msgPaymentUnavailable = "Payment service is currently unavailable."
	msgPaymentInitFailed  = "Payment initiation failed. Please try again."
	msgPaymentVerifyFail  = "Payment verification failed."
	msgCartEmpty          = "Your cart is empty."
)

// PaymentSettings configure the checkout widget.
type PaymentSettings struct {
	KeyID    string
	Currency string
	Merchant string
}

// EventPublisher receives booking-paid events.
type EventPublisher interface {
	PublishBookingPaid(ctx context.Context, ev queue.BookingPaidEvent) error
}

// Prefill seeds the checkout widget's contact fields.
type Prefill struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// CheckoutOptions is everything the browser needs to open the gateway
// widget, plus the booking ids it must hand back on success.
type CheckoutOptions struct {
	Key         string   `json:"key"`
	Amount      int64    `json:"amount"`
	Currency    string   `json:"currency"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	OrderID     string   `json:"order_id"`
	BookingIDs  []string `json:"bookingIds"`
	Prefill     Prefill  `json:"prefill"`
}

type pendingOrder struct {
	order   model.PaymentOrder
	created time.Time
}

// PaymentService runs the two-step gateway checkout.
type PaymentService struct {
	api      *apiclient.Client
	cart     *CartService
	settings PaymentSettings
	pub      EventPublisher
	log      logrus.FieldLogger

	mu     sync.Mutex
	orders map[string]pendingOrder
}

// NewPaymentService returns the service; pub may be nil.
func NewPaymentService(api *apiclient.Client, cart *CartService, settings PaymentSettings, pub EventPublisher, log logrus.FieldLogger) *PaymentService {
	if settings.Currency == "" {
		settings.Currency = "INR"
	}
	return &PaymentService{api: api, cart: cart, settings: settings, pub: pub, log: log, orders: map[string]pendingOrder{}}
}

// CreateOrder asks the backend for a gateway order covering the cart.
func (s *PaymentService) CreateOrder(ctx context.Context, st *store.Store) (CheckoutOptions, error) {
	if s.settings.KeyID == "" {
		s.log.Error("payments: PAYMENT_KEY_ID is not configured")
		st.Toast("error", msgPaymentUnavailable)
		return CheckoutOptions{}, &Error{Status: http.StatusServiceUnavailable, Message: msgPaymentUnavailable}
	}
	state := st.State()
	if state.Cart.Status == store.CartSucceeded && len(state.Cart.View().Items) == 0 {
		return CheckoutOptions{}, invalid(msgCartEmpty)
	}

	var created model.CreatedOrder
	if err := client(s.api, st).Do(ctx, http.MethodPost, "/payments/create-order", struct{}{}, &created); err != nil {
		st.Toast("error", msgPaymentInitFailed)
		s.log.WithError(err).Warn("payments: create order failed")
		return CheckoutOptions{}, fail(err, msgPaymentInitFailed)
	}
	s.remember(created.Order)

	opts := CheckoutOptions{
		Key:         s.settings.KeyID,
		Amount:      created.Order.Amount,
		Currency:    s.settings.Currency,
		Name:        s.settings.Merchant,
		Description: "Villa Reservation Payment",
		OrderID:     created.Order.ID,
		BookingIDs:  created.BookingIDs,
	}
	if u := state.Auth.User; u != nil {
		opts.Prefill = Prefill{Name: u.Name, Email: u.Email}
	}
	return opts, nil
}

// Verify forwards the gateway's signed response.  On success the cart is
// re-fetched (the backend empties it) and a booking-paid event is
// published without waiting.
func (s *PaymentService) Verify(ctx context.Context, st *store.Store, sessionID string, v model.PaymentVerification) error {
	if len(v.BookingIDs) == 0 {
		return invalid("bookingIds are required")
	}
	if err := client(s.api, st).Do(ctx, http.MethodPost, "/payments/verify", v, nil); err != nil {
		st.Toast("error", msgPaymentVerifyFail)
		s.log.WithError(err).WithField("order", v.OrderID).Warn("payments: verify failed")
		return fail(err, msgPaymentVerifyFail)
	}
	st.Toast("success", MsgBookingSuccess)

	if _, err := s.cart.Fetch(ctx, st); err != nil {
		s.log.WithError(err).Warn("payments: cart refresh after verify failed")
	}

	order := s.take(v.OrderID)
	ev := queue.BookingPaidEvent{
		SessionID:  sessionID,
		OrderID:    v.OrderID,
		PaymentID:  v.PaymentID,
		BookingIDs: v.BookingIDs,
		Amount:     order.Amount,
		Currency:   s.settings.Currency,
		PaidAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if u := st.State().Auth.User; u != nil {
		ev.UserID, ev.UserEmail = u.ID, u.Email
	}
	s.publish(ctx, ev)
	return nil
}

func (s *PaymentService) publish(ctx context.Context, ev queue.BookingPaidEvent) {
	if s.pub == nil {
		return
	}
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	go func() {
		defer cancel()
		if err := s.pub.PublishBookingPaid(bg, ev); err != nil {
			s.log.WithError(err).WithField("order", ev.OrderID).Warn("payments: publish booking.paid failed")
		}
	}()
}

func (s *PaymentService) remember(o model.PaymentOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, p := range s.orders {
		if now.Sub(p.created) > time.Hour {
			delete(s.orders, id)
		}
	}
	s.orders[o.ID] = pendingOrder{order: o, created: now}
}

func (s *PaymentService) take(orderID string) model.PaymentOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.orders[orderID]
	delete(s.orders, orderID)
	if !ok {
		return model.PaymentOrder{ID: orderID}
	}
	return p.order
}

// MajorUnits converts a gateway amount (paise) to rupees for display.
func MajorUnits(amount int64) float64 {
	return float64(amount) / 100
}
