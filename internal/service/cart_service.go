package service

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/villa-web/internal/apiclient"
	"github.com/iliyamo/villa-web/internal/model"
	"github.com/iliyamo/villa-web/internal/store"
)

const (
	MsgAddedToCart     = "Added to Cart!"
	MsgRemovedFromCart = "Removed from Cart"
	MsgBookingSuccess  = "Booking Successful!"

	msgCartFetchFailed = "Failed to load cart"
	msgAddFailed       = "Failed to add to cart"
	msgRemoveFailed    = "Failed to remove item"
	msgCheckoutFailed  = "Checkout failed"
	msgLoginToAdd      = "Please log in to add items to your cart."
)

// CartService mirrors the server-side cart into the session's cart
// partition.  Every mutation adopts the cart the server returns.
type CartService struct {
	api *apiclient.Client
	log logrus.FieldLogger
}

func NewCartService(api *apiclient.Client, log logrus.FieldLogger) *CartService {
	return &CartService{api: api, log: log}
}

// Fetch reloads the cart.  A failure keeps the previous items.
func (s *CartService) Fetch(ctx context.Context, st *store.Store) ([]model.CartItem, error) {
	st.Dispatch(store.CartFetchStarted{})
	var items []model.CartItem
	if err := client(s.api, st).Do(ctx, http.MethodGet, "/cart", nil, &items); err != nil {
		e := fail(err, msgCartFetchFailed)
		st.Dispatch(store.CartFetchFailed{})
		st.Toast("error", e.Message)
		s.log.WithError(err).Warn("cart: fetch failed")
		return nil, e
	}
	st.Dispatch(store.CartLoaded{Items: items})
	return items, nil
}

// Add validates the stay against the villa and posts it.  The price sent is
// always nights × nightly rate, whatever the caller supplied.
func (s *CartService) Add(ctx context.Context, st *store.Store, villa *model.Villa, in model.AddToCart) ([]model.CartItem, error) {
	if st.State().Auth.Phase() == store.PhaseUnauthenticated {
		st.Toast("error", msgLoginToAdd)
		return nil, &Error{Status: http.StatusUnauthorized, Message: msgLoginToAdd}
	}
	if err := ValidateStay(villa, in); err != nil {
		st.Toast("error", err.Message)
		return nil, err
	}
	in.VillaID = villa.ID
	in.CheckIn = model.Day(in.CheckIn)
	in.CheckOut = model.Day(in.CheckOut)
	in.Price = StayPrice(villa, in.CheckIn, in.CheckOut)

	var items []model.CartItem
	if err := client(s.api, st).Do(ctx, http.MethodPost, "/cart", in, &items); err != nil {
		e := fail(err, msgAddFailed)
		st.Toast("error", e.Message)
		s.log.WithError(err).WithField("villa", villa.ID).Warn("cart: add failed")
		return nil, e
	}
	st.Dispatch(store.CartReplaced{Items: items})
	st.Toast("success", MsgAddedToCart)
	return items, nil
}

// Remove deletes one cart item.
func (s *CartService) Remove(ctx context.Context, st *store.Store, itemID string) ([]model.CartItem, error) {
	if itemID == "" {
		return nil, invalid("cart item id is required")
	}
	var items []model.CartItem
	if err := client(s.api, st).Do(ctx, http.MethodDelete, "/cart/"+url.PathEscape(itemID), nil, &items); err != nil {
		e := fail(err, msgRemoveFailed)
		st.Toast("error", e.Message)
		s.log.WithError(err).WithField("item", itemID).Warn("cart: remove failed")
		return nil, e
	}
	st.Dispatch(store.CartReplaced{Items: items})
	st.Toast("success", MsgRemovedFromCart)
	return items, nil
}

// Checkout books every cart item without the payment gateway.  On success
// the local cart is emptied.
func (s *CartService) Checkout(ctx context.Context, st *store.Store) error {
	if err := client(s.api, st).Do(ctx, http.MethodPost, "/cart/checkout", struct{}{}, nil); err != nil {
		e := fail(err, msgCheckoutFailed)
		st.Toast("error", e.Message)
		s.log.WithError(err).Warn("cart: checkout failed")
		return e
	}
	st.Dispatch(store.CartCleared{})
	st.Toast("success", MsgBookingSuccess)
	return nil
}

// ValidateStay checks a stay against the villa's capacity and blocked dates.
func ValidateStay(villa *model.Villa, in model.AddToCart) *Error {
	if villa == nil {
		return invalid("Villa not found")
	}
	nights := model.Nights(in.CheckIn, in.CheckOut)
	switch {
	case in.CheckIn.IsZero() || in.CheckOut.IsZero() || nights < 1:
		return invalid("Please select a valid date range.")
	case in.Guests < 1:
		return invalid("At least 1 guest is required.")
	case villa.MaxGuests > 0 && in.Guests > villa.MaxGuests:
		return invalid(fmt.Sprintf("This villa can accommodate maximum %s only.", plural(villa.MaxGuests, "guest")))
	case villa.Blocked(in.CheckIn, in.CheckOut):
		return invalid("The selected dates are unavailable.")
	}
	return nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// StayPrice is nights × nightly price, rounded to cents.
func StayPrice(villa *model.Villa, in, out time.Time) float64 {
	return math.Round(float64(model.Nights(in, out))*villa.Price*100) / 100
}
