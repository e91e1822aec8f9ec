package service

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/villa-web/internal/apiclient"
	"github.com/iliyamo/villa-web/internal/model"
	"github.com/iliyamo/villa-web/internal/store"
)

const (
	msgBookingsFailed = "Failed to fetch your bookings."
	msgBookingFailed  = "Failed to fetch booking details."
)

// BookingService reads the guest's confirmed bookings.
type BookingService struct {
	api *apiclient.Client
	log logrus.FieldLogger
}

func NewBookingService(api *apiclient.Client, log logrus.FieldLogger) *BookingService {
	return &BookingService{api: api, log: log}
}

// Mine lists the signed-in guest's bookings, skipping those whose villa
// has since been deleted.
func (s *BookingService) Mine(ctx context.Context, st *store.Store) ([]model.Booking, error) {
	var all []model.Booking
	if err := client(s.api, st).Do(ctx, http.MethodGet, "/bookings/mybookings", nil, &all); err != nil {
		s.log.WithError(err).Warn("bookings: list failed")
		return nil, fail(err, msgBookingsFailed)
	}
	out := make([]model.Booking, 0, len(all))
	for _, b := range all {
		if !b.Villa.Orphaned() {
			out = append(out, b)
		}
	}
	return out, nil
}

// Get loads one booking.
func (s *BookingService) Get(ctx context.Context, st *store.Store, id string) (*model.Booking, error) {
	if id == "" {
		return nil, invalid("booking id is required")
	}
	var b model.Booking
	if err := client(s.api, st).Do(ctx, http.MethodGet, "/bookings/"+url.PathEscape(id), nil, &b); err != nil {
		return nil, fail(err, msgBookingFailed)
	}
	return &b, nil
}
