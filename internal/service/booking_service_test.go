package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/villa-web/internal/model"
)

func TestBookingsMineSkipsOrphans(t *testing.T) {
	api := newFakeAPI(t)
	api.json("GET /api/bookings/mybookings", http.StatusOK, []map[string]any{
		{"_id": "b1", "villa": map[string]any{"_id": "v1", "title": "Cliff House"}, "price": 500, "status": "confirmed"},
		{"_id": "b2", "villa": nil, "price": 90},
		{"_id": "b3", "villa": "v2", "price": 90},
	})
	api.json("GET /api/bookings/{id}", http.StatusOK, map[string]any{
		"_id": "b1", "villa": map[string]any{"_id": "v1"}, "user": map[string]any{"_id": "u1", "name": "Ann"},
	})
	svc := NewBookingService(api.client(), quietLogger())
	st := signedIn(model.RoleUser)

	got, err := svc.Mine(context.Background(), st)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b1", got[0].ID)
	assert.Equal(t, "b3", got[1].ID, "an unpopulated villa id is kept")

	b, err := svc.Get(context.Background(), st, "b1")
	require.NoError(t, err)
	require.NotNil(t, b.User)
	assert.Equal(t, "Ann", b.User.Name)

	_, err = svc.Get(context.Background(), st, "")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestBookingGetNotFound(t *testing.T) {
	api := newFakeAPI(t)
	api.json("GET /api/bookings/{id}", http.StatusNotFound, map[string]string{"message": "Booking not found"})
	svc := NewBookingService(api.client(), quietLogger())

	_, err := svc.Get(context.Background(), signedIn(model.RoleUser), "nope")
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusNotFound, e.Status)
	assert.Equal(t, "Booking not found", e.Message)
}
