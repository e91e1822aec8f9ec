package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/villa-web/internal/apiclient"
	"github.com/iliyamo/villa-web/internal/model"
	"github.com/iliyamo/villa-web/internal/store"
)

func strp(s string) *string   { return &s }
func f64p(f float64) *float64 { return &f }
func intp(n int) *int         { return &n }
func photo() apiclient.File   { return apiclient.File{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte("jpeg")} }

func validForm() VillaForm {
	return VillaForm{
		Title: strp("Cliff House"), Address: strp("Goa"), Description: strp("Sea view"),
		Price: f64p(250), Bedrooms: intp(3), Bathrooms: intp(2), Area: f64p(180), Guests: intp(6),
		Amenities: map[string]bool{"wifi": true, "pool": true},
		Photos:    []apiclient.File{photo()},
	}
}

func TestVillaFormValidateCreate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *VillaForm)
		want   string
	}{
		{"valid", func(*VillaForm) {}, ""},
		{"no photo", func(f *VillaForm) { f.Photos = nil }, "Please upload at least one photo."},
		{"zero price", func(f *VillaForm) { f.Price = f64p(0) }, "Price must be greater than 0."},
		{"no guests", func(f *VillaForm) { f.Guests = intp(0) }, "Maximum guests must be at least 1."},
		{"too many guests", func(f *VillaForm) { f.Guests = intp(51) }, msgCapacityInvalid},
		{"missing title", func(f *VillaForm) { f.Title = strp("  ") }, "Title is required."},
		{"unknown amenity", func(f *VillaForm) { f.Amenities["helipad"] = true }, `Unknown amenity "helipad".`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)
			err := f.ValidateCreate()
			if tt.want == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, tt.want, err.Message)
		})
	}
}

func TestVillaCreateSendsMultipart(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("POST /api/villas", func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "Cliff House", r.FormValue("title"))
		assert.Equal(t, "Goa", r.FormValue("address"))
		assert.Equal(t, "250", r.FormValue("price"))
		assert.Equal(t, "6", r.FormValue("guests"))
		var amen map[string]bool
		assert.NoError(t, json.Unmarshal([]byte(r.FormValue("amenities")), &amen))
		assert.Len(t, amen, len(Amenities))
		assert.True(t, amen["pool"])
		assert.False(t, amen["gym"])
		assert.Len(t, r.MultipartForm.File["photos"], 1)
		writeJSON(w, http.StatusCreated, map[string]any{"_id": "v9", "title": r.FormValue("title")})
	})
	svc := NewVillaService(api.client(), quietLogger())

	v, err := svc.Create(context.Background(), signedIn(model.RoleHost), validForm())
	require.NoError(t, err)
	assert.Equal(t, "v9", v.ID)

	f := validForm()
	f.Photos = nil
	_, err = svc.Create(context.Background(), signedIn(model.RoleHost), f)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, 1, api.count("POST /api/villas"))
}

func TestVillaUpdateSendsOnlyChangedFields(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("PUT /api/villas/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "300", r.FormValue("price"))
		_, hasTitle := r.MultipartForm.Value["title"]
		assert.False(t, hasTitle)
		assert.Equal(t, `["https://img/1.jpg"]`, r.FormValue("photosToDelete"))
		writeJSON(w, http.StatusOK, map[string]any{"_id": r.PathValue("id"), "price": 300})
	})
	svc := NewVillaService(api.client(), quietLogger())
	st := signedIn(model.RoleHost)

	v, err := svc.Update(context.Background(), st, "v1", VillaForm{Price: f64p(300), PhotosToDelete: []string{"https://img/1.jpg"}})
	require.NoError(t, err)
	assert.Equal(t, 300.0, v.Price)
	assert.Equal(t, "Villa updated successfully!", st.DrainToasts()[0].Text)
}

func TestUpdateCapacity(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("PUT /api/villas/{id}", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]int
		_ = json.NewDecoder(r.Body).Decode(&in)
		writeJSON(w, http.StatusOK, map[string]any{"_id": r.PathValue("id"), "guests": in["guests"]})
	})
	svc := NewVillaService(api.client(), quietLogger())
	ctx := context.Background()

	for _, n := range []int{0, 51, -3} {
		_, err := svc.UpdateCapacity(ctx, signedIn(model.RoleHost), "v1", n)
		assert.ErrorIs(t, err, ErrInvalid, "capacity %d", n)
	}
	for _, n := range []int{1, 50} {
		v, err := svc.UpdateCapacity(ctx, signedIn(model.RoleHost), "v1", n)
		require.NoError(t, err)
		assert.Equal(t, n, v.MaxGuests)
	}
	assert.Equal(t, 2, api.count("PUT /api/villas/v1"))
}

func TestAddUnavailabilityAndDelete(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("POST /api/villas/{id}/unavailability", func(w http.ResponseWriter, r *http.Request) {
		var iv model.Interval
		_ = json.NewDecoder(r.Body).Decode(&iv)
		writeJSON(w, http.StatusOK, model.Villa{ID: r.PathValue("id"), Unavailability: []model.Interval{iv}})
	})
	api.json("DELETE /api/villas/{id}", http.StatusForbidden, map[string]string{"message": "Not your listing"})
	svc := NewVillaService(api.client(), quietLogger())
	st := signedIn(model.RoleHost)
	ctx := context.Background()

	v, err := svc.AddUnavailability(ctx, st, "v1", day("2026-05-01"), day("2026-05-03"))
	require.NoError(t, err)
	assert.Len(t, BlockedDays(v), 3)

	_, err = svc.AddUnavailability(ctx, st, "v1", day("2026-05-03"), day("2026-05-01"))
	assert.ErrorIs(t, err, ErrInvalid)

	err = svc.Delete(ctx, st, "v1")
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusForbidden, e.Status)
	assert.Equal(t, "Not your listing", e.Message)
	toasts := st.DrainToasts()
	assert.Equal(t, "Failed to delete villa.", toasts[len(toasts)-1].Text)
}

func TestBlockedDaysMergesOverlaps(t *testing.T) {
	v := &model.Villa{Unavailability: []model.Interval{
		{Start: day("2026-01-02"), End: day("2026-01-04")},
		{Start: day("2026-01-03"), End: day("2026-01-05")},
	}}
	got := BlockedDays(v)
	require.Len(t, got, 4)
	assert.Equal(t, day("2026-01-02"), got[0])
	assert.Equal(t, day("2026-01-05"), got[3])
}

func TestSearchWritesStore(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("GET /api/villas", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("location") == "nowhere" {
			writeJSON(w, http.StatusInternalServerError, map[string]string{})
			return
		}
		writeJSON(w, http.StatusOK, []model.Villa{{ID: "v1"}, {ID: "v2"}})
	})
	svc := NewVillaService(api.client(), quietLogger())
	st := signedIn(model.RoleUser)
	ctx := context.Background()

	_, err := svc.Search(ctx, st, model.SearchQuery{Location: "goa", Guests: model.Guests(2)})
	require.NoError(t, err)
	vs := st.State().Villas
	assert.Len(t, vs.Villas, 2)
	assert.False(t, vs.Loading)
	req, _ := api.request("GET /api/villas")
	assert.Equal(t, "goa", req.URL.Query().Get("location"))
	assert.Equal(t, "2", req.URL.Query().Get("guests"))

	_, err = svc.Search(ctx, st, model.SearchQuery{Location: "nowhere"})
	require.Error(t, err)
	assert.Equal(t, MsgFetchVillasFailed, st.State().Villas.Error)
}

func TestSearcherSubmitTimeoutReportsError(t *testing.T) {
	api := newFakeAPI(t)
	api.handle("GET /api/villas", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	st := signedIn(model.RoleUser)
	s := NewSearcher(context.Background(), NewVillaService(api.client(), quietLogger()), st, time.Hour)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := s.Submit(ctx, model.SearchQuery{Location: "goa", Guests: model.Guests(2)})
	require.Error(t, err)

	vs := st.State().Villas
	assert.False(t, vs.Loading)
	assert.Equal(t, MsgFetchVillasFailed, vs.Error)
}

func TestSearcherDebouncesBurst(t *testing.T) {
	api := newFakeAPI(t)
	api.json("GET /api/villas", http.StatusOK, []model.Villa{{ID: "v1"}})
	st := signedIn(model.RoleUser)
	s := NewSearcher(context.Background(), NewVillaService(api.client(), quietLogger()), st, 60*time.Millisecond)
	defer s.Close()

	for _, loc := range []string{"a", "ab", "abc"} {
		s.Input(model.SearchQuery{Location: loc})
		time.Sleep(10 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return api.count("GET /api/villas") == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, api.count("GET /api/villas"))
	req, _ := api.request("GET /api/villas")
	assert.Equal(t, "abc", req.URL.Query().Get("location"))
}

func TestSearcherSkipsEmptyInput(t *testing.T) {
	api := newFakeAPI(t)
	api.json("GET /api/villas", http.StatusOK, []model.Villa{})
	s := NewSearcher(context.Background(), NewVillaService(api.client(), quietLogger()), store.New(), 20*time.Millisecond)
	defer s.Close()

	s.Input(model.SearchQuery{Location: "go"})
	s.Input(model.SearchQuery{Location: "   "})
	assert.False(t, s.Pending())
	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, api.count("GET /api/villas"))
}

func TestSearcherSubmit(t *testing.T) {
	api := newFakeAPI(t)
	api.json("GET /api/villas", http.StatusOK, []model.Villa{{ID: "v1"}})
	s := NewSearcher(context.Background(), NewVillaService(api.client(), quietLogger()), store.New(), time.Hour)
	defer s.Close()
	ctx := context.Background()

	_, err := s.Submit(ctx, model.SearchQuery{Guests: model.Guests(2)})
	require.Error(t, err)
	assert.Equal(t, "Location required", err.(*Error).Message)
	_, err = s.Submit(ctx, model.SearchQuery{Location: "goa", Guests: model.Guests(0)})
	require.Error(t, err)
	assert.Equal(t, "Min 1 guest", err.(*Error).Message)

	s.Input(model.SearchQuery{Location: "go"})
	villas, err := s.Submit(ctx, model.SearchQuery{Location: "goa", Guests: model.Guests(2)})
	require.NoError(t, err)
	assert.Len(t, villas, 1)
	assert.False(t, s.Pending(), "submit supersedes the pending debounced search")
}

func TestSearcherCancelsSupersededRequest(t *testing.T) {
	api := newFakeAPI(t)
	var slowCancelled atomic.Bool
	api.handle("GET /api/villas", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("location") == "slow" {
			select {
			case <-r.Context().Done():
				slowCancelled.Store(true)
				return
			case <-time.After(time.Second):
			}
			writeJSON(w, http.StatusOK, []model.Villa{{ID: "stale"}})
			return
		}
		writeJSON(w, http.StatusOK, []model.Villa{{ID: "fresh"}})
	})
	st := signedIn(model.RoleUser)
	s := NewSearcher(context.Background(), NewVillaService(api.client(), quietLogger()), st, time.Hour)
	defer s.Close()

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), model.SearchQuery{Location: "slow", Guests: model.Guests(1)})
		done <- err
	}()
	require.Eventually(t, func() bool { return api.count("GET /api/villas") == 1 }, time.Second, 5*time.Millisecond)

	_, err := s.Submit(context.Background(), model.SearchQuery{Location: "fast", Guests: model.Guests(1)})
	require.NoError(t, err)
	assert.Error(t, <-done)

	vs := st.State().Villas
	require.Len(t, vs.Villas, 1)
	assert.Equal(t, "fresh", vs.Villas[0].ID)
	assert.Empty(t, vs.Error, "a cancelled search does not report an error")
	assert.Eventually(t, slowCancelled.Load, time.Second, 5*time.Millisecond)
}
