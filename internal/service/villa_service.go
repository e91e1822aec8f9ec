package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/villa-web/internal/apiclient"
	"github.com/iliyamo/villa-web/internal/model"
	"github.com/iliyamo/villa-web/internal/store"
)

const (
	MsgFetchVillasFailed = "Failed to fetch villas"

	msgVillaLoadFailed    = "Failed to load villa details."
	msgListingsFailed     = "Failed to fetch your properties."
	msgVillaCreateFailed  = "Failed to create villa."
	msgVillaUpdated       = "Villa updated successfully!"
	msgVillaUpdateFailed  = "Failed to update villa."
	msgVillaDeleted       = "Villa deleted successfully."
	msgVillaDeleteFailed  = "Failed to delete villa."
	msgCapacityInvalid    = "Please enter a valid capacity between 1 and 50"
	msgCapacityFailed     = "Failed to update guest capacity"
	msgAvailabilitySaved  = "Availability updated!"
	msgAvailabilityFailed = "Could not update availability."
	msgAISearchFailed     = "AI search failed"

	MaxCapacity = 50
)

// Amenities is the fixed set of amenity keys a listing can carry.
var Amenities = []string{
	"wifi", "pool", "kitchen", "ac", "parking", "tv",
	"garden", "bbq", "gym", "spa", "privateBeach", "cinema",
}

// VillaForm is the host listing form.  On update only non-nil scalar
// fields are sent, mirroring an edit that touched just those inputs.
type VillaForm struct {
	Title          *string
	Description    *string
	Address        *string
	Price          *float64
	Bedrooms       *int
	Bathrooms      *int
	Area           *float64
	Guests         *int
	Amenities      map[string]bool
	Photos         []apiclient.File
	PhotosToDelete []string
}

// ValidateCreate enforces the minimum for a new listing.
func (f VillaForm) ValidateCreate() *Error {
	switch {
	case f.Title == nil || strings.TrimSpace(*f.Title) == "":
		return invalid("Title is required.")
	case f.Address == nil || strings.TrimSpace(*f.Address) == "":
		return invalid("Location is required.")
	case len(f.Photos) == 0:
		return invalid("Please upload at least one photo.")
	case f.Price == nil || *f.Price <= 0:
		return invalid("Price must be greater than 0.")
	case f.Guests == nil || *f.Guests < 1:
		return invalid("Maximum guests must be at least 1.")
	}
	return f.validateRanges()
}

func (f VillaForm) validateRanges() *Error {
	switch {
	case f.Price != nil && *f.Price <= 0:
		return invalid("Price must be greater than 0.")
	case f.Guests != nil && (*f.Guests < 1 || *f.Guests > MaxCapacity):
		return invalid(msgCapacityInvalid)
	case f.Bedrooms != nil && *f.Bedrooms < 0, f.Bathrooms != nil && *f.Bathrooms < 0, f.Area != nil && *f.Area < 0:
		return invalid("Room counts and area cannot be negative.")
	}
	for k := range f.Amenities {
		if !knownAmenity(k) {
			return invalid(fmt.Sprintf("Unknown amenity %q.", k))
		}
	}
	return nil
}

func knownAmenity(k string) bool {
	for _, a := range Amenities {
		if a == k {
			return true
		}
	}
	return false
}

// form encodes f as the multipart body the listing endpoints take.
func (f VillaForm) form() (*apiclient.Form, error) {
	out := apiclient.NewForm()
	setStr := func(k string, v *string) {
		if v != nil {
			out.Set(k, strings.TrimSpace(*v))
		}
	}
	setStr("title", f.Title)
	setStr("description", f.Description)
	setStr("address", f.Address)
	if f.Price != nil {
		out.Set("price", strconv.FormatFloat(*f.Price, 'f', -1, 64))
	}
	if f.Bedrooms != nil {
		out.Set("bedrooms", strconv.Itoa(*f.Bedrooms))
	}
	if f.Bathrooms != nil {
		out.Set("bathrooms", strconv.Itoa(*f.Bathrooms))
	}
	if f.Area != nil {
		out.Set("area", strconv.FormatFloat(*f.Area, 'f', -1, 64))
	}
	if f.Guests != nil {
		out.Set("guests", strconv.Itoa(*f.Guests))
	}
	if f.Amenities != nil {
		// every known key is sent so unchecked boxes clear server-side
		amen := make(map[string]bool, len(Amenities))
		for _, a := range Amenities {
			amen[a] = f.Amenities[a]
		}
		b, err := json.Marshal(amen)
		if err != nil {
			return nil, err
		}
		out.Set("amenities", string(b))
	}
	if len(f.PhotosToDelete) > 0 {
		b, err := json.Marshal(f.PhotosToDelete)
		if err != nil {
			return nil, err
		}
		out.Set("photosToDelete", string(b))
	}
	for _, p := range f.Photos {
		p.Field = "photos"
		out.Attach(p)
	}
	return out, nil
}

// VillaService reads listings and runs host listing management.
type VillaService struct {
	api *apiclient.Client
	log logrus.FieldLogger
}

func NewVillaService(api *apiclient.Client, log logrus.FieldLogger) *VillaService {
	return &VillaService{api: api, log: log}
}

// Search fetches listings matching q into the search partition.  Only the
// newest search of a session may write its results.
func (s *VillaService) Search(ctx context.Context, st *store.Store, q model.SearchQuery) ([]model.Villa, error) {
	seq := st.BeginSearch(&q)
	var villas []model.Villa
	if err := client(s.api, st).Get(ctx, "/villas", q.Values(), &villas); err != nil {
		e := fail(err, MsgFetchVillasFailed)
		// a superseded search carries an older seq and is dropped here
		st.Dispatch(store.VillasFailed{Seq: seq, Err: e.Message})
		if errors.Is(ctx.Err(), context.Canceled) {
			s.log.WithError(err).Debug("villas: search cancelled")
		} else {
			s.log.WithError(err).Warn("villas: search failed")
		}
		return nil, e
	}
	st.Dispatch(store.VillasLoaded{Seq: seq, Villas: villas})
	return villas, nil
}

// Browse lists every villa.
func (s *VillaService) Browse(ctx context.Context, st *store.Store) ([]model.Villa, error) {
	return s.Search(ctx, st, model.SearchQuery{})
}

// AISearch runs a free-text search.  It does not touch the search
// partition.
func (s *VillaService) AISearch(ctx context.Context, st *store.Store, text string) ([]model.Villa, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("Please describe what you are looking for.")
	}
	var villas []model.Villa
	if err := client(s.api, st).Get(ctx, "/villas/ai-search", url.Values{"query": {text}}, &villas); err != nil {
		s.log.WithError(err).Warn("villas: ai search failed")
		return nil, fail(err, msgAISearchFailed)
	}
	return villas, nil
}

// Get loads one villa.
func (s *VillaService) Get(ctx context.Context, st *store.Store, id string) (*model.Villa, error) {
	var v model.Villa
	if err := client(s.api, st).Do(ctx, http.MethodGet, villaPath(id), nil, &v); err != nil {
		return nil, fail(err, msgVillaLoadFailed)
	}
	return &v, nil
}

// MyListings returns the signed-in host's villas.
func (s *VillaService) MyListings(ctx context.Context, st *store.Store) ([]model.Villa, error) {
	var villas []model.Villa
	if err := client(s.api, st).Do(ctx, http.MethodGet, "/villas/my-listings", nil, &villas); err != nil {
		st.Toast("error", msgListingsFailed)
		return nil, fail(err, msgListingsFailed)
	}
	return villas, nil
}

// Create posts a new listing.
func (s *VillaService) Create(ctx context.Context, st *store.Store, f VillaForm) (*model.Villa, error) {
	if err := f.ValidateCreate(); err != nil {
		return nil, err
	}
	if f.Amenities == nil {
		f.Amenities = map[string]bool{}
	}
	body, err := f.form()
	if err != nil {
		return nil, invalid(err.Error())
	}
	var v model.Villa
	if err := client(s.api, st).DoMultipart(ctx, http.MethodPost, "/villas", body, &v); err != nil {
		e := fail(err, msgVillaCreateFailed)
		st.Toast("error", e.Message)
		s.log.WithError(err).Warn("villas: create failed")
		return nil, e
	}
	st.Toast("success", "Villa listed successfully!")
	s.log.WithField("villa", v.ID).Info("villas: created")
	return &v, nil
}

// Update sends the changed fields of an existing listing.
func (s *VillaService) Update(ctx context.Context, st *store.Store, id string, f VillaForm) (*model.Villa, error) {
	if err := f.validateRanges(); err != nil {
		return nil, err
	}
	body, err := f.form()
	if err != nil {
		return nil, invalid(err.Error())
	}
	var v model.Villa
	if err := client(s.api, st).DoMultipart(ctx, http.MethodPut, villaPath(id), body, &v); err != nil {
		st.Toast("error", msgVillaUpdateFailed)
		s.log.WithError(err).WithField("villa", id).Warn("villas: update failed")
		return nil, fail(err, msgVillaUpdateFailed)
	}
	st.Toast("success", msgVillaUpdated)
	return &v, nil
}

// UpdateCapacity changes only the guest capacity (1..50).
func (s *VillaService) UpdateCapacity(ctx context.Context, st *store.Store, id string, guests int) (*model.Villa, error) {
	if guests < 1 || guests > MaxCapacity {
		st.Toast("error", msgCapacityInvalid)
		return nil, invalid(msgCapacityInvalid)
	}
	var v model.Villa
	if err := client(s.api, st).Do(ctx, http.MethodPut, villaPath(id), map[string]int{"guests": guests}, &v); err != nil {
		st.Toast("error", msgCapacityFailed)
		return nil, fail(err, msgCapacityFailed)
	}
	st.Toast("success", fmt.Sprintf("Guest capacity updated to %d", guests))
	return &v, nil
}

// Delete removes a listing.
func (s *VillaService) Delete(ctx context.Context, st *store.Store, id string) error {
	if err := client(s.api, st).Do(ctx, http.MethodDelete, villaPath(id), nil, nil); err != nil {
		st.Toast("error", msgVillaDeleteFailed)
		s.log.WithError(err).WithField("villa", id).Warn("villas: delete failed")
		return fail(err, msgVillaDeleteFailed)
	}
	st.Toast("success", msgVillaDeleted)
	return nil
}

// AddUnavailability blocks a date range and returns the updated villa.
func (s *VillaService) AddUnavailability(ctx context.Context, st *store.Store, id string, from, to time.Time) (*model.Villa, error) {
	if from.IsZero() || to.IsZero() || model.Day(to).Before(model.Day(from)) {
		st.Toast("error", msgAvailabilityFailed)
		return nil, invalid("Please select a valid date range.")
	}
	body := model.Interval{Start: from.UTC(), End: to.UTC()}
	var v model.Villa
	if err := client(s.api, st).Do(ctx, http.MethodPost, villaPath(id)+"/unavailability", body, &v); err != nil {
		st.Toast("error", msgAvailabilityFailed)
		return nil, fail(err, msgAvailabilityFailed)
	}
	st.Toast("success", msgAvailabilitySaved)
	return &v, nil
}

// BlockedDays lists every calendar day covered by the villa's
// unavailability, sorted, for the date picker.
func BlockedDays(v *model.Villa) []time.Time {
	seen := map[time.Time]bool{}
	for _, iv := range v.Unavailability {
		for d := model.Day(iv.Start); !d.After(model.Day(iv.End)); d = d.AddDate(0, 0, 1) {
			seen[d] = true
		}
	}
	out := make([]time.Time, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func villaPath(id string) string { return "/villas/" + url.PathEscape(id) }
