package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Villa is a read-only listing snapshot from the backend.  It is only ever
// changed by its host through the edit form, which round-trips the server.
type Villa struct {
	ID             string          `json:"_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Address        string          `json:"address"`
	Photos         []string        `json:"photos"`
	Price          float64         `json:"price"`
	Bedrooms       int             `json:"bedrooms"`
	Bathrooms      int             `json:"bathrooms"`
	Area           float64         `json:"area"`
	MaxGuests      int             `json:"guests"`
	Amenities      map[string]bool `json:"amenities"`
	IsAvailable    bool            `json:"isAvailable"`
	Unavailability []Interval      `json:"unavailability"`
	Host           HostRef         `json:"host"`
	CreatedAt      *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time      `json:"updatedAt,omitempty"`
}

// HostRef identifies the listing owner.
type HostRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// OwnedBy reports whether u is the listing's host.
func (v Villa) OwnedBy(u *User) bool {
	return u != nil && u.ID != "" && u.ID == v.Host.ID
}

// Blocked reports whether any unavailability interval touches the stay.
func (v Villa) Blocked(checkIn, checkOut time.Time) bool {
	for _, iv := range v.Unavailability {
		if iv.Overlaps(checkIn, checkOut) {
			return true
		}
	}
	return false
}

// Interval is an unavailability period of a villa.  Both ends are inclusive
// whole days.
type Interval struct {
	ID    string    `json:"_id,omitempty"`
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

// Overlaps compares on calendar days in UTC.
func (iv Interval) Overlaps(from, to time.Time) bool {
	return !Day(from).After(Day(iv.End)) && !Day(iv.Start).After(Day(to))
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Nights counts whole nights between check-in and check-out days.
func Nights(checkIn, checkOut time.Time) int {
	return int(Day(checkOut).Sub(Day(checkIn)).Hours() / 24)
}

// VillaRef is the cart's weak reference to a listing.  The backend sends a
// populated villa, a bare id, or null once the listing has been deleted;
// consumers resolve it at read time and must handle the orphaned case.
type VillaRef struct {
	ID    string
	Villa *Villa
}

// Ref builds a resolved reference.
func Ref(v *Villa) VillaRef {
	if v == nil {
		return VillaRef{}
	}
	return VillaRef{ID: v.ID, Villa: v}
}

// Resolve returns the referenced villa if it still exists.
func (r VillaRef) Resolve() (*Villa, bool) { return r.Villa, r.Villa != nil }

// Orphaned reports a reference whose villa is gone.  An unpopulated id
// still points at a listing.
func (r VillaRef) Orphaned() bool { return r.Villa == nil && r.ID == "" }

func (r VillaRef) MarshalJSON() ([]byte, error) {
	switch {
	case r.Villa != nil:
		return json.Marshal(r.Villa)
	case r.ID != "":
		return json.Marshal(r.ID)
	}
	return []byte("null"), nil
}

func (r *VillaRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*r = VillaRef{}
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		return nil
	case b[0] == '"':
		return json.Unmarshal(b, &r.ID)
	}
	var v Villa
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	r.ID = v.ID
	r.Villa = &v
	return nil
}
