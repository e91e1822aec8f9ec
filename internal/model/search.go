package model

import (
	"net/url"
	"strconv"
	"strings"
)

// SearchQuery is the transient villa filter.  It exists only for the
// duration of a search session and is never persisted.
type SearchQuery struct {
	Location string `json:"location,omitempty"`
	Guests   *int   `json:"guests,omitempty"`
	Date     string `json:"date,omitempty"`
}

// Empty reports whether nothing is filled in.  The debounced auto-search
// only fires for queries with a location or a guest count.
func (q SearchQuery) Empty() bool {
	return strings.TrimSpace(q.Location) == "" && q.Guests == nil
}

// Values encodes the query the way the listing endpoint expects it.
func (q SearchQuery) Values() url.Values {
	v := url.Values{}
	if q.Location != "" {
		v.Set("location", q.Location)
	}
	if q.Guests != nil {
		v.Set("guests", strconv.Itoa(*q.Guests))
	}
	if q.Date != "" {
		v.Set("date", q.Date)
	}
	return v
}

// Guests is a small helper for building queries in code and tests.
func Guests(n int) *int { return &n }
