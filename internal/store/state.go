// Package store is the per-browser state container.  It holds the session
// (auth), cart and villa-search partitions and changes them only through
// Dispatch, one action at a time.  Reducers never modify slices in place,
// so a State returned to a caller stays valid after later dispatches.
package store

import (
	"time"

	"github.com/iliyamo/villa-web/internal/model"
)

// Phase is the session state machine position derived from AuthState.
type Phase uint8

const (
	PhaseUnauthenticated Phase = iota
	PhaseNoRole                // signed in, onboarding not finished
	PhaseUser
	PhaseHost
)

func (p Phase) String() string {
	switch p {
	case PhaseNoRole:
		return "authenticated-no-role"
	case PhaseUser:
		return "authenticated-user"
	case PhaseHost:
		return "authenticated-host"
	default:
		return "unauthenticated"
	}
}

// Cookie is a backend credential cookie kept with the session so the
// browser's backend login survives service restarts.
type Cookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitempty"`
}

// AuthState is the session partition.  IsAuthenticated implies User != nil.
type AuthState struct {
	User            *model.User `json:"user"`
	IsAuthenticated bool        `json:"isAuthenticated"`
	Loading         bool        `json:"loading"`
	Error           string      `json:"error,omitempty"`
	Token           string      `json:"token,omitempty"`
	Cookies         []Cookie    `json:"cookies,omitempty"`
}

// Phase maps the partition onto the session state machine.
func (a AuthState) Phase() Phase {
	if !a.IsAuthenticated || a.User == nil {
		return PhaseUnauthenticated
	}
	switch a.User.Role {
	case model.RoleUser:
		return PhaseUser
	case model.RoleHost:
		return PhaseHost
	default:
		return PhaseNoRole
	}
}

// Role returns the signed-in user's role, RoleUnset when signed out.
func (a AuthState) Role() model.Role {
	if a.User == nil {
		return model.RoleUnset
	}
	return a.User.Role
}

// CartStatus tracks the last fetch of the cart.
type CartStatus string

const (
	CartIdle      CartStatus = "idle"
	CartLoading   CartStatus = "loading"
	CartSucceeded CartStatus = "succeeded"
	CartFailed    CartStatus = "failed"
)

// CartState mirrors the server-side cart.
type CartState struct {
	Items  []model.CartItem `json:"items"`
	Status CartStatus       `json:"status"`
}

// CartView is what the cart page renders: orphaned items (deleted villas)
// are excluded from both the list and the subtotal.
type CartView struct {
	Items    []model.CartItem `json:"items"`
	Orphaned int              `json:"orphaned"`
	Subtotal float64          `json:"subtotal"`
}

// View resolves every item's villa reference.
func (c CartState) View() CartView {
	v := CartView{Items: make([]model.CartItem, 0, len(c.Items))}
	for _, it := range c.Items {
		if it.Villa.Orphaned() {
			v.Orphaned++
			continue
		}
		v.Items = append(v.Items, it)
		v.Subtotal += it.Price
	}
	return v
}

// VillaState holds the latest search results.  It is never persisted.
type VillaState struct {
	Villas  []model.Villa      `json:"villas"`
	Query   *model.SearchQuery `json:"query,omitempty"`
	Loading bool               `json:"loading"`
	Error   string             `json:"error,omitempty"`

	// latest issued search sequence; older responses are stale
	seq uint64
}

// Toast is a transient user notification.
type Toast struct {
	Level string `json:"level"` // success | error | info
	Text  string `json:"text"`
}

// State is a full snapshot of the container.
type State struct {
	Auth     AuthState  `json:"auth"`
	Cart     CartState  `json:"cart"`
	Villas   VillaState `json:"villas"`
	Toasts   []Toast    `json:"-"`
	Hydrated bool       `json:"hydrated"`
}

// Snapshot is the persisted subset: the auth and cart partitions only.
type Snapshot struct {
	Auth AuthState `json:"auth"`
	Cart CartState `json:"cart"`
}

func initialState() State {
	return State{Cart: CartState{Status: CartIdle}}
}
