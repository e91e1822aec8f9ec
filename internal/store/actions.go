package store

import "github.com/iliyamo/villa-web/internal/model"

// Action is anything Dispatch accepts.
type Action interface{ action() }

// session partition

type AuthStarted struct{}

type AuthSucceeded struct {
	User  model.User
	Token string
}

type AuthFailed struct{ Err string }

type RoleUpdateStarted struct{}

type RoleUpdated struct{ User model.User }

type RoleUpdateFailed struct{ Err string }

// UserReplaced overwrites the user after an out-of-band profile change.
type UserReplaced struct{ User model.User }

type LoggedOut struct{}

// CookiesUpdated merges cookies set by the backend.  A cookie with an empty
// value removes the stored one.
type CookiesUpdated struct{ Cookies []Cookie }

// cart partition

type CartFetchStarted struct{}

type CartLoaded struct{ Items []model.CartItem }

type CartFetchFailed struct{}

type CartReplaced struct{ Items []model.CartItem }

type CartCleared struct{}

// search partition

type VillasRequested struct {
	Seq   uint64
	Query *model.SearchQuery
}

type VillasLoaded struct {
	Seq    uint64
	Villas []model.Villa
}

type VillasFailed struct {
	Seq uint64
	Err string
}

type VillasCleared struct{}

// container

type Hydrated struct{ Snapshot Snapshot }

type Toasted struct{ Toast Toast }

func (AuthStarted) action()       {}
func (AuthSucceeded) action()     {}
func (AuthFailed) action()        {}
func (RoleUpdateStarted) action() {}
func (RoleUpdated) action()       {}
func (RoleUpdateFailed) action()  {}
func (UserReplaced) action()      {}
func (LoggedOut) action()         {}
func (CookiesUpdated) action()    {}
func (CartFetchStarted) action()  {}
func (CartLoaded) action()        {}
func (CartFetchFailed) action()   {}
func (CartReplaced) action()      {}
func (CartCleared) action()       {}
func (VillasRequested) action()   {}
func (VillasLoaded) action()      {}
func (VillasFailed) action()      {}
func (VillasCleared) action()     {}
func (Hydrated) action()          {}
func (Toasted) action()           {}
