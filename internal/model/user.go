package model

import (
	"encoding/json"
	"strings"
)

// Role is the marketplace role a user picks after first signing in.  A
// freshly authenticated account has RoleUnset until onboarding stores one
// of the other two values through the role-update call.
type Role uint8

const (
	RoleUnset Role = iota // no role chosen yet
	RoleUser              // guest who books villas
	RoleHost              // owner who lists villas
)

// ParseRole maps the backend's userType string onto a Role.  Matching is
// case-insensitive; anything unknown (including "") is RoleUnset.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser
	case "host":
		return RoleHost
	default:
		return RoleUnset
	}
}

// String returns the wire form used by the backend ("" for RoleUnset).
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleHost:
		return "host"
	default:
		return ""
	}
}

// Valid reports whether r is a chosen role.
func (r Role) Valid() bool { return r == RoleUser || r == RoleHost }

// User is the account snapshot returned by the backend on login, signup,
// OAuth exchange and role update.  The backend sends the id as either
// "_id" or "id", and Role stays RoleUnset until onboarding completes.
type User struct {
	ID    string
	Name  string
	Email string
	Role  Role
	Phone string
}

type userWire struct {
	MongoID  string `json:"_id,omitempty"`
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	UserType string `json:"userType,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// MarshalJSON writes the backend shape so persisted sessions read back the
// same way fresh API responses do.
func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(userWire{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		UserType: u.Role.String(),
		Phone:    u.Phone,
	})
}

// UnmarshalJSON accepts both id spellings the backend uses.
func (u *User) UnmarshalJSON(b []byte) error {
	var w userWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	u.ID = w.ID
	if u.ID == "" {
		u.ID = w.MongoID
	}
	u.Name = w.Name
	u.Email = w.Email
	u.Role = ParseRole(w.UserType)
	u.Phone = w.Phone
	return nil
}
