// Package repository persists the surviving part of each browser session:
// the auth and cart partitions of its store.  Three backends share the
// SessionRepo interface: Redis (default), MySQL and in-process memory.
package repository

import "errors"

// ErrSessionNotFound is returned when no live snapshot exists for an id,
// including one that has expired.  The session manager treats it as a
// fresh browser.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidSessionID is returned for an empty session id.
var ErrInvalidSessionID = errors.New("invalid session id")
