// Package repository defines the MySQL data access layer and the error
// values shared by every store implementation. Higher layers use these
// sentinels to tell failure scenarios apart: ErrAlreadyRegistered and
// ErrTournamentFull both become a conflict for the caller while
// ErrRegistrationClosed means the deadline has passed.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when the referenced row does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting a live tournament or
// shrinking capacity below the current participant count.
var ErrConflict = errors.New("conflict")

var (
	ErrEmailExists    = errors.New("email already exists")
	ErrUsernameExists = errors.New("username already exists")
	ErrUIDExists      = errors.New("free fire uid already bound to another account")
)

var (
	ErrAlreadyRegistered  = errors.New("already registered for this tournament")
	ErrTournamentFull     = errors.New("tournament is full")
	ErrRegistrationClosed = errors.New("registration deadline has passed")
)

// isDuplicate reports whether err is a MySQL unique key violation (1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// duplicateKey returns the name of the violated key, if MySQL reported it.
func duplicateKey(err error) string {
	msg := err.Error()
	i := strings.LastIndex(msg, "for key '")
	if i < 0 {
		return ""
	}
	rest := msg[i+len("for key '"):]
	if j := strings.IndexByte(rest, '\''); j >= 0 {
		rest = rest[:j]
	}
	// MySQL 8 prefixes the key with the table name.
	if k := strings.LastIndexByte(rest, '.'); k >= 0 {
		rest = rest[k+1:]
	}
	return rest
}
