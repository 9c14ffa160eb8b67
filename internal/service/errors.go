// Package service holds the business rules of the platform: accounts,
// the tournament catalog, the registration and payment workflow, player
// analytics and background maintenance. Handlers translate the error kinds
// declared here into HTTP status codes.
package service

import (
	"errors"

	"github.com/iliyamo/freefire-tournaments/internal/gateway"
	"github.com/iliyamo/freefire-tournaments/internal/repository"
)

// Error kinds. Every error returned by a service either matches one of
// these with errors.Is or is an unexpected internal failure.
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrGone            = errors.New("gone")
	ErrUpstream        = errors.New("upstream error")
	ErrUpstreamTimeout = errors.New("upstream timeout")
)

// kindError carries a client-facing message, its kind and an optional cause.
type kindError struct {
	kind  error
	msg   string
	cause error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func wrapError(kind, cause error, msg string) error {
	return &kindError{kind: kind, msg: msg, cause: cause}
}

func invalid(msg string) error { return newError(ErrValidation, msg) }

// fromStore translates storage sentinels. what names the entity for
// not-found messages. Unknown errors pass through untouched.
func fromStore(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return wrapError(ErrNotFound, err, what+" not found")
	case errors.Is(err, repository.ErrEmailExists),
		errors.Is(err, repository.ErrUsernameExists),
		errors.Is(err, repository.ErrUIDExists),
		errors.Is(err, repository.ErrAlreadyRegistered),
		errors.Is(err, repository.ErrTournamentFull):
		return wrapError(ErrConflict, err, err.Error())
	case errors.Is(err, repository.ErrRegistrationClosed):
		return wrapError(ErrGone, err, err.Error())
	case errors.Is(err, repository.ErrConflict):
		return wrapError(ErrConflict, err, what+" cannot be changed in its current state")
	case errors.Is(err, repository.ErrForbidden):
		return wrapError(ErrForbidden, err, "forbidden")
	}
	return err
}

// fromUpstream translates collaborator failures. Nothing is retried.
func fromUpstream(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gateway.ErrTimeout):
		return wrapError(ErrUpstreamTimeout, err, what+" timed out")
	case errors.Is(err, gateway.ErrPlayerNotFound):
		return wrapError(ErrValidation, err, "Invalid Free Fire UID or region")
	}
	return wrapError(ErrUpstream, err, what+" unavailable, try again later")
}
