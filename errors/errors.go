package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Core taxonomy. Handlers wrap these with %w and map them at the edge.
	ErrAuthentication = fmt.Errorf("authentication failed")
	ErrAuthorization  = fmt.Errorf("not authorized")
	ErrNotFound       = fmt.Errorf("not found")
	ErrValidation     = fmt.Errorf("invalid input")
	ErrPersistence    = fmt.Errorf("persistence failed")

	ErrInvalidCredentials   = fmt.Errorf("invalid credentials")
	ErrInvalidPassword      = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration      = fmt.Errorf("token generation failed")
	ErrUserAlreadyExists    = fmt.Errorf("user already exists")
	ErrChannelAlreadyExists = fmt.Errorf("channel with this name already exists")
	ErrAlreadyMember        = fmt.Errorf("user is already a member of this channel")
	ErrDuplicateInvite      = fmt.Errorf("invite already sent to this user")
)

// MapToStatus converts a domain error into the HTTP status code exposed by
// the REST layer. Unrecognized errors are reported as internal failures so
// storage details never leak to clients.
func MapToStatus(err error) int {
	switch {
	case errors.Is(err, ErrAuthentication), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrUserAlreadyExists), errors.Is(err, ErrChannelAlreadyExists),
		errors.Is(err, ErrAlreadyMember), errors.Is(err, ErrDuplicateInvite):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
