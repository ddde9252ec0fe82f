package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the categories the API boundary knows how to map to
// status codes. Services wrap these with fmt.Errorf("%w: ...") so the
// category survives while the message stays specific.
var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("already exists")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrUnavailable      = errors.New("service unavailable")
)

const (
	ProfileNotFound      = "profile not found"
	ProfileExists        = "profile already exists for this account"
	UsernameExists       = "username already taken"
	ServiceNameExists    = "service with this name already exists"
	ReviewExists         = "you have already reviewed this provider"
	SelfReviewNotAllowed = "you cannot review yourself"
	AdminNotDeletable    = "admin profiles cannot be deleted"
	DatabaseError        = "database error"
)

// RateLimitedError reports a username change attempted before the cooldown
// window has elapsed.
type RateLimitedError struct {
	DaysLeft int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("username was changed recently, try again in %d day(s)", e.DaysLeft)
}

// ValidationError carries a message safe to show to the caller.
type ValidationError struct {
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}
