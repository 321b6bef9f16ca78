package service

import (
	"errors"
	"fmt"

	"github.com/vietanh2810/event-program-api/internal/domain"
	"github.com/vietanh2810/event-program-api/internal/repository"
)

// Error kinds. Every error returned by this package that is not a storage
// failure matches exactly one of them with errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrConflict      = errors.New("conflict")
	ErrForbidden     = errors.New("permission denied")
	ErrDeleteBlocked = errors.New("delete blocked")

	ErrStorageUnavailable = repository.ErrStorageUnavailable
)

var (
	ErrEmptyName          = errors.New("name is required")
	ErrEventNotSelected   = errors.New("event must be selected")
	ErrDayOutOfRange      = errors.New("day is outside the event")
	ErrSlotNotSelected    = errors.New("start time must be selected")
	ErrSlotNotOnGrid      = errors.New("start time is not a slot of the working window")
	ErrInvalidModerator   = domain.ErrInvalidModeratorRef
	ErrEmptyDate          = errors.New("date is required")
	ErrCityNotSelected    = errors.New("city must be selected")
	ErrInvalidDays        = errors.New("number of days must be at least 1")
	ErrDaysBelowSchedule  = errors.New("number of days is below a scheduled activity")
	ErrSlotUnavailable    = errors.New("start time is already taken")
	ErrWinnerNotCandidate = errors.New("user cannot be the winner")

	ErrNotOrganizer         = errors.New("only organizers can do this")
	ErrNotActivityModerator = errors.New("activity is not moderated by this user")
	ErrNotEventJury         = errors.New("user is not on the jury of this event")
)

// FieldError is a failure attributable to one input field.
type FieldError struct {
	Kind  error
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Err)
}

func (e *FieldError) Unwrap() []error { return []error{e.Kind, e.Err} }

func invalid(field string, err error) error {
	return &FieldError{Kind: ErrValidation, Field: field, Err: err}
}

func conflict(field string, err error) error {
	return &FieldError{Kind: ErrConflict, Field: field, Err: err}
}

func forbidden(err error) error {
	return &FieldError{Kind: ErrForbidden, Err: err}
}

// BlockedError is returned when a delete is refused because dependent rows
// still exist.
type BlockedError struct {
	Reason domain.BlockReason
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDeleteBlocked, e.Reason)
}

func (e *BlockedError) Unwrap() error { return ErrDeleteBlocked }

func blocked(check domain.DeletionCheck) error {
	return &BlockedError{Reason: check.Reason}
}

// IsNotFound reports whether err is caused by a missing user, city, event or
// activity.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrEventNotFound) ||
		errors.Is(err, repository.ErrActivityNotFound) ||
		errors.Is(err, repository.ErrUserNotFound) ||
		errors.Is(err, repository.ErrCityNotFound)
}
