package repository

import (
	"github.com/vietanh2810/event-program-api/internal/domain"
	"github.com/vietanh2810/event-program-api/internal/repository/dao"
)

var (
	ErrUserEmailExists    = dao.ErrUserEmailExists
	ErrUserNotFound       = dao.ErrUserNotFound
	ErrCityNotFound       = dao.ErrCityNotFound
	ErrEventNotFound      = dao.ErrEventNotFound
	ErrActivityNotFound   = dao.ErrActivityNotFound
	ErrSlotTaken          = dao.ErrSlotTaken
	ErrActivityHasJury    = dao.ErrActivityHasJury
	ErrEventHasActivities = dao.ErrEventHasActivities
	ErrStorageUnavailable = dao.ErrStorageUnavailable
)

// ActivityGuard runs inside the write transaction of an activity. current is
// the stored activity, nil when creating; booked holds the other activities
// already placed on the target event and day. A non-nil error cancels the
// write and is returned unchanged.
type ActivityGuard func(current *domain.Activity, event domain.Event, booked []domain.Booking) error

// EventGuard runs inside the write transaction of an event. stored is nil
// when creating; maxDay is the latest day any activity of the event uses.
type EventGuard func(stored *domain.Event, maxDay int) error

// WinnerGuard runs inside the transaction that records an event winner, with
// the event row locked and the winner freshly read.
type WinnerGuard func(event domain.Event, winner domain.User) error
