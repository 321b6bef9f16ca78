package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vietanh2810/event-program-api/internal/domain"
	"github.com/vietanh2810/event-program-api/internal/repository"
)

type ActivityRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Activity, error)
	ListByEvent(ctx context.Context, eventID uint) ([]domain.Activity, error)
	ListByModerator(ctx context.Context, moderatorID uint) ([]domain.Activity, error)
	ListByJury(ctx context.Context, juryID uint) ([]domain.Activity, error)
	Bookings(ctx context.Context, eventID uint, day int, excludeID uint) ([]domain.Booking, error)
	Upsert(ctx context.Context, activity domain.Activity, guard repository.ActivityGuard) (domain.Activity, error)
	Delete(ctx context.Context, id uint) error
}

type ActivityEventRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Event, error)
}

// ActivityInput is what an organizer submits when creating or editing an
// activity. A nil Day means the first day and a nil Start means no slot was
// chosen; domain.UnreadableSlot marks a start that was not a time of day. A
// nil ModeratorID leaves the activity unassigned; a zero one marks
// a reference that could not be read.
type ActivityInput struct {
	Name        string
	EventID     uint
	Day         *int
	Start       *domain.Slot
	ModeratorID *uint
}

// ModeratorPatch holds the fields a moderator may change on their own
// activity.
type ModeratorPatch struct {
	Name    string
	EventID uint
	Day     int
	Start   domain.Slot
}

type ActivityService struct {
	activities ActivityRepository
	events     ActivityEventRepository
	guard      *IntegrityService
	schedule   domain.ScheduleConfig
}

func NewActivityService(activities ActivityRepository, events ActivityEventRepository, guard *IntegrityService, schedule domain.ScheduleConfig) *ActivityService {
	return &ActivityService{
		activities: activities,
		events:     events,
		guard:      guard,
		schedule:   schedule,
	}
}

func (s *ActivityService) Get(ctx context.Context, id uint) (domain.Activity, error) {
	activity, err := s.activities.FindByID(ctx, id)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("s.activities.FindByID -> %w", err)
	}

	return activity, nil
}

func (s *ActivityService) ListByEvent(ctx context.Context, eventID uint) ([]domain.Activity, error) {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	activities, err := s.activities.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.activities.ListByEvent -> %w", err)
	}

	return activities, nil
}

func (s *ActivityService) ListForModerator(ctx context.Context, actor domain.Actor) ([]domain.Activity, error) {
	if !actor.Is(domain.RoleModerator) {
		return nil, forbidden(fmt.Errorf("user %d is not a moderator", actor.UserID))
	}

	activities, err := s.activities.ListByModerator(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("s.activities.ListByModerator -> %w", err)
	}

	return activities, nil
}

func (s *ActivityService) ListForJury(ctx context.Context, actor domain.Actor) ([]domain.Activity, error) {
	if !actor.Is(domain.RoleJury) {
		return nil, forbidden(fmt.Errorf("user %d is not a jury member", actor.UserID))
	}

	activities, err := s.activities.ListByJury(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("s.activities.ListByJury -> %w", err)
	}

	return activities, nil
}

// Save creates an activity when existingID is 0 and otherwise replaces every
// field of the stored one. The slot is checked against the bookings read in
// the same transaction that writes the row.
func (s *ActivityService) Save(ctx context.Context, actor domain.Actor, input ActivityInput, existingID uint) (domain.Activity, error) {
	if !actor.Is(domain.RoleOrganizer) {
		return domain.Activity{}, forbidden(ErrNotOrganizer)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Activity{}, invalid("name", ErrEmptyName)
	}

	event, err := s.selectedEvent(ctx, input.EventID)
	if err != nil {
		return domain.Activity{}, err
	}

	day := domain.DefaultDay
	if input.Day != nil {
		day = *input.Day
	}
	if !event.HasDay(day) {
		return domain.Activity{}, dayOutOfRange(day, event)
	}

	if input.Start == nil {
		return domain.Activity{}, invalid("start", ErrSlotNotSelected)
	}
	if !input.Start.Valid() {
		return domain.Activity{}, invalid("start", domain.ErrInvalidSlot)
	}

	var stored *domain.Activity
	if existingID != 0 {
		found, err := s.activities.FindByID(ctx, existingID)
		if err != nil {
			return domain.Activity{}, fmt.Errorf("s.activities.FindByID -> %w", err)
		}
		stored = &found
	}

	activity := domain.Activity{
		ID:          existingID,
		Name:        name,
		EventID:     event.ID,
		Day:         day,
		Start:       *input.Start,
		ModeratorID: input.ModeratorID,
	}

	if err = s.precheckSlot(ctx, activity, event, stored); err != nil {
		return domain.Activity{}, err
	}

	if input.ModeratorID != nil && *input.ModeratorID == 0 {
		return domain.Activity{}, invalid("moderator_id", ErrInvalidModerator)
	}

	saved, err := s.activities.Upsert(ctx, activity, func(current *domain.Activity, event domain.Event, booked []domain.Booking) error {
		return s.checkPlacement(activity, event, current, booked)
	})
	if err != nil {
		return domain.Activity{}, s.upsertErr(err)
	}

	zap.L().Info("activity saved",
		zap.Uint("activity_id", saved.ID),
		zap.Uint("event_id", saved.EventID),
		zap.Int("day", saved.Day),
		zap.Stringer("start", saved.Start),
		zap.Bool("created", existingID == 0),
	)

	return saved, nil
}

// UpdateAsModerator applies a moderator's edit. Only the moderator stored on
// the activity may do it, and the moderator reference itself never changes.
func (s *ActivityService) UpdateAsModerator(ctx context.Context, actor domain.Actor, id uint, patch ModeratorPatch) (domain.Activity, error) {
	if !actor.Is(domain.RoleModerator) {
		return domain.Activity{}, forbidden(fmt.Errorf("user %d is not a moderator", actor.UserID))
	}

	stored, err := s.activities.FindByID(ctx, id)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("s.activities.FindByID -> %w", err)
	}

	if !stored.ModeratedBy(actor.UserID) {
		return domain.Activity{}, forbidden(fmt.Errorf("%w: activity %d, user %d", ErrNotActivityModerator, id, actor.UserID))
	}

	name := strings.TrimSpace(patch.Name)
	if name == "" {
		return domain.Activity{}, invalid("name", ErrEmptyName)
	}

	event, err := s.selectedEvent(ctx, patch.EventID)
	if err != nil {
		return domain.Activity{}, err
	}

	if !event.HasDay(patch.Day) {
		return domain.Activity{}, dayOutOfRange(patch.Day, event)
	}

	if !patch.Start.Valid() {
		return domain.Activity{}, invalid("start", domain.ErrInvalidSlot)
	}

	activity := stored
	activity.Name = name
	activity.EventID = event.ID
	activity.Day = patch.Day
	activity.Start = patch.Start

	if err = s.precheckSlot(ctx, activity, event, &stored); err != nil {
		return domain.Activity{}, err
	}

	saved, err := s.activities.Upsert(ctx, activity, func(current *domain.Activity, event domain.Event, booked []domain.Booking) error {
		if current == nil || !current.ModeratedBy(actor.UserID) {
			return forbidden(fmt.Errorf("%w: activity %d, user %d", ErrNotActivityModerator, id, actor.UserID))
		}
		return s.checkPlacement(activity, event, current, booked)
	})
	if err != nil {
		return domain.Activity{}, s.upsertErr(err)
	}

	zap.L().Info("activity updated by moderator",
		zap.Uint("activity_id", saved.ID),
		zap.Uint("moderator_id", actor.UserID),
	)

	return saved, nil
}

// Delete removes an activity nobody is judging. The caller is expected to
// have confirmed the deletion with the user.
func (s *ActivityService) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	if !actor.Is(domain.RoleOrganizer) {
		return forbidden(ErrNotOrganizer)
	}

	check, err := s.guard.CanDeleteActivity(ctx, id)
	if err != nil {
		return fmt.Errorf("s.guard.CanDeleteActivity -> %w", err)
	}
	if !check.Allowed {
		return blocked(check)
	}

	if err = s.activities.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrActivityHasJury) {
			return blocked(domain.Blocked(domain.BlockJuryAssigned))
		}
		return fmt.Errorf("s.activities.Delete -> %w", err)
	}

	zap.L().Info("activity deleted", zap.Uint("activity_id", id), zap.Uint("organizer_id", actor.UserID))

	return nil
}

func (s *ActivityService) selectedEvent(ctx context.Context, eventID uint) (domain.Event, error) {
	if eventID == 0 {
		return domain.Event{}, invalid("event_id", ErrEventNotSelected)
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return domain.Event{}, invalid("event_id", err)
		}
		return domain.Event{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	return event, nil
}

func (s *ActivityService) precheckSlot(ctx context.Context, activity domain.Activity, event domain.Event, stored *domain.Activity) error {
	booked, err := s.activities.Bookings(ctx, activity.EventID, activity.Day, activity.ID)
	if err != nil {
		return fmt.Errorf("s.activities.Bookings -> %w", err)
	}

	return s.checkPlacement(activity, event, stored, booked)
}

func (s *ActivityService) checkPlacement(activity domain.Activity, event domain.Event, stored *domain.Activity, booked []domain.Booking) error {
	if !event.HasDay(activity.Day) {
		return dayOutOfRange(activity.Day, event)
	}

	editing := ownBooking(stored, activity.EventID, activity.Day)
	if s.schedule.SlotAllowed(activity.Start, booked, editing) {
		return nil
	}

	if !s.schedule.IsSlot(activity.Start) {
		return invalid("start", fmt.Errorf("%w: %s", ErrSlotNotOnGrid, activity.Start))
	}

	return conflict("start", fmt.Errorf("%w: %s on day %d", ErrSlotUnavailable, activity.Start, activity.Day))
}

func (s *ActivityService) upsertErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrSlotTaken):
		return conflict("start", fmt.Errorf("%w: %w", ErrSlotUnavailable, err))
	case errors.Is(err, repository.ErrEventNotFound):
		return invalid("event_id", err)
	case errors.Is(err, repository.ErrUserNotFound):
		return invalid("moderator_id", fmt.Errorf("%w: %w", ErrInvalidModerator, err))
	}

	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		return err
	}

	return fmt.Errorf("s.activities.Upsert -> %w", err)
}

func dayOutOfRange(day int, event domain.Event) error {
	return invalid("day", fmt.Errorf("%w: day %d of %d", ErrDayOutOfRange, day, event.Days))
}
