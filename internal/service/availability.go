package service

import (
	"context"
	"fmt"

	"github.com/vietanh2810/event-program-api/internal/domain"
	"github.com/vietanh2810/event-program-api/internal/repository"
)

var (
	ErrEventNotFound    = repository.ErrEventNotFound
	ErrActivityNotFound = repository.ErrActivityNotFound
)

type AvailabilityEventRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Event, error)
}

type AvailabilityActivityRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Activity, error)
	Bookings(ctx context.Context, eventID uint, day int, excludeID uint) ([]domain.Booking, error)
}

type AvailabilityService struct {
	events     AvailabilityEventRepository
	activities AvailabilityActivityRepository
	schedule   domain.ScheduleConfig
}

func NewAvailabilityService(events AvailabilityEventRepository, activities AvailabilityActivityRepository, schedule domain.ScheduleConfig) *AvailabilityService {
	return &AvailabilityService{
		events:     events,
		activities: activities,
		schedule:   schedule,
	}
}

// AvailableSlots lists the start times that can be chosen for an activity on
// the given event and day. editingID is the activity being edited, or 0 when
// creating. An unset event or day yields an empty list.
func (s *AvailabilityService) AvailableSlots(ctx context.Context, eventID uint, day int, editingID uint) ([]domain.Slot, error) {
	if eventID == 0 || day == 0 {
		return []domain.Slot{}, nil
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.events.FindByID -> %w", err)
	}
	if !event.HasDay(day) {
		return nil, invalid("day", fmt.Errorf("%w: day %d of %d", ErrDayOutOfRange, day, event.Days))
	}

	var editing *domain.Booking
	if editingID != 0 {
		current, err := s.activities.FindByID(ctx, editingID)
		if err != nil {
			return nil, fmt.Errorf("s.activities.FindByID -> %w", err)
		}
		editing = ownBooking(&current, eventID, day)
	}

	booked, err := s.activities.Bookings(ctx, eventID, day, editingID)
	if err != nil {
		return nil, fmt.Errorf("s.activities.Bookings -> %w", err)
	}

	return domain.ResolveAvailable(s.schedule.Slots(), booked, editing), nil
}

// ownBooking returns the slot an edited activity already holds on eventID and
// day. An activity moving to another event or day holds nothing there.
func ownBooking(stored *domain.Activity, eventID uint, day int) *domain.Booking {
	if stored == nil || stored.EventID != eventID || stored.Day != day {
		return nil
	}
	b := stored.Booking()
	return &b
}
