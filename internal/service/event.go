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

var ErrCityNotFound = repository.ErrCityNotFound

type EventRepository interface {
	List(ctx context.Context) ([]domain.Event, error)
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	Save(ctx context.Context, event domain.Event, guard repository.EventGuard) (domain.Event, error)
	Delete(ctx context.Context, id uint) error
	ListCities(ctx context.Context) ([]domain.City, error)
	EnsureCities(ctx context.Context, names []string) error
	FindCity(ctx context.Context, id uint) (domain.City, error)
}

// EventInput is what an organizer submits for an event. A nil Days means a
// single-day event.
type EventInput struct {
	Name   string
	Date   string
	Days   *int
	CityID uint
}

type EventService struct {
	repo  EventRepository
	guard *IntegrityService
}

func NewEventService(repo EventRepository, guard *IntegrityService) *EventService {
	return &EventService{
		repo:  repo,
		guard: guard,
	}
}

func (s *EventService) List(ctx context.Context) ([]domain.Event, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.List -> %w", err)
	}

	return events, nil
}

func (s *EventService) Get(ctx context.Context, id uint) (domain.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return event, nil
}

func (s *EventService) ListCities(ctx context.Context) ([]domain.City, error) {
	cities, err := s.repo.ListCities(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListCities -> %w", err)
	}

	return cities, nil
}

// SeedCities makes the configured cities selectable. Blank and repeated names
// are skipped.
func (s *EventService) SeedCities(ctx context.Context, names []string) error {
	seen := make(map[string]bool, len(names))
	cities := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		cities = append(cities, name)
	}

	if err := s.repo.EnsureCities(ctx, cities); err != nil {
		return fmt.Errorf("s.repo.EnsureCities -> %w", err)
	}

	return nil
}

// Save creates an event when existingID is 0, otherwise it updates name,
// date, days and city. The winner is never touched here.
func (s *EventService) Save(ctx context.Context, actor domain.Actor, input EventInput, existingID uint) (domain.Event, error) {
	if !actor.Is(domain.RoleOrganizer) {
		return domain.Event{}, forbidden(ErrNotOrganizer)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Event{}, invalid("name", ErrEmptyName)
	}

	if input.CityID == 0 {
		return domain.Event{}, invalid("city_id", ErrCityNotSelected)
	}
	if _, err := s.repo.FindCity(ctx, input.CityID); err != nil {
		if errors.Is(err, repository.ErrCityNotFound) {
			return domain.Event{}, invalid("city_id", err)
		}
		return domain.Event{}, fmt.Errorf("s.repo.FindCity -> %w", err)
	}

	date := strings.TrimSpace(input.Date)
	if date == "" {
		return domain.Event{}, invalid("date", ErrEmptyDate)
	}

	days := domain.DefaultDays
	if input.Days != nil {
		days = *input.Days
	}
	if days < 1 {
		return domain.Event{}, invalid("days", ErrInvalidDays)
	}

	event := domain.Event{
		ID:     existingID,
		Name:   name,
		Date:   date,
		Days:   days,
		CityID: input.CityID,
	}

	saved, err := s.repo.Save(ctx, event, func(_ *domain.Event, maxDay int) error {
		if maxDay > days {
			return invalid("days", fmt.Errorf("%w: an activity is scheduled on day %d", ErrDaysBelowSchedule, maxDay))
		}
		return nil
	})
	if err != nil {
		var fieldErr *FieldError
		if errors.As(err, &fieldErr) {
			return domain.Event{}, err
		}
		return domain.Event{}, fmt.Errorf("s.repo.Save -> %w", err)
	}

	zap.L().Info("event saved", zap.Uint("event_id", saved.ID), zap.Bool("created", existingID == 0))

	return saved, nil
}

// Delete removes an event that owns no activities. The caller is expected to
// have confirmed the deletion with the user.
func (s *EventService) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	if !actor.Is(domain.RoleOrganizer) {
		return forbidden(ErrNotOrganizer)
	}

	check, err := s.guard.CanDeleteEvent(ctx, id)
	if err != nil {
		return fmt.Errorf("s.guard.CanDeleteEvent -> %w", err)
	}
	if !check.Allowed {
		return blocked(check)
	}

	if err = s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrEventHasActivities) {
			return blocked(domain.Blocked(domain.BlockHasActivities))
		}
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	zap.L().Info("event deleted", zap.Uint("event_id", id), zap.Uint("organizer_id", actor.UserID))

	return nil
}
