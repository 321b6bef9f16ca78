package repository

import (
	"context"
	"fmt"

	"github.com/vietanh2810/event-program-api/internal/domain"
	"github.com/vietanh2810/event-program-api/internal/repository/dao"
)

type EventDAO interface {
	List(ctx context.Context) ([]dao.Event, error)
	FindByID(ctx context.Context, id uint) (dao.Event, error)
	Save(ctx context.Context, event dao.Event, guard func(stored *dao.Event, maxDay int) error) (dao.Event, error)
	Delete(ctx context.Context, id uint) error
	SetWinner(ctx context.Context, eventID, winnerID uint, guard func(event dao.Event, winner dao.User) error) (dao.Event, bool, error)
	EnsureCities(ctx context.Context, names []string) error
	ListCities(ctx context.Context) ([]dao.City, error)
	FindCity(ctx context.Context, id uint) (dao.City, error)
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) List(ctx context.Context) ([]domain.Event, error) {
	found, err := r.dao.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.List -> %w", err)
	}

	events := make([]domain.Event, 0, len(found))
	for _, e := range found {
		events = append(events, eventToDomain(e))
	}

	return events, nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (domain.Event, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return eventToDomain(found), nil
}

func (r *EventRepository) Save(ctx context.Context, event domain.Event, guard EventGuard) (domain.Event, error) {
	saved, err := r.dao.Save(ctx, eventToDAO(event), func(stored *dao.Event, maxDay int) error {
		if stored == nil {
			return guard(nil, maxDay)
		}
		e := eventToDomain(*stored)
		return guard(&e, maxDay)
	})
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Save -> %w", err)
	}

	return eventToDomain(saved), nil
}

func (r *EventRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *EventRepository) SetWinner(ctx context.Context, eventID, winnerID uint, guard WinnerGuard) (domain.Event, bool, error) {
	saved, changed, err := r.dao.SetWinner(ctx, eventID, winnerID, func(event dao.Event, winner dao.User) error {
		return guard(eventToDomain(event), userToDomain(winner))
	})
	if err != nil {
		return domain.Event{}, false, fmt.Errorf("r.dao.SetWinner -> %w", err)
	}

	return eventToDomain(saved), changed, nil
}

func (r *EventRepository) EnsureCities(ctx context.Context, names []string) error {
	if err := r.dao.EnsureCities(ctx, names); err != nil {
		return fmt.Errorf("r.dao.EnsureCities -> %w", err)
	}

	return nil
}

func (r *EventRepository) ListCities(ctx context.Context) ([]domain.City, error) {
	found, err := r.dao.ListCities(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListCities -> %w", err)
	}

	cities := make([]domain.City, 0, len(found))
	for _, c := range found {
		cities = append(cities, domain.City{ID: c.ID, Name: c.Name})
	}

	return cities, nil
}

func (r *EventRepository) FindCity(ctx context.Context, id uint) (domain.City, error) {
	found, err := r.dao.FindCity(ctx, id)
	if err != nil {
		return domain.City{}, fmt.Errorf("r.dao.FindCity -> %w", err)
	}

	return domain.City{ID: found.ID, Name: found.Name}, nil
}

func eventToDomain(e dao.Event) domain.Event {
	return domain.Event{
		ID:        e.ID,
		Name:      e.Name,
		Date:      e.Date,
		Days:      e.NumberOfDays,
		CityID:    e.CityID,
		WinnerID:  e.WinnerID,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func eventToDAO(e domain.Event) dao.Event {
	return dao.Event{
		ID:           e.ID,
		Name:         e.Name,
		Date:         e.Date,
		NumberOfDays: e.Days,
		CityID:       e.CityID,
		WinnerID:     e.WinnerID,
	}
}
