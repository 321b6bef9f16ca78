package repository

import (
	"context"
	"fmt"

	"github.com/vietanh2810/event-program-api/internal/domain"
	"github.com/vietanh2810/event-program-api/internal/repository/dao"
)

type ActivityDAO interface {
	FindByID(ctx context.Context, id uint) (dao.Activity, error)
	ListByEvent(ctx context.Context, eventID uint) ([]dao.Activity, error)
	ListByModerator(ctx context.Context, moderatorID uint) ([]dao.Activity, error)
	ListByJury(ctx context.Context, juryID uint) ([]dao.Activity, error)
	Bookings(ctx context.Context, eventID uint, day int, excludeID uint) ([]dao.Activity, error)
	Upsert(ctx context.Context, activity dao.Activity, guard func(stored *dao.Activity, event dao.Event, booked []dao.Activity) error) (dao.Activity, error)
	Delete(ctx context.Context, id uint) error
	CountByEvent(ctx context.Context, eventID uint) (int64, error)
	CountJuryAssignments(ctx context.Context, activityID uint) (int64, error)
	AssignJury(ctx context.Context, juryID, activityID uint) error
	IsJuryOfEvent(ctx context.Context, juryID, eventID uint) (bool, error)
}

type ActivityRepository struct {
	dao ActivityDAO
}

func NewActivityRepository(dao ActivityDAO) *ActivityRepository {
	return &ActivityRepository{
		dao: dao,
	}
}

func (r *ActivityRepository) FindByID(ctx context.Context, id uint) (domain.Activity, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return activityToDomain(found), nil
}

func (r *ActivityRepository) ListByEvent(ctx context.Context, eventID uint) ([]domain.Activity, error) {
	found, err := r.dao.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByEvent -> %w", err)
	}

	return activitiesToDomain(found), nil
}

func (r *ActivityRepository) ListByModerator(ctx context.Context, moderatorID uint) ([]domain.Activity, error) {
	found, err := r.dao.ListByModerator(ctx, moderatorID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByModerator -> %w", err)
	}

	return activitiesToDomain(found), nil
}

func (r *ActivityRepository) ListByJury(ctx context.Context, juryID uint) ([]domain.Activity, error) {
	found, err := r.dao.ListByJury(ctx, juryID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByJury -> %w", err)
	}

	return activitiesToDomain(found), nil
}

func (r *ActivityRepository) Bookings(ctx context.Context, eventID uint, day int, excludeID uint) ([]domain.Booking, error) {
	found, err := r.dao.Bookings(ctx, eventID, day, excludeID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.Bookings -> %w", err)
	}

	return bookings(found), nil
}

func (r *ActivityRepository) Upsert(ctx context.Context, activity domain.Activity, guard ActivityGuard) (domain.Activity, error) {
	saved, err := r.dao.Upsert(ctx, activityToDAO(activity), func(stored *dao.Activity, event dao.Event, booked []dao.Activity) error {
		var current *domain.Activity
		if stored != nil {
			a := activityToDomain(*stored)
			current = &a
		}
		return guard(current, eventToDomain(event), bookings(booked))
	})
	if err != nil {
		return domain.Activity{}, fmt.Errorf("r.dao.Upsert -> %w", err)
	}

	return activityToDomain(saved), nil
}

func (r *ActivityRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *ActivityRepository) CountActivities(ctx context.Context, eventID uint) (int64, error) {
	n, err := r.dao.CountByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountByEvent -> %w", err)
	}

	return n, nil
}

func (r *ActivityRepository) CountJuryAssignments(ctx context.Context, activityID uint) (int64, error) {
	n, err := r.dao.CountJuryAssignments(ctx, activityID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountJuryAssignments -> %w", err)
	}

	return n, nil
}

func (r *ActivityRepository) AssignJury(ctx context.Context, a domain.JuryAssignment) error {
	if err := r.dao.AssignJury(ctx, a.JuryID, a.ActivityID); err != nil {
		return fmt.Errorf("r.dao.AssignJury -> %w", err)
	}

	return nil
}

func (r *ActivityRepository) IsJuryOfEvent(ctx context.Context, juryID, eventID uint) (bool, error) {
	ok, err := r.dao.IsJuryOfEvent(ctx, juryID, eventID)
	if err != nil {
		return false, fmt.Errorf("r.dao.IsJuryOfEvent -> %w", err)
	}

	return ok, nil
}

func activityToDomain(a dao.Activity) domain.Activity {
	return domain.Activity{
		ID:          a.ID,
		Name:        a.Name,
		EventID:     a.EventID,
		Day:         a.Day,
		Start:       domain.Slot(a.StartMinute),
		ModeratorID: a.ModeratorID,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func activitiesToDomain(found []dao.Activity) []domain.Activity {
	activities := make([]domain.Activity, 0, len(found))
	for _, a := range found {
		activities = append(activities, activityToDomain(a))
	}
	return activities
}

func activityToDAO(a domain.Activity) dao.Activity {
	return dao.Activity{
		ID:          a.ID,
		Name:        a.Name,
		EventID:     a.EventID,
		Day:         a.Day,
		StartMinute: int(a.Start),
		ModeratorID: a.ModeratorID,
	}
}

func bookings(found []dao.Activity) []domain.Booking {
	booked := make([]domain.Booking, 0, len(found))
	for _, a := range found {
		booked = append(booked, domain.Booking{ActivityID: a.ID, Start: domain.Slot(a.StartMinute)})
	}
	return booked
}
