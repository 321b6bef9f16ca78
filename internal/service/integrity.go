package service

import (
	"context"
	"fmt"

	"github.com/vietanh2810/event-program-api/internal/domain"
)

type IntegrityRepository interface {
	CountJuryAssignments(ctx context.Context, activityID uint) (int64, error)
	CountActivities(ctx context.Context, eventID uint) (int64, error)
}

type IntegrityService struct {
	repo       IntegrityRepository
	events     ActivityEventRepository
	activities AvailabilityActivityRepository
}

func NewIntegrityService(repo IntegrityRepository, events ActivityEventRepository, activities AvailabilityActivityRepository) *IntegrityService {
	return &IntegrityService{
		repo:       repo,
		events:     events,
		activities: activities,
	}
}

// CanDeleteActivity reports whether the activity can be deleted. It is
// blocked while any jury member is assigned to it.
func (s *IntegrityService) CanDeleteActivity(ctx context.Context, id uint) (domain.DeletionCheck, error) {
	if _, err := s.activities.FindByID(ctx, id); err != nil {
		return domain.DeletionCheck{}, fmt.Errorf("s.activities.FindByID -> %w", err)
	}

	n, err := s.repo.CountJuryAssignments(ctx, id)
	if err != nil {
		return domain.DeletionCheck{}, fmt.Errorf("s.repo.CountJuryAssignments -> %w", err)
	}
	if n > 0 {
		return domain.Blocked(domain.BlockJuryAssigned), nil
	}

	return domain.Allowed(), nil
}

// CanDeleteEvent reports whether the event can be deleted. It is blocked
// while the event owns any activity.
func (s *IntegrityService) CanDeleteEvent(ctx context.Context, id uint) (domain.DeletionCheck, error) {
	if _, err := s.events.FindByID(ctx, id); err != nil {
		return domain.DeletionCheck{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	n, err := s.repo.CountActivities(ctx, id)
	if err != nil {
		return domain.DeletionCheck{}, fmt.Errorf("s.repo.CountActivities -> %w", err)
	}
	if n > 0 {
		return domain.Blocked(domain.BlockHasActivities), nil
	}

	return domain.Allowed(), nil
}
