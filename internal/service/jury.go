package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vietanh2810/event-program-api/internal/domain"
	"github.com/vietanh2810/event-program-api/internal/repository"
)

type JuryUserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error)
}

type JuryEventRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	SetWinner(ctx context.Context, eventID, winnerID uint, guard repository.WinnerGuard) (domain.Event, bool, error)
}

type JuryAssignmentRepository interface {
	AssignJury(ctx context.Context, assignment domain.JuryAssignment) error
	IsJuryOfEvent(ctx context.Context, juryID, eventID uint) (bool, error)
}

var ErrNotJuryUser = errors.New("user does not have the jury role")

type JuryService struct {
	users       JuryUserRepository
	events      JuryEventRepository
	assignments JuryAssignmentRepository
}

func NewJuryService(users JuryUserRepository, events JuryEventRepository, assignments JuryAssignmentRepository) *JuryService {
	return &JuryService{
		users:       users,
		events:      events,
		assignments: assignments,
	}
}

// Assign puts a jury account on an activity. Assigning twice is a no-op.
func (s *JuryService) Assign(ctx context.Context, actor domain.Actor, assignment domain.JuryAssignment) error {
	if !actor.Is(domain.RoleOrganizer) {
		return forbidden(ErrNotOrganizer)
	}

	jury, err := s.users.FindByID(ctx, assignment.JuryID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return invalid("jury_id", err)
		}
		return fmt.Errorf("s.users.FindByID -> %w", err)
	}
	if jury.Role != domain.RoleJury {
		return invalid("jury_id", ErrNotJuryUser)
	}

	if err = s.assignments.AssignJury(ctx, assignment); err != nil {
		return fmt.Errorf("s.assignments.AssignJury -> %w", err)
	}

	zap.L().Info("jury assigned",
		zap.Uint("jury_id", assignment.JuryID),
		zap.Uint("activity_id", assignment.ActivityID),
	)

	return nil
}

// Candidates lists the users the acting jury member may pick as the winner
// of an event: everyone except themselves and other jury accounts.
func (s *JuryService) Candidates(ctx context.Context, eventID uint, actor domain.Actor) ([]domain.User, error) {
	if !actor.Is(domain.RoleJury) {
		return nil, forbidden(fmt.Errorf("user %d is not a jury member", actor.UserID))
	}

	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	return s.candidates(ctx, actor.UserID)
}

// SetWinner records winnerID as the winner of the event. The candidate check
// runs in the transaction that writes the winner. Repeating the call with the
// current winner changes nothing.
func (s *JuryService) SetWinner(ctx context.Context, actor domain.Actor, eventID, winnerID uint) (domain.Event, error) {
	if !actor.Is(domain.RoleJury) {
		return domain.Event{}, forbidden(fmt.Errorf("%w: user %d", ErrNotEventJury, actor.UserID))
	}

	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return domain.Event{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	onJury, err := s.assignments.IsJuryOfEvent(ctx, actor.UserID, eventID)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.assignments.IsJuryOfEvent -> %w", err)
	}
	if !onJury {
		return domain.Event{}, forbidden(fmt.Errorf("%w: user %d, event %d", ErrNotEventJury, actor.UserID, eventID))
	}

	event, changed, err := s.events.SetWinner(ctx, eventID, winnerID, func(_ domain.Event, winner domain.User) error {
		if !winner.CandidateFor(actor.UserID) {
			return conflict("winner_id", fmt.Errorf("%w: user %d", ErrWinnerNotCandidate, winnerID))
		}
		return nil
	})
	if err != nil {
		var fieldErr *FieldError
		switch {
		case errors.As(err, &fieldErr):
			return domain.Event{}, err
		case errors.Is(err, repository.ErrUserNotFound):
			return domain.Event{}, invalid("winner_id", err)
		}
		return domain.Event{}, fmt.Errorf("s.events.SetWinner -> %w", err)
	}
	if !changed {
		return event, nil
	}

	zap.L().Info("winner set",
		zap.Uint("event_id", eventID),
		zap.Uint("winner_id", winnerID),
		zap.Uint("jury_id", actor.UserID),
	)

	return event, nil
}

// CurrentWinner reads the stored winner back and resolves it against the
// current candidates. A reference that no longer resolves is reported as
// stale instead of being replaced.
func (s *JuryService) CurrentWinner(ctx context.Context, eventID uint, actor domain.Actor) (domain.WinnerState, error) {
	if !actor.Is(domain.RoleJury) {
		return domain.WinnerState{}, forbidden(fmt.Errorf("user %d is not a jury member", actor.UserID))
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return domain.WinnerState{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}
	if event.WinnerID == nil {
		return domain.WinnerState{}, nil
	}

	candidates, err := s.candidates(ctx, actor.UserID)
	if err != nil {
		return domain.WinnerState{}, err
	}

	for i := range candidates {
		if candidates[i].ID == *event.WinnerID {
			return domain.WinnerState{WinnerID: event.WinnerID, Winner: &candidates[i]}, nil
		}
	}

	zap.L().Warn("stale winner reference",
		zap.Uint("event_id", eventID),
		zap.Uint("winner_id", *event.WinnerID),
	)

	return domain.WinnerState{WinnerID: event.WinnerID, Stale: true}, nil
}

func (s *JuryService) candidates(ctx context.Context, juryID uint) ([]domain.User, error) {
	users, err := s.users.List(ctx, repository.UserFilter{
		ExcludeID:    juryID,
		ExcludeRoles: []domain.Role{domain.RoleJury},
	})
	if err != nil {
		return nil, fmt.Errorf("s.users.List -> %w", err)
	}

	candidates := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.CandidateFor(juryID) {
			candidates = append(candidates, u)
		}
	}

	return candidates, nil
}
