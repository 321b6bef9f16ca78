package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/event-program-api/internal/domain"
)

func assertField(t *testing.T, err error, kind error, field string) {
	t.Helper()

	require.ErrorIs(t, err, kind)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, field, fieldErr.Field)
}

func TestActivityService_Save_Create(t *testing.T) {
	ts := newTestServices()
	ts.store.addEvent(domain.Event{ID: 1, Name: "Science fair", Days: 2})

	first, err := ts.activities.Save(context.Background(), organizer, ActivityInput{
		Name:    "Opening",
		EventID: 1,
		Start:   slot(9, 0),
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.ID)
	assert.Equal(t, domain.DefaultDay, first.Day)
	assert.Nil(t, first.ModeratorID)

	second, err := ts.activities.Save(context.Background(), organizer, ActivityInput{
		Name:        "  Robotics  ",
		EventID:     1,
		Day:         intPtr(2),
		Start:       slot(10, 45),
		ModeratorID: uintPtr(moderator.UserID),
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.ID)
	assert.Equal(t, "Robotics", second.Name)
	assert.Equal(t, 2, second.Day)
	require.NotNil(t, second.ModeratorID)
	assert.Equal(t, moderator.UserID, *second.ModeratorID)
}

func TestActivityService_Save_Validation(t *testing.T) {
	tests := []struct {
		name  string
		actor domain.Actor
		input ActivityInput
		kind  error
		field string
		cause error
	}{
		{
			name:  "not an organizer",
			actor: moderator,
			input: ActivityInput{Name: "A", EventID: 1, Start: slot(9, 0)},
			kind:  ErrForbidden,
			cause: ErrNotOrganizer,
		},
		{
			name:  "blank name",
			actor: organizer,
			input: ActivityInput{Name: "  ", EventID: 1, Start: slot(9, 0)},
			kind:  ErrValidation,
			field: "name",
			cause: ErrEmptyName,
		},
		{
			name:  "no event",
			actor: organizer,
			input: ActivityInput{Name: "A", Start: slot(9, 0)},
			kind:  ErrValidation,
			field: "event_id",
			cause: ErrEventNotSelected,
		},
		{
			name:  "unknown event",
			actor: organizer,
			input: ActivityInput{Name: "A", EventID: 9, Start: slot(9, 0)},
			kind:  ErrValidation,
			field: "event_id",
			cause: ErrEventNotFound,
		},
		{
			name:  "day beyond the event",
			actor: organizer,
			input: ActivityInput{Name: "A", EventID: 1, Day: intPtr(3), Start: slot(9, 0)},
			kind:  ErrValidation,
			field: "day",
			cause: ErrDayOutOfRange,
		},
		{
			name:  "day zero",
			actor: organizer,
			input: ActivityInput{Name: "A", EventID: 1, Day: intPtr(0), Start: slot(9, 0)},
			kind:  ErrValidation,
			field: "day",
			cause: ErrDayOutOfRange,
		},
		{
			name:  "no start",
			actor: organizer,
			input: ActivityInput{Name: "A", EventID: 1},
			kind:  ErrValidation,
			field: "start",
			cause: ErrSlotNotSelected,
		},
		{
			name:  "start off the grid",
			actor: organizer,
			input: ActivityInput{Name: "A", EventID: 1, Start: slot(9, 30)},
			kind:  ErrValidation,
			field: "start",
			cause: ErrSlotNotOnGrid,
		},
		{
			name:  "zero moderator",
			actor: organizer,
			input: ActivityInput{Name: "A", EventID: 1, Start: slot(9, 0), ModeratorID: uintPtr(0)},
			kind:  ErrValidation,
			field: "moderator_id",
			cause: ErrInvalidModerator,
		},
		{
			name:  "unreadable start",
			actor: organizer,
			input: ActivityInput{Name: "A", EventID: 1, Start: unreadable(), ModeratorID: uintPtr(0)},
			kind:  ErrValidation,
			field: "start",
			cause: domain.ErrInvalidSlot,
		},
		{
			name:  "blank name reported before unreadable start",
			actor: organizer,
			input: ActivityInput{Name: "", Start: unreadable()},
			kind:  ErrValidation,
			field: "name",
			cause: ErrEmptyName,
		},
		{
			name:  "missing event reported before day zero",
			actor: organizer,
			input: ActivityInput{Name: "A", Day: intPtr(0), Start: unreadable()},
			kind:  ErrValidation,
			field: "event_id",
			cause: ErrEventNotSelected,
		},
		{
			name:  "day reported before unreadable start",
			actor: organizer,
			input: ActivityInput{Name: "A", EventID: 1, Day: intPtr(0), Start: unreadable()},
			kind:  ErrValidation,
			field: "day",
			cause: ErrDayOutOfRange,
		},
		{
			name:  "bad moderator reported after the slot",
			actor: organizer,
			input: ActivityInput{Name: "A", EventID: 1, Start: slot(9, 30), ModeratorID: uintPtr(0)},
			kind:  ErrValidation,
			field: "start",
			cause: ErrSlotNotOnGrid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServices()
			ts.store.addEvent(domain.Event{ID: 1, Name: "Fair", Days: 2})

			_, err := ts.activities.Save(context.Background(), tt.actor, tt.input, 0)

			require.ErrorIs(t, err, tt.kind)
			assert.ErrorIs(t, err, tt.cause)
			if tt.field != "" {
				assertField(t, err, tt.kind, tt.field)
			}
			assert.Zero(t, ts.store.upserts)
			assert.Empty(t, ts.store.activities)
		})
	}
}

func TestActivityService_Save_SlotTaken(t *testing.T) {
	ts := newTestServices()
	ts.store.addEvent(domain.Event{ID: 1, Days: 1})
	ts.store.addActivity(domain.Activity{ID: 1, Name: "A", EventID: 1, Day: 1, Start: domain.NewSlot(9, 0)})

	_, err := ts.activities.Save(context.Background(), organizer, ActivityInput{
		Name:    "B",
		EventID: 1,
		Day:     intPtr(1),
		Start:   slot(9, 0),
	}, 0)

	assertField(t, err, ErrConflict, "start")
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Len(t, ts.store.activities, 1)
}

func TestActivityService_Save_EditKeepsOwnSlot(t *testing.T) {
	ts := newTestServices()
	ts.store.addEvent(domain.Event{ID: 1, Days: 1})
	ts.store.addActivity(domain.Activity{ID: 1, Name: "A", EventID: 1, Day: 1, Start: domain.NewSlot(9, 0)})
	ts.store.addActivity(domain.Activity{ID: 2, Name: "B", EventID: 1, Day: 1, Start: domain.NewSlot(10, 45)})

	saved, err := ts.activities.Save(context.Background(), organizer, ActivityInput{
		Name:    "A renamed",
		EventID: 1,
		Day:     intPtr(1),
		Start:   slot(9, 0),
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), saved.ID)
	assert.Equal(t, "A renamed", ts.store.activities[1].Name)

	_, err = ts.activities.Save(context.Background(), organizer, ActivityInput{
		Name:    "A",
		EventID: 1,
		Day:     intPtr(1),
		Start:   slot(10, 45),
	}, 1)
	assertField(t, err, ErrConflict, "start")
	assert.Equal(t, domain.NewSlot(9, 0), ts.store.activities[1].Start)
}

func TestActivityService_Save_EditMovingToOtherDay(t *testing.T) {
	ts := newTestServices()
	ts.store.addEvent(domain.Event{ID: 1, Days: 2})
	ts.store.addActivity(domain.Activity{ID: 1, Name: "A", EventID: 1, Day: 1, Start: domain.NewSlot(9, 0)})
	ts.store.addActivity(domain.Activity{ID: 2, Name: "B", EventID: 1, Day: 2, Start: domain.NewSlot(9, 0)})

	_, err := ts.activities.Save(context.Background(), organizer, ActivityInput{
		Name:    "A",
		EventID: 1,
		Day:     intPtr(2),
		Start:   slot(9, 0),
	}, 1)
	assertField(t, err, ErrConflict, "start")

	moved, err := ts.activities.Save(context.Background(), organizer, ActivityInput{
		Name:    "A",
		EventID: 1,
		Day:     intPtr(2),
		Start:   slot(12, 30),
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, moved.Day)
}

func TestActivityService_Save_UnknownActivity(t *testing.T) {
	ts := newTestServices()
	ts.store.addEvent(domain.Event{ID: 1, Days: 1})

	_, err := ts.activities.Save(context.Background(), organizer, ActivityInput{
		Name:    "A",
		EventID: 1,
		Start:   slot(9, 0),
	}, 42)

	assert.ErrorIs(t, err, ErrActivityNotFound)
}

func TestActivityService_Save_RecheckedInsideWrite(t *testing.T) {
	ts := newTestServices()
	ts.store.addEvent(domain.Event{ID: 1, Days: 1})

	// Another writer commits the same slot between the precheck and the write.
	ts.store.beforeUpsert = func(s *memStore) {
		s.activities[7] = domain.Activity{ID: 7, Name: "Other", EventID: 1, Day: 1, Start: domain.NewSlot(9, 0)}
		s.beforeUpsert = nil
	}

	_, err := ts.activities.Save(context.Background(), organizer, ActivityInput{
		Name:    "Mine",
		EventID: 1,
		Start:   slot(9, 0),
	}, 0)

	assertField(t, err, ErrConflict, "start")
	assert.Len(t, ts.store.activities, 1)
}

func TestActivityService_Save_Concurrent(t *testing.T) {
	ts := newTestServices()
	ts.store.addEvent(domain.Event{ID: 1, Days: 3})

	slots := domain.DefaultSchedule.Slots()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[uint]bool{}
	)
	for day := 1; day <= 3; day++ {
		for _, s := range slots {
			wg.Add(1)
			go func(day int, s domain.Slot) {
				defer wg.Done()

				a, err := ts.activities.Save(context.Background(), organizer, ActivityInput{
					Name:    fmt.Sprintf("day %d %s", day, s),
					EventID: 1,
					Day:     intPtr(day),
					Start:   &s,
				}, 0)
				if !assert.NoError(t, err) {
					return
				}

				mu.Lock()
				defer mu.Unlock()
				assert.False(t, ids[a.ID], "id %d handed out twice", a.ID)
				ids[a.ID] = true
			}(day, s)
		}
	}
	wg.Wait()

	assert.Len(t, ids, 3*len(slots))
	for id := uint(1); id <= uint(3*len(slots)); id++ {
		assert.True(t, ids[id], "missing id %d", id)
	}
}

func TestActivityService_Save_ConcurrentSameSlot(t *testing.T) {
	ts := newTestServices()
	ts.store.addEvent(domain.Event{ID: 1, Days: 1})

	const writers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			_, err := ts.activities.Save(context.Background(), organizer, ActivityInput{
				Name:    fmt.Sprintf("writer %d", i),
				EventID: 1,
				Start:   slot(14, 15),
			}, 0)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, writers-1, conflicts)
	assert.Len(t, ts.store.activities, 1)
}

func TestActivityService_UpdateAsModerator(t *testing.T) {
	ts := newTestServices()
	ts.store.addEvent(domain.Event{ID: 1, Days: 2})
	ts.store.addActivity(domain.Activity{ID: 1, Name: "Chess", EventID: 1, Day: 1, Start: domain.NewSlot(9, 0), ModeratorID: uintPtr(moderator.UserID)})

	patch := ModeratorPatch{Name: "Blitz chess", EventID: 1, Day: 2, Start: domain.NewSlot(16, 0)}

	t.Run("other moderator", func(t *testing.T) {
		other := domain.Actor{UserID: 201, Role: domain.RoleModerator}

		_, err := ts.activities.UpdateAsModerator(context.Background(), other, 1, patch)

		assert.ErrorIs(t, err, ErrForbidden)
		assert.ErrorIs(t, err, ErrNotActivityModerator)
		assert.Equal(t, "Chess", ts.store.activities[1].Name)
	})

	t.Run("organizer is not the moderator", func(t *testing.T) {
		_, err := ts.activities.UpdateAsModerator(context.Background(), organizer, 1, patch)

		assert.ErrorIs(t, err, ErrForbidden)
		assert.Zero(t, ts.store.upserts)
	})

	t.Run("non-moderator cannot tell missing ids apart", func(t *testing.T) {
		for _, id := range []uint{1, 404} {
			_, err := ts.activities.UpdateAsModerator(context.Background(), jury, id, patch)

			assert.ErrorIs(t, err, ErrForbidden, "id %d", id)
			assert.False(t, IsNotFound(err), "id %d", id)
		}
	})

	t.Run("moderator on a missing id", func(t *testing.T) {
		_, err := ts.activities.UpdateAsModerator(context.Background(), moderator, 404, patch)

		assert.True(t, IsNotFound(err))
	})

	t.Run("unreadable start", func(t *testing.T) {
		_, err := ts.activities.UpdateAsModerator(context.Background(), moderator, 1, ModeratorPatch{
			Name: "Chess", EventID: 1, Day: 1, Start: domain.UnreadableSlot,
		})

		assertField(t, err, ErrValidation, "start")
		assert.ErrorIs(t, err, domain.ErrInvalidSlot)
	})

	t.Run("blank name before unreadable start", func(t *testing.T) {
		_, err := ts.activities.UpdateAsModerator(context.Background(), moderator, 1, ModeratorPatch{
			EventID: 1, Day: 0, Start: domain.UnreadableSlot,
		})

		assertField(t, err, ErrValidation, "name")
	})

	t.Run("assigned moderator", func(t *testing.T) {
		saved, err := ts.activities.UpdateAsModerator(context.Background(), moderator, 1, patch)
		require.NoError(t, err)

		assert.Equal(t, "Blitz chess", saved.Name)
		assert.Equal(t, 2, saved.Day)
		assert.Equal(t, domain.NewSlot(16, 0), saved.Start)
		require.NotNil(t, saved.ModeratorID)
		assert.Equal(t, moderator.UserID, *saved.ModeratorID)
	})

	t.Run("moderator loses the activity mid-edit", func(t *testing.T) {
		ts.store.beforeUpsert = func(s *memStore) {
			a := s.activities[1]
			a.ModeratorID = uintPtr(999)
			s.activities[1] = a
			s.beforeUpsert = nil
		}

		_, err := ts.activities.UpdateAsModerator(context.Background(), moderator, 1, ModeratorPatch{
			Name: "Again", EventID: 1, Day: 1, Start: domain.NewSlot(9, 0),
		})

		assert.ErrorIs(t, err, ErrNotActivityModerator)
		assert.Equal(t, "Blitz chess", ts.store.activities[1].Name)
	})
}

func TestActivityService_Lists(t *testing.T) {
	ts := newTestServices()
	ts.store.addEvent(domain.Event{ID: 1, Days: 2})
	ts.store.addActivity(domain.Activity{ID: 1, EventID: 1, Day: 2, Start: domain.NewSlot(9, 0), ModeratorID: uintPtr(moderator.UserID)})
	ts.store.addActivity(domain.Activity{ID: 2, EventID: 1, Day: 1, Start: domain.NewSlot(12, 30)})
	ts.store.addActivity(domain.Activity{ID: 3, EventID: 1, Day: 1, Start: domain.NewSlot(9, 0), ModeratorID: uintPtr(moderator.UserID)})
	ts.store.assign(jury.UserID, 2)

	all, err := ts.activities.ListByEvent(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 2, 1}, activityIDs(all))

	_, err = ts.activities.ListByEvent(context.Background(), 5)
	assert.ErrorIs(t, err, ErrEventNotFound)

	mine, err := ts.activities.ListForModerator(context.Background(), moderator)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 1}, activityIDs(mine))

	_, err = ts.activities.ListForModerator(context.Background(), jury)
	assert.ErrorIs(t, err, ErrForbidden)

	judged, err := ts.activities.ListForJury(context.Background(), jury)
	require.NoError(t, err)
	assert.Equal(t, []uint{2}, activityIDs(judged))
}

func TestActivityService_Delete(t *testing.T) {
	ts := newTestServices()
	ts.store.addEvent(domain.Event{ID: 1, Days: 1})
	ts.store.addActivity(domain.Activity{ID: 1, EventID: 1, Day: 1, Start: domain.NewSlot(9, 0)})
	ts.store.addActivity(domain.Activity{ID: 2, EventID: 1, Day: 1, Start: domain.NewSlot(10, 45)})
	ts.store.assign(jury.UserID, 1)

	err := ts.activities.Delete(context.Background(), organizer, 1)
	require.ErrorIs(t, err, ErrDeleteBlocked)
	var blockedErr *BlockedError
	require.ErrorAs(t, err, &blockedErr)
	assert.Equal(t, domain.BlockJuryAssigned, blockedErr.Reason)
	assert.Contains(t, ts.store.activities, uint(1))

	assert.ErrorIs(t, ts.activities.Delete(context.Background(), moderator, 2), ErrForbidden)

	require.NoError(t, ts.activities.Delete(context.Background(), organizer, 2))
	assert.NotContains(t, ts.store.activities, uint(2))

	assert.ErrorIs(t, ts.activities.Delete(context.Background(), organizer, 2), ErrActivityNotFound)
}

func TestActivityService_StorageFailure(t *testing.T) {
	ts := newTestServices()
	ts.store.addEvent(domain.Event{ID: 1, Days: 1})
	ts.store.err = fmt.Errorf("%w: connection refused", ErrStorageUnavailable)

	_, err := ts.activities.Get(context.Background(), 1)

	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.NotErrorIs(t, err, ErrActivityNotFound)
}

func activityIDs(activities []domain.Activity) []uint {
	ids := make([]uint, 0, len(activities))
	for _, a := range activities {
		ids = append(ids, a.ID)
	}
	return ids
}
