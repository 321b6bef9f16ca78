package dao

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	os.Exit(runWithPostgres(m))
}

// runWithPostgres starts a throwaway postgres container for the package.
// Without a reachable Docker daemon the tests run and skip themselves.
func runWithPostgres(m *testing.M) int {
	pool, err := dockertest.NewPool("")
	if err == nil {
		err = pool.Client.Ping()
	}
	if err != nil {
		log.Printf("docker is not available, skipping dao tests: %v", err)
		return m.Run()
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=event_program",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Printf("could not start postgres: %v", err)
		return 1
	}
	defer func() {
		if err := pool.Purge(resource); err != nil {
			log.Printf("could not purge postgres: %v", err)
		}
	}()
	_ = resource.Expire(300)

	dsn := fmt.Sprintf("postgres://postgres:secret@%s/event_program?sslmode=disable", resource.GetHostPort("5432/tcp"))

	pool.MaxWait = 2 * time.Minute
	err = pool.Retry(func() error {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err = sqlDB.Ping(); err != nil {
			return err
		}
		testDB = db
		return nil
	})
	if err != nil {
		log.Printf("could not connect to postgres: %v", err)
		return 1
	}

	return m.Run()
}

// freshDB recreates the schema so every test starts from empty tables.
func freshDB(t *testing.T) *gorm.DB {
	t.Helper()

	if testDB == nil {
		t.Skip("postgres container is not running")
	}

	require.NoError(t, DropAllTables(testDB))
	require.NoError(t, InitTables(testDB))

	return testDB
}

type fixture struct {
	users      *UserDAO
	events     *EventDAO
	activities *ActivityDAO

	moderator User
	jury      User
	event     Event
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db := freshDB(t)
	ctx := context.Background()

	f := fixture{
		users:      NewUserDAO(db),
		events:     NewEventDAO(db),
		activities: NewActivityDAO(db),
	}

	require.NoError(t, f.events.EnsureCities(ctx, []string{"Kazan"}))
	cities, err := f.events.ListCities(ctx)
	require.NoError(t, err)
	require.Len(t, cities, 1)

	f.moderator, err = f.users.Insert(ctx, User{Email: "mod@example.com", Password: "x", FullName: "Mila", Role: "moderator"})
	require.NoError(t, err)
	f.jury, err = f.users.Insert(ctx, User{Email: "jury@example.com", Password: "x", FullName: "Judge", Role: "jury"})
	require.NoError(t, err)

	f.event, err = f.events.Save(ctx, Event{Name: "Fair", Date: "today", NumberOfDays: 3, CityID: cities[0].ID}, allowEvent)
	require.NoError(t, err)

	return f
}

func allowEvent(*Event, int) error { return nil }

func allowActivity(*Activity, Event, []Activity) error { return nil }

func allowWinner(Event, User) error { return nil }

func (f fixture) place(t *testing.T, day, startMinute int) Activity {
	t.Helper()

	a, err := f.activities.Upsert(context.Background(), Activity{
		Name:        fmt.Sprintf("day %d at %d", day, startMinute),
		EventID:     f.event.ID,
		Day:         day,
		StartMinute: startMinute,
	}, allowActivity)
	require.NoError(t, err)

	return a
}

func TestActivityDAO_Upsert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.place(t, 1, 540)
	assert.Equal(t, uint(1), first.ID)

	var seen []Activity
	second, err := f.activities.Upsert(ctx, Activity{Name: "B", EventID: f.event.ID, Day: 1, StartMinute: 645, ModeratorID: &f.moderator.ID},
		func(stored *Activity, event Event, booked []Activity) error {
			assert.Nil(t, stored)
			assert.Equal(t, f.event.ID, event.ID)
			seen = booked
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.ID)
	require.Len(t, seen, 1)
	assert.Equal(t, 540, seen[0].StartMinute)

	_, err = f.activities.Upsert(ctx, Activity{Name: "C", EventID: f.event.ID, Day: 1, StartMinute: 540}, allowActivity)
	assert.ErrorIs(t, err, ErrSlotTaken)

	refused := errors.New("refused")
	_, err = f.activities.Upsert(ctx, Activity{Name: "C", EventID: f.event.ID, Day: 2, StartMinute: 540},
		func(*Activity, Event, []Activity) error { return refused })
	assert.Same(t, refused, err)

	// The edited row is left out of its own booking list.
	moved := second
	moved.Day = 2
	moved.StartMinute = 750
	updated, err := f.activities.Upsert(ctx, moved, func(stored *Activity, _ Event, booked []Activity) error {
		require.NotNil(t, stored)
		assert.Equal(t, 1, stored.Day)
		assert.Empty(t, booked)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, second.ID, updated.ID)

	found, err := f.activities.FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Day)
	assert.Equal(t, 750, found.StartMinute)
	assert.WithinDuration(t, second.CreatedAt, found.CreatedAt, time.Millisecond)

	ghost := uint(999)
	_, err = f.activities.Upsert(ctx, Activity{Name: "D", EventID: f.event.ID, Day: 3, StartMinute: 540, ModeratorID: &ghost}, allowActivity)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.activities.Upsert(ctx, Activity{Name: "E", EventID: 42, Day: 1, StartMinute: 540}, allowActivity)
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = f.activities.Upsert(ctx, Activity{ID: 77, Name: "F", EventID: f.event.ID, Day: 1, StartMinute: 540}, allowActivity)
	assert.ErrorIs(t, err, ErrActivityNotFound)

	booked, err := f.activities.Bookings(ctx, f.event.ID, 1, 0)
	require.NoError(t, err)
	require.Len(t, booked, 1)
	assert.Equal(t, first.ID, booked[0].ID)
}

func TestActivityDAO_Upsert_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const writers = 6

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ids  []uint
		errs []error
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			// Two writers per slot: exactly one of each pair wins.
			a, err := f.activities.Upsert(ctx, Activity{
				Name:        fmt.Sprintf("writer %d", i),
				EventID:     f.event.ID,
				Day:         1,
				StartMinute: 540 + (i/2)*105,
			}, func(_ *Activity, _ Event, booked []Activity) error {
				for _, b := range booked {
					if b.StartMinute == 540+(i/2)*105 {
						return ErrSlotTaken
					}
				}
				return nil
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ids = append(ids, a.ID)
		}(i)
	}
	wg.Wait()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	assert.Equal(t, []uint{1, 2, 3}, ids)
	require.Len(t, errs, writers/2)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrSlotTaken)
	}
}

func TestActivityDAO_JuryAssignments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	judged := f.place(t, 1, 540)
	free := f.place(t, 1, 645)

	require.NoError(t, f.activities.AssignJury(ctx, f.jury.ID, judged.ID))
	require.NoError(t, f.activities.AssignJury(ctx, f.jury.ID, judged.ID))
	assert.ErrorIs(t, f.activities.AssignJury(ctx, f.jury.ID, 999), ErrActivityNotFound)

	n, err := f.activities.CountJuryAssignments(ctx, judged.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	onJury, err := f.activities.IsJuryOfEvent(ctx, f.jury.ID, f.event.ID)
	require.NoError(t, err)
	assert.True(t, onJury)

	onJury, err = f.activities.IsJuryOfEvent(ctx, f.moderator.ID, f.event.ID)
	require.NoError(t, err)
	assert.False(t, onJury)

	list, err := f.activities.ListByJury(ctx, f.jury.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, judged.ID, list[0].ID)

	assert.ErrorIs(t, f.activities.Delete(ctx, judged.ID), ErrActivityHasJury)
	require.NoError(t, f.activities.Delete(ctx, free.ID))
	assert.ErrorIs(t, f.activities.Delete(ctx, free.ID), ErrActivityNotFound)

	n, err = f.activities.CountByEvent(ctx, f.event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestEventDAO_Save(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	second, err := f.events.Save(ctx, Event{Name: "Expo", Date: "later", NumberOfDays: 1, CityID: f.event.CityID}, allowEvent)
	require.NoError(t, err)
	assert.Equal(t, f.event.ID+1, second.ID)

	f.place(t, 2, 540)

	update := f.event
	update.Name = "Spring fair"
	update.NumberOfDays = 2
	saved, err := f.events.Save(ctx, update, func(stored *Event, maxDay int) error {
		require.NotNil(t, stored)
		assert.Equal(t, "Fair", stored.Name)
		assert.Equal(t, 2, maxDay)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Spring fair", saved.Name)
	assert.Equal(t, 2, saved.NumberOfDays)

	refused := errors.New("refused")
	_, err = f.events.Save(ctx, update, func(*Event, int) error { return refused })
	assert.Same(t, refused, err)

	_, err = f.events.Save(ctx, Event{Name: "Nowhere", Date: "x", NumberOfDays: 1, CityID: 999}, allowEvent)
	assert.ErrorIs(t, err, ErrCityNotFound)

	_, err = f.events.Save(ctx, Event{ID: 999, Name: "Ghost", Date: "x", NumberOfDays: 1, CityID: f.event.CityID}, allowEvent)
	assert.ErrorIs(t, err, ErrEventNotFound)

	events, err := f.events.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, second.ID, events[0].ID)
}

func TestEventDAO_DeleteAndWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.place(t, 1, 540)
	assert.ErrorIs(t, f.events.Delete(ctx, f.event.ID), ErrEventHasActivities)

	participant, err := f.users.Insert(ctx, User{Email: "p@example.com", Password: "x", FullName: "Pat", Role: "participant"})
	require.NoError(t, err)

	var seen User
	saved, changed, err := f.events.SetWinner(ctx, f.event.ID, participant.ID, func(_ Event, winner User) error {
		seen = winner
		return nil
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "participant", seen.Role)
	require.NotNil(t, saved.WinnerID)
	assert.Equal(t, participant.ID, *saved.WinnerID)

	_, changed, err = f.events.SetWinner(ctx, f.event.ID, participant.ID, allowWinner)
	require.NoError(t, err)
	assert.False(t, changed)

	refused := errors.New("refused")
	_, _, err = f.events.SetWinner(ctx, f.event.ID, f.moderator.ID, func(Event, User) error { return refused })
	assert.Same(t, refused, err)

	_, _, err = f.events.SetWinner(ctx, f.event.ID, 999, allowWinner)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, _, err = f.events.SetWinner(ctx, 999, participant.ID, allowWinner)
	assert.ErrorIs(t, err, ErrEventNotFound)

	found, err := f.events.FindByID(ctx, f.event.ID)
	require.NoError(t, err)
	require.NotNil(t, found.WinnerID)
	assert.Equal(t, participant.ID, *found.WinnerID)

	empty, err := f.events.Save(ctx, Event{Name: "Empty", Date: "x", NumberOfDays: 1, CityID: f.event.CityID}, allowEvent)
	require.NoError(t, err)
	require.NoError(t, f.events.Delete(ctx, empty.ID))
	assert.ErrorIs(t, f.events.Delete(ctx, empty.ID), ErrEventNotFound)
}

func TestUserDAO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Insert(ctx, User{Email: "mod@example.com", Password: "x", FullName: "Other", Role: "participant"})
	assert.ErrorIs(t, err, ErrUserEmailExists)

	_, err = f.users.FindByID(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	users, err := f.users.List(ctx, f.moderator.ID, []string{"jury"})
	require.NoError(t, err)
	assert.Empty(t, users)

	users, err = f.users.List(ctx, 0, nil)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Judge", users[0].FullName)
}

func TestEventDAO_EnsureCities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.events.EnsureCities(ctx, []string{"Moscow", "Kazan"}))

	cities, err := f.events.ListCities(ctx)
	require.NoError(t, err)
	require.Len(t, cities, 2)
	assert.Equal(t, "Kazan", cities[0].Name)

	_, err = f.events.FindCity(ctx, 999)
	assert.ErrorIs(t, err, ErrCityNotFound)
}
