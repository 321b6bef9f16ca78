package service

import (
	"context"
	"sort"
	"sync"

	"github.com/vietanh2810/event-program-api/internal/domain"
	"github.com/vietanh2810/event-program-api/internal/repository"
)

// memStore backs the repository fakes. Its write methods hold mu for the
// whole read-guard-write sequence, the way the postgres transactions do.
type memStore struct {
	mu sync.Mutex

	cities      map[uint]domain.City
	users       map[uint]domain.User
	events      map[uint]domain.Event
	activities  map[uint]domain.Activity
	assignments []domain.JuryAssignment

	upserts    int
	winnerSets int
	deletes    int
	err        error

	// beforeUpsert runs inside Upsert before bookings are read.
	beforeUpsert func(s *memStore)
	// beforeWinner runs inside SetWinner before the event is read.
	beforeWinner func(s *memStore)
}

func newMemStore() *memStore {
	return &memStore{
		cities:     map[uint]domain.City{1: {ID: 1, Name: "Kazan"}},
		users:      map[uint]domain.User{},
		events:     map[uint]domain.Event{},
		activities: map[uint]domain.Activity{},
	}
}

func (s *memStore) addUser(u domain.User) domain.User {
	s.users[u.ID] = u
	return u
}

func (s *memStore) addEvent(e domain.Event) domain.Event {
	if e.CityID == 0 {
		e.CityID = 1
	}
	s.events[e.ID] = e
	return e
}

func (s *memStore) addActivity(a domain.Activity) domain.Activity {
	s.activities[a.ID] = a
	return a
}

func (s *memStore) assign(juryID, activityID uint) {
	s.assignments = append(s.assignments, domain.JuryAssignment{
		ID:         uint(len(s.assignments) + 1),
		JuryID:     juryID,
		ActivityID: activityID,
	})
}

func (s *memStore) bookingsLocked(eventID uint, day int, excludeID uint) []domain.Booking {
	var booked []domain.Booking
	for _, a := range s.activities {
		if a.EventID == eventID && a.Day == day && a.ID != excludeID {
			booked = append(booked, a.Booking())
		}
	}
	sort.Slice(booked, func(i, j int) bool { return booked[i].Start < booked[j].Start })
	return booked
}

type memEvents struct{ *memStore }

func (r memEvents) List(_ context.Context) ([]domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}

	events := make([]domain.Event, 0, len(r.events))
	for _, e := range r.events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID > events[j].ID })
	return events, nil
}

func (r memEvents) FindByID(_ context.Context, id uint) (domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return domain.Event{}, r.err
	}

	e, ok := r.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}
	return e, nil
}

func (r memEvents) Save(_ context.Context, event domain.Event, guard repository.EventGuard) (domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cities[event.CityID]; !ok {
		return domain.Event{}, repository.ErrCityNotFound
	}

	var stored *domain.Event
	maxDay := 0
	if event.ID != 0 {
		found, ok := r.events[event.ID]
		if !ok {
			return domain.Event{}, repository.ErrEventNotFound
		}
		stored = &found
		for _, a := range r.activities {
			if a.EventID == event.ID && a.Day > maxDay {
				maxDay = a.Day
			}
		}
	}

	if err := guard(stored, maxDay); err != nil {
		return domain.Event{}, err
	}

	if stored == nil {
		for id := range r.events {
			if id >= event.ID {
				event.ID = id
			}
		}
		event.ID++
	} else {
		event.WinnerID = stored.WinnerID
	}

	r.events[event.ID] = event
	return event, nil
}

func (r memEvents) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[id]; !ok {
		return repository.ErrEventNotFound
	}
	for _, a := range r.activities {
		if a.EventID == id {
			return repository.ErrEventHasActivities
		}
	}

	r.deletes++
	delete(r.events, id)
	return nil
}

func (r memEvents) SetWinner(_ context.Context, eventID, winnerID uint, guard repository.WinnerGuard) (domain.Event, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.beforeWinner != nil {
		r.beforeWinner(r.memStore)
	}

	e, ok := r.events[eventID]
	if !ok {
		return domain.Event{}, false, repository.ErrEventNotFound
	}
	winner, ok := r.users[winnerID]
	if !ok {
		return domain.Event{}, false, repository.ErrUserNotFound
	}

	if err := guard(e, winner); err != nil {
		return domain.Event{}, false, err
	}
	if e.WinnerID != nil && *e.WinnerID == winnerID {
		return e, false, nil
	}

	r.winnerSets++
	e.WinnerID = &winnerID
	r.events[eventID] = e
	return e, true, nil
}

func (r memEvents) ListCities(_ context.Context) ([]domain.City, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cities := make([]domain.City, 0, len(r.cities))
	for _, c := range r.cities {
		cities = append(cities, c)
	}
	return cities, nil
}

func (r memEvents) EnsureCities(_ context.Context, names []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := uint(len(r.cities))
	for _, name := range names {
		exists := false
		for _, c := range r.cities {
			if c.Name == name {
				exists = true
			}
		}
		if !exists {
			next++
			r.cities[next] = domain.City{ID: next, Name: name}
		}
	}
	return nil
}

func (r memEvents) FindCity(_ context.Context, id uint) (domain.City, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cities[id]
	if !ok {
		return domain.City{}, repository.ErrCityNotFound
	}
	return c, nil
}

type memActivities struct{ *memStore }

func (r memActivities) FindByID(_ context.Context, id uint) (domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return domain.Activity{}, r.err
	}

	a, ok := r.activities[id]
	if !ok {
		return domain.Activity{}, repository.ErrActivityNotFound
	}
	return a, nil
}

func (r memActivities) list(keep func(domain.Activity) bool) []domain.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Activity
	for _, a := range r.activities {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EventID != out[j].EventID {
			return out[i].EventID < out[j].EventID
		}
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Start < out[j].Start
	})
	return out
}

func (r memActivities) ListByEvent(_ context.Context, eventID uint) ([]domain.Activity, error) {
	return r.list(func(a domain.Activity) bool { return a.EventID == eventID }), nil
}

func (r memActivities) ListByModerator(_ context.Context, moderatorID uint) ([]domain.Activity, error) {
	return r.list(func(a domain.Activity) bool { return a.ModeratedBy(moderatorID) }), nil
}

func (r memActivities) ListByJury(_ context.Context, juryID uint) ([]domain.Activity, error) {
	r.mu.Lock()
	judged := map[uint]bool{}
	for _, ja := range r.assignments {
		if ja.JuryID == juryID {
			judged[ja.ActivityID] = true
		}
	}
	r.mu.Unlock()

	return r.list(func(a domain.Activity) bool { return judged[a.ID] }), nil
}

func (r memActivities) Bookings(_ context.Context, eventID uint, day int, excludeID uint) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	return r.bookingsLocked(eventID, day, excludeID), nil
}

func (r memActivities) Upsert(_ context.Context, activity domain.Activity, guard repository.ActivityGuard) (domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.beforeUpsert != nil {
		r.beforeUpsert(r.memStore)
	}

	event, ok := r.events[activity.EventID]
	if !ok {
		return domain.Activity{}, repository.ErrEventNotFound
	}

	var stored *domain.Activity
	if activity.ID != 0 {
		found, ok := r.activities[activity.ID]
		if !ok {
			return domain.Activity{}, repository.ErrActivityNotFound
		}
		stored = &found
	}

	if err := guard(stored, event, r.bookingsLocked(activity.EventID, activity.Day, activity.ID)); err != nil {
		return domain.Activity{}, err
	}

	if stored == nil {
		var maxID uint
		for id := range r.activities {
			if id > maxID {
				maxID = id
			}
		}
		activity.ID = maxID + 1
	}

	for _, b := range r.bookingsLocked(activity.EventID, activity.Day, activity.ID) {
		if b.Start == activity.Start {
			return domain.Activity{}, repository.ErrSlotTaken
		}
	}

	r.upserts++
	r.activities[activity.ID] = activity
	return activity, nil
}

func (r memActivities) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.activities[id]; !ok {
		return repository.ErrActivityNotFound
	}
	for _, ja := range r.assignments {
		if ja.ActivityID == id {
			return repository.ErrActivityHasJury
		}
	}

	r.deletes++
	delete(r.activities, id)
	return nil
}

func (r memActivities) CountJuryAssignments(_ context.Context, activityID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, ja := range r.assignments {
		if ja.ActivityID == activityID {
			n++
		}
	}
	return n, nil
}

func (r memActivities) CountActivities(_ context.Context, eventID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, a := range r.activities {
		if a.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (r memActivities) AssignJury(_ context.Context, assignment domain.JuryAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.activities[assignment.ActivityID]; !ok {
		return repository.ErrActivityNotFound
	}
	for _, ja := range r.assignments {
		if ja.JuryID == assignment.JuryID && ja.ActivityID == assignment.ActivityID {
			return nil
		}
	}

	assignment.ID = uint(len(r.assignments) + 1)
	r.assignments = append(r.assignments, assignment)
	return nil
}

func (r memActivities) IsJuryOfEvent(_ context.Context, juryID, eventID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ja := range r.assignments {
		if ja.JuryID == juryID && r.activities[ja.ActivityID].EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

type memUsers struct{ *memStore }

func (r memUsers) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var maxID uint
	for id, u := range r.users {
		if u.Email == user.Email {
			return domain.User{}, repository.ErrUserEmailExists
		}
		if id > maxID {
			maxID = id
		}
	}

	user.ID = maxID + 1
	r.users[user.ID] = user
	return user, nil
}

func (r memUsers) FindByID(_ context.Context, id uint) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (r memUsers) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.User
	for _, u := range r.users {
		if u.ID == filter.ExcludeID {
			continue
		}
		skip := false
		for _, role := range filter.ExcludeRoles {
			if u.Role == role {
				skip = true
			}
		}
		if !skip {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

var (
	organizer = domain.Actor{UserID: 100, Role: domain.RoleOrganizer}
	moderator = domain.Actor{UserID: 200, Role: domain.RoleModerator}
	jury      = domain.Actor{UserID: 300, Role: domain.RoleJury}
)

func slot(h, m int) *domain.Slot {
	s := domain.NewSlot(h, m)
	return &s
}

func unreadable() *domain.Slot {
	s := domain.UnreadableSlot
	return &s
}

func intPtr(v int) *int { return &v }

func uintPtr(v uint) *uint { return &v }

type testServices struct {
	store        *memStore
	activities   *ActivityService
	availability *AvailabilityService
	integrity    *IntegrityService
	events       *EventService
	jury         *JuryService
	auth         *AuthService
}

func newTestServices() testServices {
	store := newMemStore()
	events := memEvents{store}
	activities := memActivities{store}
	users := memUsers{store}

	integrity := NewIntegrityService(activities, events, activities)

	return testServices{
		store:        store,
		activities:   NewActivityService(activities, events, integrity, domain.DefaultSchedule),
		availability: NewAvailabilityService(events, activities, domain.DefaultSchedule),
		integrity:    integrity,
		events:       NewEventService(events, integrity),
		jury:         NewJuryService(users, events, activities),
		auth:         NewAuthService(users),
	}
}
