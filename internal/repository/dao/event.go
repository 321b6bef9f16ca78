package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type City struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"unique;not null"`
}

type Event struct {
	ID           uint   `gorm:"primaryKey;autoIncrement:false"`
	Name         string `gorm:"not null"`
	Date         string `gorm:"not null"`
	NumberOfDays int    `gorm:"not null;default:1;check:chk_events_number_of_days,number_of_days >= 1"`
	CityID       uint   `gorm:"not null;index"`
	City         City   `gorm:"foreignKey:CityID;constraint:OnDelete:RESTRICT"`
	WinnerID     *uint  `gorm:"index"`
	Winner       *User  `gorm:"foreignKey:WinnerID;constraint:OnDelete:SET NULL"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) List(ctx context.Context) ([]Event, error) {
	var events []Event

	if err := d.db.WithContext(ctx).Order("id DESC").Find(&events).Error; err != nil {
		return nil, storageErr(err)
	}

	return events, nil
}

func (d *EventDAO) FindByID(ctx context.Context, id uint) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, storageErr(result.Error)
	}

	return event, nil
}

// Save inserts the event when its id is zero, assigning the next id, and
// otherwise updates everything but the winner. guard sees the stored row (nil
// on insert) and the highest day any activity of the event is scheduled on,
// both read under lock; a guard error aborts the write and is returned as is.
func (d *EventDAO) Save(ctx context.Context, event Event, guard func(stored *Event, maxDay int) error) (Event, error) {
	var guardErr error

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored *Event
		maxDay := 0

		if event.ID == 0 {
			if err := lockTable(tx, eventsTable); err != nil {
				return err
			}
			id, err := nextID(tx, eventsTable)
			if err != nil {
				return err
			}
			event.ID = id
		} else {
			var found Event
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&found, event.ID).Error; err != nil {
				return err
			}
			stored = &found

			if err := tx.Model(&Activity{}).
				Where("event_id = ?", event.ID).
				Select("COALESCE(MAX(day), 0)").
				Scan(&maxDay).Error; err != nil {
				return err
			}
		}

		if guardErr = guard(stored, maxDay); guardErr != nil {
			return guardErr
		}

		if stored == nil {
			return tx.Omit(clause.Associations).Create(&event).Error
		}

		if err := tx.Model(&Event{ID: event.ID}).
			Select("name", "date", "number_of_days", "city_id").
			Updates(&event).Error; err != nil {
			return err
		}

		return tx.First(&event, event.ID).Error
	})

	switch {
	case guardErr != nil:
		return Event{}, guardErr
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Event{}, ErrEventNotFound
	case isForeignKeyViolation(err):
		return Event{}, ErrCityNotFound
	case err != nil:
		return Event{}, storageErr(err)
	}

	return event, nil
}

// Delete removes an event that owns no activity. Activities hold a
// restricting foreign key, so a concurrent insert still makes the delete fail
// with ErrEventHasActivities.
func (d *EventDAO) Delete(ctx context.Context, id uint) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&event, id).Error; err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&Activity{}).Where("event_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrEventHasActivities
		}

		return tx.Delete(&Event{}, id).Error
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrEventNotFound
	case errors.Is(err, ErrEventHasActivities), isForeignKeyViolation(err):
		return ErrEventHasActivities
	}

	return storageErr(err)
}

// SetWinner records winnerID as the winner of the event. The event row is
// locked and the winner read in the same transaction; guard sees both and a
// guard error aborts the write and is returned as is. Nothing is written when
// the event already has this winner, and the bool reports whether a write
// happened.
func (d *EventDAO) SetWinner(ctx context.Context, eventID, winnerID uint, guard func(event Event, winner User) error) (Event, bool, error) {
	var (
		event    Event
		changed  bool
		guardErr error
	)

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&event, eventID).Error; err != nil {
			return err
		}

		var winner User
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).First(&winner, winnerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if guardErr = guard(event, winner); guardErr != nil {
			return guardErr
		}

		if event.WinnerID != nil && *event.WinnerID == winnerID {
			return nil
		}

		if err := tx.Model(&Event{ID: eventID}).Update("winner_id", winnerID).Error; err != nil {
			return err
		}
		changed = true

		return tx.First(&event, eventID).Error
	})

	switch {
	case guardErr != nil:
		return Event{}, false, guardErr
	case errors.Is(err, ErrUserNotFound), isForeignKeyViolation(err):
		return Event{}, false, ErrUserNotFound
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Event{}, false, ErrEventNotFound
	case err != nil:
		return Event{}, false, storageErr(err)
	}

	return event, changed, nil
}

// EnsureCities inserts the named cities that do not exist yet.
func (d *EventDAO) EnsureCities(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	cities := make([]City, 0, len(names))
	for _, name := range names {
		cities = append(cities, City{Name: name})
	}

	err := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&cities).Error
	if err != nil {
		return storageErr(err)
	}

	return nil
}

func (d *EventDAO) ListCities(ctx context.Context) ([]City, error) {
	var cities []City

	if err := d.db.WithContext(ctx).Order("name").Find(&cities).Error; err != nil {
		return nil, storageErr(err)
	}

	return cities, nil
}

func (d *EventDAO) FindCity(ctx context.Context, id uint) (City, error) {
	var city City

	result := d.db.WithContext(ctx).First(&city, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return City{}, ErrCityNotFound
		}

		return City{}, storageErr(result.Error)
	}

	return city, nil
}
