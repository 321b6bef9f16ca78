package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const slotIndex = "uniq_activity_slot"

type Activity struct {
	ID          uint   `gorm:"primaryKey;autoIncrement:false"`
	Name        string `gorm:"not null"`
	EventID     uint   `gorm:"not null;uniqueIndex:uniq_activity_slot,priority:1"`
	Event       Event  `gorm:"foreignKey:EventID;constraint:OnDelete:RESTRICT"`
	Day         int    `gorm:"not null;default:1;uniqueIndex:uniq_activity_slot,priority:2"`
	StartMinute int    `gorm:"not null;uniqueIndex:uniq_activity_slot,priority:3"`
	ModeratorID *uint  `gorm:"index"`
	Moderator   *User  `gorm:"foreignKey:ModeratorID;constraint:OnDelete:SET NULL"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type JuryAssignment struct {
	ID         uint     `gorm:"primaryKey"`
	JuryID     uint     `gorm:"not null;uniqueIndex:uniq_jury_activity,priority:1"`
	Jury       User     `gorm:"foreignKey:JuryID;constraint:OnDelete:CASCADE"`
	ActivityID uint     `gorm:"not null;uniqueIndex:uniq_jury_activity,priority:2;index"`
	Activity   Activity `gorm:"foreignKey:ActivityID;constraint:OnDelete:RESTRICT"`
}

type ActivityDAO struct {
	db *gorm.DB
}

func NewActivityDAO(db *gorm.DB) *ActivityDAO {
	return &ActivityDAO{
		db: db,
	}
}

func (d *ActivityDAO) FindByID(ctx context.Context, id uint) (Activity, error) {
	var activity Activity

	result := d.db.WithContext(ctx).First(&activity, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Activity{}, ErrActivityNotFound
		}

		return Activity{}, storageErr(result.Error)
	}

	return activity, nil
}

func (d *ActivityDAO) ListByEvent(ctx context.Context, eventID uint) ([]Activity, error) {
	return d.list(d.db.WithContext(ctx).Where("event_id = ?", eventID))
}

func (d *ActivityDAO) ListByModerator(ctx context.Context, moderatorID uint) ([]Activity, error) {
	return d.list(d.db.WithContext(ctx).Where("moderator_id = ?", moderatorID))
}

func (d *ActivityDAO) ListByJury(ctx context.Context, juryID uint) ([]Activity, error) {
	q := d.db.WithContext(ctx).
		Joins("JOIN jury_assignments ON jury_assignments.activity_id = activities.id").
		Where("jury_assignments.jury_id = ?", juryID)

	return d.list(q)
}

func (d *ActivityDAO) list(q *gorm.DB) ([]Activity, error) {
	var activities []Activity

	err := q.Order("activities.event_id, activities.day, activities.start_minute").Find(&activities).Error
	if err != nil {
		return nil, storageErr(err)
	}

	return activities, nil
}

// Bookings returns the activities of (eventID, day), leaving out excludeID.
func (d *ActivityDAO) Bookings(ctx context.Context, eventID uint, day int, excludeID uint) ([]Activity, error) {
	var activities []Activity

	err := d.db.WithContext(ctx).
		Select("id", "start_minute").
		Where("event_id = ? AND day = ? AND id <> ?", eventID, day, excludeID).
		Order("start_minute").
		Find(&activities).Error
	if err != nil {
		return nil, storageErr(err)
	}

	return activities, nil
}

// Upsert inserts the activity when its id is zero and updates it otherwise.
// The activities table is locked for the whole transaction, so the id, the
// booking list handed to guard and the write form one atomic step. guard
// receives the stored row (nil on insert), the owning event and the other
// bookings of the target day; its error aborts the write and is returned as is.
func (d *ActivityDAO) Upsert(
	ctx context.Context,
	activity Activity,
	guard func(stored *Activity, event Event, booked []Activity) error,
) (Activity, error) {
	var guardErr error

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTable(tx, activitiesTable); err != nil {
			return err
		}

		var event Event
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).First(&event, activity.EventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		var stored *Activity
		if activity.ID != 0 {
			var found Activity
			if err := tx.First(&found, activity.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrActivityNotFound
				}
				return err
			}
			stored = &found
		}

		var booked []Activity
		if err := tx.Select("id", "start_minute").
			Where("event_id = ? AND day = ? AND id <> ?", activity.EventID, activity.Day, activity.ID).
			Find(&booked).Error; err != nil {
			return err
		}

		if guardErr = guard(stored, event, booked); guardErr != nil {
			return guardErr
		}

		if stored == nil {
			id, err := nextID(tx, activitiesTable)
			if err != nil {
				return err
			}
			activity.ID = id

			return tx.Omit(clause.Associations).Create(&activity).Error
		}

		activity.CreatedAt = stored.CreatedAt
		return tx.Omit(clause.Associations).Save(&activity).Error
	})

	switch {
	case err == nil:
		return activity, nil
	case guardErr != nil:
		return Activity{}, guardErr
	case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrActivityNotFound):
		return Activity{}, err
	case isUniqueViolation(err, slotIndex):
		return Activity{}, ErrSlotTaken
	case isForeignKeyViolation(err):
		// only the moderator reference can dangle once the event row is held
		return Activity{}, ErrUserNotFound
	}

	return Activity{}, storageErr(err)
}

// Delete removes an activity that no jury member is assigned to. The
// assignment foreign key restricts deletes, so a concurrent assignment still
// makes the delete fail with ErrActivityHasJury.
func (d *ActivityDAO) Delete(ctx context.Context, id uint) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var activity Activity
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&activity, id).Error; err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&JuryAssignment{}).Where("activity_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrActivityHasJury
		}

		return tx.Delete(&Activity{}, id).Error
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrActivityNotFound
	case errors.Is(err, ErrActivityHasJury), isForeignKeyViolation(err):
		return ErrActivityHasJury
	}

	return storageErr(err)
}

func (d *ActivityDAO) CountJuryAssignments(ctx context.Context, activityID uint) (int64, error) {
	var n int64

	err := d.db.WithContext(ctx).Model(&JuryAssignment{}).Where("activity_id = ?", activityID).Count(&n).Error
	if err != nil {
		return 0, storageErr(err)
	}

	return n, nil
}

func (d *ActivityDAO) CountByEvent(ctx context.Context, eventID uint) (int64, error) {
	var n int64

	if err := d.db.WithContext(ctx).Model(&Activity{}).Where("event_id = ?", eventID).Count(&n).Error; err != nil {
		return 0, storageErr(err)
	}

	return n, nil
}

func (d *ActivityDAO) AssignJury(ctx context.Context, juryID, activityID uint) error {
	err := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&JuryAssignment{JuryID: juryID, ActivityID: activityID}).Error
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrActivityNotFound
		}
		return storageErr(err)
	}

	return nil
}

// IsJuryOfEvent reports whether juryID is assigned to any activity of eventID.
func (d *ActivityDAO) IsJuryOfEvent(ctx context.Context, juryID, eventID uint) (bool, error) {
	var n int64

	err := d.db.WithContext(ctx).Model(&JuryAssignment{}).
		Joins("JOIN activities ON activities.id = jury_assignments.activity_id").
		Where("jury_assignments.jury_id = ? AND activities.event_id = ?", juryID, eventID).
		Count(&n).Error
	if err != nil {
		return false, storageErr(err)
	}

	return n > 0, nil
}
