package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID uint `gorm:"primaryKey"`

	Email    string `gorm:"unique;not null"`
	Password string `gorm:"not null"`

	FullName string `gorm:"not null"`
	Role     string `gorm:"not null;index"` // "participant", "moderator", "jury" or "organizer"

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{
		db: db,
	}
}

func (d *UserDAO) Insert(ctx context.Context, user User) (User, error) {
	result := d.db.WithContext(ctx).Create(&user)
	if result.Error != nil {
		if isUniqueViolation(result.Error, "") {
			return User{}, ErrUserEmailExists
		}

		return User{}, storageErr(result.Error)
	}

	return user, nil
}

func (d *UserDAO) FindByID(ctx context.Context, id uint) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, storageErr(result.Error)
	}

	return user, nil
}

// List returns users ordered by name, leaving out excludeID and any user
// whose stored role is one of excludeRoles.
func (d *UserDAO) List(ctx context.Context, excludeID uint, excludeRoles []string) ([]User, error) {
	var users []User

	q := d.db.WithContext(ctx).Order("full_name, id")
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if len(excludeRoles) > 0 {
		q = q.Where("role NOT IN ?", excludeRoles)
	}

	if err := q.Find(&users).Error; err != nil {
		return nil, storageErr(err)
	}

	return users, nil
}
