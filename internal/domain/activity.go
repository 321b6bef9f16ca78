package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DefaultDay = 1

var ErrInvalidModeratorRef = errors.New("moderator reference must be a positive integer")

type Activity struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	EventID     uint      `json:"event_id"`
	Day         int       `json:"day"`
	Start       Slot      `json:"start"`
	ModeratorID *uint     `json:"moderator_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (a Activity) Booking() Booking {
	return Booking{ActivityID: a.ID, Start: a.Start}
}

func (a Activity) ModeratedBy(userID uint) bool {
	return a.ModeratorID != nil && userID != 0 && *a.ModeratorID == userID
}

// ParseModeratorRef reads a moderator reference as typed into a form.
// Blank and "0" mean unassigned and yield nil.
func ParseModeratorRef(s string) (*uint, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return nil, nil
	}

	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidModeratorRef, s)
	}

	ref := uint(id)
	return &ref, nil
}

type JuryAssignment struct {
	ID         uint `json:"id"`
	JuryID     uint `json:"jury_id"`
	ActivityID uint `json:"activity_id"`
}

type BlockReason string

const (
	BlockJuryAssigned  BlockReason = "jury-assigned"
	BlockHasActivities BlockReason = "has-activities"
)

type DeletionCheck struct {
	Allowed bool        `json:"allowed"`
	Reason  BlockReason `json:"reason,omitempty"`
}

func Allowed() DeletionCheck {
	return DeletionCheck{Allowed: true}
}

func Blocked(reason BlockReason) DeletionCheck {
	return DeletionCheck{Reason: reason}
}
