package response

import (
	"github.com/vietanh2810/event-program-api/internal/domain"
)

type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type Health struct {
	Status string `json:"status"`
}

type Slots struct {
	EventID uint          `json:"event_id"`
	Day     int           `json:"day"`
	Slots   []domain.Slot `json:"slots" swaggertype:"array,string" example:"09:00,10:45"`
}

type Deletion struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func NewDeletion(check domain.DeletionCheck) Deletion {
	return Deletion{Allowed: check.Allowed, Reason: string(check.Reason)}
}

type Winner struct {
	EventID  uint         `json:"event_id"`
	WinnerID *uint        `json:"winner_id"`
	Winner   *domain.User `json:"winner,omitempty"`
	Stale    bool         `json:"stale"`
}
