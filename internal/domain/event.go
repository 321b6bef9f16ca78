package domain

import "time"

const DefaultDays = 1

type City struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Event struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Date      string    `json:"date"`
	Days      int       `json:"days"`
	CityID    uint      `json:"city_id"`
	WinnerID  *uint     `json:"winner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e Event) HasDay(day int) bool {
	return day >= 1 && day <= e.Days
}

// WinnerState is the winner reference of an event resolved against the
// current candidate set. Stale means the stored reference no longer points
// at a valid candidate.
type WinnerState struct {
	WinnerID *uint `json:"winner_id,omitempty"`
	Winner   *User `json:"winner,omitempty"`
	Stale    bool  `json:"stale"`
}
