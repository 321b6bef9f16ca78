package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/vietanh2810/event-program-api/internal/service"
)

type EventRequest struct {
	Name   string `json:"name"`
	Date   string `json:"date" example:"12.05.2025"`
	Days   *int   `json:"days,omitempty"`
	CityID uint   `json:"city_id"`
}

func (req *EventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Length(0, 200)),
		validation.Field(&req.Date, validation.Length(0, 50)),
	)
}

func (req *EventRequest) Input() service.EventInput {
	return service.EventInput{
		Name:   req.Name,
		Date:   req.Date,
		Days:   req.Days,
		CityID: req.CityID,
	}
}

type WinnerRequest struct {
	WinnerID uint `json:"winner_id"`
}

func (req *WinnerRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.WinnerID, validation.Required),
	)
}
