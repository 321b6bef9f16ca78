package request

import (
	"encoding/json"
	"strconv"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/vietanh2810/event-program-api/internal/domain"
	"github.com/vietanh2810/event-program-api/internal/service"
)

const timeOfDayPattern = `^(?:[01]\d|2[0-3]):[0-5]\d(?::00)?$`

var timeOfDayExp = regexp2.MustCompile(timeOfDayPattern, regexp2.None)

// ModeratorRef accepts a moderator id written as a JSON number or string.
// null, "", 0 and "0" all mean no moderator.
type ModeratorRef struct {
	raw string
}

func (m *ModeratorRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		m.raw = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		m.raw = s
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return domain.ErrInvalidModeratorRef
	}
	m.raw = n.String()

	return nil
}

func (m ModeratorRef) Parse() (*uint, error) {
	return domain.ParseModeratorRef(m.raw)
}

func NewModeratorRef(id uint) ModeratorRef {
	return ModeratorRef{raw: strconv.FormatUint(uint64(id), 10)}
}

type ActivityRequest struct {
	Name        string       `json:"name"`
	EventID     uint         `json:"event_id"`
	Day         *int         `json:"day,omitempty"`
	Start       string       `json:"start" example:"09:00"`
	ModeratorID ModeratorRef `json:"moderator_id" swaggertype:"string" example:"3"`
}

// Validate only checks the shape of free text. Day, start and moderator are
// judged by the service so that the first failing field is reported in form
// order.
func (req *ActivityRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Length(0, 200)),
	)
}

// Input converts the request for the service. An empty start stays nil and
// is reported by the service as not selected, while a start that is not a
// time of day becomes UnreadableSlot. A moderator reference that does not
// parse is passed on as id 0.
func (req *ActivityRequest) Input() service.ActivityInput {
	var start *domain.Slot
	if req.Start != "" {
		slot := parseStart(req.Start)
		start = &slot
	}

	moderator, err := req.ModeratorID.Parse()
	if err != nil {
		moderator = new(uint)
	}

	return service.ActivityInput{
		Name:        req.Name,
		EventID:     req.EventID,
		Day:         req.Day,
		Start:       start,
		ModeratorID: moderator,
	}
}

type ModeratorActivityRequest struct {
	Name    string `json:"name"`
	EventID uint   `json:"event_id"`
	Day     int    `json:"day"`
	Start   string `json:"start" example:"10:45"`
}

func (req *ModeratorActivityRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Length(0, 200)),
	)
}

func (req *ModeratorActivityRequest) Patch() service.ModeratorPatch {
	return service.ModeratorPatch{
		Name:    req.Name,
		EventID: req.EventID,
		Day:     req.Day,
		Start:   parseStart(req.Start),
	}
}

type JuryAssignmentRequest struct {
	JuryID uint `json:"jury_id"`
}

func (req *JuryAssignmentRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.JuryID, validation.Required),
	)
}

// parseStart accepts HH:MM with an optional ":00". Anything else maps to
// UnreadableSlot.
func parseStart(s string) domain.Slot {
	ok, err := timeOfDayExp.MatchString(s)
	if err != nil || !ok {
		return domain.UnreadableSlot
	}

	slot, err := domain.ParseSlot(s)
	if err != nil {
		return domain.UnreadableSlot
	}

	return slot
}
