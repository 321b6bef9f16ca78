package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/event-program-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/event-program-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/event-program-api/internal/domain"
	"github.com/vietanh2810/event-program-api/internal/service"
)

var (
	errDayNotInt        = errors.New("day must be an integer")
	errActivityIDNotInt = errors.New("activity_id must be a positive integer")
)

type EventService interface {
	List(ctx context.Context) ([]domain.Event, error)
	Get(ctx context.Context, id uint) (domain.Event, error)
	Save(ctx context.Context, actor domain.Actor, input service.EventInput, existingID uint) (domain.Event, error)
	Delete(ctx context.Context, actor domain.Actor, id uint) error
	ListCities(ctx context.Context) ([]domain.City, error)
}

type AvailabilityService interface {
	AvailableSlots(ctx context.Context, eventID uint, day int, editingID uint) ([]domain.Slot, error)
}

type DeletionChecker interface {
	CanDeleteActivity(ctx context.Context, id uint) (domain.DeletionCheck, error)
	CanDeleteEvent(ctx context.Context, id uint) (domain.DeletionCheck, error)
}

type EventHandler struct {
	svc          EventService
	availability AvailabilityService
	integrity    DeletionChecker
	users        UserService
}

func NewEventHandler(svc EventService, availability AvailabilityService, integrity DeletionChecker, users UserService) *EventHandler {
	return &EventHandler{
		svc:          svc,
		availability: availability,
		integrity:    integrity,
		users:        users,
	}
}

// HandleListEvents godoc
// @Summary      List events
// @Description  Newest events first.
// @Tags         events
// @Produce      json
// @Success      200  {array}   domain.Event
// @Failure      500  {object}  response.Err
// @Failure      503  {object}  response.Err
// @Router       /events [get]
// @Security BearerAuth
func (h *EventHandler) HandleListEvents(ctx *gin.Context) {
	events, err := h.svc.List(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleListEvents -> h.svc.List -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleGetEvent godoc
// @Summary      Get an event
// @Tags         events
// @Produce      json
// @Param        eventID  path      int  true  "event ID"
// @Success      200      {object}  domain.Event
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Router       /events/{eventID} [get]
// @Security BearerAuth
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	eventID, respErr := paramID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	event, err := h.svc.Get(ctx.Request.Context(), eventID)
	if err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleGetEvent -> h.svc.Get -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleCreateEvent godoc
// @Summary      Create an event
// @Description  Organizers only. Days defaults to 1.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        request  body      request.EventRequest  true  "event"
// @Success      201      {object}  domain.Event
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      503      {object}  response.Err
// @Router       /events [post]
// @Security BearerAuth
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	h.saveEvent(ctx, 0, http.StatusCreated)
}

// HandleUpdateEvent godoc
// @Summary      Update an event
// @Description  Organizers only. Days cannot drop below a day that already has activities.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                   true  "event ID"
// @Param        request  body      request.EventRequest  true  "event"
// @Success      200      {object}  domain.Event
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Router       /events/{eventID} [put]
// @Security BearerAuth
func (h *EventHandler) HandleUpdateEvent(ctx *gin.Context) {
	eventID, respErr := paramID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	h.saveEvent(ctx, eventID, http.StatusOK)
}

func (h *EventHandler) saveEvent(ctx *gin.Context, eventID uint, status int) {
	actor, respErr := actorFromContext(ctx, h.users)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.EventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.Save(ctx.Request.Context(), actor, req.Input(), eventID)
	if err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.saveEvent -> h.svc.Save -> %w", err)))
		return
	}

	ctx.JSON(status, event)
}

// HandleDeleteEvent godoc
// @Summary      Delete an event
// @Description  Organizers only. Refused with reason "has-activities" while the event owns activities.
// @Tags         events
// @Produce      json
// @Param        eventID  path  int  true  "event ID"
// @Success      204
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Router       /events/{eventID} [delete]
// @Security BearerAuth
func (h *EventHandler) HandleDeleteEvent(ctx *gin.Context) {
	eventID, respErr := paramID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	actor, respErr := actorFromContext(ctx, h.users)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.Delete(ctx.Request.Context(), actor, eventID); err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleDeleteEvent -> h.svc.Delete -> %w", err)))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleEventDeletion godoc
// @Summary      Check whether an event can be deleted
// @Tags         events
// @Produce      json
// @Param        eventID  path      int  true  "event ID"
// @Success      200      {object}  response.Deletion
// @Failure      404      {object}  response.Err
// @Router       /events/{eventID}/deletion [get]
// @Security BearerAuth
func (h *EventHandler) HandleEventDeletion(ctx *gin.Context) {
	eventID, respErr := paramID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	check, err := h.integrity.CanDeleteEvent(ctx.Request.Context(), eventID)
	if err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleEventDeletion -> h.integrity.CanDeleteEvent -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, response.NewDeletion(check))
}

// HandleAvailableSlots godoc
// @Summary      List free start times
// @Description  Slots of the working window not yet taken on the given day. Pass activity_id while editing to keep that activity's own slot selectable.
// @Tags         events
// @Produce      json
// @Param        eventID      path      int  true   "event ID"
// @Param        day          path      int  true   "day of the event, from 1"
// @Param        activity_id  query     int  false  "activity being edited"
// @Success      200          {object}  response.Slots
// @Failure      400          {object}  response.Err
// @Failure      404          {object}  response.Err
// @Router       /events/{eventID}/days/{day}/slots [get]
// @Security BearerAuth
func (h *EventHandler) HandleAvailableSlots(ctx *gin.Context) {
	eventID, respErr := paramID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	day, err := strconv.Atoi(ctx.Param("day"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errDayNotInt))
		return
	}

	var editingID uint64
	if raw := ctx.Query("activity_id"); raw != "" {
		if editingID, err = strconv.ParseUint(raw, 10, 32); err != nil {
			response.RenderErr(ctx, response.ErrBadRequest(errActivityIDNotInt))
			return
		}
	}

	slots, err := h.availability.AvailableSlots(ctx.Request.Context(), eventID, day, uint(editingID))
	if err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleAvailableSlots -> h.availability.AvailableSlots -> %w", err)))
		return
	}
	if slots == nil {
		slots = []domain.Slot{}
	}

	ctx.JSON(http.StatusOK, response.Slots{EventID: eventID, Day: day, Slots: slots})
}

// HandleListCities godoc
// @Summary      List cities
// @Tags         events
// @Produce      json
// @Success      200  {array}   domain.City
// @Router       /cities [get]
// @Security BearerAuth
func (h *EventHandler) HandleListCities(ctx *gin.Context) {
	cities, err := h.svc.ListCities(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleListCities -> h.svc.ListCities -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, cities)
}
