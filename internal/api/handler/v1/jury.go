package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/event-program-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/event-program-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/event-program-api/internal/domain"
)

type JuryService interface {
	Assign(ctx context.Context, actor domain.Actor, assignment domain.JuryAssignment) error
	Candidates(ctx context.Context, eventID uint, actor domain.Actor) ([]domain.User, error)
	SetWinner(ctx context.Context, actor domain.Actor, eventID, winnerID uint) (domain.Event, error)
	CurrentWinner(ctx context.Context, eventID uint, actor domain.Actor) (domain.WinnerState, error)
}

type JuryHandler struct {
	svc        JuryService
	activities ActivityService
	users      UserService
}

func NewJuryHandler(svc JuryService, activities ActivityService, users UserService) *JuryHandler {
	return &JuryHandler{
		svc:        svc,
		activities: activities,
		users:      users,
	}
}

// HandleAssignJury godoc
// @Summary      Assign a jury member to an activity
// @Tags         jury
// @Accept       json
// @Produce      json
// @Param        activityID  path  int                            true  "activity ID"
// @Param        request     body  request.JuryAssignmentRequest  true  "jury member"
// @Success      204
// @Failure      400         {object}  response.Err
// @Failure      403         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Router       /activities/{activityID}/jury [post]
// @Security BearerAuth
func (h *JuryHandler) HandleAssignJury(ctx *gin.Context) {
	activityID, respErr := paramID(ctx, "activityID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	actor, respErr := actorFromContext(ctx, h.users)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.JuryAssignmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	err := h.svc.Assign(ctx.Request.Context(), actor, domain.JuryAssignment{JuryID: req.JuryID, ActivityID: activityID})
	if err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleAssignJury -> h.svc.Assign -> %w", err)))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleListJuryActivities godoc
// @Summary      List the activities I judge
// @Tags         jury
// @Produce      json
// @Success      200  {array}   domain.Activity
// @Failure      403  {object}  response.Err
// @Router       /jury/activities [get]
// @Security BearerAuth
func (h *JuryHandler) HandleListJuryActivities(ctx *gin.Context) {
	actor, respErr := actorFromContext(ctx, h.users)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	activities, err := h.activities.ListForJury(ctx.Request.Context(), actor)
	if err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleListJuryActivities -> h.activities.ListForJury -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, activities)
}

// HandleListCandidates godoc
// @Summary      List winner candidates of an event
// @Description  Every user except the caller and jury accounts.
// @Tags         jury
// @Produce      json
// @Param        eventID  path      int  true  "event ID"
// @Success      200      {array}   domain.User
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Router       /jury/events/{eventID}/candidates [get]
// @Security BearerAuth
func (h *JuryHandler) HandleListCandidates(ctx *gin.Context) {
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

	users, err := h.svc.Candidates(ctx.Request.Context(), eventID, actor)
	if err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleListCandidates -> h.svc.Candidates -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, users)
}

// HandleGetWinner godoc
// @Summary      Get the winner of an event
// @Description  stale is true when the stored winner no longer resolves to a candidate.
// @Tags         jury
// @Produce      json
// @Param        eventID  path      int  true  "event ID"
// @Success      200      {object}  response.Winner
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Router       /jury/events/{eventID}/winner [get]
// @Security BearerAuth
func (h *JuryHandler) HandleGetWinner(ctx *gin.Context) {
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

	state, err := h.svc.CurrentWinner(ctx.Request.Context(), eventID, actor)
	if err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleGetWinner -> h.svc.CurrentWinner -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, response.Winner{
		EventID:  eventID,
		WinnerID: state.WinnerID,
		Winner:   state.Winner,
		Stale:    state.Stale,
	})
}

// HandleSetWinner godoc
// @Summary      Set the winner of an event
// @Description  Jury members assigned to the event only. Setting the current winner again is a no-op.
// @Tags         jury
// @Accept       json
// @Produce      json
// @Param        eventID  path      int                    true  "event ID"
// @Param        request  body      request.WinnerRequest  true  "winner"
// @Success      200      {object}  domain.Event
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Router       /jury/events/{eventID}/winner [put]
// @Security BearerAuth
func (h *JuryHandler) HandleSetWinner(ctx *gin.Context) {
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

	var req request.WinnerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.SetWinner(ctx.Request.Context(), actor, eventID, req.WinnerID)
	if err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleSetWinner -> h.svc.SetWinner -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, event)
}
