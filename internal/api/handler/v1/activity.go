package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/event-program-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/event-program-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/event-program-api/internal/domain"
	"github.com/vietanh2810/event-program-api/internal/service"
)

type ActivityService interface {
	Get(ctx context.Context, id uint) (domain.Activity, error)
	ListByEvent(ctx context.Context, eventID uint) ([]domain.Activity, error)
	ListForModerator(ctx context.Context, actor domain.Actor) ([]domain.Activity, error)
	ListForJury(ctx context.Context, actor domain.Actor) ([]domain.Activity, error)
	Save(ctx context.Context, actor domain.Actor, input service.ActivityInput, existingID uint) (domain.Activity, error)
	UpdateAsModerator(ctx context.Context, actor domain.Actor, id uint, patch service.ModeratorPatch) (domain.Activity, error)
	Delete(ctx context.Context, actor domain.Actor, id uint) error
}

type ActivityHandler struct {
	svc       ActivityService
	integrity DeletionChecker
	users     UserService
}

func NewActivityHandler(svc ActivityService, integrity DeletionChecker, users UserService) *ActivityHandler {
	return &ActivityHandler{
		svc:       svc,
		integrity: integrity,
		users:     users,
	}
}

// HandleListEventActivities godoc
// @Summary      List the activities of an event
// @Description  Ordered by day, then start time.
// @Tags         activities
// @Produce      json
// @Param        eventID  path      int  true  "event ID"
// @Success      200      {array}   domain.Activity
// @Failure      404      {object}  response.Err
// @Router       /events/{eventID}/activities [get]
// @Security BearerAuth
func (h *ActivityHandler) HandleListEventActivities(ctx *gin.Context) {
	eventID, respErr := paramID(ctx, "eventID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	activities, err := h.svc.ListByEvent(ctx.Request.Context(), eventID)
	if err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleListEventActivities -> h.svc.ListByEvent -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, activities)
}

// HandleGetActivity godoc
// @Summary      Get an activity
// @Tags         activities
// @Produce      json
// @Param        activityID  path      int  true  "activity ID"
// @Success      200         {object}  domain.Activity
// @Failure      404         {object}  response.Err
// @Router       /activities/{activityID} [get]
// @Security BearerAuth
func (h *ActivityHandler) HandleGetActivity(ctx *gin.Context) {
	activityID, respErr := paramID(ctx, "activityID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	activity, err := h.svc.Get(ctx.Request.Context(), activityID)
	if err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleGetActivity -> h.svc.Get -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, activity)
}

// HandleCreateActivity godoc
// @Summary      Create an activity
// @Description  Organizers only. The start time must be one of the free slots of the chosen day. A missing day means day 1; a missing or zero moderator_id leaves the activity unassigned.
// @Tags         activities
// @Accept       json
// @Produce      json
// @Param        request  body      request.ActivityRequest  true  "activity"
// @Success      201      {object}  domain.Activity
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      503      {object}  response.Err
// @Router       /activities [post]
// @Security BearerAuth
func (h *ActivityHandler) HandleCreateActivity(ctx *gin.Context) {
	h.saveActivity(ctx, 0, http.StatusCreated)
}

// HandleUpdateActivity godoc
// @Summary      Update an activity
// @Description  Organizers only. The activity keeps its own slot available while being edited.
// @Tags         activities
// @Accept       json
// @Produce      json
// @Param        activityID  path      int                      true  "activity ID"
// @Param        request     body      request.ActivityRequest  true  "activity"
// @Success      200         {object}  domain.Activity
// @Failure      400         {object}  response.Err
// @Failure      403         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Failure      409         {object}  response.Err
// @Router       /activities/{activityID} [put]
// @Security BearerAuth
func (h *ActivityHandler) HandleUpdateActivity(ctx *gin.Context) {
	activityID, respErr := paramID(ctx, "activityID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	h.saveActivity(ctx, activityID, http.StatusOK)
}

func (h *ActivityHandler) saveActivity(ctx *gin.Context, activityID uint, status int) {
	actor, respErr := actorFromContext(ctx, h.users)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ActivityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	activity, err := h.svc.Save(ctx.Request.Context(), actor, req.Input(), activityID)
	if err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.saveActivity -> h.svc.Save -> %w", err)))
		return
	}

	ctx.JSON(status, activity)
}

// HandleDeleteActivity godoc
// @Summary      Delete an activity
// @Description  Organizers only. Refused with reason "jury-assigned" while a jury member is assigned.
// @Tags         activities
// @Produce      json
// @Param        activityID  path  int  true  "activity ID"
// @Success      204
// @Failure      403         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Failure      409         {object}  response.Err
// @Router       /activities/{activityID} [delete]
// @Security BearerAuth
func (h *ActivityHandler) HandleDeleteActivity(ctx *gin.Context) {
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

	if err := h.svc.Delete(ctx.Request.Context(), actor, activityID); err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleDeleteActivity -> h.svc.Delete -> %w", err)))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleActivityDeletion godoc
// @Summary      Check whether an activity can be deleted
// @Tags         activities
// @Produce      json
// @Param        activityID  path      int  true  "activity ID"
// @Success      200         {object}  response.Deletion
// @Failure      404         {object}  response.Err
// @Router       /activities/{activityID}/deletion [get]
// @Security BearerAuth
func (h *ActivityHandler) HandleActivityDeletion(ctx *gin.Context) {
	activityID, respErr := paramID(ctx, "activityID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	check, err := h.integrity.CanDeleteActivity(ctx.Request.Context(), activityID)
	if err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleActivityDeletion -> h.integrity.CanDeleteActivity -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, response.NewDeletion(check))
}

// HandleListModeratedActivities godoc
// @Summary      List my moderated activities
// @Tags         moderation
// @Produce      json
// @Success      200  {array}   domain.Activity
// @Failure      403  {object}  response.Err
// @Router       /moderation/activities [get]
// @Security BearerAuth
func (h *ActivityHandler) HandleListModeratedActivities(ctx *gin.Context) {
	actor, respErr := actorFromContext(ctx, h.users)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	activities, err := h.svc.ListForModerator(ctx.Request.Context(), actor)
	if err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleListModeratedActivities -> h.svc.ListForModerator -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, activities)
}

// HandleModeratorUpdate godoc
// @Summary      Update one of my moderated activities
// @Description  Only the moderator assigned to the activity may change its name, event, day and start time. The moderator itself stays unchanged.
// @Tags         moderation
// @Accept       json
// @Produce      json
// @Param        activityID  path      int                               true  "activity ID"
// @Param        request     body      request.ModeratorActivityRequest  true  "activity"
// @Success      200         {object}  domain.Activity
// @Failure      400         {object}  response.Err
// @Failure      403         {object}  response.Err
// @Failure      409         {object}  response.Err
// @Router       /moderation/activities/{activityID} [put]
// @Security BearerAuth
func (h *ActivityHandler) HandleModeratorUpdate(ctx *gin.Context) {
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

	var req request.ModeratorActivityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	activity, err := h.svc.UpdateAsModerator(ctx.Request.Context(), actor, activityID, req.Patch())
	if err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleModeratorUpdate -> h.svc.UpdateAsModerator -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, activity)
}
