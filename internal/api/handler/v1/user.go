package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/event-program-api/internal/api/handler/v1/response"
)

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{
		svc: svc,
	}
}

// HandleGetUser godoc
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        userID  path      int  true  "user ID"
// @Success      200     {object}  domain.User
// @Failure      400     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /users/{userID} [get]
// @Security BearerAuth
func (h *UserHandler) HandleGetUser(ctx *gin.Context) {
	userID, respErr := paramID(ctx, "userID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	user, err := h.svc.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleGetUser -> h.svc.GetUser -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, user)
}
