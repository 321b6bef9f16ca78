package v1

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/event-program-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/event-program-api/internal/api/middleware"
	"github.com/vietanh2810/event-program-api/internal/domain"
	"github.com/vietanh2810/event-program-api/internal/service"
)

var errNoSession = errors.New("no authenticated user")

type UserService interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
}

// actorFromContext resolves the user id put in the context by the JWT
// middleware into the actor every service call takes. The role is read from
// storage on each request so a role change applies immediately.
func actorFromContext(ctx *gin.Context, users UserService) (domain.Actor, *response.Err) {
	userID := ctx.GetUint(middleware.ContextKeyUserID)
	if userID == 0 {
		return domain.Actor{}, response.ErrInvalidToken(errNoSession)
	}

	user, err := users.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return domain.Actor{}, response.ErrInvalidToken(fmt.Errorf("user %d no longer exists", userID))
		}
		return domain.Actor{}, response.ErrFromService(err)
	}

	return user.Actor(), nil
}

func paramID(ctx *gin.Context, name string) (uint, *response.Err) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, response.ErrBadRequest(fmt.Errorf("%s must be a positive integer", name))
	}

	return uint(id), nil
}
