package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/event-program-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/event-program-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/event-program-api/internal/config"
	"github.com/vietanh2810/event-program-api/internal/domain"
	"github.com/vietanh2810/event-program-api/internal/pkg/jwthelper"
	"github.com/vietanh2810/event-program-api/internal/service"
)

type AuthService interface {
	Register(ctx context.Context, actor domain.Actor, user domain.User) (domain.User, error)
	Login(ctx context.Context, id uint, password string) (domain.User, error)
}

type AuthHandler struct {
	conf  *config.APIConfig
	svc   AuthService
	users UserService
}

func NewAuthHandler(conf *config.APIConfig, svc AuthService, users UserService) *AuthHandler {
	return &AuthHandler{
		conf:  conf,
		svc:   svc,
		users: users,
	}
}

// HandleRegister godoc
// @Summary      Create an account
// @Description  Organizers create the accounts of participants, moderators, jury members and other organizers.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request   body      request.RegisterRequest true "request body"
// @Success      201      {object}   domain.User
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users [post]
// @Security BearerAuth
func (h *AuthHandler) HandleRegister(ctx *gin.Context) {
	actor, respErr := actorFromContext(ctx, h.users)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	user, err := h.svc.Register(ctx.Request.Context(), actor, req.User())
	if err != nil {
		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleRegister -> h.svc.Register -> %w", err)))
		return
	}

	ctx.JSON(http.StatusCreated, user)
}

// HandleLogin godoc
// @Summary      Login a user
// @Description  Users sign in with their id number and password.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request   body      request.LoginRequest true "request body"
// @Success      200      {object}   response.LoginResponse
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/login [post]
func (h *AuthHandler) HandleLogin(ctx *gin.Context) {
	req := request.LoginRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	user, err := h.svc.Login(ctx.Request.Context(), req.ID, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrWrongCredentials) {
			response.RenderErr(ctx, response.ErrWrongCredentials(err))

			return
		}

		response.RenderErr(ctx, response.ErrFromService(fmt.Errorf("v1.HandleLogin -> h.svc.Login -> %w", err)))

		return
	}

	token, err := jwthelper.GenerateToken([]byte(h.conf.JWTSigningKey), user.ID, ctx.Request.UserAgent(), h.conf.JWTTTL)
	if err != nil {
		err = fmt.Errorf("v1.HandleLogin -> jwthelper.GenerateToken() -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, response.LoginResponse{
		Token: token,
		User:  user,
	})
}
