package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/event-program-api/internal/api/handler/v1/response"
)

// HandleHealthcheck godoc
// @Summary      Healthcheck
// @Tags         health
// @Produce      json
// @Success      200      {object}   response.Health
// @Router       / [get]
func HandleHealthcheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, response.Health{Status: "ok"})
}
