package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/event-program-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/event-program-api/internal/pkg/jwthelper"
)

const ContextKeyUserID = "userID"

var errMissingBearer = errors.New("authorization header must be 'Bearer <token>'")

type Authenticator struct {
	signingKey []byte
}

func NewAuthenticator(signingKey string) *Authenticator {
	return &Authenticator{
		signingKey: []byte(signingKey),
	}
}

// VerifyJWT rejects requests without a valid bearer token and stores the
// token's user id in the gin context under ContextKeyUserID.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			response.RenderErr(ctx, response.ErrInvalidToken(errMissingBearer))
			return
		}

		claims, err := jwthelper.ParseToken(a.signingKey, tokenString)
		if err != nil {
			response.RenderErr(ctx, response.ErrInvalidToken(err))
			return
		}

		ctx.Set(ContextKeyUserID, claims.UserID)
		ctx.Next()
	}
}
