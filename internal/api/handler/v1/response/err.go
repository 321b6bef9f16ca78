package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/vietanh2810/event-program-api/internal/domain"
	"github.com/vietanh2810/event-program-api/internal/service"
)

type Err struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	StatusText     string `json:"status_text"`
	ErrorMsg       string `json:"error_msg,omitempty"`
	Field          string `json:"field,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

func (e *Err) Error() string {
	return e.ErrorMsg
}

func RenderErr(ctx *gin.Context, e *Err) {
	fields := []zap.Field{
		zap.Int("status", e.HTTPStatusCode),
		zap.String("request_id", requestid.Get(ctx)),
		zap.String("path", ctx.FullPath()),
		zap.Error(e.Err),
	}

	if e.HTTPStatusCode >= http.StatusInternalServerError {
		zap.L().Error("request failed", fields...)
	} else {
		zap.L().Debug("request rejected", fields...)
	}

	ctx.AbortWithStatusJSON(e.HTTPStatusCode, e)
}

func newErr(status int, err error) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     http.StatusText(status),
		ErrorMsg:       err.Error(),
	}
}

// fieldOrder is the order fields appear on the forms. Fields not listed
// rank after these, alphabetically.
var fieldOrder = []string{"name", "event_id", "day", "start", "moderator_id", "date", "days", "city_id"}

// ErrBadRequest reports malformed input. ozzo validation errors keep the
// name of the first failing field in form order.
func ErrBadRequest(err error) *Err {
	e := newErr(http.StatusBadRequest, err)

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field := range verrs {
			if e.Field == "" || fieldBefore(field, e.Field) {
				e.Field = field
			}
		}
	}

	return e
}

func fieldBefore(a, b string) bool {
	ra, rb := fieldRank(a), fieldRank(b)
	if ra != rb {
		return ra < rb
	}
	return a < b
}

func fieldRank(field string) int {
	for i, f := range fieldOrder {
		if f == field {
			return i
		}
	}
	return len(fieldOrder)
}

func ErrInvalidToken(err error) *Err {
	return newErr(http.StatusUnauthorized, err)
}

func ErrWrongCredentials(err error) *Err {
	return newErr(http.StatusUnauthorized, err)
}

func ErrPermissionDenied(err error) *Err {
	return newErr(http.StatusForbidden, err)
}

func ErrNotFound(resource, key string, value any) *Err {
	return newErr(http.StatusNotFound, fmt.Errorf("%s with %s=%v not found", resource, key, value))
}

func ErrConflict(err error) *Err {
	return newErr(http.StatusConflict, err)
}

func ErrServiceUnavailable(err error) *Err {
	e := newErr(http.StatusServiceUnavailable, err)
	e.ErrorMsg = "storage is unavailable, try again later"
	return e
}

func ErrInternalServerError(err error) *Err {
	e := newErr(http.StatusInternalServerError, err)
	e.ErrorMsg = http.StatusText(http.StatusInternalServerError)
	return e
}

// ErrFromService maps an error returned by the service layer onto a response
// by its kind.
func ErrFromService(err error) *Err {
	var (
		fieldErr   *service.FieldError
		blockedErr *service.BlockedError
		e          *Err
	)

	switch {
	case errors.Is(err, service.ErrStorageUnavailable):
		return ErrServiceUnavailable(err)
	case errors.As(err, &blockedErr):
		e = newErr(http.StatusConflict, err)
		e.Reason = string(blockedErr.Reason)
		return e
	case errors.Is(err, service.ErrForbidden):
		e = ErrPermissionDenied(err)
	case errors.Is(err, service.ErrValidation):
		e = newErr(http.StatusBadRequest, err)
	case errors.Is(err, service.ErrConflict):
		e = ErrConflict(err)
	case service.IsNotFound(err):
		return newErr(http.StatusNotFound, err)
	case errors.Is(err, domain.ErrInvalidSlot), errors.Is(err, domain.ErrUnknownRole):
		return newErr(http.StatusBadRequest, err)
	default:
		return ErrInternalServerError(err)
	}

	if errors.As(err, &fieldErr) {
		e.Field = fieldErr.Field
		e.ErrorMsg = fieldErr.Err.Error()
	}

	return e
}
