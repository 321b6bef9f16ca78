package request

import (
	"errors"
	"strings"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/vietanh2810/event-program-api/internal/domain"
)

const (
	passwordRegexPattern = `^(?=.*[A-Za-z])(?=.*\d).{8,}$`
)

var (
	errInvalidPassword = errors.New("the password must be at least 8 characters and contain 1 letter and 1 number")

	passwordExp = regexp2.MustCompile(passwordRegexPattern, regexp2.None)
)

type LoginRequest struct {
	ID       uint   `json:"id"`
	Password string `json:"password"`
}

func (req *LoginRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ID, validation.Required),
		validation.Field(&req.Password, validation.Required),
	)
}

type RegisterRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role" example:"moderator"`
}

func (req *RegisterRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.FullName, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required, validation.By(matches(passwordExp, errInvalidPassword))),
		validation.Field(&req.Role, validation.Required, validation.By(knownRole)),
	)
}

func (req *RegisterRequest) User() domain.User {
	role, _ := domain.ParseRole(req.Role)

	return domain.User{
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: req.Password,
		Role:     role,
	}
}

func knownRole(value interface{}) error {
	s, _ := value.(string)
	_, err := domain.ParseRole(s)
	return err
}

// matches builds an ozzo rule around a regexp2 pattern. Empty strings pass so
// the rule combines with validation.Required.
func matches(exp *regexp2.Regexp, failure error) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}

		ok, err := exp.MatchString(s)
		if err != nil {
			return err
		}
		if !ok {
			return failure
		}

		return nil
	}
}
