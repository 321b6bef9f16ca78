package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vietanh2810/event-program-api/internal/domain"
	"github.com/vietanh2810/event-program-api/internal/repository"
)

var (
	ErrUserEmailExists  = repository.ErrUserEmailExists
	ErrWrongCredentials = errors.New("wrong id or password")
	ErrEmptyPassword    = errors.New("password is required")
	ErrInvalidRole      = errors.New("role is not one of participant, moderator, jury, organizer")
)

type AuthUserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

type AuthService struct {
	repo AuthUserRepository
}

func NewAuthService(repo AuthUserRepository) *AuthService {
	return &AuthService{
		repo: repo,
	}
}

// Register creates an account on behalf of an organizer.
func (s *AuthService) Register(ctx context.Context, actor domain.Actor, user domain.User) (domain.User, error) {
	if !actor.Is(domain.RoleOrganizer) {
		return domain.User{}, forbidden(ErrNotOrganizer)
	}

	user.FullName = strings.TrimSpace(user.FullName)
	if user.FullName == "" {
		return domain.User{}, invalid("full_name", ErrEmptyName)
	}
	if user.Password == "" {
		return domain.User{}, invalid("password", ErrEmptyPassword)
	}
	if !user.Role.Valid() {
		return domain.User{}, invalid("role", ErrInvalidRole)
	}

	hash, err := hashPassword(user.Password)
	if err != nil {
		return domain.User{}, err
	}
	user.Password = hash

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrUserEmailExists) {
			return domain.User{}, conflict("email", err)
		}
		return domain.User{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

// Login checks the id number and password typed on the sign in form.
func (s *AuthService) Login(ctx context.Context, id uint, password string) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, ErrWrongCredentials
		}

		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.User{}, ErrWrongCredentials
	}

	return user, nil
}

// Seed makes sure an organizer account with the given email exists so a
// fresh install can be signed into. An existing account is left untouched.
func (s *AuthService) Seed(ctx context.Context, fullName, email, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	user, err := s.repo.Create(ctx, domain.User{
		FullName: fullName,
		Email:    email,
		Password: hash,
		Role:     domain.RoleOrganizer,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserEmailExists) {
			return nil
		}
		return fmt.Errorf("s.repo.Create -> %w", err)
	}

	zap.L().Info("seeded organizer account", zap.Uint("user_id", user.ID))

	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
