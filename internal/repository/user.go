package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vietanh2810/event-program-api/internal/domain"
	"github.com/vietanh2810/event-program-api/internal/repository/dao"
)

type UserDAO interface {
	Insert(ctx context.Context, user dao.User) (dao.User, error)
	FindByID(ctx context.Context, id uint) (dao.User, error)
	List(ctx context.Context, excludeID uint, excludeRoles []string) ([]dao.User, error)
}

// UserFilter narrows a user listing. Zero values filter nothing.
type UserFilter struct {
	ExcludeID    uint
	ExcludeRoles []domain.Role
}

type UserRepository struct {
	dao UserDAO
}

func NewUserRepository(dao UserDAO) *UserRepository {
	return &UserRepository{
		dao: dao,
	}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	created, err := r.dao.Insert(ctx, dao.User{
		Email:    user.Email,
		Password: user.Password,
		FullName: user.FullName,
		Role:     string(user.Role),
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return userToDomain(created), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (domain.User, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return userToDomain(found), nil
}

// List applies the role filter twice: in SQL on the canonical names and again
// after parsing, so rows written with a legacy spelling are excluded too.
func (r *UserRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	roles := make([]string, 0, len(filter.ExcludeRoles))
	for _, role := range filter.ExcludeRoles {
		roles = append(roles, string(role))
	}

	found, err := r.dao.List(ctx, filter.ExcludeID, roles)
	if err != nil {
		return nil, fmt.Errorf("r.dao.List -> %w", err)
	}

	users := make([]domain.User, 0, len(found))
	for _, u := range found {
		user := userToDomain(u)
		if excluded(user.Role, filter.ExcludeRoles) {
			continue
		}
		users = append(users, user)
	}

	return users, nil
}

func excluded(role domain.Role, roles []domain.Role) bool {
	for _, r := range roles {
		if role == r {
			return true
		}
	}
	return false
}

func userToDomain(u dao.User) domain.User {
	role, err := domain.ParseRole(u.Role)
	if err != nil {
		zap.L().Warn("stored user has an unknown role", zap.Uint("user_id", u.ID), zap.String("role", u.Role))
		role = domain.Role(u.Role)
	}

	return domain.User{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Password:  u.Password,
		Role:      role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
