package dao

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserEmailExists    = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrCityNotFound       = errors.New("city not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrActivityNotFound   = errors.New("activity not found")
	ErrSlotTaken          = errors.New("slot already booked")
	ErrActivityHasJury    = errors.New("activity has jury assignments")
	ErrEventHasActivities = errors.New("event has activities")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

func storageErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}

func pgError(err error, code string) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return pgErr, true
	}
	return nil, false
}

func isUniqueViolation(err error, constraint string) bool {
	pgErr, ok := pgError(err, pgerrcode.UniqueViolation)
	return ok && (constraint == "" || pgErr.ConstraintName == constraint || strings.Contains(pgErr.Message, `"`+constraint+`"`))
}

func isForeignKeyViolation(err error) bool {
	_, ok := pgError(err, pgerrcode.ForeignKeyViolation)
	return ok
}
