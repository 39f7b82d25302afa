package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("duplicate record")
	ErrSoldOut           = errors.New("tier sold out")
	ErrAlreadyAtZero     = errors.New("sold count already at zero")
	ErrStatusConflict    = errors.New("ticket status changed concurrently")
	ErrCapacityBelowSold = errors.New("capacity below sold count")
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isPgError(err, pgUniqueViolation), errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case isPgError(err, pgCheckViolation), errors.Is(err, gorm.ErrCheckConstraintViolated):
		return ErrCapacityBelowSold
	}
	return err
}
