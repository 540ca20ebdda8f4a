package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/sessionkeeper/internal/model"
)

const (
	uniqueViolation = "23505"

	refreshTokenConstraint = "sessions_refresh_token_hash_live_uq"
	deviceConstraint       = "sessions_device_live_uq"
)

// classifyUniqueViolation maps unique-index violations of the sessions table to model errors.
func classifyUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}

	switch pgErr.ConstraintName {
	case refreshTokenConstraint:
		return model.ErrConflict
	case deviceConstraint:
		return model.ErrDuplicateDevice
	default:
		return nil
	}
}
