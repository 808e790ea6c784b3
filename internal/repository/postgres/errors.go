package postgres

import (
	"database/sql"

	"github.com/cockroachdb/errors"
	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/lib/pq"
)

// unique_violation and check_violation of the postgres error catalogue
const (
	pqUniqueViolation = "23505"
	pqCheckViolation  = "23514"
)

// wrapErr maps driver errors onto the domain sentinels
func wrapErr(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).
			WithHintf("%s %s was not found", entity, id).
			WithReportableDetails(map[string]any{entity + "_id": id}).
			Mark(ierr.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return ierr.WithError(err).
				WithHintf("A %s with the same unique fields already exists", entity).
				Mark(ierr.ErrValidation)
		case pqCheckViolation:
			return ierr.WithError(err).
				WithHintf("The %s violates a data constraint", entity).
				Mark(ierr.ErrValidation)
		}
	}

	return ierr.WithError(err).
		WithHintf("Database operation on %s failed", entity).
		Mark(ierr.ErrDatabase)
}

// requireAffected turns an update that matched no row into a not found error
func requireAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(err, entity, id)
	}
	if n == 0 {
		return wrapErr(sql.ErrNoRows, entity, id)
	}
	return nil
}
