// internal/pkg/database/errors.go
package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/your-org/storefront-api/internal/domain/apperr"
	"gorm.io/gorm"
)

// ErrorClass groups driver errors by how the caller may react
type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
	ErrorClassConstraint
)

// Postgres SQLSTATE codes we react to
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeNotNullViolation     = "23502"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// ClassifyError maps a driver error to an ErrorClass
func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure:
			return ErrorClassSerialization
		case codeDeadlockDetected:
			return ErrorClassDeadlock
		case codeLockNotAvailable:
			return ErrorClassTransient
		case codeUniqueViolation, codeForeignKeyViolation, codeNotNullViolation, codeCheckViolation:
			return ErrorClassConstraint
		}
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrorClassConstraint
	}

	return ErrorClassPermanent
}

// IsRetryable reports whether resubmitting the same request may succeed
func IsRetryable(err error) bool {
	class := ClassifyError(err)
	return class == ErrorClassTransient ||
		class == ErrorClassDeadlock ||
		class == ErrorClassSerialization
}

// Classify converts driver errors into domain errors. Domain errors pass through untouched.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(err, apperr.KindNotFound, "record", "record not found")
	}

	switch ClassifyError(err) {
	case ErrorClassTransient, ErrorClassDeadlock, ErrorClassSerialization:
		return apperr.Wrap(err, apperr.KindConflict, "transaction", "concurrent update in progress, retry the request")
	case ErrorClassConstraint:
		return apperr.Wrap(err, apperr.KindConflict, "constraint", "request conflicts with existing data")
	}
	return err
}
