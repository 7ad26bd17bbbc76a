package service

import (
	"errors"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/spec-kit/testimonial-service/pkg/util/errorutil"
)

// storeError maps repository failures: a missing row becomes NotFound for resource,
// anything else is a database DependencyFailure.
func storeError(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return apperrors.NewDependencyFailure("database", err)
}

func isNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
