package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/eatsauth/internal/common"
	"github.com/dmitrijs2005/eatsauth/internal/logging"
)

// expected are business outcomes returned to callers unchanged.
var expected = []error{
	common.ErrDuplicateEmail,
	common.ErrAccountNotFound,
	common.ErrInvalidCredentials,
	common.ErrValidation,
	common.ErrCodeNotFound,
}

// opaque logs unexpected failures with detail and hides them behind a
// sentinel. Expected outcomes pass through.
func opaque(ctx context.Context, log logging.Logger, op string, err error) error {
	for _, e := range expected {
		if errors.Is(err, e) {
			return err
		}
	}
	if errors.Is(err, common.ErrHashingFailure) {
		log.Error(ctx, op+": hashing failed", "error", err)
		return common.ErrHashingFailure
	}
	log.Error(ctx, op+": persistence failed", "error", err)
	return common.ErrPersistenceFailure
}
