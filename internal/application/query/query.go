// Package query contains read operations (CQRS - Queries).
// Queries never lock; they read committed state.
package query

import (
	"errors"

	"github.com/learnquest/ledger/internal/domain/shared"
)

// storageErr passes domain rejections through and hides everything else
// behind the generic storage error.
func storageErr(op string, err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.WrapError(op, "Handle", shared.ErrStorage, "internal error", err)
}
