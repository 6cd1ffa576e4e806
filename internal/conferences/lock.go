package conferences

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LockForUpdate acquires a transaction-scoped Postgres advisory lock keyed
// by confID, serializing every admission/promotion/cancellation/confirmation/
// sweep mutation against that conference. It is released automatically
// when tx commits or rolls back. Locking a value rather than an existing
// row means it also serializes inserts (admission), which have no row to
// lock yet.
func LockForUpdate(ctx context.Context, tx *gorm.DB, confID uuid.UUID) error {
	return tx.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", confID.String()).Error
}
