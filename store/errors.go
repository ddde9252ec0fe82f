package store

import (
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	errs "github.com/yijiasang/glamap/errors"
)

// translateWriteError converts a duplicate-key rejection from a unique index
// into the Conflict category the services and handlers understand. The unique
// index is the authoritative uniqueness check; application-level lookups only
// exist for friendlier messages on the non-racing path.
func translateWriteError(err error, conflictMessage string) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", errs.ErrConflict, conflictMessage)
	}
	return err
}
