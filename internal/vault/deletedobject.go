package vault

import (
	"time"

	"github.com/google/uuid"
)

// DeletedObject is a tombstone: a record that a node with UUID once existed
// and was removed at DeletionTime.
type DeletedObject struct {
	UUID         uuid.UUID
	DeletionTime time.Time
}
