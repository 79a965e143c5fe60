package entities

import (
	"time"
)

type SyncAction string

const (
	SyncActionCreate SyncAction = "create"
	SyncActionUpdate SyncAction = "update"
	SyncActionDelete SyncAction = "delete"
)

func (a SyncAction) Valid() bool {
	switch a {
	case SyncActionCreate, SyncActionUpdate, SyncActionDelete:
		return true
	}
	return false
}

// SyncQueueEntry is a pending remote mutation. Entries are replayed in
// (CreatedAt, ID) order and are never modified except to bump Retries.
type SyncQueueEntry struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	OperationID string     `gorm:"size:36;not null;uniqueIndex" json:"operation_id"`
	Action      SyncAction `gorm:"size:16;not null" json:"action"`
	Target      Collection `gorm:"column:target_collection;size:50;not null;index" json:"collection"`
	RemoteID    *string    `gorm:"size:128" json:"remote_id,omitempty"`
	Payload     string     `gorm:"type:text" json:"payload"`
	CreatedAt   time.Time  `gorm:"index;not null" json:"created_at"`
	Retries     int        `gorm:"not null;default:0" json:"retries"`
}

func (SyncQueueEntry) TableName() string {
	return "sync_queue"
}

func (SyncQueueEntry) Collection() Collection {
	return CollectionSyncQueue
}

func (e SyncQueueEntry) SearchFields() []string {
	return []string{string(e.Target), string(e.Action)}
}
