package models

import (
	"time"
)

// SyncState is the journaled orchestrator state of one local entity.
type SyncState struct {
	Kind         string     `json:"kind"`
	LocalID      string     `json:"local_id"`
	State        string     `json:"state"`
	RemoteID     *string    `json:"remote_id,omitempty"`
	LastError    *string    `json:"last_error,omitempty"`
	ErrorClass   *string    `json:"error_class,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Sync state values mirrored from the orchestrator.
const (
	SyncStateUnknown   = "UNKNOWN"
	SyncStateChecking  = "CHECKING"
	SyncStateNotSynced = "NOT_SYNCED"
	SyncStateSynced    = "SYNCED"
	SyncStateSyncing   = "SYNCING"
	SyncStateError     = "ERROR"
)
