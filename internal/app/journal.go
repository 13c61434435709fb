package app

import (
	"context"

	"github.com/channel-sync/backend/internal/storage"
	"github.com/channel-sync/backend/internal/storage/models"
	"github.com/channel-sync/backend/internal/syncer"
)

// Journal records orchestrator transitions in the sync_states table.
type Journal struct {
	repo *storage.SyncStateRepository
}

// NewJournal creates a journal backed by repo.
func NewJournal(repo *storage.SyncStateRepository) *Journal {
	return &Journal{repo: repo}
}

// RecordSyncState implements syncer.StateRecorder.
func (j *Journal) RecordSyncState(ctx context.Context, s syncer.Status) error {
	return j.repo.Record(ctx, StateRecord(s))
}

// StateRecord converts an orchestrator status into its journal row.
func StateRecord(s syncer.Status) *models.SyncState {
	rec := &models.SyncState{
		Kind:       s.Kind,
		LocalID:    s.LocalID,
		State:      string(s.State),
		RemoteID:   optional(s.RemoteID),
		LastError:  optional(s.LastError),
		ErrorClass: optional(string(s.ErrorClass)),
	}
	if s.State == syncer.StateSynced {
		at := s.UpdatedAt
		rec.LastSyncedAt = &at
	}
	return rec
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
