package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/channel-sync/backend/internal/storage/models"
)

// SyncStateRepository journals orchestrator states so the reconciler and the
// HTTP API can see them across restarts.
type SyncStateRepository struct {
	BaseRepository
}

// NewSyncStateRepository creates a new sync state repository.
func NewSyncStateRepository(db *DB) *SyncStateRepository {
	return &SyncStateRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Record upserts the state of one entity. LastSyncedAt is kept from the
// previous row when the new state does not carry one.
func (r *SyncStateRepository) Record(ctx context.Context, s *models.SyncState) error {
	s.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO sync_states (kind, local_id, state, remote_id, last_error, error_class, last_synced_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, local_id) DO UPDATE SET
			state = excluded.state,
			remote_id = excluded.remote_id,
			last_error = excluded.last_error,
			error_class = excluded.error_class,
			last_synced_at = COALESCE(excluded.last_synced_at, sync_states.last_synced_at),
			updated_at = excluded.updated_at
	`,
		s.Kind, s.LocalID, s.State, s.RemoteID, s.LastError, s.ErrorClass,
		nullableTime(s.LastSyncedAt), s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording sync state: %w", err)
	}
	return nil
}

// Get returns the journaled state of one entity, or nil if none was recorded.
func (r *SyncStateRepository) Get(ctx context.Context, kind, localID string) (*models.SyncState, error) {
	s := &models.SyncState{}
	err := r.DB().QueryRowContext(ctx, `
		SELECT kind, local_id, state, remote_id, last_error, error_class, last_synced_at, updated_at
		FROM sync_states WHERE kind = ? AND local_id = ?
	`, kind, localID).Scan(
		&s.Kind, &s.LocalID, &s.State, &s.RemoteID, &s.LastError, &s.ErrorClass,
		&s.LastSyncedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying sync state: %w", err)
	}
	return s, nil
}

// ListByState returns the entities of a kind currently in the given state.
func (r *SyncStateRepository) ListByState(ctx context.Context, kind, state string) ([]models.SyncState, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT kind, local_id, state, remote_id, last_error, error_class, last_synced_at, updated_at
		FROM sync_states WHERE kind = ? AND state = ?
		ORDER BY local_id
	`, kind, state)
	if err != nil {
		return nil, fmt.Errorf("querying sync states: %w", err)
	}
	defer rows.Close()

	var states []models.SyncState
	for rows.Next() {
		var s models.SyncState
		if err := rows.Scan(
			&s.Kind, &s.LocalID, &s.State, &s.RemoteID, &s.LastError, &s.ErrorClass,
			&s.LastSyncedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning sync state: %w", err)
		}
		states = append(states, s)
	}
	return states, rows.Err()
}
