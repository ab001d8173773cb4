package service

import (
	"context"
	"time"

	"github.com/atinyakov/PassKeeper/internal/apperr"
	"github.com/atinyakov/PassKeeper/internal/db"
	"github.com/atinyakov/PassKeeper/internal/models"
)

// HistoryStore defines the persistence operations needed by the HistoryRecorder.
type HistoryStore interface {
	// Insert stores priorBlob for secretID and returns the new entry in one round trip.
	Insert(ctx context.Context, q db.Querier, secretID int64, priorBlob string, now time.Time) (*models.HistoryEntry, error)
	// ForSecret returns the entries of one secret, newest first.
	ForSecret(ctx context.Context, q db.Querier, secretID int64) ([]models.HistoryEntry, error)
	// All returns every entry, newest first.
	All(ctx context.Context, q db.Querier) ([]models.HistoryEntry, error)
	// MostChangedLabel returns the label with the most entries.
	MostChangedLabel(ctx context.Context, q db.Querier) (*models.LabelChanges, error)
}

// HistoryRecorder captures the sealed value of a secret right before it is
// overwritten or removed.
type HistoryRecorder struct {
	db    db.Querier
	store HistoryStore
	now   func() time.Time
}

// NewHistoryRecorder constructs a HistoryRecorder. q is used for reads and
// for standalone records; captures tied to a mutation use the caller's
// transaction instead.
func NewHistoryRecorder(q db.Querier, store HistoryStore) *HistoryRecorder {
	return &HistoryRecorder{db: q, store: store, now: clock}
}

// RecordPriorValue stores priorBlob as the previous value of secretID using
// q, which is normally the transaction of the pending mutation.
func (r *HistoryRecorder) RecordPriorValue(ctx context.Context, q db.Querier, secretID int64, priorBlob string) (*models.HistoryEntry, error) {
	const op = "history.RecordPriorValue"
	if secretID <= 0 {
		return nil, apperr.Msg(apperr.ErrValidation, op, "secret id must be positive")
	}
	if priorBlob == "" {
		return nil, apperr.Msg(apperr.ErrValidation, op, "prior value must not be empty")
	}
	return r.store.Insert(ctx, q, secretID, priorBlob, r.now())
}

// Record stores a history entry outside of any mutation.
func (r *HistoryRecorder) Record(ctx context.Context, secretID int64, priorBlob string) (*models.HistoryEntry, error) {
	return r.RecordPriorValue(ctx, r.db, secretID, priorBlob)
}

// ForSecret returns the history of one secret, newest first. Entries
// outlive their secret, so a deleted secret still has history.
func (r *HistoryRecorder) ForSecret(ctx context.Context, secretID int64) ([]models.HistoryEntry, error) {
	if secretID <= 0 {
		return nil, apperr.Msg(apperr.ErrValidation, "history.ForSecret", "secret id must be positive")
	}
	return r.store.ForSecret(ctx, r.db, secretID)
}

// All returns every history entry, newest first.
func (r *HistoryRecorder) All(ctx context.Context) ([]models.HistoryEntry, error) {
	return r.store.All(ctx, r.db)
}

// MostChangedLabel returns the label changed most often.
func (r *HistoryRecorder) MostChangedLabel(ctx context.Context) (*models.LabelChanges, error) {
	return r.store.MostChangedLabel(ctx, r.db)
}
