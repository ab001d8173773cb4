package service

import (
	"context"
	"testing"

	"github.com/atinyakov/PassKeeper/internal/apperr"
	"github.com/atinyakov/PassKeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPriorValue_Validation(t *testing.T) {
	f := newFixture(t)
	r := f.svc.history

	_, err := r.RecordPriorValue(context.Background(), f.q, 0, "blob")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = r.RecordPriorValue(context.Background(), f.q, -3, "blob")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = r.RecordPriorValue(context.Background(), f.q, 1, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	all, err := r.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRecord_Standalone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.svc.history

	_, err := r.Record(ctx, 7, "blob")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	created, err := f.svc.Create(ctx, 1, "example.com", "pw")
	require.NoError(t, err)

	entry, err := r.Record(ctx, created.ID, "manual")
	require.NoError(t, err)
	assert.Positive(t, entry.ID)
	assert.Equal(t, created.ID, entry.SecretID)
	assert.Equal(t, "manual", entry.PriorBlob)

	_, err = r.ForSecret(ctx, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestMostChangedLabel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.history.MostChangedLabel(ctx)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	a, err := f.svc.Create(ctx, 1, "a.com", "1")
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, 1, "b.com", "1")
	require.NoError(t, err)

	for _, pw := range []string{"2", "3"} {
		_, _, err = f.svc.Update(ctx, b.ID, models.SecretUpdate{Password: &pw})
		require.NoError(t, err)
	}
	_, _, err = f.svc.Update(ctx, a.ID, models.SecretUpdate{Password: strPtr("2")})
	require.NoError(t, err)

	top, err := f.svc.history.MostChangedLabel(ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.LabelChanges{Label: "b.com", Changes: 2}, top)

	all, err := f.svc.history.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, a.ID, all[0].SecretID)
}
