package sync

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fieldkeeper/internal/client/api"
	"github.com/iudanet/fieldkeeper/internal/models"
	pkgapi "github.com/iudanet/fieldkeeper/pkg/api"
)

func TestReconciler_DeletesMatch(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	rec := env.engine.deps.Reconciler

	captured := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env.remote.records = []pkgapi.Violation{
		{ID: 11, Description: "keep", Date: captured},
		// сервер вернул время с миллисекундами: сравнение идёт с точностью до секунды
		{ID: 12, Description: "delete me", Date: captured.Add(250 * time.Millisecond)},
	}

	_, err := rec.Enqueue(ctx, &models.Violation{Description: "delete me", CapturedAt: captured})
	require.NoError(t, err)

	res, err := rec.Reconcile(ctx, "jwt")
	require.NoError(t, err)
	assert.Equal(t, &ReconcileResult{Deleted: 1}, res)
	assert.Equal(t, []int64{12}, env.remote.deleted)

	entries, err := env.kv.ListDeletions(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReconciler_NoMatchStaysQueued(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	rec := env.engine.deps.Reconciler

	env.remote.records = []pkgapi.Violation{{ID: 11, Description: "other", Date: time.Now()}}

	_, err := rec.Enqueue(ctx, &models.Violation{Description: "never uploaded", CapturedAt: time.Now()})
	require.NoError(t, err)

	for attempt := 1; attempt <= 2; attempt++ {
		res, err := rec.Reconcile(ctx, "jwt")
		require.NoError(t, err)
		assert.Equal(t, 1, res.Pending)

		entries, err := env.kv.ListDeletions(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, attempt, entries[0].Attempts)
	}
	assert.Empty(t, env.remote.deleted)
}

func TestReconciler_FailureDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	rec := env.engine.deps.Reconciler

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env.remote.records = []pkgapi.Violation{{ID: 21, Description: "b", Date: at}}

	_, err := rec.Enqueue(ctx, &models.Violation{Description: "a", CapturedAt: at})
	require.NoError(t, err)
	_, err = rec.Enqueue(ctx, &models.Violation{Description: "b", CapturedAt: at})
	require.NoError(t, err)

	res, err := rec.Reconcile(ctx, "jwt")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 1, res.Pending)

	// при ошибке сервера запись остаётся в очереди
	env.remote.listErr = &api.StatusError{Code: http.StatusServiceUnavailable}
	res, err = rec.Reconcile(ctx, "jwt")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)

	entries, err := env.kv.ListDeletions(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].Fingerprint.Description)
	assert.Equal(t, 2, entries[0].Attempts)
}

func TestReconciler_AlreadyGoneCountsAsDeleted(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	rec := env.engine.deps.Reconciler

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env.remote.records = []pkgapi.Violation{{ID: 31, Description: "x", Date: at}}
	env.remote.deleteErr = &api.StatusError{Code: http.StatusNotFound}

	_, err := rec.Enqueue(ctx, &models.Violation{Description: "x", CapturedAt: at})
	require.NoError(t, err)

	res, err := rec.Reconcile(ctx, "jwt")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)

	entries, err := env.kv.ListDeletions(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReconciler_MatchCoordinates(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	env.remote.records = []pkgapi.Violation{
		{ID: 41, Description: "dup", Date: at, Latitude: 10, Longitude: 10},
		{ID: 42, Description: "dup", Date: at, Latitude: 50.4500001, Longitude: 30.52},
	}

	rec := NewReconciler(env.remote, env.kv, setupTestLogger(), ReconcilerConfig{MatchCoordinates: true})
	_, err := rec.Enqueue(ctx, &models.Violation{
		Description: "dup", CapturedAt: at, Latitude: 50.45, Longitude: 30.52,
	})
	require.NoError(t, err)

	res, err := rec.Reconcile(ctx, "jwt")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, []int64{42}, env.remote.deleted)
}

func TestReconciler_Canceled(t *testing.T) {
	env := setupEnv(t)
	rec := env.engine.deps.Reconciler

	_, err := rec.Enqueue(context.Background(), &models.Violation{Description: "x", CapturedAt: time.Now()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := rec.Reconcile(ctx, "jwt")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Pending)
}
