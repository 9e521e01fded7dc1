package sync

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/fieldkeeper/internal/client/api"
	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/models"
)

// ReconcilerConfig настраивает сопоставление очереди удалений
type ReconcilerConfig struct {
	RequestTimeout time.Duration

	// MatchCoordinates добавляет к отпечатку (описание, время) координаты,
	// округлённые до 6 знаков
	MatchCoordinates bool
}

// Reconciler доводит до сервера удаления, сделанные без подтверждения.
// Записи сопоставляются по содержимому: в момент удаления у записи могло
// не быть серверного ID.
type Reconciler struct {
	api    api.ClientAPI
	queue  storage.DeletionQueue
	logger *slog.Logger
	cfg    ReconcilerConfig
}

// NewReconciler creates a deletion reconciler
func NewReconciler(apiClient api.ClientAPI, queue storage.DeletionQueue, logger *slog.Logger, cfg ReconcilerConfig) *Reconciler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	return &Reconciler{
		api:    apiClient,
		queue:  queue,
		logger: logger,
		cfg:    cfg,
	}
}

// Enqueue records a deletion intent for v
func (r *Reconciler) Enqueue(ctx context.Context, v *models.Violation) (*models.DeletionEntry, error) {
	entry, err := r.queue.EnqueueDeletion(ctx, v.Fingerprint())
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue deletion: %w", err)
	}

	r.logger.Info("Deletion queued", "queue_id", entry.ID, "local_id", v.LocalID)
	return entry, nil
}

// Reconcile processes every queued entry: fetch the user's server records,
// find the fingerprint match, delete it. Entries without a match or with a
// failed request stay queued; one entry's failure does not block the others.
func (r *Reconciler) Reconcile(ctx context.Context, token string) (*ReconcileResult, error) {
	entries, err := r.queue.ListDeletions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list deletion queue: %w", err)
	}

	res := &ReconcileResult{}
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			res.Pending += len(entries) - i
			return res, err
		}

		deleted, err := r.reconcileOne(ctx, token, entry)
		if deleted {
			if err := r.queue.RemoveDeletion(ctx, entry.ID); err != nil {
				return res, fmt.Errorf("failed to remove deletion entry: %w", err)
			}
			res.Deleted++
			continue
		}

		if err != nil {
			res.Failed++
			r.logger.Warn("Deletion not confirmed", "queue_id", entry.ID, "error", err)
		} else {
			res.Pending++
			r.logger.Debug("No server record matches deletion", "queue_id", entry.ID)
		}

		entry.Attempts++
		if err := r.queue.UpdateDeletion(ctx, entry); err != nil {
			return res, fmt.Errorf("failed to update deletion entry: %w", err)
		}
	}

	if len(entries) > 0 {
		r.logger.Info("Deletion queue reconciled",
			"deleted", res.Deleted, "pending", res.Pending, "failed", res.Failed)
	}
	return res, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, token string, entry *models.DeletionEntry) (bool, error) {
	rctx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	defer cancel()

	list, err := r.api.ListMine(rctx, token)
	if err != nil {
		return false, err
	}

	var match *int64
	for i := range list {
		rv := models.Fingerprint{
			Description: list[i].Description,
			CapturedAt:  list[i].Date,
			Latitude:    list[i].Latitude,
			Longitude:   list[i].Longitude,
		}
		if entry.Fingerprint.Matches(rv, r.cfg.MatchCoordinates) {
			match = &list[i].ID
			break
		}
	}
	if match == nil {
		return false, nil
	}

	if err := r.api.DeleteViolation(rctx, token, *match); err != nil {
		// запись уже удалена кем-то ещё: цель достигнута
		if api.StatusCode(err) == http.StatusNotFound {
			return true, nil
		}
		return false, err
	}

	r.logger.Info("Queued deletion confirmed", "queue_id", entry.ID, "remote_id", *match)
	return true, nil
}
