// Package sync reconciles the local violation store with the remote authority:
// reachability probe, push of pending records, pull of the server view,
// deletion queue reconciliation and offline login replay.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/iudanet/fieldkeeper/internal/client/api"
	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/imagecodec"
	"github.com/iudanet/fieldkeeper/internal/models"
)

// Deps: зависимости движка синхронизации
type Deps struct {
	API        api.ClientAPI
	Violations storage.ViolationStorage
	RemoteView storage.RemoteCacheStorage
	Metadata   storage.MetadataStorage
	Logins     storage.OfflineLoginStorage
	Reconciler *Reconciler
	Codec      *imagecodec.Codec
	Tokens     TokenSource
	Logger     *slog.Logger
}

// Engine выполняет циклы синхронизации. Циклы не реентерабельны:
// одновременные вызовы Run получают результат одного и того же цикла.
// Загрузка одной записи тоже не выполняется дважды параллельно, кто бы её
// ни запустил: цикл или Submit.
type Engine struct {
	deps    Deps
	group   singleflight.Group
	uploads singleflight.Group
	now     func() time.Time
	cfg     Config
	phase   atomic.Int32
}

var _ Service = (*Engine)(nil)

// NewEngine creates a new sync engine
func NewEngine(deps Deps, cfg Config) *Engine {
	return &Engine{
		deps: deps,
		cfg:  cfg.withDefaults(),
		now:  time.Now,
	}
}

// State returns the phase of the running cycle, PhaseIdle between cycles
func (e *Engine) State() Phase {
	return Phase(e.phase.Load())
}

func (e *Engine) setPhase(p Phase) {
	e.phase.Store(int32(p))
}

// Run performs one sync cycle: probe, push, pull, reconcile deletions,
// replay offline logins. Connectivity failures end the cycle early without
// an error; only local storage failures and cancellation are returned.
func (e *Engine) Run(ctx context.Context) (*CycleResult, error) {
	v, err, shared := e.group.Do("cycle", func() (any, error) {
		return e.runCycle(ctx)
	})
	if shared {
		e.deps.Logger.Debug("Joined in-flight sync cycle")
	}

	res, _ := v.(*CycleResult)
	return res, err
}

func (e *Engine) runCycle(ctx context.Context) (*CycleResult, error) {
	res := &CycleResult{
		ID:        uuid.NewString(),
		StartedAt: e.now(),
	}
	defer func() {
		res.FinishedAt = e.now()
		e.setPhase(PhaseIdle)
	}()

	logger := e.deps.Logger.With("cycle_id", res.ID)

	session, err := e.deps.Tokens.Session(ctx)
	if err != nil {
		res.Skipped = true
		res.SkipReason = err.Error()
		logger.Debug("Sync skipped", "reason", res.SkipReason)
		return res, nil
	}
	if !session.CanSync(e.now()) {
		res.Skipped = true
		switch {
		case session.Offline:
			res.SkipReason = "offline session"
		default:
			res.SkipReason = "token missing or expired"
		}
		logger.Info("Sync skipped", "reason", res.SkipReason)
		return res, nil
	}
	token := session.Token

	e.setPhase(PhaseProbing)
	if !e.Probe(ctx, token) {
		logger.Info("Server unreachable, sync postponed")
		return res, ctx.Err()
	}
	res.Reachable = true

	e.setPhase(PhasePushing)
	res.Push, err = e.Push(ctx, token)
	if err != nil {
		return res, err
	}

	e.setPhase(PhasePulling)
	res.Pull, err = e.Pull(ctx, token, session.UserID)
	if err != nil {
		if isLocalFailure(ctx, err) {
			return res, err
		}
		logger.Warn("Pull failed, keeping previous server view", "error", err)
	}

	e.setPhase(PhaseReconciling)
	if e.deps.Reconciler != nil {
		res.Deletions, err = e.deps.Reconciler.Reconcile(ctx, token)
		if err != nil {
			return res, err
		}
	}

	e.setPhase(PhaseReplayingLogins)
	res.Logins, err = e.replayLogins(ctx, token)
	if err != nil {
		if isLocalFailure(ctx, err) {
			return res, err
		}
		logger.Warn("Offline login replay failed", "error", err)
	}

	if err := e.deps.Metadata.SaveLastSyncTimestamp(ctx, e.now().Unix()); err != nil {
		logger.Warn("Failed to save last sync timestamp", "error", err)
	}

	logger.Info("Sync cycle completed",
		"synced", res.Push.Synced,
		"failed", res.Push.Failed,
		"pulled", pulledCount(res.Pull),
		"logins", res.Logins)

	return res, nil
}

// Probe reports whether the server answers within ProbeTimeout
func (e *Engine) Probe(ctx context.Context, token string) bool {
	pctx, cancel := context.WithTimeout(ctx, e.cfg.ProbeTimeout)
	defer cancel()

	if err := e.deps.API.Probe(pctx, token); err != nil {
		e.deps.Logger.Debug("Reachability probe failed", "error", err)
		return false
	}
	return true
}

// Push uploads every pending record. A failed upload leaves the record
// pending and moves on; cancellation stops before the next record and keeps
// the markings already made. A local storage failure aborts the push.
func (e *Engine) Push(ctx context.Context, token string) (*PushResult, error) {
	records, err := e.deps.Violations.ListUnsynced(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced violations: %w", err)
	}

	res := &PushResult{}
	e.deps.Logger.Info("Pushing pending violations", "count", len(records))

	for i, v := range records {
		if err := ctx.Err(); err != nil {
			res.Skipped = len(records) - i
			e.deps.Logger.Info("Push canceled", "synced", res.Synced, "skipped", res.Skipped)
			return res, err
		}

		sent, err := e.upload(ctx, token, v.LocalID)
		if err != nil {
			if isStorageFailure(err) {
				return res, err
			}
			res.Failed++
			e.deps.Logger.Warn("Failed to push violation",
				"local_id", v.LocalID,
				"status", api.StatusCode(err),
				"error", err)
			continue
		}
		if sent {
			res.Synced++
		}
	}

	return res, nil
}

// Upload sends one record and marks it synced on success. A record that is
// already synced or deleted is not sent; concurrent uploads of the same
// record share a single request.
func (e *Engine) Upload(ctx context.Context, token string, v *models.Violation) error {
	_, err := e.upload(ctx, token, v.LocalID)
	return err
}

// upload сообщает, была ли запись отправлена в этом вызове (или в общем с ним)
func (e *Engine) upload(ctx context.Context, token string, localID int64) (bool, error) {
	sent, err, _ := e.uploads.Do(strconv.FormatInt(localID, 10), func() (any, error) {
		// строка могла измениться после ListUnsynced
		v, err := e.deps.Violations.Get(ctx, localID)
		switch {
		case errors.Is(err, storage.ErrViolationNotFound):
			e.deps.Logger.Debug("Violation deleted before upload", "local_id", localID)
			return false, nil
		case err != nil:
			return false, fmt.Errorf("failed to reload violation: %w", err)
		case v.IsSynced():
			e.deps.Logger.Debug("Violation already synced", "local_id", localID)
			return false, nil
		}

		if err := e.send(ctx, token, v); err != nil {
			return false, err
		}
		return true, nil
	})

	ok, _ := sent.(bool)
	return ok, err
}

// send выгружает фото во временный файл, отправляет запись и отмечает её
func (e *Engine) send(ctx context.Context, token string, v *models.Violation) error {
	req := api.CreateViolationRequest{
		Description:    v.Description,
		Latitude:       v.Latitude,
		Longitude:      v.Longitude,
		Date:           v.CapturedAt,
		IdempotencyKey: v.SyncKey,
	}

	if v.HasImage() {
		path, err := e.writeScratch(v)
		switch {
		case errors.Is(err, imagecodec.ErrCodec):
			// фото потеряно, но запись отправляется без него
			e.deps.Logger.Warn("Stored image is corrupt, uploading without it",
				"local_id", v.LocalID, "error", err)
		case err != nil:
			return err
		default:
			defer func() {
				if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
					e.deps.Logger.Warn("Failed to remove scratch file", "path", path, "error", rmErr)
				}
			}()
			req.ImagePath = path
		}
	}

	uctx, cancel := context.WithTimeout(ctx, e.cfg.UploadTimeout)
	defer cancel()

	resp, err := e.deps.API.CreateViolation(uctx, token, req)
	if err != nil {
		return err
	}

	var remoteID *int64
	if resp.ID > 0 {
		id := resp.ID
		remoteID = &id
	}

	// сервер уже принял запись: отметка не должна теряться из-за отмены цикла
	if err := e.deps.Violations.MarkSynced(context.WithoutCancel(ctx), v.LocalID, remoteID); err != nil {
		return fmt.Errorf("uploaded but failed to mark synced: %w", err)
	}

	e.deps.Logger.Debug("Violation synced", "local_id", v.LocalID, "remote_id", resp.ID)
	return nil
}

// writeScratch декодирует payload и пишет его во временный файл для multipart
func (e *Engine) writeScratch(v *models.Violation) (string, error) {
	raw, err := e.deps.Codec.Decode(v.Image)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(e.cfg.ScratchDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create scratch dir: %w", err)
	}

	path := filepath.Join(e.cfg.ScratchDir, fmt.Sprintf("violation_%d.jpg", v.LocalID))
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return "", fmt.Errorf("failed to write scratch file: %w", err)
	}
	return path, nil
}

// Pull fetches the user's records from the server and replaces the cached
// server view. Local pending records are never touched.
func (e *Engine) Pull(ctx context.Context, token, userID string) (*PullResult, error) {
	rctx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()

	list, err := e.deps.API.ListMine(rctx, token)
	if err != nil {
		return nil, err
	}

	items := make([]*models.RemoteViolation, 0, len(list))
	for _, rv := range list {
		items = append(items, &models.RemoteViolation{
			ID:          rv.ID,
			Description: rv.Description,
			Latitude:    rv.Latitude,
			Longitude:   rv.Longitude,
			CapturedAt:  rv.Date,
			UserID:      rv.UserID,
			ImageURL:    rv.ImageURL,
		})
	}

	if err := e.deps.RemoteView.ReplaceRemoteViolations(ctx, userID, items); err != nil {
		return nil, fmt.Errorf("failed to store server view: %w", err)
	}

	return &PullResult{Fetched: len(items)}, nil
}

// PendingCount returns what still awaits the server
func (e *Engine) PendingCount(ctx context.Context) (*PendingCount, error) {
	records, err := e.deps.Violations.CountUnsynced(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count unsynced violations: %w", err)
	}

	pc := &PendingCount{Records: records}

	if e.deps.Reconciler != nil {
		entries, err := e.deps.Reconciler.queue.ListDeletions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list deletions: %w", err)
		}
		pc.Deletions = len(entries)
	}

	logins, err := e.deps.Logins.ListOfflineLogins(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list offline logins: %w", err)
	}
	pc.OfflineLogin = len(logins)

	return pc, nil
}

// LastSync returns the time of the last completed cycle, zero if none
func (e *Engine) LastSync(ctx context.Context) (time.Time, error) {
	ts, err := e.deps.Metadata.GetLastSyncTimestamp(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if ts == 0 {
		return time.Time{}, nil
	}
	return time.Unix(ts, 0), nil
}

// isLocalFailure отличает сбой локального хранилища или отмену от сетевых ошибок
func isLocalFailure(ctx context.Context, err error) bool {
	return isStorageFailure(err) || ctx.Err() != nil
}

func isStorageFailure(err error) bool {
	return errors.Is(err, storage.ErrStorage) || errors.Is(err, storage.ErrStorageClosed)
}

func pulledCount(p *PullResult) int {
	if p == nil {
		return 0
	}
	return p.Fetched
}
