// Package data is the foreground action layer: submit, delete, list and
// filter violation records, with images resolved for display.
package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iudanet/fieldkeeper/internal/client/api"
	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/imagecodec"
	"github.com/iudanet/fieldkeeper/internal/models"
)

// Deps: зависимости data-сервиса
type Deps struct {
	Violations storage.ViolationStorage
	RemoteView storage.RemoteCacheStorage
	Codec      *imagecodec.Codec
	Uploader   Uploader
	Deletions  DeletionEnqueuer
	Sessions   SessionSource
	Logger     *slog.Logger

	// Trigger запрашивает фоновый цикл синхронизации; может быть nil
	Trigger func()

	// ServerURL используется для относительных ссылок на изображения сервера
	ServerURL string
}

type service struct {
	deps Deps
	now  func() time.Time
}

var _ Service = (*service)(nil)

// NewService creates a new data service
func NewService(deps Deps) Service {
	return &service{deps: deps, now: time.Now}
}

// Submit сохраняет запись локально и сразу пробует отправить её
func (s *service) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	session, err := s.deps.Sessions.Session(ctx)
	if err != nil {
		return nil, err
	}

	raw := in.Image
	if len(raw) == 0 && in.ImagePath != "" {
		raw, err = os.ReadFile(in.ImagePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
	}

	payload, err := s.deps.Codec.Encode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	v := &models.Violation{
		OwnerID:     session.UserID,
		Description: strings.TrimSpace(in.Description),
		CapturedAt:  in.CapturedAt,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Image:       payload,
	}
	if _, err := s.deps.Violations.Insert(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to save violation: %w", err)
	}

	res := &SubmitResult{LocalID: v.LocalID}

	if !session.CanSync(s.now()) {
		res.Pending = true
		res.Reason = "no online session"
		s.deps.Logger.Info("Violation saved offline", "local_id", v.LocalID, "reason", res.Reason)
		return res, nil
	}

	err = s.deps.Uploader.Upload(ctx, session.Token, v)
	switch {
	case err == nil:
		stored, getErr := s.deps.Violations.Get(ctx, v.LocalID)
		if getErr != nil {
			return nil, fmt.Errorf("failed to reload violation: %w", getErr)
		}
		res.RemoteID = stored.RemoteID
		s.deps.Logger.Info("Violation submitted", "local_id", v.LocalID)
		return res, nil

	case api.IsInvalidRecord(err):
		// сервер отклонил саму запись: повторная отправка не поможет.
		// 401, 408, 429 и прочие 4xx оставляют запись в очереди.
		if _, delErr := s.deps.Violations.Delete(context.WithoutCancel(ctx), v.LocalID); delErr != nil {
			s.deps.Logger.Warn("Failed to drop rejected violation", "local_id", v.LocalID, "error", delErr)
		}
		return nil, fmt.Errorf("server rejected violation: %w", err)

	default:
		res.Pending = true
		res.Reason = err.Error()
		s.deps.Logger.Warn("Submit failed, violation kept for sync",
			"local_id", v.LocalID,
			"status", api.StatusCode(err),
			"error", err)
		s.trigger()
		return res, nil
	}
}

// Delete удаляет запись локально. Отпечаток записи ставится в очередь до
// удаления строки: даже Pending-запись могла дойти до сервера, если ответ на
// загрузку потерялся. Удаление на сервере подтверждается в цикле синхронизации.
func (s *service) Delete(ctx context.Context, localID int64) error {
	v, err := s.owned(ctx, localID)
	if err != nil {
		return err
	}

	if _, err := s.deps.Deletions.Enqueue(ctx, v); err != nil {
		return fmt.Errorf("failed to queue server deletion: %w", err)
	}

	ok, err := s.deps.Violations.Delete(ctx, localID)
	if err != nil {
		return fmt.Errorf("failed to delete violation: %w", err)
	}
	if !ok {
		return storage.ErrViolationNotFound
	}

	s.trigger()
	s.deps.Logger.Info("Violation deleted", "local_id", localID, "state", v.SyncState.String())
	return nil
}

// Get возвращает запись текущего пользователя
func (s *service) Get(ctx context.Context, localID int64) (*ViolationView, error) {
	v, err := s.owned(ctx, localID)
	if err != nil {
		return nil, err
	}
	return s.localView(v), nil
}

// List возвращает все локальные записи пользователя
func (s *service) List(ctx context.Context) ([]*ViolationView, error) {
	session, err := s.deps.Sessions.Session(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.deps.Violations.ListByOwner(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}
	return s.localViews(list), nil
}

// Filter возвращает записи пользователя, прошедшие фильтр
func (s *service) Filter(ctx context.Context, f storage.Filter) ([]*ViolationView, error) {
	session, err := s.deps.Sessions.Session(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.deps.Violations.FilteredQuery(ctx, session.UserID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to query violations: %w", err)
	}
	return s.localViews(list), nil
}

// ListRemote возвращает закэшированное представление сервера
func (s *service) ListRemote(ctx context.Context) ([]*ViolationView, error) {
	session, err := s.deps.Sessions.Session(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.deps.RemoteView.ListRemoteViolations(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list server view: %w", err)
	}

	views := make([]*ViolationView, 0, len(list))
	for _, rv := range list {
		id := rv.ID
		view := &ViolationView{
			RemoteID:    &id,
			Description: rv.Description,
			OwnerID:     rv.UserID,
			CapturedAt:  rv.CapturedAt,
			Latitude:    rv.Latitude,
			Longitude:   rv.Longitude,
			SyncState:   models.SyncSynced,
			Image:       models.RemoteImage(rv.ImageURL),
			Remote:      true,
		}
		view.ImageURI = s.imageURI(view.Image)
		views = append(views, view)
	}
	return views, nil
}

// owned читает запись и проверяет, что она принадлежит текущему пользователю
func (s *service) owned(ctx context.Context, localID int64) (*models.Violation, error) {
	session, err := s.deps.Sessions.Session(ctx)
	if err != nil {
		return nil, err
	}

	v, err := s.deps.Violations.Get(ctx, localID)
	if err != nil {
		return nil, err
	}
	if v.OwnerID != session.UserID {
		return nil, storage.ErrViolationNotFound
	}
	return v, nil
}

func (s *service) localViews(list []*models.Violation) []*ViolationView {
	views := make([]*ViolationView, 0, len(list))
	for _, v := range list {
		views = append(views, s.localView(v))
	}
	return views
}

func (s *service) localView(v *models.Violation) *ViolationView {
	view := &ViolationView{
		LocalID:     v.LocalID,
		RemoteID:    v.RemoteID,
		Description: v.Description,
		OwnerID:     v.OwnerID,
		CapturedAt:  v.CapturedAt,
		Latitude:    v.Latitude,
		Longitude:   v.Longitude,
		SyncState:   v.SyncState,
		Image:       models.InlineImage(v.Image),
	}
	view.ImageURI = s.imageURI(view.Image)
	return view
}

// imageURI разрешает ссылку на изображение. Повреждённое изображение
// отображается как отсутствующее.
func (s *service) imageURI(ref models.ImageRef) string {
	uri, err := ResolveImage(ref, s.deps.Codec, s.deps.ServerURL)
	if err != nil {
		s.deps.Logger.Warn("Failed to resolve image", "kind", ref.Kind, "error", err)
		return ""
	}
	return uri
}

// ResolveImage converts an image reference into a URI a renderer can load
func ResolveImage(ref models.ImageRef, codec *imagecodec.Codec, serverURL string) (string, error) {
	switch ref.Kind {
	case models.ImageNone:
		return "", nil
	case models.ImageInlineData:
		return codec.DataURI(ref.Payload)
	case models.ImageLocalPath:
		abs, err := filepath.Abs(ref.Path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve image path: %w", err)
		}
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
	case models.ImageRemoteURL:
		return resolveRemote(ref.URL, serverURL)
	default:
		return "", fmt.Errorf("unknown image kind %d", ref.Kind)
	}
}

func resolveRemote(ref, serverURL string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid image url: %w", err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if serverURL == "" {
		return "", errors.New("relative image url without server url")
	}
	return strings.TrimRight(serverURL, "/") + "/" + strings.TrimLeft(ref, "/"), nil
}

func (s *service) trigger() {
	if s.deps.Trigger != nil {
		s.deps.Trigger()
	}
}
