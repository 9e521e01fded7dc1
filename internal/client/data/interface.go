package data

import (
	"context"
	"time"

	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/models"
)

//go:generate moq -out service_mock.go . Service

// Service: действия пользователя над записями (экраны добавления, списка, карты)
type Service interface {
	// Submit пробует сразу отправить запись на сервер. Запись всегда сначала
	// сохраняется локально; при недоступности сервера или 5xx она остаётся
	// Pending до фоновой синхронизации. Ответ 4xx удаляет её и возвращается.
	Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error)

	// Delete удаляет локальную запись; для уже отправленной ставит удаление в очередь
	Delete(ctx context.Context, localID int64) error

	// Get возвращает запись текущего пользователя
	Get(ctx context.Context, localID int64) (*ViolationView, error)

	// List возвращает локальные записи текущего пользователя, новые первыми
	List(ctx context.Context) ([]*ViolationView, error)

	// Filter применяет фильтр по дате и радиусу
	Filter(ctx context.Context, f storage.Filter) ([]*ViolationView, error)

	// ListRemote возвращает последнее полученное с сервера представление
	ListRemote(ctx context.Context) ([]*ViolationView, error)
}

// SubmitInput данные новой записи. Изображение берётся из Image или,
// если оно пустое, читается из ImagePath.
type SubmitInput struct {
	CapturedAt  time.Time
	Description string
	ImagePath   string
	Image       []byte
	Latitude    float64
	Longitude   float64
}

// SubmitResult итог Submit
type SubmitResult struct {
	RemoteID *int64
	Reason   string // почему запись осталась Pending
	LocalID  int64
	Pending  bool
}

// ViolationView: запись в виде, готовом для отображения.
// ImageURI уже разрешён из ImageRef: data URI, file:// или URL сервера.
type ViolationView struct {
	CapturedAt  time.Time
	RemoteID    *int64
	Description string
	OwnerID     string
	ImageURI    string
	Image       models.ImageRef
	LocalID     int64
	Latitude    float64
	Longitude   float64
	SyncState   models.SyncState
	Remote      bool // запись из кэша сервера, локальной строки нет
}

// Uploader отправляет одну запись и отмечает её синхронизированной
type Uploader interface {
	Upload(ctx context.Context, token string, v *models.Violation) error
}

// DeletionEnqueuer ставит намерение удаления в очередь
type DeletionEnqueuer interface {
	Enqueue(ctx context.Context, v *models.Violation) (*models.DeletionEntry, error)
}

// SessionSource отдаёт текущую сессию
type SessionSource interface {
	Session(ctx context.Context) (*models.Session, error)
}
