package sync

import (
	"context"
	"time"

	"github.com/iudanet/fieldkeeper/internal/models"
)

//go:generate moq -out service_mock.go . Service

// Service определяет интерфейс синхронизации для оболочки приложения
type Service interface {
	// Run выполняет один цикл синхронизации; параллельные вызовы
	// присоединяются к уже идущему циклу
	Run(ctx context.Context) (*CycleResult, error)

	// PendingCount возвращает количество записей и удалений, ожидающих сервера
	PendingCount(ctx context.Context) (*PendingCount, error)

	// LastSync возвращает время последнего завершённого цикла
	LastSync(ctx context.Context) (time.Time, error)

	// State возвращает текущую фазу цикла
	State() Phase
}

// TokenSource отдаёт текущую сессию. Движок только читает токен.
type TokenSource interface {
	Session(ctx context.Context) (*models.Session, error)
}

// PendingCount: что ещё не подтверждено сервером
type PendingCount struct {
	Records      int
	Deletions    int
	OfflineLogin int
}
