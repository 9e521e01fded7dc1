package auth

import (
	"context"

	"github.com/iudanet/fieldkeeper/internal/models"
)

//go:generate moq -out service_mock.go . Service

// Service defines the online-first authentication flow with offline fallback
type Service interface {
	// Login пробует сервер; при недоступности сервера или 5xx проверяет
	// закэшированный профиль и открывает офлайн-сессию. Ответ 4xx
	// возвращается как есть, без офлайн-попытки.
	Login(ctx context.Context, email, password string) (*models.Session, error)

	// Register регистрирует пользователя на сервере и сразу входит.
	// Работает только при наличии связи.
	Register(ctx context.Context, in RegisterInput) (*models.Session, error)

	// Logout удаляет сессию; офлайн-профиль остаётся
	Logout(ctx context.Context) error

	// Session возвращает текущую сессию или ErrNotLoggedIn
	Session(ctx context.Context) (*models.Session, error)

	// Token возвращает токен, пригодный для запросов к серверу
	Token(ctx context.Context) (string, error)
}

// RegisterInput данные формы регистрации
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}
