package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/fieldkeeper/internal/client/api"
	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/models"
	"github.com/iudanet/fieldkeeper/internal/validation"
	pkgapi "github.com/iudanet/fieldkeeper/pkg/api"
)

// service реализует Service
type service struct {
	apiClient api.ClientAPI
	vault     *Vault
	sessions  storage.SessionStorage
	logins    storage.OfflineLoginStorage
	logger    *slog.Logger
	now       func() time.Time
}

var _ Service = (*service)(nil)

// NewService создает новый сервис авторизации
func NewService(
	apiClient api.ClientAPI,
	vault *Vault,
	sessions storage.SessionStorage,
	logins storage.OfflineLoginStorage,
	logger *slog.Logger,
) Service {
	return &service{
		apiClient: apiClient,
		vault:     vault,
		sessions:  sessions,
		logins:    logins,
		logger:    logger,
		now:       time.Now,
	}
}

// Login выполняет аутентификацию пользователя
func (s *service) Login(ctx context.Context, email, password string) (*models.Session, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", err)
	}
	if password == "" {
		return nil, fmt.Errorf("password cannot be empty")
	}

	resp, err := s.apiClient.Login(ctx, pkgapi.LoginRequest{Email: email, Password: password})
	if err == nil {
		return s.startOnlineSession(ctx, Profile{Email: email, UserID: resp.UserID}, password, resp.Token)
	}

	if !api.IsRetryable(err) {
		// 4xx: сервер ответил отказом, офлайн-проверка не выполняется
		return nil, fmt.Errorf("login failed: %w", err)
	}

	s.logger.Warn("Server unavailable, trying offline login", "email", email, "error", err)
	return s.startOfflineSession(ctx, email, password, err)
}

// Register регистрирует нового пользователя и выполняет вход
func (s *service) Register(ctx context.Context, in RegisterInput) (*models.Session, error) {
	in.Email = validation.NormalizeEmail(in.Email)

	// Валидация входных данных
	if err := validation.ValidateName("first name", in.FirstName); err != nil {
		return nil, fmt.Errorf("invalid first name: %w", err)
	}
	if err := validation.ValidateName("last name", in.LastName); err != nil {
		return nil, fmt.Errorf("invalid last name: %w", err)
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", err)
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	if _, err := s.apiClient.Register(ctx, pkgapi.RegisterRequest{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  in.Password,
	}); err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	s.logger.Info("User registered", "email", in.Email)

	resp, err := s.apiClient.Login(ctx, pkgapi.LoginRequest{Email: in.Email, Password: in.Password})
	if err != nil {
		return nil, fmt.Errorf("login after registration failed: %w", err)
	}

	return s.startOnlineSession(ctx, Profile{
		Email:     in.Email,
		UserID:    resp.UserID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}, in.Password, resp.Token)
}

// Logout выполняет выход из системы
func (s *service) Logout(ctx context.Context) error {
	if err := s.sessions.DeleteSession(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.logger.Info("Logged out")
	return nil
}

// Session возвращает текущую сессию
func (s *service) Session(ctx context.Context) (*models.Session, error) {
	session, err := s.sessions.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// Token возвращает токен текущей онлайн-сессии
func (s *service) Token(ctx context.Context) (string, error) {
	session, err := s.Session(ctx)
	if err != nil {
		return "", err
	}
	if session.Offline || session.Token == "" {
		return "", ErrOfflineSession
	}
	if !session.CanSync(s.now()) {
		return "", ErrTokenExpired
	}
	return session.Token, nil
}

func (s *service) startOnlineSession(ctx context.Context, p Profile, password, token string) (*models.Session, error) {
	session := &models.Session{
		Email:  p.Email,
		UserID: p.UserID,
		Token:  token,
	}

	if exp, err := TokenExpiry(token); err != nil {
		s.logger.Warn("Failed to read token expiry", "error", err)
	} else {
		session.ExpiresAt = exp
	}

	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	// без кэша вход офлайн будет невозможен, но онлайн-вход уже состоялся
	if err := s.vault.Cache(ctx, p, password); err != nil {
		s.logger.Warn("Failed to cache offline credential", "email", p.Email, "error", err)
	}

	s.logger.Info("Logged in", "email", p.Email, "user_id", p.UserID)
	return session, nil
}

func (s *service) startOfflineSession(ctx context.Context, email, password string, cause error) (*models.Session, error) {
	userID, err := s.vault.VerifyOffline(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("offline login failed (server: %v): %w", cause, err)
	}

	login := &models.OfflineLogin{
		LocalID: uuid.NewString(),
		Email:   email,
		UserID:  userID,
		At:      s.now().UTC(),
	}
	if err := s.logins.AppendOfflineLogin(ctx, login); err != nil {
		s.logger.Warn("Failed to record offline login", "email", email, "error", err)
	}

	session := &models.Session{
		Email:   email,
		UserID:  userID,
		Offline: true,
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info("Logged in offline", "email", email, "user_id", userID)
	return session, nil
}
