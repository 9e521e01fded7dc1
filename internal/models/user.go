package models

import "time"

// User представляет пользователя на стороне сервера
type User struct {
	CreatedAt    time.Time  `json:"created_at"`           // время создания
	LastLogin    *time.Time `json:"last_login,omitempty"` // время последнего входа
	ID           string     `json:"id"`                   // ID пользователя
	Email        string     `json:"email"`                // уникальный email (нормализованный)
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	PasswordHash string     `json:"password_hash"` // argon2id digest, сырой пароль не хранится
}

// OfflineCredential: закэшированный профиль для входа без сети.
// Перезаписывается при каждом успешном онлайн-входе или регистрации.
type OfflineCredential struct {
	CachedAt     time.Time `json:"cached_at"`
	Email        string    `json:"email"` // ключ
	UserID       string    `json:"user_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"password_hash"` // argon2id digest
}

// OfflineLogin: попытка входа, подтверждённая только локальным хранилищем.
// Отправляется на сервер (POST /sync/logins) при появлении связи.
type OfflineLogin struct {
	At      time.Time `json:"at"`
	LocalID string    `json:"local_id"` // UUID
	Email   string    `json:"email"`
	UserID  string    `json:"user_id"`
}

// Session: текущая сессия клиента.
// У офлайн-сессии нет рабочего токена, синхронизация для неё пропускается.
type Session struct {
	ExpiresAt time.Time `json:"expires_at"`
	Email     string    `json:"email"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	Offline   bool      `json:"offline"`
}

// CanSync reports whether the session holds a token usable for sync at now.
func (s *Session) CanSync(now time.Time) bool {
	if s == nil || s.Offline || s.Token == "" {
		return false
	}
	if !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt) {
		return false
	}
	return true
}
