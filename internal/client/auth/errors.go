package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth базовая ошибка аутентификации
	ErrAuth = errors.New("authentication failed")

	// ErrNoOfflineProfile в хранилище нет закэшированного профиля для email
	ErrNoOfflineProfile = fmt.Errorf("%w: no offline profile", ErrAuth)

	// ErrWrongCredential пароль не совпал с закэшированным digest
	ErrWrongCredential = fmt.Errorf("%w: wrong credential", ErrAuth)

	// ErrNotLoggedIn нет активной сессии
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrOfflineSession сессия получена офлайн и не содержит рабочего токена
	ErrOfflineSession = errors.New("offline session has no server token")

	// ErrTokenExpired срок действия токена истёк, нужен повторный вход
	ErrTokenExpired = errors.New("token expired")
)
