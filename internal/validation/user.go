package validation

import (
	"fmt"
	"net/mail"
	"strings"
)

const (
	// MinPasswordLen минимальная длина пароля при регистрации
	MinPasswordLen = 6
	// MaxNameLen максимальная длина имени/фамилии
	MaxNameLen = 64
	// MaxEmailLen максимальная длина email (RFC 5321)
	MaxEmailLen = 254
)

// NormalizeEmail приводит email к каноническому виду: без пробелов по краям, в нижнем регистре.
// Используется как ключ офлайн-кэша учётных данных и на сервере.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail проверяет, что email непустой и синтаксически корректный
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if len(email) > MaxEmailLen {
		return fmt.Errorf("email must not exceed %d characters", MaxEmailLen)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("email has invalid format")
	}

	return nil
}

// ValidatePassword проверяет требования к паролю при регистрации
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}

	return nil
}

// ValidateName проверяет имя или фамилию; field используется в тексте ошибки
func ValidateName(field, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if len([]rune(value)) > MaxNameLen {
		return fmt.Errorf("%s must not exceed %d characters", field, MaxNameLen)
	}
	return nil
}
