package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/crypto"
	"github.com/iudanet/fieldkeeper/internal/models"
	"github.com/iudanet/fieldkeeper/internal/validation"
)

// Profile: данные пользователя, кэшируемые вместе с digest пароля
type Profile struct {
	Email     string
	UserID    string
	FirstName string
	LastName  string
}

// Vault хранит digest паролей для входа без сети.
// Сырой пароль никогда не записывается.
type Vault struct {
	store  storage.CredentialStorage
	now    func() time.Time
	params crypto.Params
}

// NewVault создаёт Vault поверх хранилища учётных данных
func NewVault(store storage.CredentialStorage, params crypto.Params) *Vault {
	return &Vault{
		store:  store,
		params: params,
		now:    time.Now,
	}
}

// Cache overwrites the offline profile for p.Email with a fresh digest of
// rawPassword. Empty names keep the previously cached ones: a plain login
// response carries no names.
func (v *Vault) Cache(ctx context.Context, p Profile, rawPassword string) error {
	email := validation.NormalizeEmail(p.Email)
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if p.UserID == "" {
		return fmt.Errorf("user id cannot be empty")
	}

	hash, err := crypto.HashPassword(rawPassword, v.params)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if p.FirstName == "" || p.LastName == "" {
		if prev, err := v.store.GetCredential(ctx, email); err == nil {
			if p.FirstName == "" {
				p.FirstName = prev.FirstName
			}
			if p.LastName == "" {
				p.LastName = prev.LastName
			}
		}
	}

	cred := &models.OfflineCredential{
		Email:        email,
		UserID:       p.UserID,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		PasswordHash: hash,
		CachedAt:     v.now().UTC(),
	}

	if err := v.store.SaveCredential(ctx, cred); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// VerifyOffline checks rawPassword against the cached digest and returns the
// cached user id. Fails with ErrNoOfflineProfile or ErrWrongCredential.
func (v *Vault) VerifyOffline(ctx context.Context, email, rawPassword string) (string, error) {
	cred, err := v.store.GetCredential(ctx, validation.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrCredentialNotFound) {
			return "", ErrNoOfflineProfile
		}
		return "", fmt.Errorf("failed to read credential: %w", err)
	}

	ok, err := crypto.VerifyPassword(rawPassword, cred.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("%w: stored digest unusable: %v", ErrWrongCredential, err)
	}
	if !ok {
		return "", ErrWrongCredential
	}

	return cred.UserID, nil
}
