package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fieldkeeper/internal/crypto"
	"github.com/iudanet/fieldkeeper/pkg/api"
)

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name       string
		req        any
		wantStatus int
		wantError  string
	}{
		{
			name:       "valid registration",
			req:        api.RegisterRequest{FirstName: "Ivan", LastName: "Petrov", Email: "  Ivan@Example.com ", Password: "secret123"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "short password",
			req:        api.RegisterRequest{FirstName: "Ivan", LastName: "Petrov", Email: "ivan@example.com", Password: "123"},
			wantStatus: http.StatusBadRequest,
			wantError:  "at least 6",
		},
		{
			name:       "invalid email",
			req:        api.RegisterRequest{FirstName: "Ivan", LastName: "Petrov", Email: "not-an-email", Password: "secret123"},
			wantStatus: http.StatusBadRequest,
			wantError:  "email",
		},
		{
			name:       "missing names",
			req:        api.RegisterRequest{Email: "ivan@example.com", Password: "secret123"},
			wantStatus: http.StatusBadRequest,
			wantError:  "first name cannot be empty",
		},
		{
			name:       "malformed body",
			req:        "{",
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)
			handler := NewAuthHandler(setupTestLogger(), store, staticTokens{}, testHashParams)

			body := jsonBody(t, tt.req)
			if s, ok := tt.req.(string); ok {
				body = strings.NewReader(s)
			}
			w := httptest.NewRecorder()
			handler.Register(w, httptest.NewRequest(http.MethodPost, "/api/auth/register", body))

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantError != "" {
				assert.Contains(t, decodeError(t, w.Body), tt.wantError)
				return
			}

			var resp api.RegisterResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			require.NotEmpty(t, resp.UserID)

			user, err := store.GetUserByEmail(context.Background(), "ivan@example.com")
			require.NoError(t, err)
			assert.Equal(t, resp.UserID, user.ID)
			assert.NotContains(t, user.PasswordHash, "secret123")

			ok, err := crypto.VerifyPassword("secret123", user.PasswordHash)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	store := setupTestStore(t)
	createUser(t, store, "taken@example.com")
	handler := NewAuthHandler(setupTestLogger(), store, staticTokens{}, testHashParams)

	w := httptest.NewRecorder()
	handler.Register(w, httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, api.RegisterRequest{
		FirstName: "A", LastName: "B", Email: "TAKEN@example.com", Password: "secret123",
	})))

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	store := setupTestStore(t)
	user := createUser(t, store, "login@example.com")

	tests := []struct {
		name       string
		req        api.LoginRequest
		wantStatus int
	}{
		{name: "valid credentials", req: api.LoginRequest{Email: "Login@Example.com", Password: "secret123"}, wantStatus: http.StatusOK},
		{name: "wrong password", req: api.LoginRequest{Email: "login@example.com", Password: "wrong-pass"}, wantStatus: http.StatusUnauthorized},
		{name: "unknown user", req: api.LoginRequest{Email: "nobody@example.com", Password: "secret123"}, wantStatus: http.StatusUnauthorized},
		{name: "empty password", req: api.LoginRequest{Email: "login@example.com"}, wantStatus: http.StatusBadRequest},
		{name: "invalid email", req: api.LoginRequest{Email: "login", Password: "secret123"}, wantStatus: http.StatusBadRequest},
	}

	handler := NewAuthHandler(setupTestLogger(), store, staticTokens{}, testHashParams)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.Login(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, tt.req)))

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp api.LoginResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, "token-"+user.ID, resp.Token)
			assert.Equal(t, user.ID, resp.UserID)

			stored, err := store.GetUserByID(context.Background(), user.ID)
			require.NoError(t, err)
			assert.NotNil(t, stored.LastLogin)
		})
	}
}

func TestAuthHandler_StorageFailure(t *testing.T) {
	handler := NewAuthHandler(setupTestLogger(), failingStore{}, staticTokens{}, testHashParams)

	w := httptest.NewRecorder()
	handler.Login(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, api.LoginRequest{
		Email: "a@example.com", Password: "secret123",
	})))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	handler.Register(w, httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, api.RegisterRequest{
		FirstName: "A", LastName: "B", Email: "a@example.com", Password: "secret123",
	})))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
