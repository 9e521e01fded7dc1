package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/fieldkeeper/internal/crypto"
	"github.com/iudanet/fieldkeeper/internal/models"
	"github.com/iudanet/fieldkeeper/internal/server/storage/sqlite"
	"github.com/iudanet/fieldkeeper/pkg/api"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testHashParams дешёвые параметры argon2 для тестов
var testHashParams = crypto.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32}

func setupTestStore(t *testing.T) *sqlite.Storage {
	t.Helper()

	s, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func createUser(t *testing.T, s *sqlite.Storage, email string) *models.User {
	t.Helper()

	hash, err := crypto.HashPassword("secret123", testHashParams)
	require.NoError(t, err)

	user := &models.User{
		ID:           "user-" + email,
		Email:        email,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

// withUser имитирует AuthMiddleware
func withUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(WithUser(r.Context(), userID, userID+"@example.com"))
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

type formImage struct {
	name string
	data []byte
}

func violationForm(t *testing.T, fields map[string]string, img *formImage) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if img != nil {
		part, err := w.CreateFormFile(api.FieldImage, img.name)
		require.NoError(t, err)
		_, err = part.Write(img.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{
		api.FieldDescription: "Car parked on the crosswalk",
		api.FieldLatitude:    "50.450000",
		api.FieldLongitude:   "30.520000",
		api.FieldDate:        "2026-05-10T08:30:00Z",
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeError(t *testing.T, body io.Reader) string {
	t.Helper()

	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp.Error
}

// failingStore отвечает ошибкой на любой запрос
type failingStore struct{}

var errStoreDown = errors.New("database is locked")

func (failingStore) CreateUser(context.Context, *models.User) error { return errStoreDown }
func (failingStore) GetUserByEmail(context.Context, string) (*models.User, error) {
	return nil, errStoreDown
}
func (failingStore) GetUserByID(context.Context, string) (*models.User, error) {
	return nil, errStoreDown
}
func (failingStore) UpdateLastLogin(context.Context, string, time.Time) error { return errStoreDown }
func (failingStore) CreateReport(context.Context, *models.Report) (int64, bool, error) {
	return 0, false, errStoreDown
}
func (failingStore) GetReport(context.Context, int64) (*models.Report, error) {
	return nil, errStoreDown
}
func (failingStore) ListReports(context.Context, string) ([]*models.Report, error) {
	return nil, errStoreDown
}
func (failingStore) DeleteReport(context.Context, int64) error { return errStoreDown }
func (failingStore) SaveLoginEvents(context.Context, []*models.LoginEvent) (int, error) {
	return 0, errStoreDown
}
func (failingStore) ListLoginEvents(context.Context, string) ([]*models.LoginEvent, error) {
	return nil, errStoreDown
}
func (failingStore) Ping(context.Context) error { return errStoreDown }

// staticTokens выдаёт предсказуемый токен
type staticTokens struct {
	err error
}

func (s staticTokens) GenerateAccessToken(userID, email string) (string, time.Time, error) {
	if s.err != nil {
		return "", time.Time{}, s.err
	}
	return "token-" + userID, time.Now().Add(time.Hour), nil
}
