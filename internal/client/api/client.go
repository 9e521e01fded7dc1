// Package api implements the HTTP client for the remote authority.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/fieldkeeper/pkg/api"
)

// CreateViolationRequest описывает multipart-загрузку одной записи
type CreateViolationRequest struct {
	Date           time.Time
	Description    string
	IdempotencyKey string // SyncKey записи, пустой не отправляется
	ImagePath      string // файл изображения на диске, пустой - без фото
	Latitude       float64
	Longitude      float64
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент.
// baseURL включает префикс API, например http://localhost:8080/api
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// верхняя граница; вызывающий код задаёт свои таймауты через ctx
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// BaseURL returns the configured server URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", "", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
	var resp api.LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Probe проверяет доступность сервера запросом списка всех нарушений
func (c *Client) Probe(ctx context.Context, token string) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/violations/all", token, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// ListAll возвращает нарушения всех пользователей
func (c *Client) ListAll(ctx context.Context, token string) ([]api.Violation, error) {
	var resp []api.Violation
	if err := c.doJSON(ctx, http.MethodGet, "/violations/all", token, nil, &resp); err != nil {
		return nil, fmt.Errorf("list all violations failed: %w", err)
	}
	return resp, nil
}

// ListMine возвращает нарушения текущего пользователя
func (c *Client) ListMine(ctx context.Context, token string) ([]api.Violation, error) {
	var resp []api.Violation
	if err := c.doJSON(ctx, http.MethodGet, "/violations/me", token, nil, &resp); err != nil {
		return nil, fmt.Errorf("list my violations failed: %w", err)
	}
	return resp, nil
}

// DeleteViolation удаляет нарушение на сервере
func (c *Client) DeleteViolation(ctx context.Context, token string, id int64) error {
	path := "/violations/" + strconv.FormatInt(id, 10)
	if err := c.doJSON(ctx, http.MethodDelete, path, token, nil, nil); err != nil {
		return fmt.Errorf("delete violation %d failed: %w", id, err)
	}
	return nil
}

// SyncLogins отправляет офлайн-входы на сервер
func (c *Client) SyncLogins(ctx context.Context, token string, req api.SyncLoginsRequest) (*api.SyncLoginsResponse, error) {
	var resp api.SyncLoginsResponse
	if err := c.doJSON(ctx, http.MethodPost, "/sync/logins", token, req, &resp); err != nil {
		return nil, fmt.Errorf("sync logins failed: %w", err)
	}
	return &resp, nil
}

// CreateViolation загружает запись multipart-формой.
// Координаты передаются с 6 знаками после запятой, дата в RFC 3339.
func (c *Client) CreateViolation(ctx context.Context, token string, in CreateViolationRequest) (*api.CreateViolationResponse, error) {
	body, contentType, err := buildViolationForm(in)
	if err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/violations", token, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if in.IdempotencyKey != "" {
		req.Header.Set(api.HeaderIdempotencyKey, in.IdempotencyKey)
	}

	var resp api.CreateViolationResponse
	if err := c.send(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("create violation failed: %w", err)
	}
	return &resp, nil
}

func buildViolationForm(in CreateViolationRequest) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{api.FieldDescription, in.Description},
		{api.FieldLatitude, strconv.FormatFloat(in.Latitude, 'f', 6, 64)},
		{api.FieldLongitude, strconv.FormatFloat(in.Longitude, 'f', 6, 64)},
		{api.FieldDate, in.Date.UTC().Format(time.RFC3339Nano)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	if in.ImagePath != "" {
		f, err := os.Open(in.ImagePath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open image: %w", err)
		}
		defer f.Close()

		part, err := w.CreateFormFile(api.FieldImage, filepath.Base(in.ImagePath))
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", fmt.Errorf("failed to copy image: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// doJSON выполняет запрос с JSON-телом и JSON-ответом
func (c *Client) doJSON(ctx context.Context, method, path, token string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := c.newRequest(ctx, method, path, token, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(ctx, req, result)
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do отправляет запрос; сетевые ошибки и таймауты превращаются в ErrUnreachable,
// отмена родительского контекста возвращается как есть
func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return resp, nil
}

// send выполняет запрос, проверяет статус и декодирует ответ в result
func (c *Client) send(ctx context.Context, req *http.Request, result any) error {
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %v", ErrUnreachable, err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &StatusError{Code: resp.StatusCode}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			se.Message = errResp.Error
		}
		return se
	}

	// Декодируем успешный ответ
	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
