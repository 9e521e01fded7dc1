package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/fieldkeeper/internal/models"
	"github.com/iudanet/fieldkeeper/internal/server/storage"
	"github.com/iudanet/fieldkeeper/internal/validation"
	"github.com/iudanet/fieldkeeper/pkg/api"
)

const (
	// DefaultMaxImageSize ограничивает размер загружаемого фото
	DefaultMaxImageSize = 10 << 20
	// формы без файла держим в памяти целиком
	maxFormMemory = 1 << 20
)

// ViolationHandler обрабатывает загрузку, выдачу и удаление нарушений
type ViolationHandler struct {
	responder
	reports      storage.ReportStorage
	now          func() time.Time
	maxImageSize int64
}

// NewViolationHandler creates a new violation handler.
// maxImageSize <= 0 uses DefaultMaxImageSize.
func NewViolationHandler(logger *slog.Logger, reports storage.ReportStorage, maxImageSize int64) *ViolationHandler {
	if maxImageSize <= 0 {
		maxImageSize = DefaultMaxImageSize
	}
	return &ViolationHandler{
		responder:    responder{logger: logger},
		reports:      reports,
		maxImageSize: maxImageSize,
		now:          time.Now,
	}
}

// Create обрабатывает POST /api/violations (multipart/form-data).
// Повтор с тем же Idempotency-Key возвращает 200 и ID уже созданной записи.
func (h *ViolationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageSize+maxFormMemory)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		h.logger.WarnContext(ctx, "failed to parse violation form", slog.Any("error", err))
		h.sendError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	report, err := h.parseReport(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid violation", slog.String("user_id", userID), slog.Any("error", err))
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	report.UserID = userID
	report.IdempotencyKey = strings.TrimSpace(r.Header.Get(api.HeaderIdempotencyKey))
	report.CreatedAt = h.now()

	id, created, err := h.reports.CreateReport(ctx, report)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to store violation", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
		h.logger.InfoContext(ctx, "duplicate upload, returning existing violation",
			slog.Int64("id", id),
			slog.String("idempotency_key", report.IdempotencyKey))
	} else {
		h.logger.InfoContext(ctx, "violation stored",
			slog.Int64("id", id),
			slog.String("user_id", userID),
			slog.Bool("has_image", report.HasImage))
	}

	h.sendJSON(w, api.CreateViolationResponse{ID: id}, status)
}

// parseReport читает и проверяет поля формы
func (h *ViolationHandler) parseReport(r *http.Request) (*models.Report, error) {
	description := r.FormValue(api.FieldDescription)
	if err := validation.ValidateDescription(description); err != nil {
		return nil, err
	}

	lat, err := strconv.ParseFloat(r.FormValue(api.FieldLatitude), 64)
	if err != nil {
		return nil, fmt.Errorf("latitude is not a number")
	}
	lng, err := strconv.ParseFloat(r.FormValue(api.FieldLongitude), 64)
	if err != nil {
		return nil, fmt.Errorf("longitude is not a number")
	}
	if err := validation.ValidateCoordinates(lat, lng); err != nil {
		return nil, err
	}

	capturedAt, err := time.Parse(time.RFC3339, r.FormValue(api.FieldDate))
	if err != nil {
		return nil, fmt.Errorf("date must be RFC 3339")
	}

	report := &models.Report{
		Description: description,
		Latitude:    lat,
		Longitude:   lng,
		CapturedAt:  capturedAt.UTC(),
	}

	file, _, err := r.FormFile(api.FieldImage)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return report, nil
	case err != nil:
		return nil, fmt.Errorf("invalid image part")
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, h.maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image")
	}
	if int64(len(image)) > h.maxImageSize {
		return nil, fmt.Errorf("image exceeds %d bytes", h.maxImageSize)
	}
	if len(image) == 0 {
		return report, nil
	}

	contentType := http.DetectContentType(image)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("image has unsupported type %s", contentType)
	}

	report.Image = image
	report.ImageType = contentType
	report.HasImage = true
	return report, nil
}

// ListMine обрабатывает GET /api/violations/me
func (h *ViolationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	h.list(w, r, userID)
}

// ListAll обрабатывает GET /api/violations/all: нарушения всех пользователей
func (h *ViolationHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "")
}

func (h *ViolationHandler) list(w http.ResponseWriter, r *http.Request, userID string) {
	ctx := r.Context()

	reports, err := h.reports.ListReports(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list violations", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]api.Violation, 0, len(reports))
	for _, rep := range reports {
		resp = append(resp, toAPIViolation(rep))
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// Delete обрабатывает DELETE /api/violations/{id}. Удалить можно только свою запись.
func (h *ViolationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	report, err := h.reports.GetReport(ctx, id)
	if err != nil {
		h.handleLookupError(w, r, id, err)
		return
	}
	if report.UserID != userID {
		h.logger.WarnContext(ctx, "attempt to delete foreign violation",
			slog.Int64("id", id),
			slog.String("user_id", userID))
		h.sendError(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := h.reports.DeleteReport(ctx, id); err != nil {
		h.handleLookupError(w, r, id, err)
		return
	}

	h.logger.InfoContext(ctx, "violation deleted", slog.Int64("id", id), slog.String("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}

// Image обрабатывает GET /api/violations/{id}/image
func (h *ViolationHandler) Image(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	report, err := h.reports.GetReport(r.Context(), id)
	if err != nil {
		h.handleLookupError(w, r, id, err)
		return
	}
	if !report.HasImage {
		h.sendError(w, "violation has no image", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", report.ImageType)
	w.Header().Set("Content-Length", strconv.Itoa(len(report.Image)))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(report.Image); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write image", slog.Any("error", err))
	}
}

func (h *ViolationHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.sendError(w, "invalid violation id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *ViolationHandler) handleLookupError(w http.ResponseWriter, r *http.Request, id int64, err error) {
	if errors.Is(err, storage.ErrReportNotFound) {
		h.sendError(w, "violation not found", http.StatusNotFound)
		return
	}
	h.logger.ErrorContext(r.Context(), "failed to load violation", slog.Int64("id", id), slog.Any("error", err))
	h.sendError(w, "internal server error", http.StatusInternalServerError)
}

// ImagePath: путь фото относительно корня API
func ImagePath(id int64) string {
	return "/violations/" + strconv.FormatInt(id, 10) + "/image"
}

func toAPIViolation(r *models.Report) api.Violation {
	v := api.Violation{
		ID:          r.ID,
		UserID:      r.UserID,
		Description: r.Description,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Date:        r.CapturedAt,
	}
	if r.HasImage {
		v.ImageURL = ImagePath(r.ID)
	}
	return v
}
