package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/iudanet/fieldkeeper/internal/models"
	"github.com/iudanet/fieldkeeper/internal/server/storage"
	"github.com/iudanet/fieldkeeper/pkg/api"
)

// maxLoginsPerRequest ограничивает размер пачки офлайн-входов
const maxLoginsPerRequest = 1000

// LoginSyncHandler принимает входы, выполненные на устройстве без связи
type LoginSyncHandler struct {
	responder
	logins storage.LoginStorage
	now    func() time.Time
}

// NewLoginSyncHandler creates a new offline login handler
func NewLoginSyncHandler(logger *slog.Logger, logins storage.LoginStorage) *LoginSyncHandler {
	return &LoginSyncHandler{
		responder: responder{logger: logger},
		logins:    logins,
		now:       time.Now,
	}
}

// SyncLogins обрабатывает POST /api/sync/logins.
// Повторно присланные записи (тот же localId) не учитываются в accepted.
func (h *LoginSyncHandler) SyncLogins(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.SyncLoginsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode sync logins request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Logins) > maxLoginsPerRequest {
		h.sendError(w, "too many logins in one request", http.StatusRequestEntityTooLarge)
		return
	}

	receivedAt := h.now()
	events := make([]*models.LoginEvent, 0, len(req.Logins))
	for i, l := range req.Logins {
		if l.LocalID == "" {
			h.sendError(w, "login "+strconv.Itoa(i)+": localId is required", http.StatusBadRequest)
			return
		}
		// Проверяем что user_id совпадает
		if l.UserID != "" && l.UserID != userID {
			h.logger.WarnContext(ctx, "login user_id mismatch",
				slog.String("expected", userID),
				slog.String("got", l.UserID),
				slog.String("local_id", l.LocalID))
			h.sendError(w, "login "+strconv.Itoa(i)+": user_id mismatch", http.StatusForbidden)
			return
		}
		events = append(events, &models.LoginEvent{
			LocalID:    l.LocalID,
			UserID:     userID,
			Email:      l.Email,
			At:         l.At,
			ReceivedAt: receivedAt,
		})
	}

	accepted, err := h.logins.SaveLoginEvents(ctx, events)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to save offline logins", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "offline logins received",
		slog.String("user_id", userID),
		slog.Int("received", len(events)),
		slog.Int("accepted", accepted))

	h.sendJSON(w, api.SyncLoginsResponse{Accepted: accepted}, http.StatusOK)
}
