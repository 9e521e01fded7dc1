package sync

import (
	"context"
	"fmt"

	pkgapi "github.com/iudanet/fieldkeeper/pkg/api"
)

// replayLogins отправляет офлайн-входы на сервер и удаляет принятые
func (e *Engine) replayLogins(ctx context.Context, token string) (int, error) {
	logins, err := e.deps.Logins.ListOfflineLogins(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list offline logins: %w", err)
	}
	if len(logins) == 0 {
		return 0, nil
	}

	req := pkgapi.SyncLoginsRequest{Logins: make([]pkgapi.OfflineLogin, 0, len(logins))}
	ids := make([]string, 0, len(logins))
	for _, l := range logins {
		req.Logins = append(req.Logins, pkgapi.OfflineLogin{
			LocalID: l.LocalID,
			Email:   l.Email,
			UserID:  l.UserID,
			At:      l.At,
		})
		ids = append(ids, l.LocalID)
	}

	rctx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()

	if _, err := e.deps.API.SyncLogins(rctx, token, req); err != nil {
		return 0, err
	}

	if err := e.deps.Logins.RemoveOfflineLogins(ctx, ids); err != nil {
		return 0, fmt.Errorf("failed to prune offline logins: %w", err)
	}

	e.deps.Logger.Info("Offline logins replayed", "count", len(ids))
	return len(ids), nil
}
