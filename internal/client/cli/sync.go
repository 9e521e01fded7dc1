package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/fieldkeeper/internal/client/auth"
	"github.com/iudanet/fieldkeeper/internal/client/sync"
	"github.com/iudanet/fieldkeeper/internal/models"
)

func (c *Cli) runSync(ctx context.Context) error {
	res, err := c.syncService.Run(ctx)
	if err != nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}
	return c.render("sync", syncResultTemplate, res)
}

type statusView struct {
	LastSync time.Time
	Session  *models.Session
	Pending  *sync.PendingCount
	Phase    sync.Phase
}

func (c *Cli) runStatus(ctx context.Context) error {
	view := statusView{Phase: c.syncService.State()}

	session, err := c.authService.Session(ctx)
	switch {
	case err == nil:
		view.Session = session
	case errors.Is(err, auth.ErrNotLoggedIn):
	default:
		return fmt.Errorf("failed to read session: %w", err)
	}

	// счётчики не критичны для вывода статуса
	if view.Pending, err = c.syncService.PendingCount(ctx); err != nil {
		c.io.Printf("Warning: failed to count pending data: %v\n", err)
	}
	if view.LastSync, err = c.syncService.LastSync(ctx); err != nil {
		c.io.Printf("Warning: failed to read last sync time: %v\n", err)
	}

	return c.render("status", statusTemplate, view)
}
