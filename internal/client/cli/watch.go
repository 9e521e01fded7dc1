package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/fieldkeeper/internal/client/sync"
)

// WithRunner подключает фоновый запуск синхронизации для команды watch
func (c *Cli) WithRunner(r *sync.Runner) *Cli {
	c.runner = r
	return c
}

// runWatch синхронизирует по таймеру, пока ctx не отменён
func (c *Cli) runWatch(ctx context.Context) error {
	if c.runner == nil {
		return fmt.Errorf("background sync is not configured")
	}

	c.runner.OnCycle(func(res *sync.CycleResult, err error) {
		if err != nil {
			if ctx.Err() == nil {
				c.io.Printf("Sync cycle failed: %v\n", err)
			}
			return
		}
		if renderErr := c.render("sync", syncResultTemplate, res); renderErr != nil {
			c.io.Printf("Warning: %v\n", renderErr)
		}
	})

	c.io.Println("Watching for connectivity; press Ctrl+C to stop.")
	c.runner.Start(ctx)
	<-ctx.Done()
	c.runner.Stop()
	c.io.Println("Stopped.")
	return nil
}
