package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/models"
)

func (c *Cli) runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(c.io)
	yes := fs.Bool("y", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		return fmt.Errorf("missing violation ID. Usage: fieldkeeper delete [-y] <id>")
	}

	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}

	c.io.Println("=== Delete Violation ===")
	c.io.Println()

	v, err := c.dataService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrViolationNotFound) {
			return fmt.Errorf("violation not found with ID: %d", id)
		}
		return fmt.Errorf("failed to get violation: %w", err)
	}

	c.io.Println("About to delete:")
	c.io.Printf("  Description: %s\n", v.Description)
	c.io.Printf("  Date:        %s\n", v.CapturedAt.Local().Format("2006-01-02 15:04:05"))
	c.io.Println()

	if !*yes {
		confirm, err := c.io.ReadInput("Are you sure? (yes/no): ")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		confirm = strings.ToLower(confirm)
		if confirm != "yes" && confirm != "y" {
			c.io.Println("Deletion cancelled.")
			return nil
		}
	}

	if err := c.dataService.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete violation: %w", err)
	}

	c.io.Println("✓ Violation deleted.")
	if v.SyncState == models.SyncSynced {
		c.io.Println("The server copy will be removed during the next synchronization.")
	} else {
		c.io.Println("If an earlier upload reached the server, that copy will be removed during the next synchronization.")
	}
	return nil
}
