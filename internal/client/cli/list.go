package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/iudanet/fieldkeeper/internal/client/data"
	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/models"
)

const listUsage = "Usage: fieldkeeper list [-date YYYY-MM-DD] [-lat N -lng N -radius KM] [-remote]"

type listView struct {
	Title string
	Items []*data.ViolationView
}

func (c *Cli) runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(c.io)
	date := fs.String("date", "", "only violations captured on this day (YYYY-MM-DD, local time)")
	lat := fs.Float64("lat", 0, "center latitude")
	lng := fs.Float64("lng", 0, "center longitude")
	radius := fs.Float64("radius", 0, "radius around the center, km")
	remote := fs.Bool("remote", false, "show the last server view instead of local records")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w. %s", err, listUsage)
	}

	if *remote {
		items, err := c.dataService.ListRemote(ctx)
		if err != nil {
			return fmt.Errorf("failed to list server violations: %w", err)
		}
		return c.render("list", violationListTemplate, listView{Title: "Server Violations", Items: items})
	}

	var f storage.Filter
	filtered := false

	if *date != "" {
		day, err := time.ParseInLocation(time.DateOnly, *date, time.Local)
		if err != nil {
			return fmt.Errorf("invalid date %q. %s", *date, listUsage)
		}
		f.Date = &day
		filtered = true
	}

	if *radius != 0 {
		f.Center = &models.LatLng{Lat: *lat, Lng: *lng}
		f.RadiusKm = radius
		filtered = true
	}

	var (
		items []*data.ViolationView
		err   error
	)
	if filtered {
		items, err = c.dataService.Filter(ctx, f)
	} else {
		items, err = c.dataService.List(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list violations: %w", err)
	}

	return c.render("list", violationListTemplate, listView{Title: "My Violations", Items: items})
}

func (c *Cli) runGet(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing violation ID. Usage: fieldkeeper get <id>")
	}

	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	v, err := c.dataService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrViolationNotFound) {
			return fmt.Errorf("violation not found with ID: %d", id)
		}
		return fmt.Errorf("failed to get violation: %w", err)
	}

	return c.render("violation", violationTemplate, v)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid violation ID: %q", s)
	}
	return id, nil
}
