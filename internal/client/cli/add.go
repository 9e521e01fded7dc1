package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/fieldkeeper/internal/client/data"
)

const addUsage = "Usage: fieldkeeper add [-description TEXT] [-lat N] [-lng N] [-image PATH] [-date RFC3339]"

func (c *Cli) runAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(c.io)
	description := fs.String("description", "", "violation description")
	lat := fs.String("lat", "", "latitude")
	lng := fs.String("lng", "", "longitude")
	imagePath := fs.String("image", "", "path to a photo (JPEG, PNG or GIF)")
	date := fs.String("date", "", "capture time, RFC3339 (default: now)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w. %s", err, addUsage)
	}

	c.io.Println("=== Add Violation ===")
	c.io.Println()

	var err error
	if *description == "" {
		*description, err = c.io.ReadInput("Description: ")
		if err != nil {
			return fmt.Errorf("failed to read description: %w", err)
		}
	}
	if strings.TrimSpace(*description) == "" {
		return fmt.Errorf("description cannot be empty")
	}

	in := data.SubmitInput{
		Description: *description,
		ImagePath:   *imagePath,
	}

	if in.Latitude, err = c.coordinate(*lat, "Latitude: "); err != nil {
		return err
	}
	if in.Longitude, err = c.coordinate(*lng, "Longitude: "); err != nil {
		return err
	}

	if *date != "" {
		in.CapturedAt, err = time.Parse(time.RFC3339, *date)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", *date, err)
		}
	}

	res, err := c.dataService.Submit(ctx, in)
	if err != nil {
		return fmt.Errorf("failed to add violation: %w", err)
	}

	c.io.Println()
	if res.Pending {
		c.io.Println("✓ Violation saved on this device.")
		c.io.Printf("ID: %d\n", res.LocalID)
		c.io.Printf("Not uploaded yet: %s\n", res.Reason)
		c.io.Println("It will be sent automatically; run 'fieldkeeper sync' to retry now.")
		return nil
	}

	c.io.Println("✓ Violation submitted!")
	c.io.Printf("ID: %d\n", res.LocalID)
	if res.RemoteID != nil {
		c.io.Printf("Server ID: %d\n", *res.RemoteID)
	}
	return nil
}

// coordinate разбирает значение флага или спрашивает его у пользователя
func (c *Cli) coordinate(value, prompt string) (float64, error) {
	if value == "" {
		var err error
		value, err = c.io.ReadInput(prompt)
		if err != nil {
			return 0, fmt.Errorf("failed to read coordinate: %w", err)
		}
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate %q", value)
	}
	return v, nil
}
