package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/fieldkeeper/internal/client/auth"
)

func (c *Cli) runRegister(ctx context.Context) error {
	c.io.Println("=== Registration ===")
	c.io.Println()

	firstName, err := c.io.ReadInput("First name: ")
	if err != nil {
		return fmt.Errorf("failed to read first name: %w", err)
	}

	lastName, err := c.io.ReadInput("Last name: ")
	if err != nil {
		return fmt.Errorf("failed to read last name: %w", err)
	}

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}

	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	c.io.Println()
	c.io.Println("Registering...")

	session, err := c.authService.Register(ctx, auth.RegisterInput{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Password:  password,
	})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Registration successful!")
	c.io.Printf("User ID: %s\n", session.UserID)
	c.io.Println("You are logged in. This device can now log you in offline too.")

	return nil
}

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	c.io.Println()
	c.io.Println("Authenticating...")

	session, err := c.authService.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	c.io.Printf("Email:   %s\n", session.Email)
	c.io.Printf("User ID: %s\n", session.UserID)
	if session.Offline {
		c.io.Println()
		c.io.Println("⚠️  Server unreachable: logged in with the cached profile.")
		c.io.Println("   New violations are stored on this device and uploaded after an online login.")
	}

	return nil
}

func (c *Cli) runLogout(ctx context.Context) error {
	if err := c.authService.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	c.io.Println("✓ Logged out.")
	return nil
}
