package storage

import (
	"context"

	"github.com/iudanet/fieldkeeper/internal/models"
)

// ReportStorage defines interface for violation report persistence
type ReportStorage interface {
	// CreateReport stores a new report and returns its ID.
	// A report with the same (UserID, IdempotencyKey) returns the existing ID
	// and created == false.
	CreateReport(ctx context.Context, report *models.Report) (id int64, created bool, err error)

	// GetReport retrieves report by ID including the image
	// Returns ErrReportNotFound if report doesn't exist
	GetReport(ctx context.Context, id int64) (*models.Report, error)

	// ListReports returns reports without images, newest capture first.
	// Empty userID lists all users.
	ListReports(ctx context.Context, userID string) ([]*models.Report, error)

	// DeleteReport deletes report by ID
	// Returns ErrReportNotFound if report doesn't exist
	DeleteReport(ctx context.Context, id int64) error
}

// LoginStorage stores login events delivered after offline sign-in
type LoginStorage interface {
	// SaveLoginEvents stores events, skipping already known LocalIDs.
	// Returns the number of newly stored events.
	SaveLoginEvents(ctx context.Context, events []*models.LoginEvent) (int, error)

	// ListLoginEvents returns events of a user ordered by time
	ListLoginEvents(ctx context.Context, userID string) ([]*models.LoginEvent, error)
}
