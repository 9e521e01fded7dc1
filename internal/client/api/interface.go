package api

import (
	"context"

	"github.com/iudanet/fieldkeeper/pkg/api"
)

// ClientAPI is the network boundary used by the auth flow, the foreground
// data layer and the sync engine.
type ClientAPI interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)

	// Probe succeeds only on a 200 from the list-all endpoint
	Probe(ctx context.Context, token string) error
	ListAll(ctx context.Context, token string) ([]api.Violation, error)
	ListMine(ctx context.Context, token string) ([]api.Violation, error)
	CreateViolation(ctx context.Context, token string, req CreateViolationRequest) (*api.CreateViolationResponse, error)
	DeleteViolation(ctx context.Context, token string, id int64) error

	SyncLogins(ctx context.Context, token string, req api.SyncLoginsRequest) (*api.SyncLoginsResponse, error)
}

var _ ClientAPI = (*Client)(nil)
