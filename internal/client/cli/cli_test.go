package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fieldkeeper/internal/client/auth"
	"github.com/iudanet/fieldkeeper/internal/client/data"
	"github.com/iudanet/fieldkeeper/internal/client/iocli"
	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/client/sync"
	"github.com/iudanet/fieldkeeper/internal/models"
)

// testIO собирает весь вывод и отвечает на вопросы по очереди
type testIO struct {
	*iocli.IOMock
	out     strings.Builder
	answers []string
}

func newTestIO(answers ...string) *testIO {
	tio := &testIO{answers: answers}
	next := func(prompt string) (string, error) {
		tio.out.WriteString(prompt)
		if len(tio.answers) == 0 {
			return "", errors.New("unexpected prompt: " + prompt)
		}
		a := tio.answers[0]
		tio.answers = tio.answers[1:]
		return a, nil
	}
	tio.IOMock = &iocli.IOMock{
		PrintlnFunc: func(a ...any) {
			tio.out.WriteString(fmt.Sprintln(a...))
		},
		PrintfFunc: func(format string, a ...any) {
			tio.out.WriteString(fmt.Sprintf(format, a...))
		},
		WriteFunc: func(p []byte) (int, error) {
			tio.out.Write(p)
			return len(p), nil
		},
		ReadInputFunc:    next,
		ReadPasswordFunc: next,
	}
	return tio
}

func (t *testIO) String() string {
	return t.out.String()
}

func int64Ptr(v int64) *int64 { return &v }

func TestCli_UnknownCommand(t *testing.T) {
	tio := newTestIO()
	c := New(tio, nil, nil, nil)

	err := c.Run(context.Background(), "frobnicate", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
	assert.Contains(t, tio.String(), "Commands:")
}

func TestCli_Login(t *testing.T) {
	tests := []struct {
		session    *models.Session
		name       string
		wantOutput string
	}{
		{
			name:       "online",
			session:    &models.Session{Email: "a@x.com", UserID: "7", Token: "jwt"},
			wantOutput: "Login successful",
		},
		{
			name:       "offline fallback",
			session:    &models.Session{Email: "a@x.com", UserID: "7", Offline: true},
			wantOutput: "logged in with the cached profile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tio := newTestIO("a@x.com", "secret")
			authMock := &auth.ServiceMock{
				LoginFunc: func(ctx context.Context, email, password string) (*models.Session, error) {
					return tt.session, nil
				},
			}

			err := New(tio, authMock, nil, nil).Run(context.Background(), "login", nil)
			require.NoError(t, err)

			require.Len(t, authMock.LoginCalls(), 1)
			assert.Equal(t, "a@x.com", authMock.LoginCalls()[0].Email)
			assert.Equal(t, "secret", authMock.LoginCalls()[0].Password)
			assert.Contains(t, tio.String(), tt.wantOutput)
		})
	}
}

func TestCli_LoginRejected(t *testing.T) {
	tio := newTestIO("a@x.com", "wrong")
	authMock := &auth.ServiceMock{
		LoginFunc: func(ctx context.Context, email, password string) (*models.Session, error) {
			return nil, auth.ErrWrongCredential
		},
	}

	err := New(tio, authMock, nil, nil).Run(context.Background(), "login", nil)
	assert.ErrorIs(t, err, auth.ErrAuth)
}

func TestCli_Register(t *testing.T) {
	tio := newTestIO("Olena", "K", "o@x.com", "secret1", "secret1")
	authMock := &auth.ServiceMock{
		RegisterFunc: func(ctx context.Context, in auth.RegisterInput) (*models.Session, error) {
			return &models.Session{UserID: "9", Email: in.Email}, nil
		},
	}

	err := New(tio, authMock, nil, nil).Run(context.Background(), "register", nil)
	require.NoError(t, err)

	require.Len(t, authMock.RegisterCalls(), 1)
	assert.Equal(t, auth.RegisterInput{
		FirstName: "Olena", LastName: "K", Email: "o@x.com", Password: "secret1",
	}, authMock.RegisterCalls()[0].In)
	assert.Contains(t, tio.String(), "User ID: 9")
}

func TestCli_RegisterPasswordMismatch(t *testing.T) {
	tio := newTestIO("Olena", "K", "o@x.com", "secret1", "secret2")
	authMock := &auth.ServiceMock{}

	err := New(tio, authMock, nil, nil).Run(context.Background(), "register", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passwords do not match")
	assert.Empty(t, authMock.RegisterCalls())
}

func TestCli_Logout(t *testing.T) {
	tio := newTestIO()
	authMock := &auth.ServiceMock{
		LogoutFunc: func(ctx context.Context) error { return nil },
	}

	require.NoError(t, New(tio, authMock, nil, nil).Run(context.Background(), "logout", nil))
	assert.Len(t, authMock.LogoutCalls(), 1)
}

func TestCli_AddWithFlags(t *testing.T) {
	tio := newTestIO()
	dataMock := &data.ServiceMock{
		SubmitFunc: func(ctx context.Context, in data.SubmitInput) (*data.SubmitResult, error) {
			return &data.SubmitResult{LocalID: 3, RemoteID: int64Ptr(77)}, nil
		},
	}

	err := New(tio, nil, dataMock, nil).Run(context.Background(), "add", []string{
		"-description", "Parked on crosswalk",
		"-lat", "50.45", "-lng", "30.52",
		"-image", "photo.jpg",
		"-date", "2025-06-01T12:30:00Z",
	})
	require.NoError(t, err)

	require.Len(t, dataMock.SubmitCalls(), 1)
	in := dataMock.SubmitCalls()[0].In
	assert.Equal(t, "Parked on crosswalk", in.Description)
	assert.Equal(t, 50.45, in.Latitude)
	assert.Equal(t, 30.52, in.Longitude)
	assert.Equal(t, "photo.jpg", in.ImagePath)
	assert.True(t, in.CapturedAt.Equal(time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)))

	assert.Contains(t, tio.String(), "Violation submitted")
	assert.Contains(t, tio.String(), "Server ID: 77")
}

func TestCli_AddInteractivePending(t *testing.T) {
	tio := newTestIO("Blocked hydrant", "50.45", "30.52")
	dataMock := &data.ServiceMock{
		SubmitFunc: func(ctx context.Context, in data.SubmitInput) (*data.SubmitResult, error) {
			return &data.SubmitResult{LocalID: 4, Pending: true, Reason: "server unreachable"}, nil
		},
	}

	err := New(tio, nil, dataMock, nil).Run(context.Background(), "add", nil)
	require.NoError(t, err)

	assert.Equal(t, "Blocked hydrant", dataMock.SubmitCalls()[0].In.Description)
	assert.Contains(t, tio.String(), "saved on this device")
	assert.Contains(t, tio.String(), "server unreachable")
}

func TestCli_AddInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		args    []string
	}{
		{name: "empty description", answers: []string{"   "}},
		{name: "bad latitude", args: []string{"-description", "x", "-lat", "north"}},
		{name: "bad date", args: []string{"-description", "x", "-lat", "1", "-lng", "2", "-date", "yesterday"}},
		{name: "unknown flag", args: []string{"-colour", "red"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataMock := &data.ServiceMock{}
			err := New(newTestIO(tt.answers...), nil, dataMock, nil).Run(context.Background(), "add", tt.args)
			assert.Error(t, err)
			assert.Empty(t, dataMock.SubmitCalls())
		})
	}
}

func TestCli_AddSubmitError(t *testing.T) {
	dataMock := &data.ServiceMock{
		SubmitFunc: func(ctx context.Context, in data.SubmitInput) (*data.SubmitResult, error) {
			return nil, fmt.Errorf("failed to save violation: %w", storage.ErrValidation)
		},
	}

	err := New(newTestIO(), nil, dataMock, nil).Run(context.Background(), "add",
		[]string{"-description", "x", "-lat", "100", "-lng", "0"})
	assert.ErrorIs(t, err, storage.ErrValidation)
}

func TestCli_List(t *testing.T) {
	captured := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	items := []*data.ViolationView{
		{LocalID: 1, Description: "Parked on crosswalk", CapturedAt: captured, Latitude: 50.45, Longitude: 30.52, SyncState: models.SyncSynced},
		{LocalID: 2, Description: "Blocked hydrant", CapturedAt: captured, SyncState: models.SyncPending,
			ImageURI: "data:image/jpeg;base64,AAAA", Image: models.InlineImage([]byte{1, 2, 3})},
	}

	tio := newTestIO()
	dataMock := &data.ServiceMock{
		ListFunc: func(ctx context.Context) ([]*data.ViolationView, error) { return items, nil },
	}

	require.NoError(t, New(tio, nil, dataMock, nil).Run(context.Background(), "list", nil))

	out := tio.String()
	assert.Contains(t, out, "My Violations")
	assert.Contains(t, out, "Found 2 violation(s)")
	assert.Contains(t, out, "Parked on crosswalk")
	assert.Contains(t, out, "50.450000, 30.520000")
	assert.Contains(t, out, "synced")
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "image/jpeg, 3 bytes compressed")
}

func TestCli_ListEmpty(t *testing.T) {
	tio := newTestIO()
	dataMock := &data.ServiceMock{
		ListFunc: func(ctx context.Context) ([]*data.ViolationView, error) { return nil, nil },
	}

	require.NoError(t, New(tio, nil, dataMock, nil).Run(context.Background(), "list", nil))
	assert.Contains(t, tio.String(), "No violations found.")
}

func TestCli_ListFilter(t *testing.T) {
	tio := newTestIO()
	dataMock := &data.ServiceMock{
		FilterFunc: func(ctx context.Context, f storage.Filter) ([]*data.ViolationView, error) {
			return nil, nil
		},
	}

	err := New(tio, nil, dataMock, nil).Run(context.Background(), "list",
		[]string{"-date", "2025-06-01", "-lat", "50.45", "-lng", "30.52", "-radius", "2"})
	require.NoError(t, err)

	require.Len(t, dataMock.FilterCalls(), 1)
	f := dataMock.FilterCalls()[0].F
	require.NotNil(t, f.Date)
	assert.Equal(t, "2025-06-01", f.Date.Format(time.DateOnly))
	require.NotNil(t, f.Center)
	assert.Equal(t, models.LatLng{Lat: 50.45, Lng: 30.52}, *f.Center)
	require.NotNil(t, f.RadiusKm)
	assert.Equal(t, 2.0, *f.RadiusKm)

	err = New(tio, nil, dataMock, nil).Run(context.Background(), "list", []string{"-date", "01.06.2025"})
	assert.Error(t, err)
}

func TestCli_ListRemote(t *testing.T) {
	tio := newTestIO()
	dataMock := &data.ServiceMock{
		ListRemoteFunc: func(ctx context.Context) ([]*data.ViolationView, error) {
			return []*data.ViolationView{{
				RemoteID: int64Ptr(12), Description: "From server", Remote: true, SyncState: models.SyncSynced,
				ImageURI: "http://localhost:8080/api/violations/12/image",
			}}, nil
		},
	}

	require.NoError(t, New(tio, nil, dataMock, nil).Run(context.Background(), "list", []string{"-remote"}))
	out := tio.String()
	assert.Contains(t, out, "Server Violations")
	assert.Contains(t, out, "Server ID: 12")
	assert.Contains(t, out, "http://localhost:8080/api/violations/12/image")
}

func TestCli_Get(t *testing.T) {
	tio := newTestIO()
	dataMock := &data.ServiceMock{
		GetFunc: func(ctx context.Context, localID int64) (*data.ViolationView, error) {
			if localID != 5 {
				return nil, storage.ErrViolationNotFound
			}
			return &data.ViolationView{LocalID: 5, Description: "Parked", RemoteID: int64Ptr(50), SyncState: models.SyncSynced}, nil
		},
	}
	c := New(tio, nil, dataMock, nil)

	require.NoError(t, c.Run(context.Background(), "get", []string{"5"}))
	assert.Contains(t, tio.String(), "Violation 5")
	assert.Contains(t, tio.String(), "Server ID:   50")
	assert.Contains(t, tio.String(), "Photo:       none")

	err := c.Run(context.Background(), "get", []string{"6"})
	assert.ErrorContains(t, err, "violation not found with ID: 6")

	assert.Error(t, c.Run(context.Background(), "get", []string{"abc"}))
	assert.Error(t, c.Run(context.Background(), "get", nil))
}

func TestCli_Delete(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		answers     []string
		wantDeleted bool
	}{
		{name: "confirmed", args: []string{"5"}, answers: []string{"yes"}, wantDeleted: true},
		{name: "cancelled", args: []string{"5"}, answers: []string{"no"}},
		{name: "no prompt", args: []string{"-y", "5"}, wantDeleted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tio := newTestIO(tt.answers...)
			dataMock := &data.ServiceMock{
				GetFunc: func(ctx context.Context, localID int64) (*data.ViolationView, error) {
					return &data.ViolationView{LocalID: localID, Description: "Parked", SyncState: models.SyncSynced}, nil
				},
				DeleteFunc: func(ctx context.Context, localID int64) error { return nil },
			}

			err := New(tio, nil, dataMock, nil).Run(context.Background(), "delete", tt.args)
			require.NoError(t, err)

			if tt.wantDeleted {
				require.Len(t, dataMock.DeleteCalls(), 1)
				assert.Equal(t, int64(5), dataMock.DeleteCalls()[0].LocalID)
				assert.Contains(t, tio.String(), "removed during the next synchronization")
			} else {
				assert.Empty(t, dataMock.DeleteCalls())
				assert.Contains(t, tio.String(), "Deletion cancelled")
			}
		})
	}
}

func TestCli_Sync(t *testing.T) {
	tests := []struct {
		result *sync.CycleResult
		name   string
		want   []string
	}{
		{
			name: "completed",
			result: &sync.CycleResult{
				Reachable: true,
				Push:      &sync.PushResult{Synced: 2, Failed: 1},
				Pull:      &sync.PullResult{Fetched: 5},
				Deletions: &sync.ReconcileResult{Deleted: 1, Pending: 1},
				Logins:    2,
			},
			want: []string{"Pushed:     2", "Failed:     1", "Pulled:     5", "Deleted on server: 1", "Deletions waiting: 1", "Offline logins reported: 2"},
		},
		{
			name:   "unreachable",
			result: &sync.CycleResult{},
			want:   []string{"Server unreachable"},
		},
		{
			name:   "skipped",
			result: &sync.CycleResult{Skipped: true, SkipReason: "offline session"},
			want:   []string{"Skipped: offline session"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tio := newTestIO()
			syncMock := &sync.ServiceMock{
				RunFunc: func(ctx context.Context) (*sync.CycleResult, error) { return tt.result, nil },
			}

			require.NoError(t, New(tio, nil, nil, syncMock).Run(context.Background(), "sync", nil))
			for _, w := range tt.want {
				assert.Contains(t, tio.String(), w)
			}
		})
	}
}

func TestCli_SyncFails(t *testing.T) {
	syncMock := &sync.ServiceMock{
		RunFunc: func(ctx context.Context) (*sync.CycleResult, error) {
			return nil, fmt.Errorf("failed to list unsynced violations: %w", storage.ErrStorage)
		},
	}

	err := New(newTestIO(), nil, nil, syncMock).Run(context.Background(), "sync", nil)
	assert.ErrorIs(t, err, storage.ErrStorage)
}

func TestCli_Status(t *testing.T) {
	lastSync := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tio := newTestIO()
	authMock := &auth.ServiceMock{
		SessionFunc: func(ctx context.Context) (*models.Session, error) {
			return &models.Session{Email: "a@x.com", UserID: "7", Offline: true}, nil
		},
	}
	syncMock := &sync.ServiceMock{
		StateFunc: func() sync.Phase { return sync.PhaseIdle },
		PendingCountFunc: func(ctx context.Context) (*sync.PendingCount, error) {
			return &sync.PendingCount{Records: 3, Deletions: 1, OfflineLogin: 2}, nil
		},
		LastSyncFunc: func(ctx context.Context) (time.Time, error) { return lastSync, nil },
	}

	require.NoError(t, New(tio, authMock, nil, syncMock).Run(context.Background(), "status", nil))

	out := tio.String()
	assert.Contains(t, out, "a@x.com")
	assert.Contains(t, out, "offline")
	assert.Contains(t, out, "Pending violations:    3")
	assert.Contains(t, out, "Pending deletions:     1")
	assert.Contains(t, out, "Sync phase:  idle")
	assert.Contains(t, out, lastSync.Local().Format("2006-01-02 15:04:05"))
}

func TestCli_StatusLoggedOut(t *testing.T) {
	tio := newTestIO()
	authMock := &auth.ServiceMock{
		SessionFunc: func(ctx context.Context) (*models.Session, error) { return nil, auth.ErrNotLoggedIn },
	}
	syncMock := &sync.ServiceMock{
		StateFunc:        func() sync.Phase { return sync.PhaseIdle },
		PendingCountFunc: func(ctx context.Context) (*sync.PendingCount, error) { return &sync.PendingCount{}, nil },
		LastSyncFunc:     func(ctx context.Context) (time.Time, error) { return time.Time{}, nil },
	}

	require.NoError(t, New(tio, authMock, nil, syncMock).Run(context.Background(), "status", nil))
	assert.Contains(t, tio.String(), "Not logged in")
	assert.Contains(t, tio.String(), "Last sync:   never")
}

func TestCli_Watch(t *testing.T) {
	tio := newTestIO()
	cycles := make(chan struct{}, 1)
	syncMock := &sync.ServiceMock{
		RunFunc: func(ctx context.Context) (*sync.CycleResult, error) {
			select {
			case cycles <- struct{}{}:
			default:
			}
			return &sync.CycleResult{Skipped: true, SkipReason: "offline session"}, nil
		},
	}
	runner := sync.NewRunner(syncMock, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-cycles
		cancel()
	}()

	c := New(tio, nil, nil, syncMock).WithRunner(runner)
	require.NoError(t, c.Run(ctx, "watch", nil))
	assert.NotEmpty(t, syncMock.RunCalls())
	assert.Contains(t, tio.String(), "Stopped.")
}

func TestCli_WatchWithoutRunner(t *testing.T) {
	err := New(newTestIO(), nil, nil, nil).Run(context.Background(), "watch", nil)
	assert.Error(t, err)
}
