package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fieldkeeper/internal/client/api"
	"github.com/iudanet/fieldkeeper/internal/client/data"
	"github.com/iudanet/fieldkeeper/internal/client/storage"
	"github.com/iudanet/fieldkeeper/internal/client/storage/boltdb"
	"github.com/iudanet/fieldkeeper/internal/client/storage/sqlite"
	"github.com/iudanet/fieldkeeper/internal/imagecodec"
	"github.com/iudanet/fieldkeeper/internal/models"
	pkgapi "github.com/iudanet/fieldkeeper/pkg/api"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeRemote: сервер в памяти, реализующий api.ClientAPI
type fakeRemote struct {
	probeErr   error
	listErr    error
	deleteErr  error
	loginsErr  error
	createHook func(ctx context.Context, req api.CreateViolationRequest) error
	byKey      map[string]int64
	images     map[string][]byte
	records    []pkgapi.Violation
	deleted    []int64
	logins     []pkgapi.OfflineLogin
	nextID     int64
	creates    int
	listCalls  int
	mu         stdsync.Mutex
}

var _ api.ClientAPI = (*fakeRemote)(nil)

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		byKey:  make(map[string]int64),
		images: make(map[string][]byte),
		nextID: 100,
	}
}

func (f *fakeRemote) Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.LoginResponse, error) {
	return nil, errors.New("not used")
}

func (f *fakeRemote) Register(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.RegisterResponse, error) {
	return nil, errors.New("not used")
}

func (f *fakeRemote) Probe(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probeErr
}

func (f *fakeRemote) ListAll(ctx context.Context, token string) ([]pkgapi.Violation, error) {
	return f.ListMine(ctx, token)
}

func (f *fakeRemote) ListMine(ctx context.Context, token string) ([]pkgapi.Violation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]pkgapi.Violation(nil), f.records...), nil
}

func (f *fakeRemote) CreateViolation(ctx context.Context, token string, req api.CreateViolationRequest) (*pkgapi.CreateViolationResponse, error) {
	if f.createHook != nil {
		if err := f.createHook(ctx, req); err != nil {
			f.mu.Lock()
			f.creates++
			f.mu.Unlock()
			return nil, err
		}
	}

	var img []byte
	if req.ImagePath != "" {
		raw, err := os.ReadFile(req.ImagePath)
		if err != nil {
			return nil, fmt.Errorf("scratch file missing: %w", err)
		}
		img = raw
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.creates++
	if id, ok := f.byKey[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return &pkgapi.CreateViolationResponse{ID: id}, nil
	}

	f.nextID++
	id := f.nextID
	f.byKey[req.IdempotencyKey] = id
	f.images[req.Description] = img
	f.records = append(f.records, pkgapi.Violation{
		ID:          id,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Date:        req.Date.UTC().Truncate(time.Second),
		UserID:      "7",
	})
	return &pkgapi.CreateViolationResponse{ID: id}, nil
}

func (f *fakeRemote) DeleteViolation(ctx context.Context, token string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, r := range f.records {
		if r.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return &api.StatusError{Code: http.StatusNotFound}
}

func (f *fakeRemote) SyncLogins(ctx context.Context, token string, req pkgapi.SyncLoginsRequest) (*pkgapi.SyncLoginsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.loginsErr != nil {
		return nil, f.loginsErr
	}
	f.logins = append(f.logins, req.Logins...)
	return &pkgapi.SyncLoginsResponse{Accepted: len(req.Logins)}, nil
}

func (f *fakeRemote) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

// staticTokens реализует TokenSource
type staticTokens struct {
	session *models.Session
	err     error
}

func (s *staticTokens) Session(ctx context.Context) (*models.Session, error) {
	return s.session, s.err
}

type testEnv struct {
	engine     *Engine
	remote     *fakeRemote
	violations *sqlite.Storage
	kv         *boltdb.Storage
	codec      *imagecodec.Codec
	tokens     *staticTokens
	scratch    string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	violations, err := sqlite.New(ctx, filepath.Join(dir, "violations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { violations.Close() })

	kv, err := boltdb.New(ctx, filepath.Join(dir, "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	env := &testEnv{
		remote:     newFakeRemote(),
		violations: violations,
		kv:         kv,
		codec:      imagecodec.New(imagecodec.DefaultOptions()),
		tokens:     &staticTokens{session: &models.Session{UserID: "7", Token: "jwt"}},
		scratch:    filepath.Join(dir, "scratch"),
	}

	logger := setupTestLogger()
	env.engine = NewEngine(Deps{
		API:        env.remote,
		Violations: violations,
		RemoteView: kv,
		Metadata:   kv,
		Logins:     kv,
		Reconciler: NewReconciler(env.remote, kv, logger, ReconcilerConfig{}),
		Codec:      env.codec,
		Tokens:     env.tokens,
		Logger:     logger,
	}, Config{ScratchDir: env.scratch})

	return env
}

func (env *testEnv) insert(t *testing.T, description string) *models.Violation {
	t.Helper()

	v := &models.Violation{
		OwnerID:     "7",
		Description: description,
		CapturedAt:  time.Now(),
		Latitude:    50.45,
		Longitude:   30.52,
	}
	_, err := env.violations.Insert(context.Background(), v)
	require.NoError(t, err)
	return v
}

func testPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < 8; i++ {
		img.Set(i, i, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, 3*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, 15*time.Second, cfg.UploadTimeout)
	assert.Equal(t, time.Minute, cfg.Interval)
	assert.NotEmpty(t, cfg.ScratchDir)
}

func TestEngine_PushPartialFailure(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	var failing *models.Violation
	for i := 0; i < 5; i++ {
		v := env.insert(t, fmt.Sprintf("record %d", i))
		if i == 2 {
			failing = v
		}
	}

	env.remote.createHook = func(ctx context.Context, req api.CreateViolationRequest) error {
		if req.Description == failing.Description {
			return &api.StatusError{Code: http.StatusInternalServerError}
		}
		return nil
	}

	res, err := env.engine.Push(ctx, "jwt")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Synced)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Skipped)

	unsynced, err := env.violations.ListUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, unsynced, 1)
	assert.Equal(t, failing.LocalID, unsynced[0].LocalID)

	synced, err := env.violations.Get(ctx, unsynced[0].LocalID+1)
	require.NoError(t, err)
	assert.True(t, synced.IsSynced())
	require.NotNil(t, synced.RemoteID)
}

func TestEngine_PushIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	env.insert(t, "a")
	env.insert(t, "b")

	res, err := env.engine.Push(ctx, "jwt")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Synced)

	// synced-записи повторно не отправляются
	res, err = env.engine.Push(ctx, "jwt")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Synced)
	assert.Equal(t, 2, env.remote.createCount())
}

func TestEngine_PushSendsSyncKey(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	v := env.insert(t, "a")

	var keys []string
	env.remote.createHook = func(ctx context.Context, req api.CreateViolationRequest) error {
		keys = append(keys, req.IdempotencyKey)
		return nil
	}

	_, err := env.engine.Push(ctx, "jwt")
	require.NoError(t, err)
	assert.Equal(t, []string{v.SyncKey}, keys)
}

func TestEngine_PushWithImage(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	payload, err := env.codec.Encode(testPNG(t))
	require.NoError(t, err)
	want, err := env.codec.Decode(payload)
	require.NoError(t, err)

	v := &models.Violation{OwnerID: "7", Description: "with photo", Latitude: 1, Longitude: 2, Image: payload}
	_, err = env.violations.Insert(ctx, v)
	require.NoError(t, err)

	scratchPath := filepath.Join(env.scratch, fmt.Sprintf("violation_%d.jpg", v.LocalID))
	env.remote.createHook = func(ctx context.Context, req api.CreateViolationRequest) error {
		assert.Equal(t, scratchPath, req.ImagePath)
		return nil
	}

	res, err := env.engine.Push(ctx, "jwt")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)
	assert.Equal(t, want, env.remote.images["with photo"])

	_, err = os.Stat(scratchPath)
	assert.True(t, os.IsNotExist(err), "временный файл должен быть удалён")
}

func TestEngine_PushScratchRemovedOnFailure(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	payload, err := env.codec.Encode(testPNG(t))
	require.NoError(t, err)
	v := &models.Violation{OwnerID: "7", Description: "x", Latitude: 1, Longitude: 2, Image: payload}
	_, err = env.violations.Insert(ctx, v)
	require.NoError(t, err)

	env.remote.createHook = func(ctx context.Context, req api.CreateViolationRequest) error {
		return api.ErrUnreachable
	}

	res, err := env.engine.Push(ctx, "jwt")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)

	entries, err := os.ReadDir(env.scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEngine_PushCorruptImageUploadsWithout(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	v := &models.Violation{OwnerID: "7", Description: "broken", Latitude: 1, Longitude: 2, Image: []byte("garbage")}
	_, err := env.violations.Insert(ctx, v)
	require.NoError(t, err)

	env.remote.createHook = func(ctx context.Context, req api.CreateViolationRequest) error {
		assert.Empty(t, req.ImagePath)
		return nil
	}

	res, err := env.engine.Push(ctx, "jwt")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)
}

func TestEngine_PushCancellationKeepsMarkings(t *testing.T) {
	env := setupEnv(t)
	for i := 0; i < 5; i++ {
		env.insert(t, fmt.Sprintf("record %d", i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	uploads := 0
	env.remote.createHook = func(_ context.Context, req api.CreateViolationRequest) error {
		uploads++
		if uploads == 2 {
			cancel()
		}
		return nil
	}

	res, err := env.engine.Push(ctx, "jwt")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, res.Synced)
	assert.Equal(t, 3, res.Skipped)

	count, err := env.violations.CountUnsynced(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count, "отметки до отмены сохраняются")
}

func TestEngine_RunUnreachable(t *testing.T) {
	env := setupEnv(t)
	env.insert(t, "a")
	env.remote.probeErr = api.ErrUnreachable

	res, err := env.engine.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Reachable)
	assert.False(t, res.Skipped)
	assert.Nil(t, res.Push)
	assert.Equal(t, 0, env.remote.createCount())
	assert.Equal(t, PhaseIdle, env.engine.State())
}

func TestEngine_RunSkipped(t *testing.T) {
	tests := []struct {
		tokens *staticTokens
		name   string
	}{
		{name: "no session", tokens: &staticTokens{err: errors.New("not logged in")}},
		{name: "offline session", tokens: &staticTokens{session: &models.Session{UserID: "7", Offline: true}}},
		{name: "expired token", tokens: &staticTokens{session: &models.Session{
			UserID: "7", Token: "jwt", ExpiresAt: time.Now().Add(-time.Minute),
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupEnv(t)
			env.insert(t, "a")
			*env.tokens = *tt.tokens

			res, err := env.engine.Run(context.Background())
			require.NoError(t, err)
			assert.True(t, res.Skipped)
			assert.NotEmpty(t, res.SkipReason)
			assert.Equal(t, 0, env.remote.createCount())
		})
	}
}

func TestEngine_RunFullCycle(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	env.insert(t, "local pending")
	require.NoError(t, env.kv.AppendOfflineLogin(ctx, &models.OfflineLogin{
		LocalID: "l1", Email: "a@x.com", UserID: "7", At: time.Now(),
	}))

	res, err := env.engine.Run(ctx)
	require.NoError(t, err)
	assert.True(t, res.Reachable)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 1, res.Push.Synced)
	assert.Equal(t, 1, res.Pull.Fetched)
	assert.Equal(t, 1, res.Logins)
	assert.Equal(t, PhaseIdle, env.engine.State())

	// серверное представление закэшировано
	view, err := env.kv.ListRemoteViolations(ctx, "7")
	require.NoError(t, err)
	require.Len(t, view, 1)
	assert.Equal(t, "local pending", view[0].Description)

	logins, err := env.kv.ListOfflineLogins(ctx)
	require.NoError(t, err)
	assert.Empty(t, logins)
	require.Len(t, env.remote.logins, 1)
	assert.Equal(t, "l1", env.remote.logins[0].LocalID)

	last, err := env.engine.LastSync(ctx)
	require.NoError(t, err)
	assert.False(t, last.IsZero())

	pc, err := env.engine.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, &PendingCount{}, pc)
}

func TestEngine_RunAbsorbsRemoteFailures(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	require.NoError(t, env.kv.AppendOfflineLogin(ctx, &models.OfflineLogin{LocalID: "l1"}))
	env.remote.listErr = &api.StatusError{Code: http.StatusBadGateway}
	env.remote.loginsErr = api.ErrUnreachable

	res, err := env.engine.Run(ctx)
	require.NoError(t, err)
	assert.Nil(t, res.Pull)
	assert.Equal(t, 0, res.Logins)

	logins, err := env.kv.ListOfflineLogins(ctx)
	require.NoError(t, err)
	assert.Len(t, logins, 1, "непринятые входы остаются в списке")
}

func TestEngine_PullKeepsPendingRows(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	pending := env.insert(t, "offline only")
	env.remote.records = []pkgapi.Violation{{ID: 1, Description: "server", Date: time.Now(), UserID: "7"}}

	res, err := env.engine.Pull(ctx, "jwt", "7")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Fetched)

	got, err := env.violations.Get(ctx, pending.LocalID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncPending, got.SyncState)

	// повторный pull заменяет, а не дополняет
	env.remote.records = nil
	_, err = env.engine.Pull(ctx, "jwt", "7")
	require.NoError(t, err)
	view, err := env.kv.ListRemoteViolations(ctx, "7")
	require.NoError(t, err)
	assert.Empty(t, view)
}

func TestEngine_RunSingleFlight(t *testing.T) {
	env := setupEnv(t)
	for i := 0; i < 3; i++ {
		env.insert(t, fmt.Sprintf("record %d", i))
	}

	started := make(chan struct{})
	release := make(chan struct{})
	var once stdsync.Once
	env.remote.createHook = func(ctx context.Context, req api.CreateViolationRequest) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	}

	var wg stdsync.WaitGroup
	results := make([]*CycleResult, 2)
	errs := make([]error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = env.engine.Run(context.Background())
	}()

	<-started
	assert.Equal(t, PhasePushing, env.engine.State())

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = env.engine.Run(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 3, env.remote.createCount(), "каждая запись отправлена ровно один раз")

	count, err := env.violations.CountUnsynced(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// blockFirstCreate задерживает первую отправку до закрытия release
func blockFirstCreate(env *testEnv) (started, release chan struct{}) {
	started = make(chan struct{})
	release = make(chan struct{})
	var once stdsync.Once
	env.remote.createHook = func(ctx context.Context, req api.CreateViolationRequest) error {
		first := false
		once.Do(func() {
			first = true
			close(started)
		})
		if first {
			<-release
		}
		return nil
	}
	return started, release
}

func TestEngine_UploadDuringCycleSendsOnce(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	v := env.insert(t, "fresh record")

	started, release := blockFirstCreate(env)

	var wg stdsync.WaitGroup
	var runErr, uploadErr error
	var res *CycleResult

	wg.Add(1)
	go func() {
		defer wg.Done()
		res, runErr = env.engine.Run(ctx)
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		uploadErr = env.engine.Upload(ctx, "jwt", v)
	}()

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, runErr)
	require.NoError(t, uploadErr)
	assert.Equal(t, 1, env.remote.createCount(), "запись отправлена ровно один раз")
	assert.Equal(t, 1, res.Push.Synced)

	got, err := env.violations.Get(ctx, v.LocalID)
	require.NoError(t, err)
	assert.True(t, got.IsSynced())
}

func TestEngine_SubmitDuringCycleSendsOnce(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	svc := data.NewService(data.Deps{
		Violations: env.violations,
		RemoteView: env.kv,
		Codec:      env.codec,
		Uploader:   env.engine,
		Deletions:  env.engine.deps.Reconciler,
		Sessions:   env.tokens,
		Logger:     setupTestLogger(),
	})

	started, release := blockFirstCreate(env)

	var wg stdsync.WaitGroup
	var submitErr, runErr error
	var submitted *data.SubmitResult

	wg.Add(1)
	go func() {
		defer wg.Done()
		submitted, submitErr = svc.Submit(ctx, data.SubmitInput{Description: "foreground", Latitude: 1, Longitude: 2})
	}()
	<-started

	// цикл видит ту же Pending-запись, пока Submit ждёт ответа
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, runErr = env.engine.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, submitErr)
	require.NoError(t, runErr)
	assert.False(t, submitted.Pending)
	require.NotNil(t, submitted.RemoteID)
	assert.Equal(t, 1, env.remote.createCount(), "запись отправлена ровно один раз")

	// повторная отправка уже синхронизированной записи ничего не шлёт
	require.NoError(t, env.engine.Upload(ctx, "jwt", &models.Violation{LocalID: submitted.LocalID}))
	assert.Equal(t, 1, env.remote.createCount())
}

func TestEngine_UploadSkipsDeletedRecord(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	v := env.insert(t, "gone")

	_, err := env.violations.Delete(ctx, v.LocalID)
	require.NoError(t, err)

	require.NoError(t, env.engine.Upload(ctx, "jwt", v))
	assert.Equal(t, 0, env.remote.createCount())
}

// markFailingStore принимает все операции, кроме MarkSynced
type markFailingStore struct {
	*sqlite.Storage
}

func (markFailingStore) MarkSynced(ctx context.Context, localID int64, remoteID *int64) error {
	return fmt.Errorf("failed to mark violation synced: %w: disk I/O error", storage.ErrStorage)
}

func TestEngine_PushStopsOnStorageFailure(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)
	env.insert(t, "a")
	env.insert(t, "b")

	deps := env.engine.deps
	deps.Violations = markFailingStore{Storage: env.violations}
	engine := NewEngine(deps, Config{ScratchDir: env.scratch})

	res, err := engine.Push(ctx, "jwt")
	require.ErrorIs(t, err, storage.ErrStorage)
	require.NotNil(t, res)
	assert.Equal(t, 0, res.Synced)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 1, env.remote.createCount(), "после сбоя хранилища отправка прекращается")

	// цикл тоже завершается ошибкой, а не счётчиком
	_, err = engine.Run(ctx)
	require.ErrorIs(t, err, storage.ErrStorage)
}
