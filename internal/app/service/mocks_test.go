package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/shopauth-backend/internal/app/model"
	"github.com/ikkim/shopauth-backend/internal/app/repository"
	"github.com/ikkim/shopauth-backend/internal/db"
	"github.com/ikkim/shopauth-backend/pkg/util"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.Error(0)
}

type mockTokenGenerator struct {
	mock.Mock
}

func (m *mockTokenGenerator) Generate() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) FindByResetToken(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) ClearExpiredResetTickets(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingRecorder) Record(operation, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, operation+"/"+outcome)
}

func (r *recordingRecorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.outcomes) == 0 {
		return ""
	}
	return r.outcomes[len(r.outcomes)-1]
}

const testBaseURL = "https://shop.example.com"

type testEnv struct {
	svc      AuthService
	repo     repository.UserRepository
	notifier *mockNotifier
	clock    *fakeClock
	recorder *recordingRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nil, nil)
}

// newTestEnvWith builds a service over an in-memory database. A nil repo or
// token generator selects the real implementation.
func newTestEnvWith(t *testing.T, repo repository.UserRepository, tokens util.TokenGenerator) *testEnv {
	t.Helper()

	if repo == nil {
		testDB, err := db.SetupTestDB(t)
		require.NoError(t, err)
		repo = repository.NewUserRepository(testDB)
	}
	if tokens == nil {
		tokens = util.NewRandomTokenGenerator()
	}

	env := &testEnv{
		repo:     repo,
		notifier: &mockNotifier{},
		clock:    &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)},
		recorder: &recordingRecorder{},
	}
	env.svc = NewAuthService(repo, util.NewBcryptHasher(), tokens, env.notifier, AuthOptions{
		BaseURL:  testBaseURL,
		Now:      env.clock.Now,
		Recorder: env.recorder,
	})
	return env
}

// allowSends accepts every outbound email.
func (e *testEnv) allowSends() {
	e.notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func (e *testEnv) signup(t *testing.T, email, password string) *model.User {
	t.Helper()
	res, err := e.svc.Signup(context.Background(), email, password, password)
	require.NoError(t, err)
	require.NotNil(t, res.User)
	return res.User
}
