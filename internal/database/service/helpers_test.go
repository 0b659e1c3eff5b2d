package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pubky/franky/internal/cache"
	"github.com/pubky/franky/internal/database"
	"github.com/pubky/franky/internal/database/service"
	"github.com/pubky/franky/internal/database/types"
	"github.com/pubky/franky/internal/events"
	"github.com/pubky/franky/internal/setup/config"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap/zaptest"
)

var errInjected = errors.New("injected failure")

// recordingNotifier keeps every event it is told about.
type recordingNotifier struct {
	mu     sync.Mutex
	events []*events.ChangeEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event *events.ChangeEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) kinds() []events.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()

	kinds := make([]events.Kind, len(n.events))
	for i, event := range n.events {
		kinds[i] = event.Kind
	}
	return kinds
}

func (n *recordingNotifier) last() *events.ChangeEvent {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.events) == 0 {
		return nil
	}
	return n.events[len(n.events)-1]
}

// failingTable fails the chosen write on a single table.
type failingTable[T any] struct {
	service.Table[T]
	failInsert bool
	failUpsert bool
}

func (f failingTable[T]) Insert(ctx context.Context, idb bun.IDB, row *T) error {
	if f.failInsert {
		return errInjected
	}
	return f.Table.Insert(ctx, idb, row)
}

func (f failingTable[T]) Upsert(ctx context.Context, idb bun.IDB, row *T) error {
	if f.failUpsert {
		return errInjected
	}
	return f.Table.Upsert(ctx, idb, row)
}

// toggleTable fails upserts while the flag is set.
type toggleTable[T any] struct {
	service.Table[T]
	fail *bool
}

func (f *toggleTable[T]) Upsert(ctx context.Context, idb bun.IDB, row *T) error {
	if *f.fail {
		return errInjected
	}
	return f.Table.Upsert(ctx, idb, row)
}

// testEnv is a migrated store with services wired through it.
type testEnv struct {
	db       *bun.DB
	tables   service.Tables
	views    *cache.ViewCache
	notifier *recordingNotifier

	post     *service.PostService
	tag      *service.TagService
	userTag  *service.UserTagService
	user     *service.UserService
	snapshot *service.SnapshotService
}

type envOption func(*envOptions)

type envOptions struct {
	withCache bool
	tables    func(service.Tables) service.Tables
}

func withCache() envOption {
	return func(o *envOptions) { o.withCache = true }
}

func withTables(fn func(service.Tables) service.Tables) envOption {
	return func(o *envOptions) { o.tables = fn }
}

func setupEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	var o envOptions
	for _, opt := range opts {
		opt(&o)
	}

	logger := zaptest.NewLogger(t)

	db, err := database.Open(&config.SQLite{
		Path:         filepath.Join(t.TempDir(), "franky.db"),
		BusyTimeout:  5000,
		WAL:          true,
		MaxOpenConns: 4,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(t.Context(), db, logger))

	env := &testEnv{
		db:       db,
		tables:   database.NewRepository(logger).Tables(),
		notifier: &recordingNotifier{},
	}

	if o.withCache {
		env.views, err = cache.New(&config.Cache{Enabled: true, MaxViews: 1000}, logger)
		require.NoError(t, err)
		t.Cleanup(env.views.Close)
	}

	tables := env.tables
	if o.tables != nil {
		tables = o.tables(tables)
	}

	observers := service.Observers{Views: env.views, Notifier: env.notifier}
	env.post = service.NewPost(db, tables, observers, logger)
	env.tag = service.NewTag(db, tables, observers, logger)
	env.userTag = service.NewUserTag(db, tables, observers, logger)
	env.user = service.NewUser(db, tables, logger)
	env.snapshot = service.NewSnapshot(db, tables, logger)

	return env
}

// createPost creates a plain post and fails the test on error.
func (e *testEnv) createPost(t *testing.T, id types.PostID) *types.PostView {
	t.Helper()

	view, err := e.post.Create(t.Context(), service.CreatePostParams{PostID: id, Content: "content of " + id.String()})
	require.NoError(t, err)
	return view
}

// postCounts reads a counts row straight from the store. Returns nil when it does not exist.
func (e *testEnv) postCounts(t *testing.T, id types.PostID) *types.PostCounts {
	t.Helper()

	counts, err := e.tables.Counts.Get(t.Context(), e.db, id.String())
	if errors.Is(err, types.ErrRowNotFound) {
		return nil
	}
	require.NoError(t, err)
	return counts
}

// userCounts reads a user's counters through the user service.
func (e *testEnv) userCounts(t *testing.T, userID string) *types.UserCounts {
	t.Helper()

	counts, err := e.user.GetCounts(t.Context(), userID)
	require.NoError(t, err)
	return counts
}

// rowExists reports whether a table holds a row for the id.
func rowExists[T any](t *testing.T, e *testEnv, table service.Table[T], id string) bool {
	t.Helper()

	_, err := table.Get(t.Context(), e.db, id)
	if errors.Is(err, types.ErrRowNotFound) {
		return false
	}
	require.NoError(t, err)
	return true
}

// requireDatabaseError asserts the error kind and status code of a service error.
func requireDatabaseError(t *testing.T, err error, kind types.ErrorKind, status int) *types.DatabaseError {
	t.Helper()

	var dbErr *types.DatabaseError
	require.ErrorAs(t, err, &dbErr)
	require.Equal(t, kind, dbErr.Kind)
	require.Equal(t, status, dbErr.StatusCode)
	return dbErr
}
