package service

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/jesses-code-adventures/tims/internal/cache"
	"github.com/jesses-code-adventures/tims/internal/config"
	"github.com/jesses-code-adventures/tims/internal/database"
	"github.com/jesses-code-adventures/tims/internal/models"
	"github.com/jesses-code-adventures/tims/internal/utils"
)

// Wednesday 6 March 2024, 10:00 UTC.
var testNow = time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	svc   *TimesheetService
	db    *database.SQLDB
	clock *testClock
	admin context.Context
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := newEmptyFixture(t, opts...)
	f.admin, _ = f.user(t, models.UserAdmin)
	return f
}

// newEmptyFixture has no users at all.
func newEmptyFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db, err := database.NewDB(&config.Config{
		DatabaseURL:    filepath.Join(t.TempDir(), "tims.db"),
		DatabaseDriver: "sqlite3",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	clock := &testClock{now: testNow}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return &fixture{
		svc:   NewTimesheetService(db, cache.NewMemoryStore(), logger, opts...),
		db:    db,
		clock: clock,
	}
}

// user inserts a user directly, with access to the given clients, and
// returns a context acting as them.
func (f *fixture) user(t *testing.T, userType models.UserType, clientIDs ...string) (context.Context, *models.User) {
	t.Helper()
	ctx := context.Background()
	id := models.NewUUID()
	u := &models.User{
		ID:       id,
		Email:    id + "@example.com",
		Name:     string(userType),
		Locale:   "en-US",
		Type:     userType,
		Verified: true,
		Created:  1,
		Updated:  1,
	}
	require.NoError(t, f.db.CreateUser(ctx, u))
	for _, c := range clientIDs {
		require.NoError(t, f.db.CreateAccess(ctx, &models.Access{ID: models.NewUUID(), UserID: u.ID, ClientID: c, Created: 1}))
	}
	return WithUser(ctx, u.ID), u
}

func (f *fixture) client(t *testing.T, name, rate string, minimum, overflow int64, taxes bool) *models.Client {
	t.Helper()
	c := &models.Client{
		ID:           models.NewUUID(),
		Name:         name,
		Rate:         decimal.RequireFromString(rate),
		TaskMinimum:  minimum,
		TaskOverflow: overflow,
		Due:          14,
		Taxes:        taxes,
		Created:      1,
		Updated:      1,
	}
	require.NoError(t, f.db.CreateClient(context.Background(), c))
	return c
}

func (f *fixture) project(t *testing.T, clientID, name string) *models.Project {
	t.Helper()
	p := &models.Project{ID: models.NewUUID(), ClientID: clientID, Name: name, Created: 1, Updated: 1}
	require.NoError(t, f.db.CreateProject(context.Background(), p))
	return p
}

func (f *fixture) task(t *testing.T, projectID, name string) *models.Task {
	t.Helper()
	tk := &models.Task{ID: models.NewUUID(), ProjectID: projectID, Name: name, Created: 1, Updated: 1}
	require.NoError(t, f.db.CreateTask(context.Background(), tk))
	return tk
}

// work logs a closed period of elapsed seconds ending at end.
func (f *fixture) work(t *testing.T, task *models.Task, userID string, end time.Time, elapsed int64) *models.WorkPeriod {
	t.Helper()
	w := &models.WorkPeriod{
		ID:        models.NewUUID(),
		ProjectID: task.ProjectID,
		TaskID:    task.ID,
		UserID:    userID,
		Start:     end.Unix() - elapsed,
		End:       utils.ToPtr(end.Unix()),
		Created:   1,
		Updated:   1,
	}
	require.NoError(t, f.db.CreateWorkPeriod(context.Background(), w))
	return w
}

func (f *fixture) company(t *testing.T, taxes ...models.CompanyTax) *models.Company {
	t.Helper()
	ctx := context.Background()
	c := &models.Company{ID: models.NewUUID(), Name: "Tims Pty Ltd", Created: 1, Updated: 1}
	require.NoError(t, f.db.CreateCompany(ctx, c))
	require.NoError(t, f.db.ReplaceCompanyTaxes(ctx, c.ID, taxes))
	return c
}

// sequence returns each value in turn, repeating the last.
func sequence(values ...string) func() string {
	i := 0
	return func() string {
		v := values[min(i, len(values)-1)]
		i++
		return v
	}
}

func march(day, hour int) time.Time {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
}

func marchRange() database.Range {
	return database.Range{Start: march(1, 0).Unix(), End: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC).Unix()}
}
