package service

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jesses-code-adventures/tims/internal/database"
	"github.com/jesses-code-adventures/tims/internal/models"
	"github.com/jesses-code-adventures/tims/internal/utils"
)

func TestStartAndEndWork(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "Acme", "100", 1, 0, true)
	p := f.project(t, c.ID, "Site")
	tk := f.task(t, p.ID, "Build")
	ctx, worker := f.user(t, models.UserWorker)

	started, err := f.svc.StartWork(ctx, p.ID, tk.ID, "wiring")
	require.NoError(t, err)
	assert.Equal(t, worker.ID, started.UserID)
	assert.Equal(t, testNow.Unix(), started.Start)
	assert.Nil(t, started.End)
	assert.Equal(t, "Acme", started.ClientName)
	assert.Equal(t, "Build", started.TaskName)

	_, err = f.svc.StartWork(ctx, p.ID, tk.ID, "again")
	assert.ErrorIs(t, err, ErrTaskAlreadyStarted)

	open, err := f.svc.OpenWork(ctx)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, started.ID, open.ID)

	f.clock.advance(90 * time.Minute)
	ended, err := f.svc.EndWork(ctx, "", utils.ToPtr("wired up"))
	require.NoError(t, err)
	assert.Equal(t, int64(5400), ended.Elapsed())
	assert.Equal(t, "wired up", ended.Description)

	_, err = f.svc.EndWork(ctx, "", nil)
	assert.ErrorIs(t, err, ErrNoOpenWork)

	open, err = f.svc.OpenWork(ctx)
	require.NoError(t, err)
	assert.Nil(t, open)

	works, err := f.svc.AccountWorks(ctx, marchRange())
	require.NoError(t, err)
	require.Len(t, works, 1)
	assert.Equal(t, ended.ID, works[0].ID)
}

func TestOpenPeriodIsUniqueInTheDatabase(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "Acme", "100", 1, 0, true)
	p := f.project(t, c.ID, "Site")
	tk := f.task(t, p.ID, "Build")
	_, worker := f.user(t, models.UserWorker)

	open := func() *models.WorkPeriod {
		return &models.WorkPeriod{ID: models.NewUUID(), ProjectID: p.ID, TaskID: tk.ID, UserID: worker.ID, Start: 100, Created: 1, Updated: 1}
	}
	require.NoError(t, f.db.CreateWorkPeriod(t.Context(), open()))
	assert.ErrorIs(t, f.db.CreateWorkPeriod(t.Context(), open()), database.ErrUniqueViolation)
}

func TestStartWorkChecks(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "Acme", "100", 1, 0, true)
	other := f.client(t, "Other", "100", 1, 0, true)
	p := f.project(t, c.ID, "Site")
	tk := f.task(t, p.ID, "Build")
	elsewhere := f.task(t, f.project(t, c.ID, "Ops").ID, "Deploy")
	worker, _ := f.user(t, models.UserWorker)

	_, err := f.svc.StartWork(worker, "", "", "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)

	_, err = f.svc.StartWork(worker, p.ID, "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.StartWork(worker, p.ID, elsewhere.ID, "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "task_id", verr.Fields[0].Field)

	scoped, _ := f.user(t, models.UserWorker, other.ID)
	_, err = f.svc.StartWork(scoped, p.ID, tk.ID, "")
	assert.ErrorIs(t, err, ErrRights)

	accounting, _ := f.user(t, models.UserAccounting)
	_, err = f.svc.StartWork(accounting, p.ID, tk.ID, "")
	assert.ErrorIs(t, err, ErrRights)
}

func TestOnlyTheStarterEndsWork(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "Acme", "100", 1, 0, true)
	p := f.project(t, c.ID, "Site")
	tk := f.task(t, p.ID, "Build")
	worker, _ := f.user(t, models.UserWorker)
	colleague, _ := f.user(t, models.UserWorker)

	started, err := f.svc.StartWork(worker, p.ID, tk.ID, "")
	require.NoError(t, err)

	_, err = f.svc.EndWork(colleague, started.ID, nil)
	assert.ErrorIs(t, err, ErrRights)
	_, err = f.svc.EndWork(f.admin, started.ID, nil)
	assert.ErrorIs(t, err, ErrRights)
}

func TestUpdateWork(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "Acme", "100", 1, 0, true)
	tk := f.task(t, f.project(t, c.ID, "Site").ID, "Build")
	workerCtx, worker := f.user(t, models.UserWorker)
	manager, _ := f.user(t, models.UserManager)
	w := f.work(t, tk, worker.ID, march(4, 12), 3600)

	_, err := f.svc.UpdateWork(workerCtx, w.ID, WorkUpdate{})
	assert.ErrorIs(t, err, ErrNoChanges)

	updated, err := f.svc.UpdateWork(workerCtx, w.ID, WorkUpdate{Description: utils.ToPtr("fixed the fence")})
	require.NoError(t, err)
	assert.Equal(t, "fixed the fence", updated.Description)

	_, err = f.svc.UpdateWork(workerCtx, w.ID, WorkUpdate{Start: utils.ToPtr(w.Start - 60)})
	assert.ErrorIs(t, err, ErrRights)

	_, err = f.svc.UpdateWork(manager, w.ID, WorkUpdate{End: utils.ToPtr(w.Start)})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "end", verr.Fields[0].Field)

	updated, err = f.svc.UpdateWork(manager, w.ID, WorkUpdate{Start: utils.ToPtr(w.Start - 1800)})
	require.NoError(t, err)
	assert.Equal(t, int64(5400), updated.Elapsed())

	assert.ErrorIs(t, f.svc.DeleteWork(workerCtx, w.ID), ErrRights)
	require.NoError(t, f.svc.DeleteWork(manager, w.ID))
	assert.ErrorIs(t, f.svc.DeleteWork(manager, w.ID), ErrNotFound)
}

func TestListWorksIsScoped(t *testing.T) {
	f := newFixture(t)
	acme := f.client(t, "Acme", "100", 1, 0, true)
	other := f.client(t, "Other", "100", 1, 0, true)
	_, worker := f.user(t, models.UserWorker)
	f.work(t, f.task(t, f.project(t, acme.ID, "Site").ID, "Build"), worker.ID, march(4, 12), 3600)
	f.work(t, f.task(t, f.project(t, other.ID, "Site").ID, "Build"), worker.ID, march(4, 14), 600)

	all, err := f.svc.ListWorks(f.admin, marchRange(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	client, _ := f.user(t, models.UserClient, acme.ID)
	mine, err := f.svc.ListWorks(client, marchRange(), "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Acme", mine[0].ClientName)

	_, err = f.svc.ListWorks(client, marchRange(), other.ID)
	assert.ErrorIs(t, err, ErrRights)

	unassigned, _ := f.user(t, models.UserClient)
	none, err := f.svc.ListWorks(unassigned, marchRange(), "")
	require.NoError(t, err)
	assert.Empty(t, none)

	workerCtx, _ := f.user(t, models.UserWorker)
	_, err = f.svc.ListWorks(workerCtx, marchRange(), "")
	assert.ErrorIs(t, err, ErrRights)

	totals, err := f.svc.ClientWorks(client, marchRange(), "")
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, int64(3600), totals[0].Elapsed)
}

func TestExportWorksCSV(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "Acme", "100", 1, 0, true)
	_, worker := f.user(t, models.UserWorker)
	w := f.work(t, f.task(t, f.project(t, c.ID, "Site").ID, "Build"), worker.ID, march(4, 12), 916)

	var buf bytes.Buffer
	n, err := f.svc.ExportWorksCSV(f.admin, marchRange(), "", &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ID", records[0][0])
	row := records[1]
	assert.Equal(t, w.ID, row[0])
	assert.Equal(t, []string{"Acme", "Site", "Build", "worker"}, row[1:5])
	assert.Equal(t, "2024-03-04 12:00", row[6])
	assert.Equal(t, "916", row[7])
	assert.Equal(t, "16", row[8])
}

func TestClientWorksRights(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, "Acme", "100", 1, 0, true)
	_, logger := f.user(t, models.UserWorker)
	f.work(t, f.task(t, f.project(t, c.ID, "Site").ID, "Build"), logger.ID, march(4, 12), 3600)

	for _, userType := range []models.UserType{models.UserWorker, models.UserAccounting} {
		t.Run(string(userType), func(t *testing.T) {
			ctx, _ := f.user(t, userType)
			_, err := f.svc.ClientWorks(ctx, marchRange(), c.ID)
			assert.ErrorIs(t, err, ErrRights)
		})
	}

	manager, _ := f.user(t, models.UserManager)
	totals, err := f.svc.ClientWorks(manager, marchRange(), c.ID)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, "Build", totals[0].TaskName)
}
