package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jesses-code-adventures/tims/internal/models"
)

type invoiceSetup struct {
	client *models.Client
	site   *models.Project
	ops    *models.Project
}

// billable logs an hour against Site (two half hours on one task) and a
// minute against Ops, plus periods just outside March.
func (f *fixture) billable(t *testing.T, taxes bool) invoiceSetup {
	t.Helper()
	c := f.client(t, "Acme", "120", 1, 0, taxes)
	site := f.project(t, c.ID, "Site")
	ops := f.project(t, c.ID, "Ops")
	build := f.task(t, site.ID, "Build")
	deploy := f.task(t, ops.ID, "Deploy")
	_, worker := f.user(t, models.UserWorker)

	f.work(t, build, worker.ID, march(4, 10), 1800)
	f.work(t, build, worker.ID, march(4, 12), 1800)
	f.work(t, deploy, worker.ID, march(5, 9), 60)
	f.work(t, build, worker.ID, time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC), 3600)
	f.work(t, build, worker.ID, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), 3600)

	return invoiceSetup{client: c, site: site, ops: ops}
}

func costLine(amount string) []models.InvoiceAdditional {
	return []models.InvoiceAdditional{{Text: "Hosting", Type: models.AdditionalCost, Amount: decimal.RequireFromString(amount)}}
}

func TestPreviewMatchesCreate(t *testing.T) {
	f := newFixture(t)
	s := f.billable(t, true)
	f.company(t, models.CompanyTax{Name: "GST", Percentage: decimal.RequireFromString("10")})
	ctx, _ := f.user(t, models.UserAccounting)

	req := InvoiceRequest{ClientID: s.client.ID, Range: marchRange(), Additional: costLine("10")}
	preview, err := f.svc.PreviewInvoice(ctx, req)
	require.NoError(t, err)

	assert.Empty(t, preview.ID)
	assert.Len(t, preview.Identifier, 6)
	require.Len(t, preview.Items, 2)
	assert.Equal(t, s.site.ID, preview.Items[0].ProjectID)
	assert.Equal(t, "Site", preview.Items[0].ProjectName)
	assert.Equal(t, int64(60), preview.Items[0].Minutes)
	assert.Equal(t, "120.00", preview.Items[0].Amount.StringFixed(2))
	assert.Equal(t, s.ops.ID, preview.Items[1].ProjectID)
	assert.Equal(t, int64(1), preview.Items[1].Minutes)
	assert.Equal(t, "2.00", preview.Items[1].Amount.StringFixed(2))
	assert.Equal(t, int64(61), preview.Minutes)
	assert.Equal(t, "132.00", preview.Subtotal.StringFixed(2))
	require.Len(t, preview.Taxes, 1)
	assert.Equal(t, "GST", preview.Taxes[0].Name)
	assert.Equal(t, "13.20", preview.Taxes[0].Amount.StringFixed(2))
	assert.Equal(t, "145.20", preview.Total.StringFixed(2))
	assert.Equal(t, "Acme", preview.Client.Name)
	assert.Equal(t, "Tims Pty Ltd", preview.Company.Name)

	created, err := f.svc.CreateInvoice(ctx, req)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, preview.Subtotal.Equal(created.Subtotal))
	assert.True(t, preview.Total.Equal(created.Total))
	assert.Equal(t, preview.Taxes[0].Amount.String(), created.Taxes[0].Amount.String())

	stored, err := f.svc.GetInvoice(ctx, created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, created.Identifier, stored.Identifier)
	assert.Equal(t, "145.20", stored.Total.StringFixed(2))
	assert.Equal(t, int64(61), stored.Minutes)
	assert.Len(t, stored.Items, 2)
	require.Len(t, stored.Additional, 1)
	assert.Equal(t, models.AdditionalCost, stored.Additional[0].Type)
	assert.Nil(t, stored.Client)
}

func TestCreateInvoiceRetriesIdentifierCollision(t *testing.T) {
	f := newFixture(t, WithIdentifierGenerator(sequence("AAAAAA", "AAAAAA", "BBBBBB")))
	s := f.billable(t, false)
	req := InvoiceRequest{ClientID: s.client.ID, Range: marchRange()}

	first, err := f.svc.CreateInvoice(f.admin, req)
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", first.Identifier)

	second, err := f.svc.CreateInvoice(f.admin, req)
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", second.Identifier)

	items, err := f.db.ListInvoiceItems(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	var count int
	require.NoError(t, f.db.GetConnection().Get(&count, `SELECT COUNT(*) FROM invoice_items`))
	assert.Equal(t, 4, count)
}

func TestCreateInvoiceGivesUpOnIdentifiers(t *testing.T) {
	f := newFixture(t, WithIdentifierGenerator(func() string { return "AAAAAA" }))
	s := f.billable(t, false)
	req := InvoiceRequest{ClientID: s.client.ID, Range: marchRange()}

	_, err := f.svc.CreateInvoice(f.admin, req)
	require.NoError(t, err)

	_, err = f.svc.CreateInvoice(f.admin, req)
	assert.ErrorIs(t, err, errIdentifierTaken)

	var count int
	require.NoError(t, f.db.GetConnection().Get(&count, `SELECT COUNT(*) FROM invoice_items`))
	assert.Equal(t, 2, count)
}

func TestInvoiceUnknownClient(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PreviewInvoice(f.admin, InvoiceRequest{ClientID: "nope", Range: marchRange()})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "client 'nope' does not exist")
}

func TestInvoiceRequiresClientAndEnd(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PreviewInvoice(f.admin, InvoiceRequest{})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []models.FieldError{
		{Field: "client_id", Reason: "missing"},
		{Field: "end", Reason: "missing"},
	}, verr.Fields)
}

func TestInvoiceRejectsBadAdditional(t *testing.T) {
	f := newFixture(t)
	s := f.billable(t, false)

	_, err := f.svc.CreateInvoice(f.admin, InvoiceRequest{
		ClientID:   s.client.ID,
		Range:      marchRange(),
		Additional: []models.InvoiceAdditional{{Type: "refund", Amount: decimal.Zero}},
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []models.FieldError{
		{Field: "additional.0.text", Reason: "missing"},
		{Field: "additional.0.type", Reason: "oneof"},
		{Field: "additional.0.amount", Reason: "gt"},
	}, verr.Fields)

	invoices, err := f.svc.ListInvoices(f.admin, "", nil)
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestInvoiceDiscountAndNoTaxes(t *testing.T) {
	f := newFixture(t)
	s := f.billable(t, false)
	f.company(t, models.CompanyTax{Name: "GST", Percentage: decimal.RequireFromString("10")})

	d, err := f.svc.PreviewInvoice(f.admin, InvoiceRequest{
		ClientID: s.client.ID,
		Range:    marchRange(),
		Additional: []models.InvoiceAdditional{
			{Text: "Loyalty", Type: models.AdditionalDiscount, Amount: decimal.RequireFromString("22")},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, d.Taxes)
	assert.Equal(t, "100.00", d.Subtotal.StringFixed(2))
	assert.True(t, d.Total.Equal(d.Subtotal))
}

func TestInvoiceRights(t *testing.T) {
	f := newFixture(t)
	s := f.billable(t, false)
	other := f.client(t, "Other", "50", 1, 0, true)
	req := InvoiceRequest{ClientID: s.client.ID, Range: marchRange()}

	worker, _ := f.user(t, models.UserWorker)
	_, err := f.svc.PreviewInvoice(worker, req)
	assert.ErrorIs(t, err, ErrRights)

	scoped, _ := f.user(t, models.UserAccounting, other.ID)
	_, err = f.svc.CreateInvoice(scoped, req)
	assert.ErrorIs(t, err, ErrRights)

	_, err = f.svc.PreviewInvoice(context.Background(), req)
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestGetAndDeleteInvoice(t *testing.T) {
	f := newFixture(t)
	s := f.billable(t, false)
	f.company(t)
	other := f.client(t, "Other", "50", 1, 0, true)

	inv, err := f.svc.CreateInvoice(f.admin, InvoiceRequest{ClientID: s.client.ID, Range: marchRange()})
	require.NoError(t, err)

	owner, _ := f.user(t, models.UserClient, s.client.ID)
	d, err := f.svc.GetInvoice(owner, inv.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "Acme", d.Client.Name)
	assert.NotNil(t, d.Company)

	stranger, _ := f.user(t, models.UserClient, other.ID)
	_, err = f.svc.GetInvoice(stranger, inv.ID, false)
	assert.ErrorIs(t, err, ErrRights)

	listed, err := f.svc.ListInvoices(stranger, "", nil)
	require.NoError(t, err)
	assert.Empty(t, listed)
	listed, err = f.svc.ListInvoices(owner, "", nil)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	scoped, _ := f.user(t, models.UserAccounting, other.ID)
	assert.ErrorIs(t, f.svc.DeleteInvoice(scoped, inv.ID), ErrRights)

	accounting, _ := f.user(t, models.UserAccounting)
	require.NoError(t, f.svc.DeleteInvoice(accounting, inv.ID))
	_, err = f.svc.GetInvoice(accounting, inv.ID, false)
	assert.ErrorIs(t, err, ErrNotFound)

	items, err := f.db.ListInvoiceItems(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
