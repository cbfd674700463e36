package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jesses-code-adventures/tims/internal/billing"
	"github.com/jesses-code-adventures/tims/internal/database"
	"github.com/jesses-code-adventures/tims/internal/models"
)

var errIdentifierTaken = errors.New("invoice identifier taken")

// InvoiceRequest selects what an invoice bills: the client's closed work
// ending within Range, plus any additional cost or discount lines.
type InvoiceRequest struct {
	ClientID   string
	Range      database.Range
	Additional []models.InvoiceAdditional
}

type generated struct {
	client  *models.Client
	company *models.Company
	result  billing.Result
	names   map[string]string
}

// generate runs every check and computes the figures. It does not write.
func (s *TimesheetService) generate(ctx context.Context, req InvoiceRequest) (*generated, error) {
	var absent []string
	if req.ClientID == "" {
		absent = append(absent, "client_id")
	}
	if req.Range.End == 0 {
		absent = append(absent, "end")
	}
	if len(absent) > 0 {
		return nil, missing(absent...)
	}
	if req.Range.End <= req.Range.Start {
		return nil, invalid("end", "must be after start")
	}

	if _, err := s.verify(ctx, anyOf(models.UserAccounting), req.ClientID); err != nil {
		return nil, err
	}

	client, err := s.db.GetClient(ctx, req.ClientID)
	if err != nil {
		return nil, lookupErr("client", req.ClientID, err)
	}

	if errs := billing.ValidateAdditional(req.Additional); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	works, err := s.db.ListWorkPeriods(ctx, database.WorkFilter{
		Range:     req.Range,
		ClientIDs: []string{client.ID},
	})
	if err != nil {
		return nil, err
	}

	company, err := s.db.GetCompany(ctx)
	if err != nil && !errors.Is(err, database.ErrNoRows) {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	var taxes []billing.Tax
	if client.Taxes && company != nil {
		for _, t := range company.Taxes {
			taxes = append(taxes, billing.Tax{Name: t.Name, Percentage: t.Percentage})
		}
	}

	names := make(map[string]string)
	periods := make([]billing.Period, 0, len(works))
	for _, w := range works {
		names[w.ProjectID] = w.ProjectName
		periods = append(periods, billing.Period{
			ProjectID: w.ProjectID,
			TaskID:    w.TaskID,
			Start:     w.Start,
			End:       *w.End,
		})
	}

	return &generated{
		client:  client,
		company: company,
		result:  billing.Generate(billing.PolicyFor(client), periods, taxes, req.Additional),
		names:   names,
	}, nil
}

func (g *generated) detail(req InvoiceRequest, identifier string, now int64) *models.InvoiceDetail {
	d := &models.InvoiceDetail{
		Invoice: models.Invoice{
			ClientID:   g.client.ID,
			Identifier: identifier,
			Start:      req.Range.Start,
			End:        req.Range.End,
			Subtotal:   g.result.Subtotal,
			Total:      g.result.Total,
			Taxes:      g.result.Taxes,
			Created:    now,
			Updated:    now,
		},
		Items:      make([]models.InvoiceItem, 0, len(g.result.Items)),
		Additional: make([]models.InvoiceAdditional, 0, len(g.result.Additional)),
		Minutes:    g.result.Minutes(),
		Client:     g.client,
		Company:    g.company,
	}
	for _, it := range g.result.Items {
		d.Items = append(d.Items, models.InvoiceItem{
			ProjectID:   it.ProjectID,
			ProjectName: g.names[it.ProjectID],
			Minutes:     it.Minutes,
			Amount:      it.Amount,
			Created:     now,
		})
	}
	for _, a := range g.result.Additional {
		a.Created = now
		d.Additional = append(d.Additional, a)
	}
	return d
}

// PreviewInvoice computes an invoice without saving it. The identifier is
// provisional.
func (s *TimesheetService) PreviewInvoice(ctx context.Context, req InvoiceRequest) (*models.InvoiceDetail, error) {
	g, err := s.generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return g.detail(req, s.newIdentifier(), s.unix()), nil
}

// CreateInvoice computes and saves an invoice with its lines in a single
// transaction. A taken identifier rolls the transaction back and the whole
// write is retried with a new one.
func (s *TimesheetService) CreateInvoice(ctx context.Context, req InvoiceRequest) (*models.InvoiceDetail, error) {
	g, err := s.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithField("client_id", g.client.ID)
	for attempt := 1; ; attempt++ {
		d := g.detail(req, s.newIdentifier(), s.unix())
		err := s.db.WithTx(ctx, func(tx database.DB) error {
			return saveInvoice(ctx, tx, d)
		})
		if err == nil {
			log.WithFields(logrus.Fields{
				"invoice_id": d.ID,
				"identifier": d.Identifier,
				"total":      d.Total.StringFixed(2),
				"items":      len(d.Items),
			}).Info("invoice created")
			return d, nil
		}
		if !errors.Is(err, errIdentifierTaken) {
			return nil, err
		}
		if attempt >= maxIdentifierAttempts {
			return nil, fmt.Errorf("failed to create invoice after %d attempts: %w", attempt, err)
		}
		log.WithFields(logrus.Fields{
			"identifier": d.Identifier,
			"attempt":    attempt,
		}).Warn("invoice identifier collision, retrying")
	}
}

func saveInvoice(ctx context.Context, tx database.DB, d *models.InvoiceDetail) error {
	d.ID = models.NewUUID()
	if err := tx.CreateInvoice(ctx, &d.Invoice); err != nil {
		if errors.Is(err, database.ErrUniqueViolation) {
			return fmt.Errorf("%w: %s", errIdentifierTaken, d.Identifier)
		}
		return err
	}
	for i := range d.Items {
		item := &d.Items[i]
		item.ID = models.NewUUID()
		item.InvoiceID = d.ID
		if err := tx.CreateInvoiceItem(ctx, item); err != nil {
			return err
		}
	}
	for i := range d.Additional {
		a := &d.Additional[i]
		a.ID = models.NewUUID()
		a.InvoiceID = d.ID
		if err := tx.CreateInvoiceAdditional(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// GetInvoice returns an invoice with its lines. With details the client and
// company records are attached too.
func (s *TimesheetService) GetInvoice(ctx context.Context, id string, details bool) (*models.InvoiceDetail, error) {
	inv, err := s.db.GetInvoice(ctx, id)
	if err != nil {
		return nil, lookupErr("invoice", id, err)
	}
	if _, err := s.verify(ctx, anyOf(models.UserClient, models.UserAccounting), inv.ClientID); err != nil {
		return nil, err
	}

	d := &models.InvoiceDetail{Invoice: *inv}
	if d.Items, err = s.db.ListInvoiceItems(ctx, id); err != nil {
		return nil, err
	}
	if d.Additional, err = s.db.ListInvoiceAdditional(ctx, id); err != nil {
		return nil, err
	}
	for _, it := range d.Items {
		d.Minutes += it.Minutes
	}

	if details {
		if d.Client, err = s.db.GetClient(ctx, inv.ClientID); err != nil {
			return nil, lookupErr("client", inv.ClientID, err)
		}
		company, err := s.db.GetCompany(ctx)
		if err != nil && !errors.Is(err, database.ErrNoRows) {
			return nil, fmt.Errorf("failed to get company: %w", err)
		}
		d.Company = company
	}
	return d, nil
}

// ListInvoices lists invoices created within rng, or all of them when rng is
// nil.
func (s *TimesheetService) ListInvoices(ctx context.Context, clientID string, rng *database.Range) ([]*models.Invoice, error) {
	ids, err := s.scopeFor(ctx, anyOf(models.UserAccounting, models.UserClient), clientID)
	if err != nil {
		return nil, err
	}
	return s.db.ListInvoices(ctx, database.InvoiceFilter{Range: rng, ClientIDs: ids})
}

func (s *TimesheetService) DeleteInvoice(ctx context.Context, id string) error {
	inv, err := s.db.GetInvoice(ctx, id)
	if err != nil {
		return lookupErr("invoice", id, err)
	}
	if _, err := s.verify(ctx, anyOf(models.UserAccounting), inv.ClientID); err != nil {
		return err
	}
	err = s.db.WithTx(ctx, func(tx database.DB) error {
		return tx.DeleteInvoice(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"invoice_id": id, "identifier": inv.Identifier}).Info("invoice deleted")
	return nil
}
