package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jesses-code-adventures/tims/internal/database"
	"github.com/jesses-code-adventures/tims/internal/models"
)

// adminOnly matches no user type, so only admins pass verify.
var adminOnly = []models.UserType{}

// ClientUpdate lists the client fields to change. Nil fields are kept; an
// empty address string clears that line.
type ClientUpdate struct {
	Name         *string
	Rate         *decimal.Decimal
	TaskMinimum  *int64
	TaskOverflow *int64
	Due          *int64
	Taxes        *bool
	Address      models.Address
}

func (u ClientUpdate) billing() bool {
	return u.Rate != nil || u.TaskMinimum != nil || u.TaskOverflow != nil
}

func (u ClientUpdate) empty() bool {
	return u.Name == nil && !u.billing() && u.Due == nil && u.Taxes == nil && !addressSet(u.Address)
}

func addressSet(a models.Address) bool {
	return a.Address1 != nil || a.Address2 != nil || a.City != nil || a.Division != nil ||
		a.Country != nil || a.PostalCode != nil
}

func mergeAddress(dst *models.Address, src models.Address) {
	set := func(field **string, v *string) {
		if v == nil {
			return
		}
		if *v == "" {
			*field = nil
			return
		}
		*field = v
	}
	set(&dst.Address1, src.Address1)
	set(&dst.Address2, src.Address2)
	set(&dst.City, src.City)
	set(&dst.Division, src.Division)
	set(&dst.Country, src.Country)
	set(&dst.PostalCode, src.PostalCode)
}

func (s *TimesheetService) CreateClient(ctx context.Context, c *models.Client) (*models.Client, error) {
	if _, err := s.verify(ctx, anyOf(models.UserAccounting), ""); err != nil {
		return nil, err
	}

	c.Name = strings.TrimSpace(c.Name)
	if c.TaskMinimum == 0 {
		c.TaskMinimum = 1
	}
	if err := check(c, ""); err != nil {
		return nil, err
	}

	now := s.unix()
	c.ID = models.NewUUID()
	c.Archived = false
	c.Created, c.Updated = now, now
	if err := s.db.CreateClient(ctx, c); err != nil {
		return nil, duplicateErr("client", "name", c.Name, err)
	}
	return c, nil
}

// ResolveClientID accepts either a client ID or a client name.
func (s *TimesheetService) ResolveClientID(ctx context.Context, ref string) (string, error) {
	if _, err := s.actor(ctx); err != nil {
		return "", err
	}
	if ref == "" {
		return "", missing("client")
	}
	c, err := s.db.GetClient(ctx, ref)
	if errors.Is(err, database.ErrNoRows) {
		c, err = s.db.GetClientByName(ctx, ref)
	}
	if err != nil {
		return "", lookupErr("client", ref, err)
	}
	return c.ID, nil
}

func (s *TimesheetService) GetClient(ctx context.Context, id string) (*models.Client, error) {
	if _, err := s.verify(ctx, nil, id); err != nil {
		return nil, err
	}
	c, err := s.db.GetClient(ctx, id)
	if err != nil {
		return nil, lookupErr("client", id, err)
	}
	return c, nil
}

func (s *TimesheetService) ListClients(ctx context.Context, archived bool) ([]*models.Client, error) {
	ids, err := s.scopeFor(ctx, anyOf(models.UserAccounting, models.UserManager), "")
	if err != nil {
		return nil, err
	}
	return s.db.ListClients(ctx, ids, archived)
}

// UpdateClient changes a client. Rate and block policy can only be changed by
// users who are not restricted to specific clients.
func (s *TimesheetService) UpdateClient(ctx context.Context, id string, update ClientUpdate) (*models.Client, error) {
	if update.empty() {
		return nil, ErrNoChanges
	}
	u, err := s.verify(ctx, anyOf(models.UserAccounting), id)
	if err != nil {
		return nil, err
	}
	if update.billing() && scope(u) != nil {
		return nil, ErrRights
	}

	c, err := s.db.GetClient(ctx, id)
	if err != nil {
		return nil, lookupErr("client", id, err)
	}
	if update.Name != nil {
		c.Name = strings.TrimSpace(*update.Name)
	}
	if update.Rate != nil {
		c.Rate = *update.Rate
	}
	if update.TaskMinimum != nil {
		c.TaskMinimum = *update.TaskMinimum
	}
	if update.TaskOverflow != nil {
		c.TaskOverflow = *update.TaskOverflow
	}
	if update.Due != nil {
		c.Due = *update.Due
	}
	if update.Taxes != nil {
		c.Taxes = *update.Taxes
	}
	mergeAddress(&c.Address, update.Address)
	if err := check(c, ""); err != nil {
		return nil, err
	}

	c.Updated = s.unix()
	if err := s.db.UpdateClient(ctx, c); err != nil {
		return nil, duplicateErr("client", "name", c.Name, err)
	}
	return c, nil
}

// ArchiveClient hides a client from listings. Its history is kept.
func (s *TimesheetService) ArchiveClient(ctx context.Context, id string) error {
	if _, err := s.verify(ctx, adminOnly, ""); err != nil {
		return err
	}
	c, err := s.db.GetClient(ctx, id)
	if err != nil {
		return lookupErr("client", id, err)
	}
	c.Archived = true
	c.Updated = s.unix()
	return s.db.UpdateClient(ctx, c)
}

// ClientWorks sums the time logged per task within rng. Like ListWorks it is
// open to managers and client users.
func (s *TimesheetService) ClientWorks(ctx context.Context, rng database.Range, clientID string) ([]*models.TaskTotal, error) {
	ids, err := s.scopeFor(ctx, anyOf(models.UserManager, models.UserClient), clientID)
	if err != nil {
		return nil, err
	}
	return s.db.ListTaskTotals(ctx, database.WorkFilter{Range: rng, ClientIDs: ids})
}

// Owes is the sum of invoice totals less the sum of payments. Without a
// client it covers every client a client-type user has access to.
func (s *TimesheetService) Owes(ctx context.Context, clientID string) (decimal.Decimal, error) {
	var ids []string
	if clientID != "" {
		if _, err := s.verify(ctx, anyOf(models.UserAccounting, models.UserClient), clientID); err != nil {
			return decimal.Zero, err
		}
		ids = []string{clientID}
	} else {
		u, err := s.actor(ctx)
		if err != nil {
			return decimal.Zero, err
		}
		if u.Type != models.UserClient || u.Access == nil {
			return decimal.Zero, missing("client")
		}
		ids = u.Access
	}

	invoices, err := s.db.ListInvoices(ctx, database.InvoiceFilter{ClientIDs: ids})
	if err != nil {
		return decimal.Zero, err
	}
	payments, err := s.db.ListPayments(ctx, database.PaymentFilter{ClientIDs: ids})
	if err != nil {
		return decimal.Zero, err
	}

	owed := decimal.Zero
	for _, inv := range invoices {
		owed = owed.Add(inv.Total)
	}
	for _, p := range payments {
		owed = owed.Sub(p.Amount)
	}
	return owed, nil
}
