package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/jesses-code-adventures/tims/internal/database"
	"github.com/jesses-code-adventures/tims/internal/models"
)

// CompanyUpdate changes the company details. A non-nil Taxes replaces the
// whole tax list, keeping its order; an empty list removes every tax.
type CompanyUpdate struct {
	Name    *string
	Address models.Address
	Taxes   []models.CompanyTax
}

func (s *TimesheetService) GetCompany(ctx context.Context) (*models.Company, error) {
	if _, err := s.actor(ctx); err != nil {
		return nil, err
	}
	c, err := s.db.GetCompany(ctx)
	if err != nil {
		return nil, lookupErr("company", "", err)
	}
	return c, nil
}

func (s *TimesheetService) UpdateCompany(ctx context.Context, update CompanyUpdate) (*models.Company, error) {
	if update.Name == nil && !addressSet(update.Address) && update.Taxes == nil {
		return nil, ErrNoChanges
	}
	if _, err := s.verify(ctx, adminOnly, ""); err != nil {
		return nil, err
	}

	var c *models.Company
	err := s.db.WithTx(ctx, func(tx database.DB) error {
		var err error
		if c, err = tx.GetCompany(ctx); err != nil {
			return lookupErr("company", "", err)
		}

		if update.Name != nil {
			c.Name = strings.TrimSpace(*update.Name)
		}
		mergeAddress(&c.Address, update.Address)
		if err := check(c, ""); err != nil {
			return err
		}
		c.Updated = s.unix()
		if err := tx.UpdateCompany(ctx, c); err != nil {
			return err
		}

		if update.Taxes == nil {
			return nil
		}
		var fields []models.FieldError
		for i := range update.Taxes {
			update.Taxes[i].Name = strings.TrimSpace(update.Taxes[i].Name)
			fields = append(fields, models.Check(&update.Taxes[i], "taxes."+strconv.Itoa(i))...)
		}
		if len(fields) > 0 {
			return &ValidationError{Fields: fields}
		}
		if err := tx.ReplaceCompanyTaxes(ctx, c.ID, update.Taxes); err != nil {
			return err
		}
		c.Taxes = update.Taxes
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
