package database

import (
	"context"
	"fmt"

	"github.com/jesses-code-adventures/tims/internal/models"
)

const companyColumns = `id, name, address1, address2, city, division, country, postal_code, created, updated`

// GetCompany returns the single company record along with its taxes.
func (s *SQLDB) GetCompany(ctx context.Context) (*models.Company, error) {
	var c models.Company
	if err := s.get(ctx, &c, `SELECT `+companyColumns+` FROM company ORDER BY created LIMIT 1`); err != nil {
		return nil, err
	}
	taxes, err := s.ListCompanyTaxes(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Taxes = taxes
	return &c, nil
}

func (s *SQLDB) CreateCompany(ctx context.Context, c *models.Company) error {
	_, err := s.exec(ctx, `INSERT INTO company (`+companyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Address1, c.Address2, c.City, c.Division, c.Country, c.PostalCode, c.Created, c.Updated)
	if err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

func (s *SQLDB) UpdateCompany(ctx context.Context, c *models.Company) error {
	err := s.execOne(ctx, `UPDATE company SET name = ?, address1 = ?, address2 = ?, city = ?, division = ?,
		country = ?, postal_code = ?, updated = ? WHERE id = ?`,
		c.Name, c.Address1, c.Address2, c.City, c.Division, c.Country, c.PostalCode, c.Updated, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}
	return nil
}

func (s *SQLDB) ListCompanyTaxes(ctx context.Context, companyID string) ([]models.CompanyTax, error) {
	taxes := []models.CompanyTax{}
	if err := s.selectAll(ctx, &taxes, `SELECT id, company_id, sort_order, name, percentage
		FROM company_taxes WHERE company_id = ? ORDER BY sort_order`, companyID); err != nil {
		return nil, fmt.Errorf("failed to list company taxes: %w", err)
	}
	return taxes, nil
}

// ReplaceCompanyTaxes swaps the whole tax list, keeping the given order.
// Callers should run it inside WithTx.
func (s *SQLDB) ReplaceCompanyTaxes(ctx context.Context, companyID string, taxes []models.CompanyTax) error {
	if _, err := s.exec(ctx, `DELETE FROM company_taxes WHERE company_id = ?`, companyID); err != nil {
		return fmt.Errorf("failed to clear company taxes: %w", err)
	}
	for i := range taxes {
		t := &taxes[i]
		if t.ID == "" {
			t.ID = models.NewUUID()
		}
		t.CompanyID = companyID
		t.SortOrder = i
		if _, err := s.exec(ctx, `INSERT INTO company_taxes (id, company_id, sort_order, name, percentage)
			VALUES (?, ?, ?, ?, ?)`, t.ID, t.CompanyID, t.SortOrder, t.Name, t.Percentage); err != nil {
			return fmt.Errorf("failed to create company tax: %w", err)
		}
	}
	return nil
}
