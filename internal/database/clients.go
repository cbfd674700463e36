package database

import (
	"context"
	"fmt"

	"github.com/jesses-code-adventures/tims/internal/models"
)

const clientColumns = `id, name, rate, task_minimum, task_overflow, due, taxes,
	address1, address2, city, division, country, postal_code, archived, created, updated`

func (s *SQLDB) CreateClient(ctx context.Context, c *models.Client) error {
	_, err := s.exec(ctx, `INSERT INTO clients (`+clientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Rate, c.TaskMinimum, c.TaskOverflow, c.Due, c.Taxes,
		c.Address1, c.Address2, c.City, c.Division, c.Country, c.PostalCode,
		c.Archived, c.Created, c.Updated)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

func (s *SQLDB) GetClient(ctx context.Context, id string) (*models.Client, error) {
	var c models.Client
	if err := s.get(ctx, &c, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLDB) GetClientByName(ctx context.Context, name string) (*models.Client, error) {
	var c models.Client
	if err := s.get(ctx, &c, `SELECT `+clientColumns+` FROM clients WHERE name = ?`, name); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLDB) ListClients(ctx context.Context, ids []string, archived bool) ([]*models.Client, error) {
	var where []string
	var args []any
	if !archived {
		where = append(where, "archived = ?")
		args = append(args, false)
	}
	where, args = clientFilter(where, args, "id", ids)

	var clients []*models.Client
	if err := s.selectAll(ctx, &clients, `SELECT `+clientColumns+` FROM clients`+whereClause(where)+` ORDER BY name`, args...); err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

func (s *SQLDB) UpdateClient(ctx context.Context, c *models.Client) error {
	err := s.execOne(ctx, `UPDATE clients SET name = ?, rate = ?, task_minimum = ?, task_overflow = ?,
		due = ?, taxes = ?, address1 = ?, address2 = ?, city = ?, division = ?, country = ?,
		postal_code = ?, archived = ?, updated = ? WHERE id = ?`,
		c.Name, c.Rate, c.TaskMinimum, c.TaskOverflow, c.Due, c.Taxes,
		c.Address1, c.Address2, c.City, c.Division, c.Country, c.PostalCode,
		c.Archived, c.Updated, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return nil
}
