package database

import (
	"context"
	"fmt"

	"github.com/jesses-code-adventures/tims/internal/models"
)

const invoiceColumns = `id, client_id, identifier, start_at, end_at, subtotal, total, taxes, created, updated`

// CreateInvoice returns ErrUniqueViolation when the identifier is taken.
func (s *SQLDB) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	_, err := s.exec(ctx, `INSERT INTO invoices (`+invoiceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.ClientID, inv.Identifier, inv.Start, inv.End, inv.Subtotal, inv.Total, inv.Taxes,
		inv.Created, inv.Updated)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (s *SQLDB) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.get(ctx, &inv, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *SQLDB) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]*models.Invoice, error) {
	var where []string
	var args []any
	where, args = clientFilter(where, args, "client_id", filter.ClientIDs)
	where, args = rangeFilter(where, args, "created", filter.Range)

	var invoices []*models.Invoice
	if err := s.selectAll(ctx, &invoices, `SELECT `+invoiceColumns+` FROM invoices`+whereClause(where)+` ORDER BY created DESC, identifier`, args...); err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

// DeleteInvoice removes the invoice and its lines. Callers should run it
// inside WithTx.
func (s *SQLDB) DeleteInvoice(ctx context.Context, id string) error {
	if _, err := s.exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete invoice items: %w", err)
	}
	if _, err := s.exec(ctx, `DELETE FROM invoice_additional WHERE invoice_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete invoice additional lines: %w", err)
	}
	if err := s.execOne(ctx, `DELETE FROM invoices WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	return nil
}

func (s *SQLDB) CreateInvoiceItem(ctx context.Context, item *models.InvoiceItem) error {
	_, err := s.exec(ctx, `INSERT INTO invoice_items (id, invoice_id, project_id, minutes, amount, created)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.InvoiceID, item.ProjectID, item.Minutes, item.Amount, item.Created)
	if err != nil {
		return fmt.Errorf("failed to create invoice item: %w", err)
	}
	return nil
}

func (s *SQLDB) ListInvoiceItems(ctx context.Context, invoiceID string) ([]models.InvoiceItem, error) {
	items := []models.InvoiceItem{}
	if err := s.selectAll(ctx, &items, `SELECT i.id, i.invoice_id, i.project_id, p.name AS project_name,
		i.minutes, i.amount, i.created
	FROM invoice_items i
	JOIN projects p ON p.id = i.project_id
	WHERE i.invoice_id = ?
	ORDER BY p.name`, invoiceID); err != nil {
		return nil, fmt.Errorf("failed to list invoice items: %w", err)
	}
	return items, nil
}

func (s *SQLDB) CreateInvoiceAdditional(ctx context.Context, a *models.InvoiceAdditional) error {
	_, err := s.exec(ctx, `INSERT INTO invoice_additional (id, invoice_id, text, type, amount, created)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.InvoiceID, a.Text, string(a.Type), a.Amount, a.Created)
	if err != nil {
		return fmt.Errorf("failed to create invoice additional line: %w", err)
	}
	return nil
}

func (s *SQLDB) ListInvoiceAdditional(ctx context.Context, invoiceID string) ([]models.InvoiceAdditional, error) {
	lines := []models.InvoiceAdditional{}
	if err := s.selectAll(ctx, &lines, `SELECT id, invoice_id, text, type, amount, created
		FROM invoice_additional WHERE invoice_id = ? ORDER BY created, id`, invoiceID); err != nil {
		return nil, fmt.Errorf("failed to list invoice additional lines: %w", err)
	}
	return lines, nil
}

// CreatePayment returns ErrUniqueViolation for a repeated transaction.
func (s *SQLDB) CreatePayment(ctx context.Context, p *models.Payment) error {
	_, err := s.exec(ctx, `INSERT INTO payments (id, client_id, transaction_ref, amount, paid_at, created)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.ClientID, p.Transaction, p.Amount, p.PaidAt, p.Created)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (s *SQLDB) ListPayments(ctx context.Context, filter PaymentFilter) ([]*models.Payment, error) {
	var where []string
	var args []any
	where, args = clientFilter(where, args, "client_id", filter.ClientIDs)
	where, args = rangeFilter(where, args, "paid_at", filter.Range)

	var payments []*models.Payment
	if err := s.selectAll(ctx, &payments, `SELECT id, client_id, transaction_ref, amount, paid_at, created
		FROM payments`+whereClause(where)+` ORDER BY paid_at DESC`, args...); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
