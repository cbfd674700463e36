package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jesses-code-adventures/tims/internal/database"
	"github.com/jesses-code-adventures/tims/internal/models"
)

// CreatePayment records money received from a client. Each transaction
// reference can only be recorded once.
func (s *TimesheetService) CreatePayment(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	p.Transaction = strings.TrimSpace(p.Transaction)
	if p.PaidAt == 0 {
		p.PaidAt = s.unix()
	}
	if err := check(p, ""); err != nil {
		return nil, err
	}
	if _, err := s.verify(ctx, anyOf(models.UserAccounting), p.ClientID); err != nil {
		return nil, err
	}
	if _, err := s.db.GetClient(ctx, p.ClientID); err != nil {
		return nil, lookupErr("client", p.ClientID, err)
	}

	p.ID = models.NewUUID()
	p.Created = s.unix()
	if err := s.db.CreatePayment(ctx, p); err != nil {
		return nil, duplicateErr("payment", "transaction", p.Transaction, err)
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id": p.ID,
		"client_id":  p.ClientID,
		"amount":     p.Amount.StringFixed(2),
	}).Info("payment recorded")
	return p, nil
}

// ListPayments lists payments made within rng, or all of them when rng is nil.
func (s *TimesheetService) ListPayments(ctx context.Context, clientID string, rng *database.Range) ([]*models.Payment, error) {
	ids, err := s.scopeFor(ctx, anyOf(models.UserAccounting, models.UserClient), clientID)
	if err != nil {
		return nil, err
	}
	return s.db.ListPayments(ctx, database.PaymentFilter{Range: rng, ClientIDs: ids})
}
