package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jesses-code-adventures/tims/internal/database"
	"github.com/jesses-code-adventures/tims/internal/models"
)

// ResolveUser maps an email address to a user ID for WithUser.
func (s *TimesheetService) ResolveUser(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", ErrNotSignedIn
	}
	u, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return "", lookupErr("user", email, err)
	}
	return u.ID, nil
}

// SignIn checks a user's credentials. Unknown, archived and password-less
// users all fail the same way.
func (s *TimesheetService) SignIn(ctx context.Context, email, passwd string) (*models.User, error) {
	u, err := s.db.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, database.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.Archived || !passwordMatches(u, passwd) {
		s.logger.WithField("user_id", u.ID).Info("sign in rejected")
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// useKey loads a key of the given type and its user, runs fn on the user,
// saves it and deletes the key, all in one transaction.
func (s *TimesheetService) useKey(ctx context.Context, keyID string, keyType models.KeyType, fn func(u *models.User) error) (*models.User, error) {
	if keyID == "" {
		return nil, missing("key")
	}
	var u *models.User
	err := s.db.WithTx(ctx, func(tx database.DB) error {
		k, err := tx.GetKey(ctx, keyID)
		if errors.Is(err, database.ErrNoRows) {
			return ErrInvalidKey
		}
		if err != nil {
			return err
		}
		if k.Type != keyType {
			return ErrInvalidKey
		}
		if u, err = s.getUser(ctx, tx, k.UserID); err != nil {
			return err
		}
		if u.Archived {
			return ErrInvalidKey
		}
		if err := fn(u); err != nil {
			return err
		}
		u.Updated = s.unix()
		if err := tx.UpdateUser(ctx, u); err != nil {
			return err
		}
		return tx.DeleteKey(ctx, k.ID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"user_id": u.ID, "key_type": keyType}).Info("key used")
	return u, nil
}

// SetupAccount sets the first password of a new user from their setup key.
func (s *TimesheetService) SetupAccount(ctx context.Context, keyID, name, passwd string) (*models.User, error) {
	return s.useKey(ctx, keyID, models.KeySetup, func(u *models.User) error {
		hash, err := hashPassword(passwd)
		if err != nil {
			return err
		}
		u.Passwd = hash
		if name = strings.TrimSpace(name); name != "" {
			u.Name = name
		}
		u.Verified = true
		return check(u, "")
	})
}

func (s *TimesheetService) VerifyAccount(ctx context.Context, keyID string) (*models.User, error) {
	return s.useKey(ctx, keyID, models.KeyVerify, func(u *models.User) error {
		u.Verified = true
		return nil
	})
}

// ForgotPassword issues a forgot key. It is returned to the caller since
// nothing is sent by email.
func (s *TimesheetService) ForgotPassword(ctx context.Context, email string) (*models.Key, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, missing("email")
	}
	u, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, lookupErr("user", email, err)
	}
	if u.Archived {
		return nil, &NotFoundError{Kind: "user", ID: email}
	}
	return s.createKey(ctx, s.db, u.ID, models.KeyForgot)
}

func (s *TimesheetService) ResetPassword(ctx context.Context, keyID, passwd string) (*models.User, error) {
	return s.useKey(ctx, keyID, models.KeyForgot, func(u *models.User) error {
		hash, err := hashPassword(passwd)
		if err != nil {
			return err
		}
		u.Passwd = hash
		u.Verified = true
		return nil
	})
}

// AccountClients lists the clients the signed in user can see.
func (s *TimesheetService) AccountClients(ctx context.Context) ([]*models.Client, error) {
	u, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	return s.db.ListClients(ctx, scope(u), false)
}

// Install creates the first admin user and the company. It only runs on an
// empty database.
func (s *TimesheetService) Install(ctx context.Context, email, passwd, companyName string) (*models.User, error) {
	hash, err := hashPassword(passwd)
	if err != nil {
		return nil, err
	}

	now := s.unix()
	u := &models.User{
		ID:       models.NewUUID(),
		Email:    normalizeEmail(email),
		Passwd:   hash,
		Name:     "Admin",
		Locale:   defaultLocale,
		Type:     models.UserAdmin,
		Verified: true,
		Created:  now,
		Updated:  now,
	}
	company := &models.Company{
		ID:      models.NewUUID(),
		Name:    strings.TrimSpace(companyName),
		Created: now,
		Updated: now,
	}
	if err := check(u, ""); err != nil {
		return nil, err
	}
	if err := check(company, "company"); err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx database.DB) error {
		n, err := tx.CountUsers(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadyInstalled
		}
		if err := tx.CreateUser(ctx, u); err != nil {
			return err
		}
		return tx.CreateCompany(ctx, company)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": u.ID, "company_id": company.ID}).Info("installed")
	return u, nil
}
