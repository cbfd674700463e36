package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/jesses-code-adventures/tims/internal/database"
	"github.com/jesses-code-adventures/tims/internal/models"
)

const (
	keyAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	keyLength     = 32
	defaultLocale = "en-US"
)

// UserUpdate lists the user fields to change. Nil fields are kept.
type UserUpdate struct {
	Email  *string
	Name   *string
	Locale *string
	Type   *models.UserType
}

func newKey() string {
	return randomString(keyAlphabet, keyLength)
}

// randomString draws n characters from alphabet using crypto/rand. Bytes
// past the largest multiple of len(alphabet) are discarded so every
// character is equally likely.
func randomString(alphabet string, n int) string {
	limit := 256 - 256%len(alphabet)
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("failed to read random bytes: %v", err))
		}
		for _, b := range buf {
			if int(b) < limit && len(out) < n {
				out = append(out, alphabet[int(b)%len(alphabet)])
			}
		}
	}
	return string(out)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checkPasswordStrength requires at least 8 characters with an upper case
// letter, a lower case letter and a digit.
func checkPasswordStrength(passwd string) error {
	var upper, lower, digit bool
	for _, r := range passwd {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if len([]rune(passwd)) < 8 || !upper || !lower || !digit {
		return ErrPasswordStrength
	}
	return nil
}

func hashPassword(passwd string) (string, error) {
	if err := checkPasswordStrength(passwd); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passwd), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// passwordMatches is false for users who never set a password.
func passwordMatches(u *models.User, passwd string) bool {
	if u.Passwd == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Passwd), []byte(passwd)) == nil
}

// createKey returns the user's existing key of that type, or makes a new one.
func (s *TimesheetService) createKey(ctx context.Context, db database.DB, userID string, keyType models.KeyType) (*models.Key, error) {
	existing, err := db.GetKeyByUser(ctx, userID, keyType)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, database.ErrNoRows) {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	for attempt := 1; ; attempt++ {
		k := &models.Key{ID: s.newKey(), UserID: userID, Type: keyType, Created: s.unix()}
		err := db.CreateKey(ctx, k)
		if err == nil {
			return k, nil
		}
		if !errors.Is(err, database.ErrUniqueViolation) || attempt >= maxIdentifierAttempts {
			return nil, err
		}
		s.logger.WithFields(logrus.Fields{
			"user_id":  userID,
			"key_type": keyType,
			"attempt":  attempt,
		}).Warn("key collision, retrying")
	}
}

// self passes when the signed in user is id, or is a manager.
func (s *TimesheetService) self(ctx context.Context, id string) (*models.CachedUser, error) {
	u, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if u.ID == id {
		return u, nil
	}
	return s.verify(ctx, anyOf(models.UserManager), "")
}

func (s *TimesheetService) getUser(ctx context.Context, db database.DB, id string) (*models.User, error) {
	u, err := db.GetUser(ctx, id)
	if err != nil {
		return nil, lookupErr("user", id, err)
	}
	return u, nil
}

// CreateUser adds a user who cannot sign in until the returned setup key is
// used to choose a password.
func (s *TimesheetService) CreateUser(ctx context.Context, email, name string, userType models.UserType) (*models.User, *models.Key, error) {
	actor, err := s.verify(ctx, anyOf(models.UserManager), "")
	if err != nil {
		return nil, nil, err
	}
	if userType == models.UserAdmin && actor.Type != models.UserAdmin {
		return nil, nil, ErrRights
	}

	now := s.unix()
	u := &models.User{
		ID:      models.NewUUID(),
		Email:   normalizeEmail(email),
		Name:    strings.TrimSpace(name),
		Locale:  defaultLocale,
		Type:    userType,
		Created: now,
		Updated: now,
	}
	if err := check(u, ""); err != nil {
		return nil, nil, err
	}

	var key *models.Key
	err = s.db.WithTx(ctx, func(tx database.DB) error {
		if err := tx.CreateUser(ctx, u); err != nil {
			return duplicateErr("user", "email", u.Email, err)
		}
		var err error
		key, err = s.createKey(ctx, tx, u.ID, models.KeySetup)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": u.ID, "type": u.Type}).Info("user created")
	return u, key, nil
}

func (s *TimesheetService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if _, err := s.self(ctx, id); err != nil {
		return nil, err
	}
	return s.getUser(ctx, s.db, id)
}

func (s *TimesheetService) ListUsers(ctx context.Context, archived bool) ([]*models.User, error) {
	if _, err := s.verify(ctx, anyOf(models.UserManager), ""); err != nil {
		return nil, err
	}
	return s.db.ListUsers(ctx, archived)
}

// UpdateUser changes a user. A new email address is unverified until the
// returned verify key is used; the key is nil otherwise.
func (s *TimesheetService) UpdateUser(ctx context.Context, id string, update UserUpdate) (*models.User, *models.Key, error) {
	if update.Email == nil && update.Name == nil && update.Locale == nil && update.Type == nil {
		return nil, nil, ErrNoChanges
	}
	actor, err := s.self(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if update.Type != nil {
		if _, err := s.verify(ctx, anyOf(models.UserManager), ""); err != nil {
			return nil, nil, err
		}
		if *update.Type == models.UserAdmin && actor.Type != models.UserAdmin {
			return nil, nil, ErrRights
		}
	}

	var u *models.User
	var key *models.Key
	err = s.db.WithTx(ctx, func(tx database.DB) error {
		var err error
		if u, err = s.getUser(ctx, tx, id); err != nil {
			return err
		}
		// a new email would let a reset key take over the account
		if u.Type == models.UserAdmin && actor.Type != models.UserAdmin {
			return ErrRights
		}

		emailChanged := false
		if update.Email != nil {
			email := normalizeEmail(*update.Email)
			emailChanged = email != u.Email
			u.Email = email
		}
		if update.Name != nil {
			u.Name = strings.TrimSpace(*update.Name)
		}
		if update.Locale != nil {
			u.Locale = *update.Locale
		}
		if update.Type != nil {
			u.Type = *update.Type
		}
		if err := check(u, ""); err != nil {
			return err
		}

		if emailChanged {
			u.Verified = false
		}
		u.Updated = s.unix()
		if err := tx.UpdateUser(ctx, u); err != nil {
			return duplicateErr("user", "email", u.Email, err)
		}
		if emailChanged {
			key, err = s.createKey(ctx, tx, u.ID, models.KeyVerify)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return u, key, nil
}

// ArchiveUser stops a user from signing in. Users cannot archive themselves.
func (s *TimesheetService) ArchiveUser(ctx context.Context, id string) error {
	actor, err := s.verify(ctx, anyOf(models.UserManager), "")
	if err != nil {
		return err
	}
	if actor.ID == id {
		return invalid("id", "cannot archive yourself")
	}
	u, err := s.getUser(ctx, s.db, id)
	if err != nil {
		return err
	}
	if u.Type == models.UserAdmin && actor.Type != models.UserAdmin {
		return ErrRights
	}
	u.Archived = true
	u.Updated = s.unix()
	return s.db.UpdateUser(ctx, u)
}

// ChangePassword sets a new password. Users changing their own password must
// give the current one; managers changing someone else's do not.
func (s *TimesheetService) ChangePassword(ctx context.Context, id, current, passwd string) error {
	actor, err := s.self(ctx, id)
	if err != nil {
		return err
	}
	u, err := s.getUser(ctx, s.db, id)
	if err != nil {
		return err
	}
	if actor.ID == id && !passwordMatches(u, current) {
		return ErrInvalidCredentials
	}
	if u.Type == models.UserAdmin && actor.Type != models.UserAdmin {
		return ErrRights
	}

	hash, err := hashPassword(passwd)
	if err != nil {
		return err
	}
	u.Passwd = hash
	u.Updated = s.unix()
	return s.db.UpdateUser(ctx, u)
}

// AddAccess restricts a user to a client, on top of any clients they can
// already see. Adding the same client twice returns the existing row.
func (s *TimesheetService) AddAccess(ctx context.Context, userID, clientID string) (*models.Access, error) {
	var absent []string
	if userID == "" {
		absent = append(absent, "user_id")
	}
	if clientID == "" {
		absent = append(absent, "client_id")
	}
	if len(absent) > 0 {
		return nil, missing(absent...)
	}
	if _, err := s.verify(ctx, anyOf(models.UserManager), clientID); err != nil {
		return nil, err
	}
	if _, err := s.getUser(ctx, s.db, userID); err != nil {
		return nil, err
	}
	c, err := s.db.GetClient(ctx, clientID)
	if err != nil {
		return nil, lookupErr("client", clientID, err)
	}

	access, err := s.db.ListAccess(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, a := range access {
		if a.ClientID == clientID {
			return a, nil
		}
	}

	a := &models.Access{
		ID:         models.NewUUID(),
		UserID:     userID,
		ClientID:   clientID,
		ClientName: c.Name,
		Created:    s.unix(),
	}
	if err := s.db.CreateAccess(ctx, a); err != nil {
		return nil, duplicateErr("access", "client_id", clientID, err)
	}
	return a, nil
}

func (s *TimesheetService) RemoveAccess(ctx context.Context, userID, clientID string) error {
	if _, err := s.verify(ctx, anyOf(models.UserManager), clientID); err != nil {
		return err
	}
	if err := s.db.DeleteAccess(ctx, userID, clientID); err != nil {
		return lookupErr("access", userID+"/"+clientID, err)
	}
	return nil
}

func (s *TimesheetService) RemoveAccessByID(ctx context.Context, id string) error {
	if _, err := s.verify(ctx, anyOf(models.UserManager), ""); err != nil {
		return err
	}
	a, err := s.db.GetAccess(ctx, id)
	if err != nil {
		return lookupErr("access", id, err)
	}
	return s.RemoveAccess(ctx, a.UserID, a.ClientID)
}

func (s *TimesheetService) ListAccess(ctx context.Context, userID string) ([]*models.Access, error) {
	if _, err := s.self(ctx, userID); err != nil {
		return nil, err
	}
	return s.db.ListAccess(ctx, userID)
}
