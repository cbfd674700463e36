package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/jesses-code-adventures/tims/internal/database"
	"github.com/jesses-code-adventures/tims/internal/models"
)

func UserKey(id string) string {
	return "user:" + id
}

// UserCache decorates a database.DB. Reads of CachedUser go through the
// store; writes to users and access rows delete the affected entry. Inside a
// transaction deletes are deferred until commit and nothing is stored.
type UserCache struct {
	database.DB
	store   Store
	logger  *logrus.Entry
	pending map[string]struct{}
}

func NewUserCache(db database.DB, store Store, logger *logrus.Logger) *UserCache {
	return &UserCache{DB: db, store: store, logger: logger.WithField("component", "cache")}
}

// CachedUser returns the user projection without the password hash. Errors
// from the underlying store are logged and fall back to the database.
// Inside a transaction the store is bypassed, since its entries may predate
// writes the transaction has made.
func (c *UserCache) CachedUser(ctx context.Context, id string) (*models.CachedUser, error) {
	log := c.logger.WithField("user_id", id)
	if c.pending != nil {
		return c.load(ctx, id)
	}

	b, err := c.store.Get(ctx, UserKey(id))
	switch {
	case err == nil:
		var u models.CachedUser
		if err := json.Unmarshal(b, &u); err == nil {
			return &u, nil
		}
		log.Warn("discarding unreadable cached user")
	case !errors.Is(err, ErrMiss):
		log.WithError(err).Warn("user cache read failed")
	}

	u, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(u); err == nil {
		if err := c.store.Set(ctx, UserKey(id), b); err != nil {
			log.WithError(err).Warn("user cache write failed")
		}
	}
	return u, nil
}

func (c *UserCache) load(ctx context.Context, id string) (*models.CachedUser, error) {
	user, err := c.DB.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	u := &models.CachedUser{
		ID:       user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Locale:   user.Locale,
		Type:     user.Type,
		Verified: user.Verified,
		Archived: user.Archived,
	}
	if user.Type == models.UserAdmin {
		return u, nil
	}

	access, err := c.DB.ListAccess(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, a := range access {
		u.Access = append(u.Access, a.ClientID)
	}
	return u, nil
}

func (c *UserCache) Invalidate(ctx context.Context, ids ...string) error {
	if c.pending != nil {
		for _, id := range ids {
			c.pending[id] = struct{}{}
		}
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = UserKey(id)
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to invalidate cached user: %w", err)
	}
	return nil
}

func (c *UserCache) WithTx(ctx context.Context, fn func(tx database.DB) error) error {
	if c.pending != nil {
		return fn(c)
	}

	pending := make(map[string]struct{})
	err := c.DB.WithTx(ctx, func(tx database.DB) error {
		return fn(&UserCache{DB: tx, store: c.store, logger: c.logger, pending: pending})
	})
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	return c.Invalidate(ctx, slices.Collect(maps.Keys(pending))...)
}

func (c *UserCache) UpdateUser(ctx context.Context, u *models.User) error {
	if err := c.DB.UpdateUser(ctx, u); err != nil {
		return err
	}
	return c.Invalidate(ctx, u.ID)
}

func (c *UserCache) CreateAccess(ctx context.Context, a *models.Access) error {
	if err := c.DB.CreateAccess(ctx, a); err != nil {
		return err
	}
	return c.Invalidate(ctx, a.UserID)
}

func (c *UserCache) DeleteAccess(ctx context.Context, userID, clientID string) error {
	if err := c.DB.DeleteAccess(ctx, userID, clientID); err != nil {
		return err
	}
	return c.Invalidate(ctx, userID)
}
