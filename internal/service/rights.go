package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jesses-code-adventures/tims/internal/database"
	"github.com/jesses-code-adventures/tims/internal/models"
)

type actorKey struct{}

// WithUser marks ctx as acting on behalf of the user with the given ID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

func UserFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(actorKey{}).(string)
	return id, ok && id != ""
}

// actor loads the signed in user from the cache.
func (s *TimesheetService) actor(ctx context.Context) (*models.CachedUser, error) {
	id, ok := UserFromContext(ctx)
	if !ok {
		return nil, ErrNotSignedIn
	}
	u, err := s.users.CachedUser(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return nil, ErrNotSignedIn
		}
		return nil, fmt.Errorf("failed to load signed in user: %w", err)
	}
	if u.Archived {
		return nil, ErrRights
	}
	return u, nil
}

// verify checks the signed in user against a list of allowed types (nil
// allows any type) and, when clientID is set, against the user's client
// access. Admins always pass.
func (s *TimesheetService) verify(ctx context.Context, types []models.UserType, clientID string) (*models.CachedUser, error) {
	u, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if u.Type == models.UserAdmin {
		return u, nil
	}
	if types != nil && !slices.Contains(types, u.Type) {
		return nil, ErrRights
	}
	if clientID != "" && !u.CanAccess(clientID) {
		return nil, ErrRights
	}
	return u, nil
}

// scope returns the clients a listing should be restricted to. nil means
// every client; a non-nil empty slice means none.
func scope(u *models.CachedUser) []string {
	if u.Type == models.UserAdmin {
		return nil
	}
	if u.Access == nil {
		if u.Type == models.UserClient {
			return []string{}
		}
		return nil
	}
	return u.Access
}

// scopeFor narrows scope(u) to a single requested client. It fails when the
// user cannot see that client.
func (s *TimesheetService) scopeFor(ctx context.Context, types []models.UserType, clientID string) ([]string, error) {
	if clientID != "" {
		if _, err := s.verify(ctx, types, clientID); err != nil {
			return nil, err
		}
		return []string{clientID}, nil
	}
	u, err := s.verify(ctx, types, "")
	if err != nil {
		return nil, err
	}
	return scope(u), nil
}

func anyOf(t ...models.UserType) []models.UserType {
	return t
}
