package database

import (
	"context"
	"fmt"

	"github.com/jesses-code-adventures/tims/internal/models"
)

const userColumns = `id, email, passwd, name, locale, type, verified, archived, created, updated`

func (s *SQLDB) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Passwd, u.Name, u.Locale, string(u.Type), u.Verified, u.Archived, u.Created, u.Updated)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *SQLDB) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = ?`, email); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLDB) ListUsers(ctx context.Context, archived bool) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if !archived {
		query += ` WHERE archived = ?`
		args = append(args, false)
	}

	var users []*models.User
	if err := s.selectAll(ctx, &users, query+` ORDER BY email`, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *SQLDB) UpdateUser(ctx context.Context, u *models.User) error {
	err := s.execOne(ctx, `UPDATE users SET email = ?, passwd = ?, name = ?, locale = ?, type = ?,
		verified = ?, archived = ?, updated = ? WHERE id = ?`,
		u.Email, u.Passwd, u.Name, u.Locale, string(u.Type), u.Verified, u.Archived, u.Updated, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (s *SQLDB) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.get(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (s *SQLDB) CreateAccess(ctx context.Context, a *models.Access) error {
	_, err := s.exec(ctx, `INSERT INTO user_access (id, user_id, client_id, created) VALUES (?, ?, ?, ?)`,
		a.ID, a.UserID, a.ClientID, a.Created)
	if err != nil {
		return fmt.Errorf("failed to create access: %w", err)
	}
	return nil
}

func (s *SQLDB) GetAccess(ctx context.Context, id string) (*models.Access, error) {
	var a models.Access
	if err := s.get(ctx, &a, `SELECT a.id, a.user_id, a.client_id, c.name AS client_name, a.created
		FROM user_access a JOIN clients c ON c.id = a.client_id WHERE a.id = ?`, id); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *SQLDB) ListAccess(ctx context.Context, userID string) ([]*models.Access, error) {
	var access []*models.Access
	if err := s.selectAll(ctx, &access, `SELECT a.id, a.user_id, a.client_id, c.name AS client_name, a.created
		FROM user_access a JOIN clients c ON c.id = a.client_id
		WHERE a.user_id = ? ORDER BY c.name`, userID); err != nil {
		return nil, fmt.Errorf("failed to list access: %w", err)
	}
	return access, nil
}

func (s *SQLDB) DeleteAccess(ctx context.Context, userID, clientID string) error {
	if err := s.execOne(ctx, `DELETE FROM user_access WHERE user_id = ? AND client_id = ?`, userID, clientID); err != nil {
		return fmt.Errorf("failed to delete access: %w", err)
	}
	return nil
}

// CreateKey returns ErrUniqueViolation on an ID collision or when the user
// already holds a key of that type.
func (s *SQLDB) CreateKey(ctx context.Context, k *models.Key) error {
	_, err := s.exec(ctx, `INSERT INTO user_keys (id, user_id, type, created) VALUES (?, ?, ?, ?)`,
		k.ID, k.UserID, string(k.Type), k.Created)
	if err != nil {
		return fmt.Errorf("failed to create key: %w", err)
	}
	return nil
}

func (s *SQLDB) GetKey(ctx context.Context, id string) (*models.Key, error) {
	var k models.Key
	if err := s.get(ctx, &k, `SELECT id, user_id, type, created FROM user_keys WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &k, nil
}

func (s *SQLDB) GetKeyByUser(ctx context.Context, userID string, keyType models.KeyType) (*models.Key, error) {
	var k models.Key
	if err := s.get(ctx, &k, `SELECT id, user_id, type, created FROM user_keys WHERE user_id = ? AND type = ?`,
		userID, string(keyType)); err != nil {
		return nil, err
	}
	return &k, nil
}

func (s *SQLDB) DeleteKey(ctx context.Context, id string) error {
	if err := s.execOne(ctx, `DELETE FROM user_keys WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}
