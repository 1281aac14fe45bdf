package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rosterhq/roster/internal/model"
)

const userColumns = `id, admin_pk, username, password_hash, rank_name, area_of_working,
	created_at, updated_at`

// CreateUser inserts a user under the admin identified by user.AdminPK. A
// username already taken under the same admin returns an error wrapping
// ErrConflict.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	const q = `INSERT INTO users
		(admin_pk, username, password_hash, rank_name, area_of_working, created_at, updated_at)
		VALUES
		(:admin_pk, :username, :password_hash, :rank_name, :area_of_working, :created_at, :updated_at)`

	id, err := s.insert(ctx, q, user)
	if err != nil {
		return writeErr("insert user", err)
	}
	user.ID = id
	return nil
}

// GetUser returns the user with the given username owned by adminPK.
func (s *Store) GetUser(ctx context.Context, adminPK int64, username string) (*model.User, error) {
	var user model.User
	q := s.db.Rebind("SELECT " + userColumns + " FROM users WHERE admin_pk = ? AND username = ?")
	if err := s.db.GetContext(ctx, &user, q, adminPK, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// ListUsers returns up to limit users owned by adminPK, skipping offset rows,
// in primary-key order.
func (s *Store) ListUsers(ctx context.Context, adminPK int64, limit, offset int) ([]model.User, error) {
	users := []model.User{}
	q := s.db.Rebind("SELECT " + userColumns + " FROM users WHERE admin_pk = ? ORDER BY id LIMIT ? OFFSET ?")
	if err := s.db.SelectContext(ctx, &users, q, adminPK, limit, offset); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// CountUsers returns how many users adminPK owns.
func (s *Store) CountUsers(ctx context.Context, adminPK int64) (int64, error) {
	var count int64
	q := s.db.Rebind("SELECT COUNT(*) FROM users WHERE admin_pk = ?")
	if err := s.db.GetContext(ctx, &count, q, adminPK); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// UpdateUserRankAndArea overwrites the two classification fields of a user,
// leaving the username and password untouched.
func (s *Store) UpdateUserRankAndArea(ctx context.Context, id int64, rank, area string) error {
	q := s.db.Rebind("UPDATE users SET rank_name = ?, area_of_working = ?, updated_at = ? WHERE id = ?")
	result, err := s.db.ExecContext(ctx, q, rank, area, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return expectOne(result, "update user")
}

// RenameUser changes a user's username. Taking a name already used under the
// same admin returns an error wrapping ErrConflict.
func (s *Store) RenameUser(ctx context.Context, id int64, newUsername string) error {
	q := s.db.Rebind("UPDATE users SET username = ?, updated_at = ? WHERE id = ?")
	result, err := s.db.ExecContext(ctx, q, newUsername, time.Now().UTC(), id)
	if err != nil {
		return writeErr("rename user", err)
	}
	return expectOne(result, "rename user")
}

// UpdateUser sets username, rank and area in one statement, so a username
// conflict leaves every field unchanged.
func (s *Store) UpdateUser(ctx context.Context, id int64, username, rank, area string) error {
	q := s.db.Rebind("UPDATE users SET username = ?, rank_name = ?, area_of_working = ?, updated_at = ? WHERE id = ?")
	result, err := s.db.ExecContext(ctx, q, username, rank, area, time.Now().UTC(), id)
	if err != nil {
		return writeErr("update user", err)
	}
	return expectOne(result, "update user")
}

// DeleteUser removes a single user by ID.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM users WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOne(result, "delete user")
}
