package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rosterhq/roster/internal/model"
)

const adminColumns = `id, admin_id, name, rank_name, area_of_working, password_hash,
	password_changed, first_login, is_active, created_at, updated_at`

// CreateAdmin inserts a new admin account. The ID, CreatedAt, and UpdatedAt
// fields are populated after a successful insert. A duplicate admin_id
// returns an error wrapping ErrConflict.
func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	now := time.Now().UTC()
	admin.CreatedAt = now
	admin.UpdatedAt = now

	const q = `INSERT INTO admins
		(admin_id, name, rank_name, area_of_working, password_hash,
		 password_changed, first_login, is_active, created_at, updated_at)
		VALUES
		(:admin_id, :name, :rank_name, :area_of_working, :password_hash,
		 :password_changed, :first_login, :is_active, :created_at, :updated_at)`

	id, err := s.insert(ctx, q, admin)
	if err != nil {
		return writeErr("insert admin", err)
	}
	admin.ID = id
	return nil
}

// GetAdminByAdminID returns an admin by its business key.
func (s *Store) GetAdminByAdminID(ctx context.Context, adminID string) (*model.Admin, error) {
	var admin model.Admin
	q := s.db.Rebind("SELECT " + adminColumns + " FROM admins WHERE admin_id = ?")
	if err := s.db.GetContext(ctx, &admin, q, adminID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &admin, nil
}

// GetAdminByName returns the admin with the given display name. Names are not
// unique; the earliest-created match wins.
func (s *Store) GetAdminByName(ctx context.Context, name string) (*model.Admin, error) {
	var admin model.Admin
	q := s.db.Rebind("SELECT " + adminColumns + " FROM admins WHERE name = ? ORDER BY id LIMIT 1")
	if err := s.db.GetContext(ctx, &admin, q, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin by name: %w", err)
	}
	return &admin, nil
}

// ListAdmins returns all admin accounts in creation order.
func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	admins := []model.Admin{}
	if err := s.db.SelectContext(ctx, &admins, "SELECT "+adminColumns+" FROM admins ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// CountAdmins returns the number of admin accounts.
func (s *Store) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM admins"); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return count, nil
}

// HasAnyAdmin reports whether at least one admin account exists. serve uses
// it to warn when startup left the store without any account.
func (s *Store) HasAnyAdmin(ctx context.Context) (bool, error) {
	count, err := s.CountAdmins(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateAdminPassword replaces the password hash and marks the password as
// changed, clearing first-login state in the same statement.
func (s *Store) UpdateAdminPassword(ctx context.Context, adminID, passwordHash string) error {
	q := s.db.Rebind(`UPDATE admins SET
		password_hash = ?, password_changed = ?, first_login = ?, updated_at = ?
		WHERE admin_id = ?`)
	result, err := s.db.ExecContext(ctx, q, passwordHash, true, false, time.Now().UTC(), adminID)
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	return expectOne(result, "update admin password")
}

// SetAdminActive activates or deactivates an admin account.
func (s *Store) SetAdminActive(ctx context.Context, adminID string, active bool) error {
	q := s.db.Rebind("UPDATE admins SET is_active = ?, updated_at = ? WHERE admin_id = ?")
	result, err := s.db.ExecContext(ctx, q, active, time.Now().UTC(), adminID)
	if err != nil {
		return fmt.Errorf("set admin active: %w", err)
	}
	return expectOne(result, "set admin active")
}

// DeleteAdmin removes an admin and every user it owns within one transaction.
// It returns the number of users removed alongside the admin.
func (s *Store) DeleteAdmin(ctx context.Context, adminID string) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var pk int64
	if err := tx.GetContext(ctx, &pk, tx.Rebind("SELECT id FROM admins WHERE admin_id = ?"), adminID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("get admin for delete: %w", err)
	}

	result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM users WHERE admin_pk = ?"), pk)
	if err != nil {
		return 0, fmt.Errorf("delete admin users: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete admin users rows affected: %w", err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM admins WHERE id = ?"), pk); err != nil {
		return 0, fmt.Errorf("delete admin: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete admin: %w", err)
	}
	return removed, nil
}
