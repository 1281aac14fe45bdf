package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rosterhq/roster/internal/config"
	"github.com/rosterhq/roster/internal/model"
	"github.com/rosterhq/roster/internal/password"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// maxPage keeps page*size well inside int range.
	maxPage = 1 << 24
)

// UserStore is the persistence the user lifecycle needs. *config.Store
// satisfies it.
type UserStore interface {
	GetAdminByAdminID(ctx context.Context, adminID string) (*model.Admin, error)
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, adminPK int64, username string) (*model.User, error)
	ListUsers(ctx context.Context, adminPK int64, limit, offset int) ([]model.User, error)
	CountUsers(ctx context.Context, adminPK int64) (int64, error)
	UpdateUserRankAndArea(ctx context.Context, id int64, rank, area string) error
	RenameUser(ctx context.Context, id int64, newUsername string) error
	UpdateUser(ctx context.Context, id int64, username, rank, area string) error
	DeleteUser(ctx context.Context, id int64) error
}

// AddUserInput carries the fields for a new user.
type AddUserInput struct {
	AdminID       string
	Username      string
	Password      string
	Rank          string
	AreaOfWorking string
}

// UserService manages the users owned by each admin. Every operation is
// scoped to one admin; usernames are unique only within that scope.
type UserService struct {
	store  UserStore
	hasher password.Hasher
	logger *slog.Logger
}

func NewUserService(store UserStore, hasher password.Hasher, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{store: store, hasher: hasher, logger: logger}
}

// AddUser creates a user under the given admin.
func (s *UserService) AddUser(ctx context.Context, in AddUserInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.AdminID == "" || in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: adminId, username and password are required", ErrValidation)
	}

	admin, err := s.admin(ctx, in.AdminID)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		AdminPK:       admin.ID,
		Username:      in.Username,
		PasswordHash:  hash,
		Rank:          in.Rank,
		AreaOfWorking: in.AreaOfWorking,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, config.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, err
	}
	s.logger.Info("user added", "admin_id", in.AdminID, "username", user.Username)
	return user, nil
}

// DeleteUser removes exactly one user owned by the admin.
func (s *UserService) DeleteUser(ctx context.Context, adminID, username string) error {
	user, err := s.user(ctx, adminID, username)
	if err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, user.ID); err != nil {
		return notFoundAs(err, ErrUserNotFound)
	}
	s.logger.Info("user deleted", "admin_id", adminID, "username", user.Username)
	return nil
}

// UpdateUserRankAndArea overwrites a user's rank and area of working.
func (s *UserService) UpdateUserRankAndArea(ctx context.Context, adminID, username, rank, area string) error {
	user, err := s.user(ctx, adminID, username)
	if err != nil {
		return err
	}
	if err := s.store.UpdateUserRankAndArea(ctx, user.ID, rank, area); err != nil {
		return notFoundAs(err, ErrUserNotFound)
	}
	s.logger.Info("user updated", "admin_id", adminID, "username", user.Username)
	return nil
}

// RenameUser changes a user's username within the same admin.
func (s *UserService) RenameUser(ctx context.Context, adminID, username, newUsername string) error {
	newUsername = strings.TrimSpace(newUsername)
	if newUsername == "" {
		return fmt.Errorf("%w: new username is required", ErrValidation)
	}
	user, err := s.user(ctx, adminID, username)
	if err != nil {
		return err
	}
	if err := s.store.RenameUser(ctx, user.ID, newUsername); err != nil {
		if errors.Is(err, config.ErrConflict) {
			return ErrConflict
		}
		return notFoundAs(err, ErrUserNotFound)
	}
	s.logger.Info("user renamed", "admin_id", adminID, "from", user.Username, "to", newUsername)
	return nil
}

// UpdateUser sets rank, area and, when newUsername is non-empty, the username
// in a single write. On a username conflict nothing changes.
func (s *UserService) UpdateUser(ctx context.Context, adminID, username, rank, area, newUsername string) error {
	user, err := s.user(ctx, adminID, username)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(newUsername)
	if name == "" {
		name = user.Username
	}
	if err := s.store.UpdateUser(ctx, user.ID, name, rank, area); err != nil {
		if errors.Is(err, config.ErrConflict) {
			return ErrConflict
		}
		return notFoundAs(err, ErrUserNotFound)
	}
	s.logger.Info("user updated", "admin_id", adminID, "username", user.Username, "new_username", name)
	return nil
}

// ListUsers returns one zero-based page of the admin's users in creation
// order. Out-of-range paging parameters are clamped rather than rejected.
func (s *UserService) ListUsers(ctx context.Context, adminID string, page, size int) (*model.Page[model.User], error) {
	page, size = clampPage(page, size)

	admin, err := s.admin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	total, err := s.store.CountUsers(ctx, admin.ID)
	if err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx, admin.ID, size, page*size)
	if err != nil {
		return nil, err
	}
	return model.NewPage(users, page, size, total), nil
}

func clampPage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if page > maxPage {
		page = maxPage
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

func (s *UserService) admin(ctx context.Context, adminID string) (*model.Admin, error) {
	admin, err := s.store.GetAdminByAdminID(ctx, adminID)
	if err != nil {
		return nil, notFoundAs(err, ErrAdminNotFound)
	}
	return admin, nil
}

// user resolves username under adminID. Surrounding whitespace is ignored,
// matching how AddUser stores names.
func (s *UserService) user(ctx context.Context, adminID, username string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	admin, err := s.admin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, admin.ID, username)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	return user, nil
}

// notFoundAs translates the store's ErrNotFound into the domain error target.
func notFoundAs(err, target error) error {
	if errors.Is(err, config.ErrNotFound) {
		return target
	}
	return err
}
