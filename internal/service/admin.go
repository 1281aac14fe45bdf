package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/rosterhq/roster/internal/config"
	"github.com/rosterhq/roster/internal/importer"
	"github.com/rosterhq/roster/internal/model"
	"github.com/rosterhq/roster/internal/password"
)

// DefaultImportPassword is assigned to admins created by bulk import when no
// other default is configured.
const DefaultImportPassword = "Admin@123456"

// AdminStore is the persistence the admin lifecycle needs. *config.Store
// satisfies it.
type AdminStore interface {
	CreateAdmin(ctx context.Context, admin *model.Admin) error
	GetAdminByAdminID(ctx context.Context, adminID string) (*model.Admin, error)
	GetAdminByName(ctx context.Context, name string) (*model.Admin, error)
	ListAdmins(ctx context.Context) ([]model.Admin, error)
	UpdateAdminPassword(ctx context.Context, adminID, passwordHash string) error
	SetAdminActive(ctx context.Context, adminID string, active bool) error
	DeleteAdmin(ctx context.Context, adminID string) (int64, error)
}

// DevLogin is a fixed credential pair that authenticates as super admin
// without a store lookup. It is ignored unless Enabled is set.
type DevLogin struct {
	Enabled  bool
	Username string
	Password string
	AdminID  string
}

// AdminOptions configures an AdminService.
type AdminOptions struct {
	DefaultPassword string
	DevLogin        DevLogin
	// SuperAdminID names the stored account that logs in as SUPER_ADMIN,
	// normally the bootstrap account. Empty means every stored admin is ADMIN.
	SuperAdminID string
}

// LoginResult is the outcome of a successful Authenticate.
type LoginResult struct {
	Role                string
	AdminID             string
	NeedsPasswordChange bool
	Token               string
}

// CreateAdminInput carries the fields for a manually created admin.
type CreateAdminInput struct {
	AdminID       string
	Name          string
	Rank          string
	AreaOfWorking string
	Password      string
}

// AdminService implements the admin account lifecycle: bulk import, login,
// and password changes.
type AdminService struct {
	store           AdminStore
	hasher          password.Hasher
	auth            *AuthService
	logger          *slog.Logger
	defaultPassword string
	devLogin        DevLogin
	superAdminID    string

	dummyOnce sync.Once
	dummyHash string
}

func NewAdminService(store AdminStore, hasher password.Hasher, auth *AuthService, logger *slog.Logger, opts AdminOptions) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultPassword == "" {
		opts.DefaultPassword = DefaultImportPassword
	}
	return &AdminService{
		store:           store,
		hasher:          hasher,
		auth:            auth,
		logger:          logger,
		defaultPassword: opts.DefaultPassword,
		devLogin:        opts.DevLogin,
		superAdminID:    opts.SuperAdminID,
	}
}

// ImportAdmins reconciles spreadsheet rows against the store, creating every
// admin whose ID is not yet known. Each row yields exactly one outcome, in
// input order; a failing row never stops the rows after it.
func (s *AdminService) ImportAdmins(ctx context.Context, rows []importer.Row) []model.ImportOutcome {
	outcomes := make([]model.ImportOutcome, 0, len(rows))

	var defaultHash string
	var created, skipped, failed int
	for _, row := range rows {
		out := s.importRow(ctx, row, &defaultHash)
		switch out.Status {
		case model.ImportSuccess:
			created++
		case model.ImportSkipped:
			skipped++
		default:
			failed++
		}
		outcomes = append(outcomes, out)
	}

	s.logger.Info("admin import finished",
		"rows", len(rows),
		"created", created,
		"skipped", skipped,
		"failed", failed,
	)
	return outcomes
}

func (s *AdminService) importRow(ctx context.Context, row importer.Row, defaultHash *string) model.ImportOutcome {
	adminID := strings.TrimSpace(row.AdminID)
	name := strings.TrimSpace(row.Name)
	rank := strings.TrimSpace(row.Rank)
	area := strings.TrimSpace(row.AreaOfWorking)

	out := model.ImportOutcome{Row: row.Line, AdminID: adminID, Name: name}

	if adminID == "" || name == "" || rank == "" || area == "" {
		out.Status = model.ImportError
		out.Message = "Missing required fields"
		return out
	}

	_, err := s.store.GetAdminByAdminID(ctx, adminID)
	switch {
	case err == nil:
		out.Status = model.ImportSkipped
		out.Message = "Admin already exists"
		return out
	case !errors.Is(err, config.ErrNotFound):
		return rowError(out, err)
	}

	// The default password is hashed at most once per batch.
	if *defaultHash == "" {
		hash, err := s.hasher.Hash(s.defaultPassword)
		if err != nil {
			return rowError(out, fmt.Errorf("hash default password: %w", err))
		}
		*defaultHash = hash
	}

	admin := &model.Admin{
		AdminID:         adminID,
		Name:            name,
		Rank:            rank,
		AreaOfWorking:   area,
		PasswordHash:    *defaultHash,
		PasswordChanged: false,
		FirstLogin:      true,
		IsActive:        true,
	}
	if err := s.store.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, config.ErrConflict) {
			out.Status = model.ImportSkipped
			out.Message = "Admin already exists"
			return out
		}
		return rowError(out, err)
	}

	s.logger.Info("admin imported", "admin_id", adminID, "row", row.Line)
	out.Status = model.ImportSuccess
	out.Message = "Admin created successfully with default password"
	return out
}

func rowError(out model.ImportOutcome, err error) model.ImportOutcome {
	out.Status = model.ImportError
	out.Message = "Error processing row: " + err.Error()
	return out
}

// Authenticate checks a display name and password. Unknown names and wrong
// passwords both return ErrInvalidCredentials; a correct password on an
// inactive account returns ErrAccountInactive.
func (s *AdminService) Authenticate(ctx context.Context, identifier, pw string) (*LoginResult, error) {
	if s.isDevLogin(identifier, pw) {
		s.logger.Warn("development login used", "admin_id", s.devLogin.AdminID)
		return s.loginResult(model.RoleSuperAdmin, s.devLogin.AdminID, false)
	}

	admin, err := s.store.GetAdminByName(ctx, identifier)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			// Burn a comparison so response timing does not reveal whether
			// the name exists.
			s.hasher.Verify(pw, s.dummy())
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up admin: %w", err)
	}

	if !s.hasher.Verify(pw, admin.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !admin.IsActive {
		return nil, ErrAccountInactive
	}

	role := model.RoleAdmin
	if s.superAdminID != "" && admin.AdminID == s.superAdminID {
		role = model.RoleSuperAdmin
	}
	s.logger.Info("admin logged in", "admin_id", admin.AdminID, "role", role, "first_login", admin.FirstLogin)
	return s.loginResult(role, admin.AdminID, admin.FirstLogin)
}

func (s *AdminService) isDevLogin(identifier, pw string) bool {
	dl := s.devLogin
	if !dl.Enabled || dl.Username == "" || dl.Password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(identifier), []byte(dl.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pw), []byte(dl.Password)) == 1
	return userOK && passOK
}

func (s *AdminService) loginResult(role, adminID string, firstLogin bool) (*LoginResult, error) {
	result := &LoginResult{
		Role:                role,
		AdminID:             adminID,
		NeedsPasswordChange: firstLogin,
	}
	if s.auth != nil {
		token, err := s.auth.IssueToken(adminID, role)
		if err != nil {
			return nil, fmt.Errorf("issue token: %w", err)
		}
		result.Token = token
	}
	return result, nil
}

func (s *AdminService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("roster-dummy-password")
	})
	return s.dummyHash
}

// ChangePassword replaces an admin's password after checking the current one.
func (s *AdminService) ChangePassword(ctx context.Context, adminID, oldPassword, newPassword string) error {
	admin, err := s.GetAdmin(ctx, adminID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(oldPassword, admin.PasswordHash) {
		return ErrInvalidCurrentPassword
	}
	return s.setPassword(ctx, adminID, newPassword)
}

// ForcePasswordChange sets a new password without the current one. It is
// only permitted while the admin is still on its first login.
func (s *AdminService) ForcePasswordChange(ctx context.Context, adminID, newPassword string) error {
	admin, err := s.GetAdmin(ctx, adminID)
	if err != nil {
		return err
	}
	if !admin.FirstLogin {
		return ErrForcedChangeNotAllowed
	}
	return s.setPassword(ctx, adminID, newPassword)
}

// ResetPassword sets a new password unconditionally. Used by the operator
// CLI only; it is not reachable over HTTP.
func (s *AdminService) ResetPassword(ctx context.Context, adminID, newPassword string) error {
	if _, err := s.GetAdmin(ctx, adminID); err != nil {
		return err
	}
	return s.setPassword(ctx, adminID, newPassword)
}

func (s *AdminService) setPassword(ctx context.Context, adminID, newPassword string) error {
	if !password.ValidateStrength(newPassword) {
		return ErrWeakPassword
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdateAdminPassword(ctx, adminID, hash); err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return ErrAdminNotFound
		}
		return err
	}
	s.logger.Info("admin password changed", "admin_id", adminID)
	return nil
}

// GetAdmin returns the admin with the given ID or ErrAdminNotFound.
func (s *AdminService) GetAdmin(ctx context.Context, adminID string) (*model.Admin, error) {
	admin, err := s.store.GetAdminByAdminID(ctx, adminID)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return admin, nil
}

func (s *AdminService) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	return s.store.ListAdmins(ctx)
}

// HasChangedPassword reports whether the admin has ever set its own password.
func (s *AdminService) HasChangedPassword(ctx context.Context, adminID string) (bool, error) {
	admin, err := s.GetAdmin(ctx, adminID)
	if err != nil {
		return false, err
	}
	return admin.PasswordChanged, nil
}

// IsFirstLogin reports whether the admin still has to replace its initial
// password.
func (s *AdminService) IsFirstLogin(ctx context.Context, adminID string) (bool, error) {
	admin, err := s.GetAdmin(ctx, adminID)
	if err != nil {
		return false, err
	}
	return admin.FirstLogin, nil
}

// SetActive activates or deactivates an admin. Inactive admins cannot log in.
func (s *AdminService) SetActive(ctx context.Context, adminID string, active bool) error {
	if err := s.store.SetAdminActive(ctx, adminID, active); err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return ErrAdminNotFound
		}
		return err
	}
	s.logger.Info("admin active state changed", "admin_id", adminID, "active", active)
	return nil
}

// DeleteAdmin removes an admin together with all of its users and returns how
// many users were removed.
func (s *AdminService) DeleteAdmin(ctx context.Context, adminID string) (int64, error) {
	removed, err := s.store.DeleteAdmin(ctx, adminID)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return 0, ErrAdminNotFound
		}
		return 0, err
	}
	s.logger.Info("admin deleted", "admin_id", adminID, "users_removed", removed)
	return removed, nil
}

// CreateAdmin creates a single admin with an operator-chosen password. The
// password must already satisfy the strength policy, so the account does not
// start in first-login state.
func (s *AdminService) CreateAdmin(ctx context.Context, in CreateAdminInput) (*model.Admin, error) {
	in.AdminID = strings.TrimSpace(in.AdminID)
	in.Name = strings.TrimSpace(in.Name)
	in.Rank = strings.TrimSpace(in.Rank)
	in.AreaOfWorking = strings.TrimSpace(in.AreaOfWorking)

	if in.AdminID == "" || in.Name == "" || in.Rank == "" || in.AreaOfWorking == "" {
		return nil, fmt.Errorf("%w: adminId, name, rank and areaOfWorking are required", ErrValidation)
	}
	if !password.ValidateStrength(in.Password) {
		return nil, ErrWeakPassword
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin := &model.Admin{
		AdminID:         in.AdminID,
		Name:            in.Name,
		Rank:            in.Rank,
		AreaOfWorking:   in.AreaOfWorking,
		PasswordHash:    hash,
		PasswordChanged: true,
		FirstLogin:      false,
		IsActive:        true,
	}
	if err := s.store.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, config.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, err
	}
	s.logger.Info("admin created", "admin_id", admin.AdminID)
	return admin, nil
}
