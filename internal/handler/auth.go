package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rosterhq/roster/internal/importer"
	"github.com/rosterhq/roster/internal/model"
	"github.com/rosterhq/roster/internal/password"
	"github.com/rosterhq/roster/internal/service"
)

// DefaultMaxUploadBytes bounds the size of an admin spreadsheet upload.
const DefaultMaxUploadBytes int64 = 10 << 20

// AuthHandler serves login, bulk admin upload and the password endpoints.
type AuthHandler struct {
	admins         *service.AdminService
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewAuthHandler creates a new AuthHandler. A non-positive maxUploadBytes
// selects DefaultMaxUploadBytes.
func NewAuthHandler(admins *service.AdminService, logger *slog.Logger, maxUploadBytes int64) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &AuthHandler{admins: admins, logger: logger, maxUploadBytes: maxUploadBytes}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

type loginRequest struct {
	Username string `json:"username" validate:"notblank,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

// Login authenticates an admin by display name and password.
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, loginFailure(err.Error()))
		return
	}

	result, err := h.admins.Authenticate(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, loginFailure("Invalid username or password"))
		return
	case errors.Is(err, service.ErrAccountInactive):
		writeJSON(w, http.StatusUnauthorized, loginFailure("Admin account is inactive"))
		return
	default:
		h.logger.Error("login failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, loginFailure("Login failed"))
		return
	}

	writeJSON(w, http.StatusOK, model.LoginResponse{
		Status:              "success",
		Token:               &result.Token,
		Role:                &result.Role,
		AdminID:             &result.AdminID,
		NeedsPasswordChange: result.NeedsPasswordChange,
		Message:             "Login successful",
	})
}

func loginFailure(msg string) model.LoginResponse {
	return model.LoginResponse{Status: "error", Message: msg}
}

// ---------------------------------------------------------------------------
// Bulk upload
// ---------------------------------------------------------------------------

// UploadAdmins imports admins from a multipart "file" field holding an .xlsx
// or .csv sheet. Row-level problems are reported per row in a 200 response;
// only an unreadable file fails the whole request.
// POST /api/auth/upload-admins
func (h *AuthHandler) UploadAdmins(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Error processing file: upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Size == 0 {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}

	rows, err := importer.ReadRows(file, header.Filename)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, importer.ErrUnsupportedFormat) {
			status = http.StatusBadRequest
		}
		h.logger.Warn("admin upload rejected", "filename", header.Filename, "error", err)
		writeError(w, status, "Error processing file: "+err.Error())
		return
	}

	results := h.admins.ImportAdmins(r.Context(), rows)
	writeJSON(w, http.StatusOK, model.ImportResponse{
		Status:  "success",
		Message: "Excel file processed successfully",
		Results: results,
	})
}

// ---------------------------------------------------------------------------
// Password changes
// ---------------------------------------------------------------------------

type changePasswordRequest struct {
	AdminID     string `json:"adminId" validate:"notblank"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type forceChangePasswordRequest struct {
	AdminID     string `json:"adminId" validate:"notblank"`
	NewPassword string `json:"newPassword"`
}

// ChangePassword replaces an admin's password after verifying the current one.
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !mayActFor(r, req.AdminID) {
		writeError(w, http.StatusForbidden, "Not allowed to change another admin's password")
		return
	}

	err := h.admins.ChangePassword(r.Context(), req.AdminID, req.OldPassword, req.NewPassword)
	h.writePasswordResult(w, err, "Password changed successfully",
		"New password does not meet requirements ("+password.Requirements+")")
}

// ForceChangePassword sets a first-login admin's password without the old one.
// POST /api/auth/force-change-password
func (h *AuthHandler) ForceChangePassword(w http.ResponseWriter, r *http.Request) {
	var req forceChangePasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !mayActFor(r, req.AdminID) {
		writeError(w, http.StatusForbidden, "Not allowed to change another admin's password")
		return
	}

	err := h.admins.ForcePasswordChange(r.Context(), req.AdminID, req.NewPassword)
	h.writePasswordResult(w, err, "Password updated successfully",
		"Password does not meet requirements ("+password.Requirements+")")
}

func (h *AuthHandler) writePasswordResult(w http.ResponseWriter, err error, okMsg, weakMsg string) {
	var msg string
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, model.StatusResponse{Status: "success", Message: okMsg})
		return
	case errors.Is(err, service.ErrAdminNotFound):
		msg = "Admin not found"
	case errors.Is(err, service.ErrInvalidCurrentPassword):
		msg = "Current password is incorrect"
	case errors.Is(err, service.ErrWeakPassword):
		msg = weakMsg
	case errors.Is(err, service.ErrForcedChangeNotAllowed):
		msg = "Password has already been changed; use change-password instead"
	default:
		h.logger.Error("password change failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, model.StatusResponse{Status: "error", Message: "Password change failed"})
		return
	}
	writeJSON(w, http.StatusBadRequest, model.StatusResponse{Status: "error", Message: msg})
}
