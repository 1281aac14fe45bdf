package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rosterhq/roster/internal/service"
)

// UserHandler serves the per-admin user management endpoints. Responses are
// plain text except for the paged listing.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{users: users, logger: logger}
}

type addUserRequest struct {
	AdminID       string `json:"adminId" validate:"required"`
	Username      string `json:"username" validate:"required"`
	Password      string `json:"password" validate:"required"`
	Rank          string `json:"rank" validate:"required"`
	AreaOfWorking string `json:"areaOfWorking" validate:"required"`
}

type deleteUserRequest struct {
	AdminID  string `json:"adminId" validate:"required"`
	Username string `json:"username" validate:"required"`
}

type editUserRequest struct {
	AdminID       string `json:"adminId" validate:"required"`
	Username      string `json:"username" validate:"required"`
	Rank          string `json:"rank" validate:"required"`
	AreaOfWorking string `json:"areaOfWorking" validate:"required"`
}

type renameUserRequest struct {
	AdminID     string `json:"adminId" validate:"required"`
	Username    string `json:"username" validate:"required"`
	NewUsername string `json:"newUsername" validate:"required"`
}

// decodeUserRequest decodes and validates a user request body. Every failure
// is reported with the same message.
func decodeUserRequest(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := decodeAndValidate(r, v); err != nil {
		writeText(w, http.StatusBadRequest, msgMissingFields)
		return false
	}
	return true
}

func (h *UserHandler) forbidden(w http.ResponseWriter, r *http.Request, adminID string) bool {
	if mayActFor(r, adminID) {
		return false
	}
	writeText(w, http.StatusForbidden, "Not allowed to manage another admin's users")
	return true
}

// AddUser creates a user under an admin.
// POST /api/auth/add-user
func (h *UserHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req addUserRequest
	if !decodeUserRequest(w, r, &req) || h.forbidden(w, r, req.AdminID) {
		return
	}

	_, err := h.users.AddUser(r.Context(), service.AddUserInput{
		AdminID:       req.AdminID,
		Username:      req.Username,
		Password:      req.Password,
		Rank:          req.Rank,
		AreaOfWorking: req.AreaOfWorking,
	})
	h.writeResult(w, err, "User added successfully")
}

// DeleteUser removes one user of an admin.
// DELETE /api/auth/delete-user
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	var req deleteUserRequest
	if !decodeUserRequest(w, r, &req) || h.forbidden(w, r, req.AdminID) {
		return
	}

	err := h.users.DeleteUser(r.Context(), req.AdminID, req.Username)
	h.writeResult(w, err, "User deleted successfully")
}

// EditUser overwrites a user's rank and area of working.
// PUT /api/auth/edit-user
func (h *UserHandler) EditUser(w http.ResponseWriter, r *http.Request) {
	var req editUserRequest
	if !decodeUserRequest(w, r, &req) || h.forbidden(w, r, req.AdminID) {
		return
	}

	err := h.users.UpdateUserRankAndArea(r.Context(), req.AdminID, req.Username, req.Rank, req.AreaOfWorking)
	h.writeResult(w, err, "User updated successfully")
}

// RenameUser changes a user's username.
// PUT /api/auth/rename-user
func (h *UserHandler) RenameUser(w http.ResponseWriter, r *http.Request) {
	var req renameUserRequest
	if !decodeUserRequest(w, r, &req) || h.forbidden(w, r, req.AdminID) {
		return
	}

	err := h.users.RenameUser(r.Context(), req.AdminID, req.Username, req.NewUsername)
	h.writeResult(w, err, "User renamed successfully")
}

// ListUsers returns one page of an admin's users.
// GET /api/auth/admin-users?adminId=...&page=0&size=10
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	adminID := queryString(r, "adminId")
	if adminID == "" {
		writeText(w, http.StatusBadRequest, "Admin ID is required")
		return
	}
	if h.forbidden(w, r, adminID) {
		return
	}

	page := queryInt(r, "page", 0)
	size := queryInt(r, "size", service.DefaultPageSize)

	result, err := h.users.ListUsers(r.Context(), adminID, page, size)
	if err != nil {
		h.writeResult(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *UserHandler) writeResult(w http.ResponseWriter, err error, okMsg string) {
	switch {
	case err == nil:
		writeText(w, http.StatusOK, okMsg)
	case errors.Is(err, service.ErrAdminNotFound):
		writeText(w, http.StatusBadRequest, "Admin not found")
	case errors.Is(err, service.ErrUserNotFound):
		writeText(w, http.StatusBadRequest, "User not found")
	case errors.Is(err, service.ErrConflict):
		writeText(w, http.StatusBadRequest, "User already exists")
	case errors.Is(err, service.ErrValidation):
		writeText(w, http.StatusBadRequest, msgMissingFields)
	default:
		h.logger.Error("user operation failed", "error", err)
		writeText(w, http.StatusInternalServerError, "Internal server error")
	}
}
