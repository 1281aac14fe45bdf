package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rosterhq/roster/internal/model"
	"github.com/rosterhq/roster/internal/service"
)

// registerTools registers all roster MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Admin tools -----

	srv.AddTool(
		mcp.NewTool("roster_list_admins",
			mcp.WithDescription(
				"List every admin account with its rank, area of working, active flag, "+
					"and password state. Use this first to find the adminId of an admin.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListAdmins,
	)

	srv.AddTool(
		mcp.NewTool("roster_get_admin",
			mcp.WithDescription(
				"Get one admin account by adminId, including whether it is still on its "+
					"first login and whether its password has been changed.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("adminId",
				mcp.Required(),
				mcp.Description("Business identifier of the admin"),
			),
		),
		s.handleGetAdmin,
	)

	srv.AddTool(
		mcp.NewTool("roster_password_status",
			mcp.WithDescription(
				"Report whether an admin has changed its initial password and whether it "+
					"is still on its first login. An admin on first login must use "+
					"force-change-password before anything else.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("adminId",
				mcp.Required(),
				mcp.Description("Business identifier of the admin"),
			),
		),
		s.handlePasswordStatus,
	)

	// ----- User tools -----

	srv.AddTool(
		mcp.NewTool("roster_list_users",
			mcp.WithDescription(
				"List the users owned by an admin, one page at a time, in creation order. "+
					"The result carries totalElements and totalPages for further paging.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("adminId",
				mcp.Required(),
				mcp.Description("Admin whose users are listed"),
			),
			mcp.WithNumber("page",
				mcp.Description("Zero-based page number (default 0)"),
			),
			mcp.WithNumber("size",
				mcp.Description("Page size (default 10, max 100)"),
			),
		),
		s.handleListUsers,
	)

	srv.AddTool(
		mcp.NewTool("roster_add_user",
			mcp.WithDescription(
				"Create a user under an admin. Usernames are unique per admin.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("adminId", mcp.Required(), mcp.Description("Owning admin")),
			mcp.WithString("username", mcp.Required(), mcp.Description("New username")),
			mcp.WithString("password", mcp.Required(), mcp.Description("Initial password for the user")),
			mcp.WithString("rank", mcp.Required(), mcp.Description("User rank")),
			mcp.WithString("areaOfWorking", mcp.Required(), mcp.Description("User area of working")),
		),
		s.handleAddUser,
	)

	srv.AddTool(
		mcp.NewTool("roster_update_user",
			mcp.WithDescription(
				"Update a user's rank and area of working. Pass newUsername to rename "+
					"the user in the same write; if the new name is taken nothing changes.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("adminId", mcp.Required(), mcp.Description("Owning admin")),
			mcp.WithString("username", mcp.Required(), mcp.Description("Current username")),
			mcp.WithString("rank", mcp.Required(), mcp.Description("New rank")),
			mcp.WithString("areaOfWorking", mcp.Required(), mcp.Description("New area of working")),
			mcp.WithString("newUsername", mcp.Description("Optional new username")),
		),
		s.handleUpdateUser,
	)

	srv.AddTool(
		mcp.NewTool("roster_delete_user",
			mcp.WithDescription("Delete one user of an admin. This cannot be undone."),
			mcp.WithToolAnnotation(destructiveAnnotation()),
			mcp.WithString("adminId", mcp.Required(), mcp.Description("Owning admin")),
			mcp.WithString("username", mcp.Required(), mcp.Description("Username to delete")),
		),
		s.handleDeleteUser,
	)
}

// --------------------------------------------------------------------------
// Admin handlers
// --------------------------------------------------------------------------

func (s *MCPServer) handleListAdmins(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	admins, err := s.admins.ListAdmins(ctx)
	if err != nil {
		return toolError("Failed to list admins: %v", err)
	}
	if admins == nil {
		admins = []model.Admin{}
	}
	return successJSON(admins)
}

func (s *MCPServer) handleGetAdmin(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	adminID, err := requireString(request, "adminId")
	if err != nil {
		return toolError("%v", err)
	}

	admin, err := s.admins.GetAdmin(ctx, adminID)
	if err != nil {
		return serviceError(err)
	}
	return successJSON(admin)
}

type passwordStatus struct {
	AdminID            string `json:"adminId"`
	HasChangedPassword bool   `json:"hasChangedPassword"`
	IsFirstLogin       bool   `json:"isFirstLogin"`
}

func (s *MCPServer) handlePasswordStatus(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	adminID, err := requireString(request, "adminId")
	if err != nil {
		return toolError("%v", err)
	}

	changed, err := s.admins.HasChangedPassword(ctx, adminID)
	if err != nil {
		return serviceError(err)
	}
	first, err := s.admins.IsFirstLogin(ctx, adminID)
	if err != nil {
		return serviceError(err)
	}
	return successJSON(passwordStatus{
		AdminID:            adminID,
		HasChangedPassword: changed,
		IsFirstLogin:       first,
	})
}

// --------------------------------------------------------------------------
// User handlers
// --------------------------------------------------------------------------

func (s *MCPServer) handleListUsers(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	adminID, err := requireString(request, "adminId")
	if err != nil {
		return toolError("%v", err)
	}
	page := optionalInt(request, "page", 0)
	size := optionalInt(request, "size", service.DefaultPageSize)

	result, err := s.users.ListUsers(ctx, adminID, page, size)
	if err != nil {
		return serviceError(err)
	}
	return successJSON(result)
}

func (s *MCPServer) handleAddUser(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	var in service.AddUserInput
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"adminId", &in.AdminID},
		{"username", &in.Username},
		{"password", &in.Password},
		{"rank", &in.Rank},
		{"areaOfWorking", &in.AreaOfWorking},
	} {
		v, err := requireString(request, f.key)
		if err != nil {
			return toolError("%v", err)
		}
		*f.dst = v
	}

	user, err := s.users.AddUser(ctx, in)
	if err != nil {
		return serviceError(err)
	}
	return successJSON(user)
}

func (s *MCPServer) handleUpdateUser(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	adminID, err := requireString(request, "adminId")
	if err != nil {
		return toolError("%v", err)
	}
	username, err := requireString(request, "username")
	if err != nil {
		return toolError("%v", err)
	}
	rank, err := requireString(request, "rank")
	if err != nil {
		return toolError("%v", err)
	}
	area, err := requireString(request, "areaOfWorking")
	if err != nil {
		return toolError("%v", err)
	}

	newName := optionalString(request, "newUsername")
	if err := s.users.UpdateUser(ctx, adminID, username, rank, area, newName); err != nil {
		return serviceError(err)
	}

	msg := "User updated successfully"
	if newName != "" && newName != username {
		msg = "User updated and renamed successfully"
	}
	return mcp.NewToolResultText(msg), nil
}

func (s *MCPServer) handleDeleteUser(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	adminID, err := requireString(request, "adminId")
	if err != nil {
		return toolError("%v", err)
	}
	username, err := requireString(request, "username")
	if err != nil {
		return toolError("%v", err)
	}

	if err := s.users.DeleteUser(ctx, adminID, username); err != nil {
		return serviceError(err)
	}
	return mcp.NewToolResultText("User deleted successfully"), nil
}
