package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rosterhq/roster/internal/service"
)

const (
	adminsURI         = "roster://admins"
	adminUsersPrefix  = "roster://admins/"
	adminUsersSuffix  = "/users"
	resourcePageLimit = service.MaxPageSize
)

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {

	// -------------------------------------------------------------------
	// roster://admins: every admin account
	// -------------------------------------------------------------------
	srv.AddResource(
		mcp.NewResource(
			adminsURI,
			"Admin Accounts",
			mcp.WithResourceDescription(
				"All admin accounts with rank, area of working, and password state.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handleAdminsResource,
	)

	// -------------------------------------------------------------------
	// roster://admins/{adminId}/users: first page of an admin's users
	// -------------------------------------------------------------------
	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			adminUsersPrefix+"{adminId}"+adminUsersSuffix,
			"Admin Users",
			mcp.WithTemplateDescription(
				"The first 100 users owned by an admin, in creation order, with paging totals.",
			),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleAdminUsersResource,
	)
}

func (s *MCPServer) handleAdminsResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	admins, err := s.admins.ListAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return jsonResource(adminsURI, admins)
}

func (s *MCPServer) handleAdminUsersResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	uri := request.Params.URI
	adminID, ok := parseAdminUsersURI(uri)
	if !ok {
		return nil, fmt.Errorf("invalid URI %q: expected %s{adminId}%s", uri, adminUsersPrefix, adminUsersSuffix)
	}

	page, err := s.users.ListUsers(ctx, adminID, 0, resourcePageLimit)
	if err != nil {
		return nil, fmt.Errorf("list users of %q: %w", adminID, err)
	}
	return jsonResource(uri, page)
}

// parseAdminUsersURI extracts the adminId from roster://admins/{adminId}/users.
func parseAdminUsersURI(uri string) (string, bool) {
	if !strings.HasPrefix(uri, adminUsersPrefix) || !strings.HasSuffix(uri, adminUsersSuffix) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(uri, adminUsersPrefix), adminUsersSuffix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func jsonResource(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
