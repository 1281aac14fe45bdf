package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rosterhq/roster/internal/service"
)

// --------------------------------------------------------------------------
// Parameter extraction helpers
// --------------------------------------------------------------------------

// requireString extracts a required, non-empty string argument from the tool
// request.
func requireString(request mcp.CallToolRequest, key string) (string, error) {
	val, err := request.RequireString(key)
	if err != nil || val == "" {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	return val, nil
}

// optionalString extracts an optional string argument from the tool request.
func optionalString(request mcp.CallToolRequest, key string) string {
	return request.GetString(key, "")
}

// optionalInt extracts an optional integer argument from the tool request.
func optionalInt(request mcp.CallToolRequest, key string, defaultVal int) int {
	return request.GetInt(key, defaultVal)
}

// --------------------------------------------------------------------------
// Response builders
// --------------------------------------------------------------------------

// successJSON marshals data to JSON and returns it as a tool result.
func successJSON(data interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError returns a tool-level error result. Errors returned this way are
// visible to the LLM so it can self-correct; they do NOT terminate the MCP
// session.
func toolError(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}

// serviceError turns a service error into a tool error using the same
// wording as the HTTP API.
func serviceError(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, service.ErrAdminNotFound):
		return toolError("Admin not found")
	case errors.Is(err, service.ErrUserNotFound):
		return toolError("User not found")
	case errors.Is(err, service.ErrConflict):
		return toolError("User already exists")
	case errors.Is(err, service.ErrValidation):
		return toolError("Missing required fields: %v", err)
	default:
		return toolError("Operation failed: %v", err)
	}
}
