package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/rosterhq/roster/internal/model"
)

// BasePath is the prefix every API route is mounted under.
const BasePath = "/api/auth"

// Generate builds the OpenAPI 3.1 document describing the roster HTTP API.
func Generate(baseURL, version string) *openapi3.T {
	if version == "" {
		version = "1.0.0"
	}
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Roster API",
			Description: "Admin accounts, their users, and bulk admin import.",
			Version:     version,
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
			Description:  "Token returned by login. Enforced only when the server runs with auth.require_token.",
		},
	}

	schemas := doc.Components.Schemas
	schemas["ErrorResponse"] = &openapi3.SchemaRef{Value: StructSchema(model.ErrorResponse{})}
	schemas["StatusResponse"] = &openapi3.SchemaRef{Value: StructSchema(model.StatusResponse{})}
	schemas["LoginResponse"] = &openapi3.SchemaRef{Value: StructSchema(model.LoginResponse{})}
	schemas["ImportOutcome"] = &openapi3.SchemaRef{Value: StructSchema(model.ImportOutcome{})}
	schemas["ImportResponse"] = &openapi3.SchemaRef{Value: StructSchema(model.ImportResponse{})}
	schemas["User"] = &openapi3.SchemaRef{Value: StructSchema(model.User{})}
	schemas["UserPage"] = &openapi3.SchemaRef{Value: StructSchema(model.Page[model.User]{})}

	schemas["LoginRequest"] = requestSchema(
		[]string{"username", "password"},
		"username", "password")
	schemas["ChangePasswordRequest"] = requestSchema(
		[]string{"adminId"},
		"adminId", "oldPassword", "newPassword")
	schemas["ForceChangePasswordRequest"] = requestSchema(
		[]string{"adminId"},
		"adminId", "newPassword")
	schemas["AddUserRequest"] = requestSchema(
		[]string{"adminId", "username", "password", "rank", "areaOfWorking"},
		"adminId", "username", "password", "rank", "areaOfWorking")
	schemas["DeleteUserRequest"] = requestSchema(
		[]string{"adminId", "username"},
		"adminId", "username")
	schemas["EditUserRequest"] = requestSchema(
		[]string{"adminId", "username", "rank", "areaOfWorking"},
		"adminId", "username", "rank", "areaOfWorking")
	schemas["RenameUserRequest"] = requestSchema(
		[]string{"adminId", "username", "newUsername"},
		"adminId", "username", "newUsername")

	ls := schemas["LoginRequest"].Value
	ls.Properties["username"].Value.WithMinLength(3).WithMaxLength(50)
	ls.Properties["password"].Value.WithMinLength(6).WithMaxLength(100)

	doc.Paths = openapi3.NewPaths()
	addAuthPaths(doc)
	addUserPaths(doc)
	return doc
}

func addAuthPaths(doc *openapi3.T) {
	doc.Paths.Set(BasePath+"/login", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"auth"},
			Summary:     "Log in",
			Description: "Authenticate an admin by display name and password.",
			OperationID: "login",
			RequestBody: jsonBody("LoginRequest"),
			Responses: newResponses(
				"200", "Login succeeded", ref("LoginResponse"),
				"400", "Validation failed", ref("LoginResponse"),
				"401", "Invalid credentials or inactive account", ref("LoginResponse"),
			),
		},
	})

	fileSchema := openapi3.NewObjectSchema().
		WithProperty("file", openapi3.NewStringSchema().WithFormat("binary"))
	fileSchema.Required = []string{"file"}
	doc.Paths.Set(BasePath+"/upload-admins", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"auth"},
			Summary:     "Import admins",
			Description: "Upload an .xlsx or .csv sheet with adminId, name, rank, areaOfWorking columns. The first row is a header.",
			OperationID: "uploadAdmins",
			RequestBody: &openapi3.RequestBodyRef{
				Value: &openapi3.RequestBody{
					Required: true,
					Content:  openapi3.NewContentWithFormDataSchema(fileSchema),
				},
			},
			Responses: newResponses(
				"200", "Per-row import outcomes", ref("ImportResponse"),
				"400", "No file or unsupported format", ref("ErrorResponse"),
				"500", "File could not be read", ref("ErrorResponse"),
			),
			Security: bearer(),
		},
	})

	doc.Paths.Set(BasePath+"/change-password", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"auth"},
			Summary:     "Change password",
			OperationID: "changePassword",
			RequestBody: jsonBody("ChangePasswordRequest"),
			Responses: newResponses(
				"200", "Password changed", ref("StatusResponse"),
				"400", "Admin not found, wrong current password, or weak new password", ref("StatusResponse"),
			),
			Security: bearer(),
		},
	})

	doc.Paths.Set(BasePath+"/force-change-password", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"auth"},
			Summary:     "Set password on first login",
			OperationID: "forceChangePassword",
			RequestBody: jsonBody("ForceChangePasswordRequest"),
			Responses: newResponses(
				"200", "Password updated", ref("StatusResponse"),
				"400", "Admin not found, weak password, or already changed", ref("StatusResponse"),
			),
			Security: bearer(),
		},
	})

	doc.Paths.Set(BasePath+"/health", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "Liveness check",
			OperationID: "health",
			Responses:   newTextResponses("200", "Backend is running"),
		},
	})
}

func addUserPaths(doc *openapi3.T) {
	doc.Paths.Set(BasePath+"/add-user", &openapi3.PathItem{
		Post: userOperation("addUser", "Add a user to an admin", "AddUserRequest"),
	})
	doc.Paths.Set(BasePath+"/delete-user", &openapi3.PathItem{
		Delete: userOperation("deleteUser", "Delete a user of an admin", "DeleteUserRequest"),
	})
	doc.Paths.Set(BasePath+"/edit-user", &openapi3.PathItem{
		Put: userOperation("editUser", "Update a user's rank and area of working", "EditUserRequest"),
	})
	doc.Paths.Set(BasePath+"/rename-user", &openapi3.PathItem{
		Put: userOperation("renameUser", "Change a user's username", "RenameUserRequest"),
	})

	adminID := openapi3.NewQueryParameter("adminId").
		WithDescription("Admin whose users are listed.").
		WithRequired(true).
		WithSchema(openapi3.NewStringSchema())
	page := openapi3.NewQueryParameter("page").
		WithDescription("Zero-based page number.").
		WithSchema(&openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32", Default: 0})
	size := openapi3.NewQueryParameter("size").
		WithDescription("Page size, 1 to 100.").
		WithSchema(&openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32", Default: 10})

	responses := newTextResponses("400", "Admin not found")
	okDesc := "One page of users"
	responses.Set("200", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &okDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(ref("UserPage")),
		},
	})

	doc.Paths.Set(BasePath+"/admin-users", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"users"},
			Summary:     "List an admin's users",
			OperationID: "listUsers",
			Parameters: openapi3.Parameters{
				&openapi3.ParameterRef{Value: adminID},
				&openapi3.ParameterRef{Value: page},
				&openapi3.ParameterRef{Value: size},
			},
			Responses: responses,
			Security:  bearer(),
		},
	})
}

func userOperation(id, summary, body string) *openapi3.Operation {
	return &openapi3.Operation{
		Tags:        []string{"users"},
		Summary:     summary,
		OperationID: id,
		RequestBody: jsonBody(body),
		Responses:   newTextResponses("200", "Success message", "400", "Missing fields, unknown admin or user, or duplicate username"),
		Security:    bearer(),
	}
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

func bearer() *openapi3.SecurityRequirements {
	return &openapi3.SecurityRequirements{{"bearerAuth": {}}, {}}
}

func requestSchema(required []string, fields ...string) *openapi3.SchemaRef {
	s := openapi3.NewObjectSchema()
	for _, f := range fields {
		s.WithProperty(f, openapi3.NewStringSchema())
	}
	s.Required = required
	return &openapi3.SchemaRef{Value: s}
}

func jsonBody(schema string) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Required: true,
			Content:  openapi3.NewContentWithJSONSchemaRef(ref(schema)),
		},
	}
}

// newResponses builds a Responses map from (status, description, schema)
// triples with JSON bodies.
func newResponses(triples ...interface{}) *openapi3.Responses {
	responses := openapi3.NewResponses()
	for i := 0; i+2 < len(triples); i += 3 {
		code := triples[i].(string)
		desc := triples[i+1].(string)
		schema := triples[i+2].(*openapi3.SchemaRef)
		responses.Set(code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithJSONSchemaRef(schema),
			},
		})
	}
	return responses
}

// newTextResponses builds a Responses map from (status, description) pairs
// with text/plain bodies.
func newTextResponses(pairs ...string) *openapi3.Responses {
	responses := openapi3.NewResponses()
	for i := 0; i+1 < len(pairs); i += 2 {
		desc := pairs[i+1]
		responses.Set(pairs[i], &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{"text/plain"}),
			},
		})
	}
	return responses
}
