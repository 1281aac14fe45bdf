package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/rosterhq/roster/internal/model"
	"github.com/rosterhq/roster/internal/password"
	"github.com/rosterhq/roster/internal/server/middleware"
)

func addUserBody(adminID, username string) map[string]string {
	return map[string]string{
		"adminId":       adminID,
		"username":      username,
		"password":      "userpass",
		"rank":          "Constable",
		"areaOfWorking": "Traffic",
	}
}

func TestAddUser(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "A1", "Asha")
	env.seedAdmin(t, "A2", "Ravi")

	rr := env.do(t, "POST", "/api/auth/add-user", toJSON(t, addUserBody("A1", "u1")))
	assertStatus(t, rr, http.StatusOK)
	assertText(t, rr, "User added successfully")

	rr = env.do(t, "POST", "/api/auth/add-user", toJSON(t, addUserBody("A1", "u1")))
	assertStatus(t, rr, http.StatusBadRequest)
	assertText(t, rr, "User already exists")

	// Usernames are unique per admin, not globally.
	rr = env.do(t, "POST", "/api/auth/add-user", toJSON(t, addUserBody("A2", "u1")))
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, "POST", "/api/auth/add-user", toJSON(t, addUserBody("ZZ", "u1")))
	assertStatus(t, rr, http.StatusBadRequest)
	assertText(t, rr, "Admin not found")
}

func TestAddUserLongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "A1", "Asha")

	long := "Aa1!" + strings.Repeat("x", 76)
	body := addUserBody("A1", "u1")
	body["password"] = long
	rr := env.do(t, "POST", "/api/auth/add-user", toJSON(t, body))
	assertStatus(t, rr, http.StatusOK)
	assertText(t, rr, "User added successfully")

	ctx := context.Background()
	admin, err := env.store.GetAdminByAdminID(ctx, "A1")
	if err != nil {
		t.Fatalf("GetAdminByAdminID: %v", err)
	}
	u, err := env.store.GetUser(ctx, admin.ID, "u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	hasher := password.NewBcryptHasher(bcrypt.MinCost)
	if !hasher.Verify(long, u.PasswordHash) {
		t.Error("stored hash does not verify the long password")
	}
}

func TestUserEndpointsMissingFields(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{"POST", "/api/auth/add-user", `{"adminId":"A1","username":"u1"}`},
		{"POST", "/api/auth/add-user", ``},
		{"DELETE", "/api/auth/delete-user", `{"adminId":"A1"}`},
		{"PUT", "/api/auth/edit-user", `{"adminId":"A1","username":"u1","rank":"R"}`},
		{"PUT", "/api/auth/rename-user", `{"adminId":"A1","username":"u1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := env.do(t, tt.method, tt.path, strings.NewReader(tt.body))
			assertStatus(t, rr, http.StatusBadRequest)
			assertText(t, rr, "Missing required fields")
		})
	}
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "A1", "Asha")
	env.seedUser(t, "A1", "u1")

	body := map[string]string{"adminId": "A1", "username": "u1"}
	rr := env.do(t, "DELETE", "/api/auth/delete-user", toJSON(t, body))
	assertStatus(t, rr, http.StatusOK)
	assertText(t, rr, "User deleted successfully")

	rr = env.do(t, "DELETE", "/api/auth/delete-user", toJSON(t, body))
	assertStatus(t, rr, http.StatusBadRequest)
	assertText(t, rr, "User not found")

	rr = env.do(t, "DELETE", "/api/auth/delete-user", toJSON(t, map[string]string{"adminId": "ZZ", "username": "u1"}))
	assertStatus(t, rr, http.StatusBadRequest)
	assertText(t, rr, "Admin not found")
}

func TestEditUser(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "A1", "Asha")
	env.seedUser(t, "A1", "u1")

	rr := env.do(t, "PUT", "/api/auth/edit-user", toJSON(t, map[string]string{
		"adminId": "A1", "username": "u1", "rank": "Sergeant", "areaOfWorking": "Harbour",
	}))
	assertStatus(t, rr, http.StatusOK)
	assertText(t, rr, "User updated successfully")

	list := env.do(t, "GET", "/api/auth/admin-users?adminId=A1", nil)
	var page model.Page[model.User]
	decodeJSON(t, list, &page)
	if len(page.Content) != 1 {
		t.Fatalf("content = %+v", page.Content)
	}
	u := page.Content[0]
	if u.Rank != "Sergeant" || u.AreaOfWorking != "Harbour" || u.Username != "u1" {
		t.Errorf("user not updated: %+v", u)
	}

	rr = env.do(t, "PUT", "/api/auth/edit-user", toJSON(t, map[string]string{
		"adminId": "A1", "username": "ghost", "rank": "R", "areaOfWorking": "A",
	}))
	assertStatus(t, rr, http.StatusBadRequest)
	assertText(t, rr, "User not found")
}

func TestRenameUser(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "A1", "Asha")
	env.seedUser(t, "A1", "u1")
	env.seedUser(t, "A1", "u2")

	rr := env.do(t, "PUT", "/api/auth/rename-user", toJSON(t, map[string]string{
		"adminId": "A1", "username": "u1", "newUsername": "u2",
	}))
	assertStatus(t, rr, http.StatusBadRequest)
	assertText(t, rr, "User already exists")

	rr = env.do(t, "PUT", "/api/auth/rename-user", toJSON(t, map[string]string{
		"adminId": "A1", "username": "u1", "newUsername": "u3",
	}))
	assertStatus(t, rr, http.StatusOK)
	assertText(t, rr, "User renamed successfully")
}

func TestListUsersPaging(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "A1", "Asha")
	for i := 1; i <= 5; i++ {
		env.seedUser(t, "A1", fmt.Sprintf("user%d", i))
	}

	rr := env.do(t, "GET", "/api/auth/admin-users?adminId=A1&page=0&size=2", nil)
	assertStatus(t, rr, http.StatusOK)
	var page model.Page[model.User]
	decodeJSON(t, rr, &page)
	if len(page.Content) != 2 || page.TotalElements != 5 || page.TotalPages != 3 {
		t.Errorf("page 0: %d items, total %d, pages %d", len(page.Content), page.TotalElements, page.TotalPages)
	}
	if !page.First || page.Last {
		t.Errorf("page 0 first/last = %v/%v", page.First, page.Last)
	}
	if page.Content[0].Username != "user1" {
		t.Errorf("first user = %q, want creation order", page.Content[0].Username)
	}

	rr = env.do(t, "GET", "/api/auth/admin-users?adminId=A1&page=2&size=2", nil)
	page = model.Page[model.User]{}
	decodeJSON(t, rr, &page)
	if len(page.Content) != 1 || !page.Last {
		t.Errorf("page 2: %d items, last=%v", len(page.Content), page.Last)
	}

	// Defaults: page 0, size 10.
	rr = env.do(t, "GET", "/api/auth/admin-users?adminId=A1", nil)
	page = model.Page[model.User]{}
	decodeJSON(t, rr, &page)
	if page.Size != 10 || page.Number != 0 || len(page.Content) != 5 {
		t.Errorf("defaults: size=%d number=%d items=%d", page.Size, page.Number, len(page.Content))
	}
	if strings.Contains(rr.Body.String(), "password") {
		t.Error("listing must not expose password hashes")
	}
}

func TestListUsersErrors(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/auth/admin-users", nil)
	assertStatus(t, rr, http.StatusBadRequest)
	assertText(t, rr, "Admin ID is required")

	rr = env.do(t, "GET", "/api/auth/admin-users?adminId=ZZ", nil)
	assertStatus(t, rr, http.StatusBadRequest)
	assertText(t, rr, "Admin not found")
}

func TestUserEndpointsScopedToPrincipal(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "A1", "Asha")
	env.seedAdmin(t, "A2", "Ravi")

	a2 := &middleware.Principal{AdminID: "A2", Role: model.RoleAdmin}
	rr := env.doAs(t, a2, "POST", "/api/auth/add-user", toJSON(t, addUserBody("A1", "u1")))
	assertStatus(t, rr, http.StatusForbidden)

	rr = env.doAs(t, a2, "GET", "/api/auth/admin-users?adminId=A1", nil)
	assertStatus(t, rr, http.StatusForbidden)

	rr = env.doAs(t, a2, "POST", "/api/auth/add-user", toJSON(t, addUserBody("A2", "u1")))
	assertStatus(t, rr, http.StatusOK)

	super := &middleware.Principal{AdminID: "superadmin", Role: model.RoleSuperAdmin}
	rr = env.doAs(t, super, "GET", "/api/auth/admin-users?adminId=A2", nil)
	assertStatus(t, rr, http.StatusOK)
}
