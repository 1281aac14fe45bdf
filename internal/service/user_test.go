package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rosterhq/roster/internal/config"
	"github.com/rosterhq/roster/internal/importer"
	"github.com/rosterhq/roster/internal/password"
)

func newTestUserService(t *testing.T, adminIDs ...string) (*UserService, *config.Store) {
	t.Helper()
	store := newTestStore(t)
	admins := newTestAdminService(t, store, AdminOptions{})

	rows := make([]importer.Row, 0, len(adminIDs))
	for i, id := range adminIDs {
		rows = append(rows, importer.Row{Line: i + 2, AdminID: id, Name: "Admin " + id, Rank: "R", AreaOfWorking: "A"})
	}
	admins.ImportAdmins(context.Background(), rows)

	return NewUserService(store, password.NewBcryptHasher(bcrypt.MinCost), discardLogger()), store
}

func TestAddUser(t *testing.T) {
	svc, store := newTestUserService(t, "A1")
	ctx := context.Background()

	user, err := svc.AddUser(ctx, AddUserInput{
		AdminID: "A1", Username: "ravi", Password: "secret", Rank: "Constable", AreaOfWorking: "Ward 4",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "secret", user.PasswordHash)

	admin, err := store.GetAdminByAdminID(ctx, "A1")
	require.NoError(t, err)
	stored, err := store.GetUser(ctx, admin.ID, "ravi")
	require.NoError(t, err)
	assert.True(t, password.NewBcryptHasher(0).Verify("secret", stored.PasswordHash))
}

func TestAddUser_Errors(t *testing.T) {
	svc, _ := newTestUserService(t, "A1")
	ctx := context.Background()

	_, err := svc.AddUser(ctx, AddUserInput{AdminID: "missing", Username: "u", Password: "p"})
	assert.ErrorIs(t, err, ErrAdminNotFound)

	_, err = svc.AddUser(ctx, AddUserInput{AdminID: "A1", Username: "  ", Password: "p"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddUser(ctx, AddUserInput{AdminID: "A1", Username: "u", Password: "p"})
	require.NoError(t, err)
	_, err = svc.AddUser(ctx, AddUserInput{AdminID: "A1", Username: "u", Password: "p"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUsernameScopedPerAdmin(t *testing.T) {
	svc, _ := newTestUserService(t, "A1", "A2")
	ctx := context.Background()

	_, err := svc.AddUser(ctx, AddUserInput{AdminID: "A1", Username: "sam", Password: "p"})
	require.NoError(t, err)
	_, err = svc.AddUser(ctx, AddUserInput{AdminID: "A2", Username: "sam", Password: "p"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, "A1", "sam"))

	page, err := svc.ListUsers(ctx, "A2", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalElements)
}

func TestDeleteUser(t *testing.T) {
	svc, _ := newTestUserService(t, "A1")
	ctx := context.Background()

	assert.ErrorIs(t, svc.DeleteUser(ctx, "missing", "u"), ErrAdminNotFound)
	assert.ErrorIs(t, svc.DeleteUser(ctx, "A1", "nobody"), ErrUserNotFound)

	_, err := svc.AddUser(ctx, AddUserInput{AdminID: "A1", Username: "u", Password: "p"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteUser(ctx, "A1", "u"))
	assert.ErrorIs(t, svc.DeleteUser(ctx, "A1", "u"), ErrUserNotFound)
}

func TestUpdateUserRankAndArea(t *testing.T) {
	svc, _ := newTestUserService(t, "A1")
	ctx := context.Background()

	_, err := svc.AddUser(ctx, AddUserInput{AdminID: "A1", Username: "u", Password: "p", Rank: "R1", AreaOfWorking: "X"})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateUserRankAndArea(ctx, "A1", "u", "R2", "Y"))
	page, err := svc.ListUsers(ctx, "A1", 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "R2", page.Content[0].Rank)
	assert.Equal(t, "Y", page.Content[0].AreaOfWorking)
	assert.Equal(t, "u", page.Content[0].Username)

	assert.ErrorIs(t, svc.UpdateUserRankAndArea(ctx, "A1", "ghost", "R", "A"), ErrUserNotFound)
	assert.ErrorIs(t, svc.UpdateUserRankAndArea(ctx, "nope", "u", "R", "A"), ErrAdminNotFound)
}

func TestRenameUser(t *testing.T) {
	svc, _ := newTestUserService(t, "A1")
	ctx := context.Background()

	for _, name := range []string{"a", "b"} {
		_, err := svc.AddUser(ctx, AddUserInput{AdminID: "A1", Username: name, Password: "p"})
		require.NoError(t, err)
	}

	require.NoError(t, svc.RenameUser(ctx, "A1", "a", "c"))
	assert.ErrorIs(t, svc.RenameUser(ctx, "A1", "c", "b"), ErrConflict)
	assert.ErrorIs(t, svc.RenameUser(ctx, "A1", "a", "d"), ErrUserNotFound)
	assert.ErrorIs(t, svc.RenameUser(ctx, "A1", "c", " "), ErrValidation)
}

func TestUpdateUser(t *testing.T) {
	svc, _ := newTestUserService(t, "A1")
	ctx := context.Background()

	for _, name := range []string{"bob", "carol"} {
		_, err := svc.AddUser(ctx, AddUserInput{AdminID: "A1", Username: name, Password: "p", Rank: "Constable", AreaOfWorking: "Traffic"})
		require.NoError(t, err)
	}

	// Conflicting rename must not apply the rank and area either.
	assert.ErrorIs(t, svc.UpdateUser(ctx, "A1", "bob", "CHANGED", "CHANGED", "carol"), ErrConflict)
	page, err := svc.ListUsers(ctx, "A1", 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Content, 2)
	assert.Equal(t, "bob", page.Content[0].Username)
	assert.Equal(t, "Constable", page.Content[0].Rank)
	assert.Equal(t, "Traffic", page.Content[0].AreaOfWorking)

	// Empty newUsername keeps the current name.
	require.NoError(t, svc.UpdateUser(ctx, "A1", "bob", "Sergeant", "North", ""))
	require.NoError(t, svc.UpdateUser(ctx, "A1", "bob", "Inspector", "South", "robert"))
	page, err = svc.ListUsers(ctx, "A1", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, "robert", page.Content[0].Username)
	assert.Equal(t, "Inspector", page.Content[0].Rank)
	assert.Equal(t, "South", page.Content[0].AreaOfWorking)

	assert.ErrorIs(t, svc.UpdateUser(ctx, "A1", "bob", "R", "A", ""), ErrUserNotFound)
	assert.ErrorIs(t, svc.UpdateUser(ctx, "nope", "robert", "R", "A", ""), ErrAdminNotFound)
}

func TestUsernameArgumentsTrimmed(t *testing.T) {
	svc, _ := newTestUserService(t, "A1")
	ctx := context.Background()

	_, err := svc.AddUser(ctx, AddUserInput{AdminID: "A1", Username: " bob ", Password: "p"})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateUserRankAndArea(ctx, "A1", " bob", "R", "A"))
	require.NoError(t, svc.RenameUser(ctx, "A1", "bob ", "carol"))
	require.NoError(t, svc.UpdateUser(ctx, "A1", "\tcarol", "R2", "A2", ""))
	require.NoError(t, svc.DeleteUser(ctx, "A1", " carol "))
	assert.ErrorIs(t, svc.DeleteUser(ctx, "A1", "carol"), ErrUserNotFound)
	assert.ErrorIs(t, svc.DeleteUser(ctx, "A1", "   "), ErrValidation)
}

func TestListUsersPagination(t *testing.T) {
	svc, _ := newTestUserService(t, "A1")
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		_, err := svc.AddUser(ctx, AddUserInput{AdminID: "A1", Username: fmt.Sprintf("u%d", i), Password: "p"})
		require.NoError(t, err)
	}

	first, err := svc.ListUsers(ctx, "A1", 0, 2)
	require.NoError(t, err)
	assert.Len(t, first.Content, 2)
	assert.Equal(t, int64(5), first.TotalElements)
	assert.Equal(t, 3, first.TotalPages)
	assert.True(t, first.First)
	assert.False(t, first.Last)
	assert.Equal(t, "u1", first.Content[0].Username)

	last, err := svc.ListUsers(ctx, "A1", 2, 2)
	require.NoError(t, err)
	require.Len(t, last.Content, 1)
	assert.Equal(t, "u5", last.Content[0].Username)
	assert.True(t, last.Last)
	assert.Equal(t, 2, last.Number)

	beyond, err := svc.ListUsers(ctx, "A1", 7, 2)
	require.NoError(t, err)
	assert.Empty(t, beyond.Content)
	assert.True(t, beyond.Empty)

	_, err = svc.ListUsers(ctx, "missing", 0, 10)
	assert.ErrorIs(t, err, ErrAdminNotFound)
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		name               string
		page, size         int
		wantPage, wantSize int
	}{
		{"defaults kept", 0, 10, 0, 10},
		{"negative page", -3, 5, 0, 5},
		{"zero size", 1, 0, 1, DefaultPageSize},
		{"negative size", 1, -1, 1, DefaultPageSize},
		{"oversized", 0, 500, 0, MaxPageSize},
		{"huge page", 1 << 30, 10, maxPage, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size := clampPage(tt.page, tt.size)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantSize, size)
		})
	}
}
