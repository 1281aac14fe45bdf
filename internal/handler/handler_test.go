package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/rosterhq/roster/internal/config"
	"github.com/rosterhq/roster/internal/importer"
	"github.com/rosterhq/roster/internal/model"
	"github.com/rosterhq/roster/internal/password"
	"github.com/rosterhq/roster/internal/server/middleware"
	"github.com/rosterhq/roster/internal/service"
)

const (
	testJWTSecret = "test-secret-for-handler-tests"
	testPassword  = service.DefaultImportPassword
	strongPass    = "Str0ng#Pass"
)

// testEnv holds shared state for handler integration tests.
type testEnv struct {
	store  *config.Store
	admins *service.AdminService
	users  *service.UserService
	auth   *service.AuthService
	router chi.Router
}

type envOption func(*envConfig)

type envConfig struct {
	maxUpload int64
	admin     service.AdminOptions
}

func withMaxUpload(n int64) envOption {
	return func(c *envConfig) { c.maxUpload = n }
}

func withAdminOptions(o service.AdminOptions) envOption {
	return func(c *envConfig) { c.admin = o }
}

// newTestEnv creates a fresh test environment with an in-memory config store
// and a Chi router with the /api/auth routes mounted (no auth middleware).
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	var cfg envConfig
	for _, o := range opts {
		o(&cfg)
	}

	store, err := config.NewStore("") // in-memory SQLite
	if err != nil {
		t.Fatalf("config.NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hasher := password.NewBcryptHasher(bcrypt.MinCost)
	auth := service.NewAuthService(testJWTSecret, 0)
	admins := service.NewAdminService(store, hasher, auth, logger, cfg.admin)
	users := service.NewUserService(store, hasher, logger)

	authHandler := NewAuthHandler(admins, logger, cfg.maxUpload)
	userHandler := NewUserHandler(users, logger)
	sysHandler := NewSystemHandler(store, "test")

	r := chi.NewRouter()
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/upload-admins", authHandler.UploadAdmins)
		r.Post("/change-password", authHandler.ChangePassword)
		r.Post("/force-change-password", authHandler.ForceChangePassword)

		r.Post("/add-user", userHandler.AddUser)
		r.Delete("/delete-user", userHandler.DeleteUser)
		r.Put("/edit-user", userHandler.EditUser)
		r.Put("/rename-user", userHandler.RenameUser)
		r.Get("/admin-users", userHandler.ListUsers)

		r.Get("/health", sysHandler.Health)
	})
	r.Get("/healthz", sysHandler.Healthz)
	r.Get("/readyz", sysHandler.Readyz)
	r.Get("/openapi.json", NewOpenAPIHandler("", "test").ServeSpec)

	return &testEnv{
		store:  store,
		admins: admins,
		users:  users,
		auth:   auth,
		router: r,
	}
}

// seedAdmin imports one admin with the default password.
func (e *testEnv) seedAdmin(t *testing.T, adminID, name string) {
	t.Helper()
	out := e.admins.ImportAdmins(context.Background(), []importer.Row{
		{Line: 2, AdminID: adminID, Name: name, Rank: "Inspector", AreaOfWorking: "North"},
	})
	if len(out) != 1 || out[0].Status != model.ImportSuccess {
		t.Fatalf("seedAdmin: %+v", out)
	}
}

// seedUser adds one user under adminID.
func (e *testEnv) seedUser(t *testing.T, adminID, username string) {
	t.Helper()
	_, err := e.users.AddUser(context.Background(), service.AddUserInput{
		AdminID:       adminID,
		Username:      username,
		Password:      "userpass",
		Rank:          "Constable",
		AreaOfWorking: "Traffic",
	})
	if err != nil {
		t.Fatalf("seedUser: %v", err)
	}
}

// do executes an HTTP request against the test router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	return e.doAs(t, nil, method, path, body)
}

// doAs is like do but attaches p as the authenticated principal, the way
// middleware.Authenticate would.
func (e *testEnv) doAs(t *testing.T, p *middleware.Principal, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p != nil {
		req = req.WithContext(context.WithValue(req.Context(), middleware.AuthPrincipalKey, p))
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func toJSON(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("toJSON: %v", err)
	}
	return buf
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func assertText(t *testing.T, rr *httptest.ResponseRecorder, want string) {
	t.Helper()
	if got := rr.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}
