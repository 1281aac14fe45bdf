package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/rosterhq/roster/internal/config"
	"github.com/rosterhq/roster/internal/model"
	"github.com/rosterhq/roster/internal/password"
	"github.com/rosterhq/roster/internal/service"
)

const testPassword = "N3w!Passw0rd"

func newTestApp(t *testing.T) *app {
	t.Helper()
	store, err := config.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := config.DefaultYAMLConfig()
	cfg.Bootstrap.Password = "Super#Admin1"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hasher := password.NewBcryptHasher(bcrypt.MinCost)
	auth := service.NewAuthService("cli-test-secret", time.Hour)

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		hasher: hasher,
		auth:   auth,
		admins: service.NewAdminService(store, hasher, auth, logger, service.AdminOptions{SuperAdminID: cfg.Bootstrap.AdminID}),
		users:  service.NewUserService(store, hasher, logger),
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func createAdmin(t *testing.T, a *app, adminID, name string) {
	t.Helper()
	var out bytes.Buffer
	err := runAdminCreate(context.Background(), a, &out, adminCreateOptions{
		adminID: adminID, name: name, rank: "Captain", area: "North", password: testPassword,
	})
	if err != nil {
		t.Fatalf("runAdminCreate(%s): %v", adminID, err)
	}
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("port = %d, want 8081", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
}

func TestLoadConfigFileAndOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := writeFile(t, "roster.yaml", `
server:
  port: 9000
  login_rate_per_minute: 5
auth:
  jwt_secret: from-file
  require_token: false
bootstrap:
  admin_id: root
`)
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}
	viper.Set("auth.require_token", true)
	viper.Set("bootstrap.password", "Override#1")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Port != 9000 || cfg.Server.LoginRatePerMinute != 5 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Auth.JWTSecret != "from-file" {
		t.Errorf("jwt secret = %q", cfg.Auth.JWTSecret)
	}
	if !cfg.Auth.RequireToken {
		t.Error("require_token override not applied")
	}
	if cfg.Bootstrap.AdminID != "root" || cfg.Bootstrap.Password != "Override#1" {
		t.Errorf("bootstrap = %+v", cfg.Bootstrap)
	}
	if cfg.Bootstrap.Name != "Super Admin" {
		t.Errorf("unset keys should keep defaults, got name %q", cfg.Bootstrap.Name)
	}
}

func TestLoadConfigEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	initConfig()
	t.Setenv("ROSTER_DATABASE_DRIVER", "postgres")
	t.Setenv("ROSTER_SERVER_PORT", "7000")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("port = %d, want 7000", cfg.Server.Port)
	}
}

func TestServerConfig(t *testing.T) {
	cfg := config.DefaultYAMLConfig()
	cfg.Server.MaxUploadSize = "2MiB"
	cfg.Server.ShutdownTimeout = "5s"
	cfg.Auth.RequireToken = true

	srvCfg, err := serverConfig(cfg)
	if err != nil {
		t.Fatalf("serverConfig: %v", err)
	}
	if srvCfg.MaxUploadBytes != 2<<20 {
		t.Errorf("MaxUploadBytes = %d, want %d", srvCfg.MaxUploadBytes, 2<<20)
	}
	if srvCfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v", srvCfg.ShutdownTimeout)
	}
	if !srvCfg.RequireToken || srvCfg.Port != 8081 {
		t.Errorf("config = %+v", srvCfg)
	}
}

func TestServerConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.YAMLConfig)
	}{
		{"bad size", func(c *config.YAMLConfig) { c.Server.MaxUploadSize = "lots" }},
		{"bad timeout", func(c *config.YAMLConfig) { c.Server.ShutdownTimeout = "soon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultYAMLConfig()
			tt.mutate(cfg)
			if _, err := serverConfig(cfg); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestOpenStoreRequiresDSN(t *testing.T) {
	_, err := openStore(config.DatabaseConfig{Driver: "postgres"})
	if err == nil || !strings.Contains(err.Error(), "database.dsn") {
		t.Errorf("err = %v, want missing dsn error", err)
	}
	if _, err := openStore(config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Error("expected unsupported driver error")
	}
}

func TestOpenStoreSQLiteInDataDir(t *testing.T) {
	old := dataDir
	dataDir = t.TempDir()
	t.Cleanup(func() { dataDir = old })

	store, err := openStore(config.DatabaseConfig{Driver: "sqlite"})
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(filepath.Join(dataDir, "roster.db")); err != nil {
		t.Errorf("expected roster.db in data dir: %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LoggingConfig{Level: "warn", Format: "json"}, false)
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("expected JSON warn entry, got %q", out)
	}

	buf.Reset()
	newLogger(&buf, config.LoggingConfig{Level: "error"}, true).Debug("verbose")
	if !strings.Contains(buf.String(), "verbose") {
		t.Error("verbose should force debug level")
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	var out bytes.Buffer

	if err := runConfigInit(&out, path, false); err != nil {
		t.Fatalf("runConfigInit: %v", err)
	}
	cfg, err := config.LoadYAMLConfig(path)
	if err != nil {
		t.Fatalf("LoadYAMLConfig: %v", err)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("port = %d", cfg.Server.Port)
	}

	if err := runConfigInit(&out, path, false); err == nil {
		t.Error("expected refusal to overwrite without --force")
	}
	if err := runConfigInit(&out, path, true); err != nil {
		t.Errorf("--force: %v", err)
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("auth.jwt_secret", "top-secret-value")

	var out bytes.Buffer
	if err := runConfigShow(&out); err != nil {
		t.Fatalf("runConfigShow: %v", err)
	}
	if strings.Contains(out.String(), "top-secret-value") {
		t.Error("jwt secret must be masked")
	}
	if !strings.Contains(out.String(), "********") {
		t.Errorf("expected masked value, got %s", out.String())
	}
}

// ---------------------------------------------------------------------------
// Admin commands
// ---------------------------------------------------------------------------

func TestAdminCreateAndList(t *testing.T) {
	a := newTestApp(t)
	createAdmin(t, a, "ADM001", "Jane Doe")

	var out bytes.Buffer
	if err := runAdminList(context.Background(), a, &out, false); err != nil {
		t.Fatalf("runAdminList: %v", err)
	}
	if !strings.Contains(out.String(), "ADM001") || !strings.Contains(out.String(), "Jane Doe") {
		t.Errorf("table output missing admin:\n%s", out.String())
	}

	out.Reset()
	if err := runAdminList(context.Background(), a, &out, true); err != nil {
		t.Fatalf("runAdminList --json: %v", err)
	}
	var admins []model.Admin
	if err := json.Unmarshal(out.Bytes(), &admins); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(admins) != 1 || admins[0].AdminID != "ADM001" {
		t.Errorf("admins = %+v", admins)
	}
	if strings.Contains(out.String(), "passwordHash") {
		t.Error("password hash must not be printed")
	}
}

func TestAdminCreateRejectsWeakPassword(t *testing.T) {
	a := newTestApp(t)
	err := runAdminCreate(context.Background(), a, io.Discard, adminCreateOptions{
		adminID: "ADM001", name: "Jane", rank: "Captain", area: "North", password: "weak",
	})
	if !errors.Is(err, service.ErrWeakPassword) {
		t.Errorf("err = %v, want ErrWeakPassword", err)
	}
}

func TestAdminListEmpty(t *testing.T) {
	a := newTestApp(t)
	var out bytes.Buffer
	if err := runAdminList(context.Background(), a, &out, true); err != nil {
		t.Fatalf("runAdminList: %v", err)
	}
	if strings.TrimSpace(out.String()) != "[]" {
		t.Errorf("empty JSON list = %q, want []", out.String())
	}
}

func TestAdminImport(t *testing.T) {
	a := newTestApp(t)
	path := writeFile(t, "admins.csv", "adminId,name,rank,areaOfWorking\nADM001,Jane Doe,Captain,North\nADM002,John Roe,Major,South\n")

	var out bytes.Buffer
	if err := runAdminImport(context.Background(), a, &out, path, false); err != nil {
		t.Fatalf("runAdminImport: %v", err)
	}
	if !strings.Contains(out.String(), "2 created, 0 skipped, 0 failed") {
		t.Errorf("summary missing:\n%s", out.String())
	}

	out.Reset()
	if err := runAdminImport(context.Background(), a, &out, path, true); err != nil {
		t.Fatalf("second import: %v", err)
	}
	var resp model.ImportResponse
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %+v", resp.Results)
	}
	for _, r := range resp.Results {
		if r.Status != model.ImportSkipped {
			t.Errorf("row %d status = %q, want skipped", r.Row, r.Status)
		}
	}

	first, err := a.admins.IsFirstLogin(context.Background(), "ADM001")
	if err != nil || !first {
		t.Errorf("imported admin should be in first-login state (first=%v, err=%v)", first, err)
	}
}

func TestAdminImportErrors(t *testing.T) {
	a := newTestApp(t)
	if err := runAdminImport(context.Background(), a, io.Discard, filepath.Join(t.TempDir(), "missing.csv"), false); err == nil {
		t.Error("expected error for missing file")
	}
	txt := writeFile(t, "admins.txt", "adminId,name\n")
	if err := runAdminImport(context.Background(), a, io.Discard, txt, false); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestAdminBootstrap(t *testing.T) {
	a := newTestApp(t)

	var out bytes.Buffer
	if err := runAdminBootstrap(context.Background(), a, &out); err != nil {
		t.Fatalf("runAdminBootstrap: %v", err)
	}
	if !strings.Contains(out.String(), "Created super admin") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	if err := runAdminBootstrap(context.Background(), a, &out); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	if !strings.Contains(out.String(), "already exists") {
		t.Errorf("output = %q", out.String())
	}

	res, err := a.admins.Authenticate(context.Background(), "Super Admin", "Super#Admin1")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if res.Role != model.RoleSuperAdmin {
		t.Errorf("role = %q, want %q", res.Role, model.RoleSuperAdmin)
	}
}

func TestAdminBootstrapWithoutPassword(t *testing.T) {
	a := newTestApp(t)
	a.cfg.Bootstrap.Password = ""
	if err := runAdminBootstrap(context.Background(), a, io.Discard); err == nil {
		t.Error("expected error without bootstrap password")
	}
}

func TestBootstrapAdminsWarnsOnEmptyStore(t *testing.T) {
	a := newTestApp(t)
	a.cfg.Bootstrap.Password = ""
	var logs bytes.Buffer
	a.logger = slog.New(slog.NewTextHandler(&logs, nil))

	created, err := a.bootstrapAdmins(context.Background())
	if err != nil {
		t.Fatalf("bootstrapAdmins: %v", err)
	}
	if created {
		t.Error("nothing should be created without a password")
	}
	if !strings.Contains(logs.String(), "no admin accounts exist") {
		t.Errorf("expected empty-store warning, logs = %q", logs.String())
	}

	// With an imported admin the warning goes away.
	createAdmin(t, a, "A1", "Asha")
	logs.Reset()
	if _, err := a.bootstrapAdmins(context.Background()); err != nil {
		t.Fatalf("bootstrapAdmins: %v", err)
	}
	if strings.Contains(logs.String(), "no admin accounts exist") {
		t.Errorf("unexpected warning, logs = %q", logs.String())
	}
}

func TestBootstrapAdminsCreates(t *testing.T) {
	a := newTestApp(t)
	created, err := a.bootstrapAdmins(context.Background())
	if err != nil {
		t.Fatalf("bootstrapAdmins: %v", err)
	}
	if !created {
		t.Error("expected super admin to be created")
	}
}

func TestAdminPasswd(t *testing.T) {
	a := newTestApp(t)
	createAdmin(t, a, "ADM001", "Jane Doe")

	if err := runAdminPasswd(context.Background(), a, io.Discard, "ADM001", "An0ther#Pass"); err != nil {
		t.Fatalf("runAdminPasswd: %v", err)
	}
	if _, err := a.admins.Authenticate(context.Background(), "Jane Doe", "An0ther#Pass"); err != nil {
		t.Errorf("login with new password: %v", err)
	}

	err := runAdminPasswd(context.Background(), a, io.Discard, "NOPE", "An0ther#Pass")
	if !errors.Is(err, service.ErrAdminNotFound) {
		t.Errorf("err = %v, want ErrAdminNotFound", err)
	}
}

func TestAdminSetActive(t *testing.T) {
	a := newTestApp(t)
	createAdmin(t, a, "ADM001", "Jane Doe")
	ctx := context.Background()

	if err := runAdminSetActive(ctx, a, io.Discard, "ADM001", false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := a.admins.Authenticate(ctx, "Jane Doe", testPassword); !errors.Is(err, service.ErrAccountInactive) {
		t.Errorf("login while inactive: err = %v", err)
	}

	if err := runAdminSetActive(ctx, a, io.Discard, "ADM001", true); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if _, err := a.admins.Authenticate(ctx, "Jane Doe", testPassword); err != nil {
		t.Errorf("login after reactivation: %v", err)
	}
}

func TestAdminDelete(t *testing.T) {
	a := newTestApp(t)
	createAdmin(t, a, "ADM001", "Jane Doe")
	ctx := context.Background()

	err := runUserAdd(ctx, a, io.Discard, service.AddUserInput{
		AdminID: "ADM001", Username: "alice", Password: testPassword, Rank: "Sergeant", AreaOfWorking: "Depot",
	})
	if err != nil {
		t.Fatalf("runUserAdd: %v", err)
	}

	var out bytes.Buffer
	if err := runAdminDelete(ctx, a, &out, "ADM001"); err != nil {
		t.Fatalf("runAdminDelete: %v", err)
	}
	if !strings.Contains(out.String(), "1 user(s)") {
		t.Errorf("output = %q", out.String())
	}
	if _, err := a.admins.GetAdmin(ctx, "ADM001"); !errors.Is(err, service.ErrAdminNotFound) {
		t.Errorf("admin still present: %v", err)
	}
}

// ---------------------------------------------------------------------------
// User commands
// ---------------------------------------------------------------------------

func TestUserLifecycle(t *testing.T) {
	a := newTestApp(t)
	createAdmin(t, a, "ADM001", "Jane Doe")
	ctx := context.Background()

	err := runUserAdd(ctx, a, io.Discard, service.AddUserInput{
		AdminID: "ADM001", Username: "alice", Password: testPassword, Rank: "Sergeant", AreaOfWorking: "Depot",
	})
	if err != nil {
		t.Fatalf("runUserAdd: %v", err)
	}
	if err := runUserEdit(ctx, a, io.Discard, "ADM001", "alice", "Lieutenant", "HQ"); err != nil {
		t.Fatalf("runUserEdit: %v", err)
	}
	if err := runUserRename(ctx, a, io.Discard, "ADM001", "alice", "alicia"); err != nil {
		t.Fatalf("runUserRename: %v", err)
	}

	var out bytes.Buffer
	if err := runUserList(ctx, a, &out, "ADM001", 0, 10, true); err != nil {
		t.Fatalf("runUserList: %v", err)
	}
	var page model.Page[model.User]
	if err := json.Unmarshal(out.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.TotalElements != 1 || page.Content[0].Username != "alicia" || page.Content[0].Rank != "Lieutenant" {
		t.Errorf("page = %+v", page)
	}

	out.Reset()
	if err := runUserList(ctx, a, &out, "ADM001", 0, 10, false); err != nil {
		t.Fatalf("runUserList table: %v", err)
	}
	if !strings.Contains(out.String(), "alicia") || !strings.Contains(out.String(), "page 1 of 1") {
		t.Errorf("table output:\n%s", out.String())
	}

	if err := runUserDelete(ctx, a, io.Discard, "ADM001", "alicia"); err != nil {
		t.Fatalf("runUserDelete: %v", err)
	}
	err = runUserDelete(ctx, a, io.Discard, "ADM001", "alicia")
	if !errors.Is(err, service.ErrUserNotFound) {
		t.Errorf("second delete err = %v, want ErrUserNotFound", err)
	}
}

func TestUserListUnknownAdmin(t *testing.T) {
	a := newTestApp(t)
	err := runUserList(context.Background(), a, io.Discard, "NOPE", 0, 10, false)
	if !errors.Is(err, service.ErrAdminNotFound) {
		t.Errorf("err = %v, want ErrAdminNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// Misc commands
// ---------------------------------------------------------------------------

func TestOpenAPICommand(t *testing.T) {
	var out bytes.Buffer
	if err := runOpenAPI(&out, "https://roster.example.com", ""); err != nil {
		t.Fatalf("runOpenAPI: %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc["openapi"] != "3.1.0" {
		t.Errorf("openapi = %v", doc["openapi"])
	}

	file := filepath.Join(t.TempDir(), "openapi.json")
	if err := runOpenAPI(io.Discard, "", file); err != nil {
		t.Fatalf("runOpenAPI to file: %v", err)
	}
	if data, err := os.ReadFile(file); err != nil || !bytes.Contains(data, []byte("/api/auth/login")) {
		t.Errorf("file content missing login path (err=%v)", err)
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newVersionCmd("1.2.3", "abc123", "2026-01-01")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var info map[string]string
	if err := json.Unmarshal(out.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info["version"] != "1.2.3" || info["commit"] != "abc123" {
		t.Errorf("info = %v", info)
	}
}

func TestVersionString(t *testing.T) {
	old := appVersion
	t.Cleanup(func() { appVersion = old })

	for in, want := range map[string]string{"": "dev", "dev": "dev", "1.0.0": "v1.0.0", "v2.1.0": "v2.1.0"} {
		appVersion = in
		if got := versionString(); got != want {
			t.Errorf("versionString(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPIDFile(t *testing.T) {
	old := dataDir
	dataDir = t.TempDir()
	t.Cleanup(func() { dataDir = old })

	if _, err := readPID(); err == nil {
		t.Fatal("expected error before a PID is written")
	}
	if err := writePID(os.Getpid()); err != nil {
		t.Fatalf("writePID: %v", err)
	}
	pid, err := readPID()
	if err != nil || pid != os.Getpid() {
		t.Errorf("readPID = %d, %v", pid, err)
	}
	if !isProcessRunning(pid) {
		t.Error("current process should be reported as running")
	}
	removePID()
	if _, err := readPID(); err == nil {
		t.Error("expected error after removePID")
	}
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd("dev", "none", "unknown")
	for _, path := range [][]string{
		{"serve"}, {"status"}, {"stop"}, {"version"}, {"openapi"}, {"mcp"},
		{"admin", "import"}, {"admin", "passwd"}, {"admin", "deactivate"},
		{"user", "rename"}, {"config", "show"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd.Name() != path[len(path)-1] {
			t.Errorf("command %v not found (err=%v)", path, err)
		}
	}
}
