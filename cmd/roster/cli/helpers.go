package cli

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/rosterhq/roster/internal/config"
	"github.com/rosterhq/roster/internal/password"
	"github.com/rosterhq/roster/internal/service"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir flag,
// ROSTER_DATA_DIR env var, or ~/.roster as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("ROSTER_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".roster")
}

// loadConfig returns the effective configuration: defaults, then the config
// file viper located, then ROSTER_* environment variables and bound flags.
func loadConfig() (*config.YAMLConfig, error) {
	cfg := config.DefaultYAMLConfig()
	if path := viper.ConfigFileUsed(); path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := config.LoadYAMLConfig(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}

	overrideString(&cfg.Server.Host, "server.host")
	overrideInt(&cfg.Server.Port, "server.port")
	if viper.IsSet("server.cors_origins") {
		cfg.Server.CORSOrigins = viper.GetStringSlice("server.cors_origins")
	}
	overrideInt(&cfg.Server.LoginRatePerMinute, "server.login_rate_per_minute")
	overrideInt(&cfg.Server.UploadRatePerMinute, "server.upload_rate_per_minute")
	overrideString(&cfg.Server.MaxUploadSize, "server.max_upload_size")
	overrideString(&cfg.Server.ShutdownTimeout, "server.shutdown_timeout")

	overrideString(&cfg.Database.Driver, "database.driver")
	overrideString(&cfg.Database.DSN, "database.dsn")

	overrideString(&cfg.Auth.JWTSecret, "auth.jwt_secret")
	overrideString(&cfg.Auth.JWTExpiry, "auth.jwt_expiry")
	overrideBool(&cfg.Auth.RequireToken, "auth.require_token")
	overrideBool(&cfg.Auth.DevLogin.Enabled, "auth.dev_login.enabled")
	overrideString(&cfg.Auth.DevLogin.Username, "auth.dev_login.username")
	overrideString(&cfg.Auth.DevLogin.Password, "auth.dev_login.password")

	overrideString(&cfg.Bootstrap.AdminID, "bootstrap.admin_id")
	overrideString(&cfg.Bootstrap.Name, "bootstrap.name")
	overrideString(&cfg.Bootstrap.Rank, "bootstrap.rank")
	overrideString(&cfg.Bootstrap.Area, "bootstrap.area")
	overrideString(&cfg.Bootstrap.Password, "bootstrap.password")

	overrideString(&cfg.Import.DefaultPassword, "import.default_password")

	overrideString(&cfg.Logging.Level, "logging.level")
	overrideString(&cfg.Logging.Format, "logging.format")

	return cfg, nil
}

func overrideString(dst *string, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetString(key)
	}
}

func overrideInt(dst *int, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetInt(key)
	}
}

func overrideBool(dst *bool, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetBool(key)
	}
}

// parseDuration parses a config duration, falling back to def when the value
// is empty.
func parseDuration(key, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

// parseSize parses a human-readable byte size such as "10MB" or "8MiB".
func parseSize(key, value string, def int64) (int64, error) {
	if value == "" {
		return def, nil
	}
	n, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return int64(n), nil
}

// newLogger builds the process logger from the logging section. verbose
// forces debug level.
func newLogger(w io.Writer, cfg config.LoggingConfig, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openStore opens the account store selected by the database section. The
// sqlite driver with no DSN uses roster.db under the data directory.
func openStore(cfg config.DatabaseConfig) (*config.Store, error) {
	dialect, err := config.ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if dialect == config.DialectSQLite && cfg.DSN == "" {
		return config.NewStore(resolveDataDir())
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required for driver %q", dialect)
	}
	return config.Open(dialect, cfg.DSN)
}

// app bundles the store and services every command needs.
type app struct {
	cfg    *config.YAMLConfig
	logger *slog.Logger
	store  *config.Store
	hasher password.Hasher
	auth   *service.AuthService
	admins *service.AdminService
	users  *service.UserService
}

// openApp loads configuration and builds the app for an operator command.
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(cfg, newLogger(os.Stderr, cfg.Logging, false), false)
}

// newApp opens the store and builds the services. devLogin enables the
// configured development credential pair.
func newApp(cfg *config.YAMLConfig, logger *slog.Logger, devLogin bool) (*app, error) {
	ttl, err := parseDuration("auth.jwt_expiry", cfg.Auth.JWTExpiry, 12*time.Hour)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init account store: %w", err)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = randomSecret()
		logger.Debug("no auth.jwt_secret configured, using a per-process secret")
	}

	hasher := password.NewBcryptHasher(0)
	authSvc := service.NewAuthService(secret, ttl)

	opts := service.AdminOptions{
		DefaultPassword: cfg.Import.DefaultPassword,
		SuperAdminID:    cfg.Bootstrap.AdminID,
	}
	if devLogin && cfg.Auth.DevLogin.Enabled {
		opts.DevLogin = service.DevLogin{
			Enabled:  true,
			Username: cfg.Auth.DevLogin.Username,
			Password: cfg.Auth.DevLogin.Password,
			AdminID:  cfg.Bootstrap.AdminID,
		}
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		hasher: hasher,
		auth:   authSvc,
		admins: service.NewAdminService(store, hasher, authSvc, logger, opts),
		users:  service.NewUserService(store, hasher, logger),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// superAdminConfig maps the bootstrap section onto the service input.
func (a *app) superAdminConfig() service.SuperAdminConfig {
	b := a.cfg.Bootstrap
	return service.SuperAdminConfig{
		AdminID:  b.AdminID,
		Name:     b.Name,
		Rank:     b.Rank,
		Area:     b.Area,
		Password: b.Password,
	}
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("read random secret: %v", err))
	}
	return hex.EncodeToString(buf)
}

// readPassword prompts on the terminal without echo. With confirm set the
// password is asked for twice and both entries must match.
func readPassword(prompt string, confirm bool) (string, error) {
	fmt.Print(prompt)
	pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if !confirm {
		return string(pwBytes), nil
	}

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	if string(pwBytes) != string(confirmBytes) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pwBytes), nil
}

// --- PID file management ---

func pidFilePath() string {
	return filepath.Join(resolveDataDir(), "roster.pid")
}

func writePID(pid int) error {
	dir := resolveDataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0644)
}

func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePID() {
	os.Remove(pidFilePath())
}

func logFilePath() string {
	return filepath.Join(resolveDataDir(), "roster.log")
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
