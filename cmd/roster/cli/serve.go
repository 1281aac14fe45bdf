package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rosterhq/roster/internal/config"
	"github.com/rosterhq/roster/internal/handler"
	"github.com/rosterhq/roster/internal/openapi"
	"github.com/rosterhq/roster/internal/server"
	"github.com/rosterhq/roster/internal/service"
)

const banner = `
 ____   ___  ____ _____ _____ ____
|  _ \ / _ \/ ___|_   _| ____|  _ \
| |_) | | | \___ \ | | |  _| | |_) |
|  _ <| |_| |___) || | | |___|  _ <
|_| \_\\___/|____/ |_| |_____|_| \_\
`

func newServeCmd() *cobra.Command {
	var (
		port   int
		host   string
		dev    bool
		daemon bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the roster API server",
		Long: `Start the HTTP server that exposes the /api/auth API.

On start the super-admin account from the bootstrap section is created if it
does not exist yet. With --daemon the server is started in the background and
its output goes to the log file in the data directory; use 'roster status' and
'roster stop' to manage it.`,
		Example: `  roster serve
  roster serve --port 9000
  roster serve --daemon`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if daemon {
				return startDaemon()
			}
			return runServe(dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8081, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (debug logging, dev login if configured)")
	cmd.Flags().BoolVar(&daemon, "daemon", false, "Run the server in the background")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(dev bool) error {
	fmt.Print(banner)
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.Logging, dev)
	if cfg.Auth.DevLogin.Enabled {
		if !dev {
			return fmt.Errorf("auth.dev_login.enabled requires --dev")
		}
		logger.Warn("development login enabled; do not run this configuration in production",
			"username", cfg.Auth.DevLogin.Username)
	}

	a, err := newApp(cfg, logger, dev)
	if err != nil {
		return err
	}
	// The server closes the store after shutdown.
	logger.Info("account store initialized", "dialect", a.store.Dialect())

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("no auth.jwt_secret configured; tokens will not survive a restart",
			"hint", "set ROSTER_AUTH_JWT_SECRET")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	created, err := a.bootstrapAdmins(ctx)
	cancel()
	if err != nil {
		a.Close()
		return err
	}
	if created {
		fmt.Printf("→ Created super admin %q\n", cfg.Bootstrap.AdminID)
	}

	srvCfg, err := serverConfig(cfg)
	if err != nil {
		a.Close()
		return err
	}

	if err := writePID(os.Getpid()); err != nil {
		logger.Warn("failed to write PID file", "path", pidFilePath(), "error", err)
	}
	defer removePID()

	srv := server.New(srvCfg, a.store, a.admins, a.users, a.auth, logger)

	display := srvCfg.Host
	if display == "" || display == "0.0.0.0" {
		display = "localhost"
	}
	base := fmt.Sprintf("http://%s:%d", display, srvCfg.Port)

	fmt.Printf("→ Roster %s\n", versionString())
	fmt.Printf("→ Listening on %s\n", base)
	fmt.Printf("→ API:        %s%s\n", base, openapi.BasePath)
	fmt.Printf("→ OpenAPI:    %s/openapi.json\n", base)
	fmt.Printf("→ Health:     %s/healthz\n", base)
	if srvCfg.RequireToken {
		fmt.Println("→ Bearer tokens required on user, upload and password endpoints")
	}
	fmt.Println()

	return srv.ListenAndServe()
}

// bootstrapAdmins ensures the super admin exists. When none was created and
// the store holds no admin at all, nobody can log in, so a warning is logged.
func (a *app) bootstrapAdmins(ctx context.Context) (bool, error) {
	created, err := service.EnsureSuperAdmin(ctx, a.store, a.hasher, a.superAdminConfig(), a.logger)
	if err != nil {
		return false, fmt.Errorf("bootstrap super admin: %w", err)
	}
	if created {
		return true, nil
	}
	ok, err := a.store.HasAnyAdmin(ctx)
	if err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	if !ok {
		a.logger.Warn("no admin accounts exist; nobody can log in",
			"hint", "set bootstrap.password or run 'roster admin import'")
	}
	return false, nil
}

// serverConfig translates the server and auth sections into server.Config.
func serverConfig(cfg *config.YAMLConfig) (server.Config, error) {
	srvCfg := server.DefaultConfig()
	srvCfg.Host = cfg.Server.Host
	srvCfg.Port = cfg.Server.Port
	srvCfg.CORSOrigins = cfg.Server.CORSOrigins
	srvCfg.LoginRatePerMinute = cfg.Server.LoginRatePerMinute
	srvCfg.UploadRatePerMinute = cfg.Server.UploadRatePerMinute
	srvCfg.RequireToken = cfg.Auth.RequireToken
	srvCfg.Version = appVersion

	timeout, err := parseDuration("server.shutdown_timeout", cfg.Server.ShutdownTimeout, srvCfg.ShutdownTimeout)
	if err != nil {
		return srvCfg, err
	}
	srvCfg.ShutdownTimeout = timeout

	maxUpload, err := parseSize("server.max_upload_size", cfg.Server.MaxUploadSize, handler.DefaultMaxUploadBytes)
	if err != nil {
		return srvCfg, err
	}
	srvCfg.MaxUploadBytes = maxUpload

	return srvCfg, nil
}

// startDaemon re-executes the current binary without --daemon, detached from
// the terminal, with output appended to the log file.
func startDaemon() error {
	if pid, err := readPID(); err == nil && isProcessRunning(pid) {
		return fmt.Errorf("server already running (PID %d)", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	args := make([]string, 0, len(os.Args))
	for _, arg := range os.Args[1:] {
		if arg == "--daemon" || arg == "--daemon=true" {
			continue
		}
		args = append(args, arg)
	}

	if err := os.MkdirAll(resolveDataDir(), 0755); err != nil {
		return err
	}
	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	child := exec.Command(exe, args...)
	child.Stdout = logFile
	child.Stderr = logFile
	child.Env = os.Environ()
	setSysProcAttr(child)

	if err := child.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	pid := child.Process.Pid
	if err := writePID(pid); err != nil {
		slog.Warn("failed to write PID file", "error", err)
	}
	child.Process.Release()

	fmt.Printf("Roster server started in the background (PID %d)\n", pid)
	fmt.Printf("  Logs: %s\n", logFilePath())
	fmt.Println("  Stop: roster stop")
	return nil
}
