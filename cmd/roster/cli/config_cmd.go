package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rosterhq/roster/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage roster configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		path  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default roster.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd.OutOrStdout(), path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")
	cmd.Flags().StringVarP(&path, "output", "o", "roster.yaml", "Path of the file to write")

	return cmd
}

func runConfigInit(w io.Writer, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := config.WriteDefaultConfig(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(w, "Created %s\n", path)
	fmt.Fprintln(w, "Set bootstrap.password and auth.jwt_secret (or ROSTER_BOOTSTRAP_PASSWORD and ROSTER_AUTH_JWT_SECRET), then run 'roster serve'.")
	return nil
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current effective configuration",
		Long:  "Print the configuration after defaults, the config file and ROSTER_* environment variables are applied. Secrets are masked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}
}

func runConfigShow(w io.Writer) error {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Fprintf(w, "# Config file: %s\n", configFile)
	} else {
		fmt.Fprintln(w, "# Config file: (none found, using defaults)")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	masked := *cfg
	masked.Auth.JWTSecret = mask(cfg.Auth.JWTSecret)
	masked.Auth.DevLogin.Password = mask(cfg.Auth.DevLogin.Password)
	masked.Bootstrap.Password = mask(cfg.Bootstrap.Password)
	masked.Import.DefaultPassword = mask(cfg.Import.DefaultPassword)
	masked.Database.DSN = mask(cfg.Database.DSN)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(&masked)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
