package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rosterhq/roster/internal/importer"
	"github.com/rosterhq/roster/internal/model"
	"github.com/rosterhq/roster/internal/service"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
		Long:  "Create, import, list and maintain the admin accounts that own roster users.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())
	cmd.AddCommand(newAdminImportCmd())
	cmd.AddCommand(newAdminBootstrapCmd())
	cmd.AddCommand(newAdminPasswdCmd())
	cmd.AddCommand(newAdminActiveCmd("activate", true))
	cmd.AddCommand(newAdminActiveCmd("deactivate", false))
	cmd.AddCommand(newAdminDeleteCmd())

	return cmd
}

// withApp opens the app for the duration of fn.
func withApp(fn func(ctx context.Context, a *app) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(context.Background(), a)
}

// ---------- admin create ----------

type adminCreateOptions struct {
	adminID  string
	name     string
	rank     string
	area     string
	password string
}

func newAdminCreateCmd() *cobra.Command {
	var opts adminCreateOptions

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a single admin with a chosen password",
		Example: `  roster admin create --admin-id ADM001 --name "Jane Doe" --rank Captain --area North
  roster admin create --admin-id ADM001 --name "Jane Doe" --rank Captain --area North --password 'S3cure#pass'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.password == "" {
				pw, err := readPassword("Password: ", true)
				if err != nil {
					return err
				}
				opts.password = pw
			}
			return withApp(func(ctx context.Context, a *app) error {
				return runAdminCreate(ctx, a, cmd.OutOrStdout(), opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.adminID, "admin-id", "", "Admin ID (required)")
	cmd.Flags().StringVar(&opts.name, "name", "", "Display name used to log in (required)")
	cmd.Flags().StringVar(&opts.rank, "rank", "", "Rank (required)")
	cmd.Flags().StringVar(&opts.area, "area", "", "Area of working (required)")
	cmd.Flags().StringVar(&opts.password, "password", "", "Password (prompted if omitted)")
	cmd.MarkFlagRequired("admin-id")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("rank")
	cmd.MarkFlagRequired("area")

	return cmd
}

func runAdminCreate(ctx context.Context, a *app, w io.Writer, opts adminCreateOptions) error {
	admin, err := a.admins.CreateAdmin(ctx, service.CreateAdminInput{
		AdminID:       opts.adminID,
		Name:          opts.name,
		Rank:          opts.rank,
		AreaOfWorking: opts.area,
		Password:      opts.password,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	fmt.Fprintf(w, "Created admin %q (%s)\n", admin.AdminID, admin.Name)
	return nil
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all admins",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				return runAdminList(ctx, a, cmd.OutOrStdout(), jsonOutput)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAdminList(ctx context.Context, a *app, w io.Writer, jsonOutput bool) error {
	admins, err := a.admins.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}

	if jsonOutput {
		if admins == nil {
			admins = []model.Admin{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(admins)
	}

	if len(admins) == 0 {
		fmt.Fprintln(w, "No admins configured. Use 'roster admin import' or 'roster admin create' to add one.")
		return nil
	}

	fmt.Fprintf(w, "%-16s %-24s %-16s %-20s %-8s %-8s\n", "ADMIN ID", "NAME", "RANK", "AREA", "ACTIVE", "PENDING")
	fmt.Fprintf(w, "%-16s %-24s %-16s %-20s %-8s %-8s\n", "--------", "----", "----", "----", "------", "-------")
	for _, ad := range admins {
		fmt.Fprintf(w, "%-16s %-24s %-16s %-20s %-8s %-8s\n",
			ad.AdminID, ad.Name, ad.Rank, ad.AreaOfWorking, yesNo(ad.IsActive), yesNo(ad.FirstLogin))
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// ---------- admin import ----------

func newAdminImportCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import admins from an .xlsx or .csv sheet",
		Long: `Import admins from a spreadsheet whose first row is a header and whose
columns are adminId, name, rank, areaOfWorking. Admins whose ID already exists
are skipped; new admins get the configured default password and must change it
on first login.`,
		Example: `  roster admin import admins.xlsx
  roster admin import admins.csv --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				return runAdminImport(ctx, a, cmd.OutOrStdout(), args[0], jsonOutput)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output outcomes as JSON")

	return cmd
}

func runAdminImport(ctx context.Context, a *app, w io.Writer, path string, jsonOutput bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := importer.ReadRows(f, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	outcomes := a.admins.ImportAdmins(ctx, rows)

	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(model.ImportResponse{
			Status:  "success",
			Message: fmt.Sprintf("%s processed", path),
			Results: outcomes,
		})
	}

	counts := map[string]int{}
	for _, o := range outcomes {
		counts[o.Status]++
		fmt.Fprintf(w, "row %-4d %-8s %-16s %s\n", o.Row, o.Status, o.AdminID, o.Message)
	}
	fmt.Fprintf(w, "\n%d created, %d skipped, %d failed\n",
		counts[model.ImportSuccess], counts[model.ImportSkipped], counts[model.ImportError])
	return nil
}

// ---------- admin bootstrap ----------

func newAdminBootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the super-admin account from the bootstrap config",
		Long: `Create the super-admin account described by the bootstrap section of the
configuration. Nothing happens if the account already exists. 'roster serve'
runs the same step on every start.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				return runAdminBootstrap(ctx, a, cmd.OutOrStdout())
			})
		},
	}
}

func runAdminBootstrap(ctx context.Context, a *app, w io.Writer) error {
	cfg := a.superAdminConfig()
	if cfg.Password == "" {
		return fmt.Errorf("no bootstrap password configured (set bootstrap.password or ROSTER_BOOTSTRAP_PASSWORD)")
	}
	created, err := service.EnsureSuperAdmin(ctx, a.store, a.hasher, cfg, a.logger)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(w, "Created super admin %q\n", cfg.AdminID)
	} else {
		fmt.Fprintf(w, "Super admin %q already exists\n", cfg.AdminID)
	}
	return nil
}

// ---------- admin passwd ----------

func newAdminPasswdCmd() *cobra.Command {
	var pw string

	cmd := &cobra.Command{
		Use:   "passwd <adminId>",
		Short: "Set an admin's password",
		Long:  "Set a new password for an admin regardless of its current password. The admin leaves first-login state.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pw == "" {
				var err error
				if pw, err = readPassword("New password: ", true); err != nil {
					return err
				}
			}
			return withApp(func(ctx context.Context, a *app) error {
				return runAdminPasswd(ctx, a, cmd.OutOrStdout(), args[0], pw)
			})
		},
	}

	cmd.Flags().StringVar(&pw, "password", "", "New password (prompted if omitted)")

	return cmd
}

func runAdminPasswd(ctx context.Context, a *app, w io.Writer, adminID, pw string) error {
	if err := a.admins.ResetPassword(ctx, adminID, pw); err != nil {
		return fmt.Errorf("set password for %q: %w", adminID, err)
	}
	fmt.Fprintf(w, "Password updated for admin %q\n", adminID)
	return nil
}

// ---------- admin activate / deactivate ----------

func newAdminActiveCmd(use string, active bool) *cobra.Command {
	short := "Allow an admin to log in again"
	if !active {
		short = "Block an admin from logging in"
	}
	return &cobra.Command{
		Use:   use + " <adminId>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				return runAdminSetActive(ctx, a, cmd.OutOrStdout(), args[0], active)
			})
		},
	}
}

func runAdminSetActive(ctx context.Context, a *app, w io.Writer, adminID string, active bool) error {
	if err := a.admins.SetActive(ctx, adminID, active); err != nil {
		return fmt.Errorf("update admin %q: %w", adminID, err)
	}
	state := "activated"
	if !active {
		state = "deactivated"
	}
	fmt.Fprintf(w, "Admin %q %s\n", adminID, state)
	return nil
}

// ---------- admin delete ----------

func newAdminDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <adminId>",
		Short: "Delete an admin and all of its users",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("deleting %q also deletes all of its users; re-run with --force to confirm", args[0])
			}
			return withApp(func(ctx context.Context, a *app) error {
				return runAdminDelete(ctx, a, cmd.OutOrStdout(), args[0])
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm deletion")

	return cmd
}

func runAdminDelete(ctx context.Context, a *app, w io.Writer, adminID string) error {
	removed, err := a.admins.DeleteAdmin(ctx, adminID)
	if err != nil {
		return fmt.Errorf("delete admin %q: %w", adminID, err)
	}
	fmt.Fprintf(w, "Deleted admin %q and %d user(s)\n", adminID, removed)
	return nil
}
