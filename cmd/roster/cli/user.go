package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rosterhq/roster/internal/service"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the users owned by an admin",
		Long:  "List, add, edit, rename and delete users. Every command is scoped to one admin via --admin-id.",
	}

	cmd.PersistentFlags().String("admin-id", "", "Owning admin ID (required)")
	cmd.MarkPersistentFlagRequired("admin-id")

	cmd.AddCommand(newUserListCmd())
	cmd.AddCommand(newUserAddCmd())
	cmd.AddCommand(newUserEditCmd())
	cmd.AddCommand(newUserRenameCmd())
	cmd.AddCommand(newUserDeleteCmd())

	return cmd
}

func adminIDFlag(cmd *cobra.Command) string {
	id, _ := cmd.Flags().GetString("admin-id")
	return id
}

// ---------- user list ----------

func newUserListCmd() *cobra.Command {
	var (
		page       int
		size       int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List an admin's users one page at a time",
		Example: `  roster user list --admin-id ADM001
  roster user list --admin-id ADM001 --page 2 --size 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				return runUserList(ctx, a, cmd.OutOrStdout(), adminIDFlag(cmd), page, size, jsonOutput)
			})
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "Zero-based page number")
	cmd.Flags().IntVar(&size, "size", 10, "Page size (1-100)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runUserList(ctx context.Context, a *app, w io.Writer, adminID string, page, size int, jsonOutput bool) error {
	result, err := a.users.ListUsers(ctx, adminID, page, size)
	if err != nil {
		return fmt.Errorf("list users of %q: %w", adminID, err)
	}

	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if len(result.Content) == 0 {
		fmt.Fprintf(w, "No users on page %d (%d total).\n", result.Number, result.TotalElements)
		return nil
	}

	fmt.Fprintf(w, "%-6s %-24s %-16s %-20s\n", "ID", "USERNAME", "RANK", "AREA")
	fmt.Fprintf(w, "%-6s %-24s %-16s %-20s\n", "--", "--------", "----", "----")
	for _, u := range result.Content {
		fmt.Fprintf(w, "%-6d %-24s %-16s %-20s\n", u.ID, u.Username, u.Rank, u.AreaOfWorking)
	}
	fmt.Fprintf(w, "\npage %d of %d, %d user(s) total\n", result.Number+1, result.TotalPages, result.TotalElements)
	return nil
}

// ---------- user add ----------

func newUserAddCmd() *cobra.Command {
	var in service.AddUserInput

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Add a user to an admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.AdminID = adminIDFlag(cmd)
			in.Username = args[0]
			if in.Password == "" {
				pw, err := readPassword("Password: ", true)
				if err != nil {
					return err
				}
				in.Password = pw
			}
			return withApp(func(ctx context.Context, a *app) error {
				return runUserAdd(ctx, a, cmd.OutOrStdout(), in)
			})
		},
	}

	cmd.Flags().StringVar(&in.Password, "password", "", "Password (prompted if omitted)")
	cmd.Flags().StringVar(&in.Rank, "rank", "", "Rank (required)")
	cmd.Flags().StringVar(&in.AreaOfWorking, "area", "", "Area of working (required)")
	cmd.MarkFlagRequired("rank")
	cmd.MarkFlagRequired("area")

	return cmd
}

func runUserAdd(ctx context.Context, a *app, w io.Writer, in service.AddUserInput) error {
	u, err := a.users.AddUser(ctx, in)
	if err != nil {
		return fmt.Errorf("add user: %w", err)
	}
	fmt.Fprintf(w, "Added user %q to admin %q\n", u.Username, in.AdminID)
	return nil
}

// ---------- user edit ----------

func newUserEditCmd() *cobra.Command {
	var rank, area string

	cmd := &cobra.Command{
		Use:   "edit <username>",
		Short: "Update a user's rank and area of working",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				return runUserEdit(ctx, a, cmd.OutOrStdout(), adminIDFlag(cmd), args[0], rank, area)
			})
		},
	}

	cmd.Flags().StringVar(&rank, "rank", "", "New rank (required)")
	cmd.Flags().StringVar(&area, "area", "", "New area of working (required)")
	cmd.MarkFlagRequired("rank")
	cmd.MarkFlagRequired("area")

	return cmd
}

func runUserEdit(ctx context.Context, a *app, w io.Writer, adminID, username, rank, area string) error {
	if err := a.users.UpdateUserRankAndArea(ctx, adminID, username, rank, area); err != nil {
		return fmt.Errorf("edit user %q: %w", username, err)
	}
	fmt.Fprintf(w, "Updated user %q\n", username)
	return nil
}

// ---------- user rename ----------

func newUserRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <username> <new-username>",
		Short: "Change a user's username",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				return runUserRename(ctx, a, cmd.OutOrStdout(), adminIDFlag(cmd), args[0], args[1])
			})
		},
	}
}

func runUserRename(ctx context.Context, a *app, w io.Writer, adminID, username, newUsername string) error {
	if err := a.users.RenameUser(ctx, adminID, username, newUsername); err != nil {
		return fmt.Errorf("rename user %q: %w", username, err)
	}
	fmt.Fprintf(w, "Renamed user %q to %q\n", username, newUsername)
	return nil
}

// ---------- user delete ----------

func newUserDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <username>",
		Aliases: []string{"rm"},
		Short:   "Delete a user",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				return runUserDelete(ctx, a, cmd.OutOrStdout(), adminIDFlag(cmd), args[0])
			})
		},
	}
}

func runUserDelete(ctx context.Context, a *app, w io.Writer, adminID, username string) error {
	if err := a.users.DeleteUser(ctx, adminID, username); err != nil {
		return fmt.Errorf("delete user %q: %w", username, err)
	}
	fmt.Fprintf(w, "Deleted user %q\n", username)
	return nil
}
