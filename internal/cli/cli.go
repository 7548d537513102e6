// Package cli implements complaintctl, which works directly on the configured
// store using the persisted session as the current user.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"complaintdesk/internal/model"
	"complaintdesk/internal/seed"
	"complaintdesk/internal/service"
	"complaintdesk/internal/session"
)

// Deps are the collaborators the commands run against.
type Deps struct {
	Session    *session.Store
	Auth       service.AuthService
	Complaints service.ComplaintService
	Seeder     *seed.Loader
}

// NewRootCmd builds the command tree.
func NewRootCmd(deps *Deps) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "complaintctl",
		Short: "Submit and track complaints from the terminal",
		Long: `complaintctl submits and tracks complaints in the configured store.

Log in first; every other command acts as the logged-in user.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(loginCmd(deps))
	rootCmd.AddCommand(logoutCmd(deps))
	rootCmd.AddCommand(whoamiCmd(deps))
	rootCmd.AddCommand(submitCmd(deps))
	rootCmd.AddCommand(listCmd(deps))
	rootCmd.AddCommand(resolveCmd(deps))
	rootCmd.AddCommand(statusCmd(deps))
	rootCmd.AddCommand(statsCmd(deps))
	rootCmd.AddCommand(notificationsCmd(deps))
	rootCmd.AddCommand(seedCmd(deps))

	return rootCmd
}

func loginCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")

			_, user, err := deps.Auth.Login(cmd.Context(), name, email)
			if err != nil {
				return fmt.Errorf("failed to log in: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged in as %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
	cmd.Flags().String("name", "", "display name")
	cmd.Flags().String("email", "", "email address")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := deps.Auth.Logout(cmd.Context(), "", 0); err != nil {
				return fmt.Errorf("failed to log out: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Logged out")
			return nil
		},
	}
}

func whoamiCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the session user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, ok := deps.Session.Current()
			if !ok {
				return fmt.Errorf("not logged in\nHint: run complaintctl login --name NAME --email EMAIL")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:  %s\n", user.Name)
			fmt.Fprintf(out, "Email: %s\n", user.Email)
			fmt.Fprintf(out, "ID:    %s\n", user.ID)
			return nil
		},
	}
}

func statsCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count complaints per status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mine, _ := cmd.Flags().GetBool("mine")
			stats, err := deps.Complaints.Stats(cmd.Context(), !mine)
			if err != nil {
				return fmt.Errorf("failed to load stats: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total:       %d\n", stats.Total)
			fmt.Fprintf(out, "Pending:     %s\n", statusColor(model.StatusPending).Sprint(stats.Pending))
			fmt.Fprintf(out, "In progress: %s\n", statusColor(model.StatusInProgress).Sprint(stats.InProgress))
			fmt.Fprintf(out, "Resolved:    %s\n", statusColor(model.StatusResolved).Sprint(stats.Resolved))
			return nil
		},
	}
	cmd.Flags().Bool("mine", false, "count only your complaints")
	return cmd
}

func notificationsCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show status-change notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			notes, err := deps.Complaints.Notifications(ctx)
			if err != nil {
				return fmt.Errorf("failed to list notifications: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(notes) == 0 {
				fmt.Fprintln(out, "No notifications")
				return nil
			}
			for _, n := range notes {
				marker := "  "
				if !n.Read {
					marker = color.New(color.FgHiMagenta).Sprint("● ")
				}
				fmt.Fprintf(out, "%s%s  %s\n", marker, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Message)
			}

			markRead, _ := cmd.Flags().GetBool("mark-read")
			if markRead {
				if _, err := deps.Complaints.MarkNotificationsRead(ctx); err != nil {
					return fmt.Errorf("failed to mark notifications read: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("mark-read", false, "mark all shown notifications read")
	return cmd
}

func seedCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed [file-or-url]",
		Short: "Load demo complaints",
		Long: `Load complaints from a JSON array in a local file or at an http(s) URL.
Records without a userId are assigned to the session user.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), cmd.OutOrStdout(), deps, args[0])
		},
	}
	return cmd
}

func runSeed(ctx context.Context, out io.Writer, deps *Deps, source string) error {
	records, err := deps.Seeder.Fetch(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to fetch seed data: %w", err)
	}

	var owner string
	if user, ok := deps.Session.Current(); ok {
		owner = user.ID
	}
	res, err := deps.Seeder.Load(ctx, records, owner)
	if err != nil {
		return fmt.Errorf("failed to seed complaints: %w", err)
	}

	fmt.Fprintln(out, "✓ Seed completed")
	fmt.Fprintf(out, "  - New complaints created: %d\n", res.Created)
	fmt.Fprintf(out, "  - Already present: %d\n", res.Existing)
	fmt.Fprintf(out, "  - Skipped: %d\n", res.Skipped)
	return nil
}

func statusColor(s model.ComplaintStatus) *color.Color {
	switch s {
	case model.StatusPending:
		return color.New(color.FgYellow)
	case model.StatusInProgress:
		return color.New(color.FgHiBlue)
	case model.StatusResolved:
		return color.New(color.FgHiGreen)
	default:
		return color.New(color.FgWhite)
	}
}

func priorityColor(p model.Priority) *color.Color {
	switch p {
	case model.PriorityUrgent:
		return color.New(color.FgRed, color.Bold)
	case model.PriorityHigh:
		return color.New(color.FgRed)
	case model.PriorityMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgHiBlack)
	}
}

func choices[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
