package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"complaintdesk/internal/media"
	"complaintdesk/internal/model"
	"complaintdesk/internal/service"
)

func submitCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a complaint",
		Long: fmt.Sprintf(`Submit a complaint as the session user.

Categories: %s
Priorities: %s
Attachments must be images or videos.`, choices(model.Categories), choices(model.Priorities)),
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := service.SubmitInput{}
			in.Title, _ = cmd.Flags().GetString("title")
			in.Description, _ = cmd.Flags().GetString("description")
			in.Category, _ = cmd.Flags().GetString("category")
			in.Priority, _ = cmd.Flags().GetString("priority")
			in.Location, _ = cmd.Flags().GetString("location")

			paths, _ := cmd.Flags().GetStringSlice("media")
			for _, path := range paths {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read attachment: %w", err)
				}
				in.Attachments = append(in.Attachments, media.Attachment{
					Name: filepath.Base(path),
					Data: data,
				})
			}

			complaint, err := deps.Complaints.Submit(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("failed to submit complaint: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Submitted complaint %s: %s\n", complaint.ID, complaint.Title)
			fmt.Fprintf(out, "  Status: %s\n", statusColor(complaint.Status).Sprint(complaint.Status))
			if n := len(complaint.Media); n > 0 {
				fmt.Fprintf(out, "  Attachments: %d\n", n)
			}
			return nil
		},
	}
	cmd.Flags().String("title", "", "short title")
	cmd.Flags().String("description", "", "what happened")
	cmd.Flags().String("category", "", "complaint category")
	cmd.Flags().String("priority", string(model.PriorityMedium), "low, medium, high or urgent")
	cmd.Flags().String("location", "", "where it happened")
	cmd.Flags().StringSlice("media", nil, "image or video files to attach")
	return cmd
}

func listCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your complaints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var status model.ComplaintStatus
			if raw, _ := cmd.Flags().GetString("status"); raw != "" {
				parsed, ok := model.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("invalid status: %s\nValid statuses: %s", raw, choices(model.Statuses))
				}
				status = parsed
			}

			all, _ := cmd.Flags().GetBool("all")
			complaints, err := deps.Complaints.List(cmd.Context(), status, all)
			if err != nil {
				return fmt.Errorf("failed to list complaints: %w", err)
			}
			if len(complaints) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No complaints found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			header := "ID\tSTATUS\tPRIORITY\tCATEGORY\tTITLE\tCREATED"
			if all {
				header += "\tOWNER"
			}
			fmt.Fprintln(w, header)
			for _, c := range complaints {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s",
					c.ID,
					statusColor(c.Status).Sprint(c.Status),
					priorityColor(c.Priority).Sprint(c.Priority),
					c.Category,
					c.Title,
					c.CreatedAt.Local().Format("2006-01-02 15:04"))
				if all {
					fmt.Fprintf(w, "\t%s", c.UserID)
				}
				fmt.Fprintln(w)
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("status", "", "only show complaints with this status")
	cmd.Flags().Bool("all", false, "show every user's complaints")
	return cmd
}

func resolveCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [id]",
		Short: "Mark a complaint resolved",
		Long: `Mark a complaint resolved. Under shared access (the default) any
complaint can be resolved; its owner is notified.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			complaint, err := deps.Complaints.Resolve(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to resolve complaint: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Complaint %s is %s\n", complaint.ID, statusColor(complaint.Status).Sprint(complaint.Status))
			return nil
		},
	}
}

func statusCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "status [id] [status]",
		Short: "Change a complaint's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := model.ParseStatus(args[1])
			if !ok {
				return fmt.Errorf("invalid status: %s\nValid statuses: %s", args[1], choices(model.Statuses))
			}
			complaint, err := deps.Complaints.UpdateStatus(cmd.Context(), args[0], status)
			if err != nil {
				return fmt.Errorf("failed to update status: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Complaint %s is %s\n", complaint.ID, statusColor(complaint.Status).Sprint(complaint.Status))
			return nil
		},
	}
}
