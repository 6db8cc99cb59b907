package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akobyansamvel/curs/internal/api"
)

func newModerationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "moderation",
		Short: "Complaints, bans and the moderation dashboard",
	}

	cmd.AddCommand(newComplaintsCmd())
	cmd.AddCommand(newComplainCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newBansCmd())
	cmd.AddCommand(newStatsCmd())
	return cmd
}

func newComplaintsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complaints",
		Short: "List complaints (your own, or all for moderators)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			list, err := e.client.Complaints(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, comp := range list {
				target := "?"
				if comp.ReportedUser != nil {
					target = "user " + comp.ReportedUser.DisplayName()
				} else if comp.ReportedRequest != nil {
					target = fmt.Sprintf("request #%d", comp.ReportedRequest.ID)
				}
				fmt.Fprintf(out, "%4d  [%s]  %s  %s: %s\n",
					comp.ID, comp.Status, comp.ComplaintType, target, comp.Description)
			}
			return nil
		},
	}
}

func newComplainCmd() *cobra.Command {
	var draft api.ComplaintDraft

	cmd := &cobra.Command{
		Use:   "complain",
		Short: "File a complaint against a user or a request",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			comp, err := e.client.CreateComplaint(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Жалоба №%d отправлена\n", comp.ID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&draft.UserID, "user", 0, "reported user id")
	cmd.Flags().Int64Var(&draft.RequestID, "request", 0, "reported request id")
	cmd.Flags().StringVar(&draft.ComplaintType, "type", "other", "complaint type (spam, fraud, harassment, ...)")
	cmd.Flags().StringVar(&draft.Description, "text", "", "what happened")
	return cmd
}

func newResolveCmd() *cobra.Command {
	var status, comment string

	cmd := &cobra.Command{
		Use:   "resolve <complaint-id>",
		Short: "Resolve or reject a complaint (moderators)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			comp, err := e.client.ResolveComplaint(cmd.Context(), id, status, comment)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Жалоба №%d: %s\n", comp.ID, comp.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "resolved", `"resolved" or "rejected"`)
	cmd.Flags().StringVar(&comment, "comment", "", "moderator comment")
	return cmd
}

func newBansCmd() *cobra.Command {
	var draft api.BanDraft

	cmd := &cobra.Command{
		Use:   "bans",
		Short: "List bans, or issue one with --user (moderators)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if draft.UserID != 0 {
				ban, err := e.client.CreateBan(cmd.Context(), draft)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Бан №%d выдан пользователю %s\n", ban.ID, ban.User.DisplayName())
				return nil
			}

			bans, err := e.client.Bans(cmd.Context())
			if err != nil {
				return err
			}
			for _, ban := range bans {
				until := "навсегда"
				if ban.EndsAt != nil {
					until = "до " + ban.EndsAt.Format("2006-01-02")
				}
				fmt.Fprintf(out, "%4d  %s  %s (%s)\n", ban.ID, ban.User.DisplayName(), ban.Reason, until)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&draft.UserID, "user", 0, "user id to ban")
	cmd.Flags().StringVar(&draft.BanType, "type", "temporary", `"temporary" or "permanent"`)
	cmd.Flags().StringVar(&draft.Reason, "reason", "", "ban reason")
	cmd.Flags().IntVar(&draft.Days, "days", 7, "duration of a temporary ban")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the moderation dashboard aggregates (moderators)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			stats, err := e.client.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "пользователи: %d\n", stats.TotalUsers)
			fmt.Fprintf(out, "заявки: %d (активных %d)\n", stats.TotalRequests, stats.ActiveRequests)
			fmt.Fprintf(out, "жалобы в ожидании: %d\n", stats.PendingComplaints)
			fmt.Fprintf(out, "активные баны: %d\n", stats.ActiveBans)
			return nil
		},
	}
}
