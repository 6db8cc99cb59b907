package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newNotificationsCmd() *cobra.Command {
	var unreadOnly, markAll bool

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show the notification feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if markAll {
				if err := e.client.MarkAllNotificationsRead(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(out, "Все уведомления прочитаны")
				return nil
			}

			var filter *bool
			if unreadOnly {
				f := false
				filter = &f
			}
			feed, err := e.client.Notifications(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if len(feed) == 0 {
				fmt.Fprintln(out, e.tr("notifications.none"))
				return nil
			}
			for _, n := range feed {
				marker := " "
				if !n.IsRead {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s  %s: %s\n",
					marker, n.CreatedAt.Format(time.DateTime), n.Title, n.Message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "only unread entries")
	cmd.Flags().BoolVar(&markAll, "read-all", false, "mark the whole feed as read")
	return cmd
}
