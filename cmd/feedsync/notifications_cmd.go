package main

import (
	"fmt"

	"github.com/Leitan123/SmartScholarsPAF/inbox"
	"github.com/spf13/cobra"
)

func newNotificationsCmd() *cobra.Command {
	var markRead bool
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox"},
		Short:   "List your notifications, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			h := inbox.NewHolder(a.api, a.notifier, nil)
			defer h.Close()
			if err := h.Load(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d unread\n", h.Unread())
			renderNotifications(a.out, h.Notifications())
			if markRead && h.Unread() > 0 {
				return h.MarkAllRead(cmd.Context())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&markRead, "mark-read", false, "mark everything read after listing")
	return cmd
}
