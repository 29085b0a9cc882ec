package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Leitan123/SmartScholarsPAF/events"
	"github.com/Leitan123/SmartScholarsPAF/model"
	"github.com/Leitan123/SmartScholarsPAF/story"
	"github.com/spf13/cobra"
)

func (a *app) loadedStories(ctx context.Context, opts ...story.Option) (*story.Holder, error) {
	opts = append([]story.Option{story.WithNotifier(a.notifier)}, opts...)
	h := story.NewHolder(a.api, a.session, opts...)
	if err := h.Load(ctx); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

func newStoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stories",
		Short: "List the statuses currently published",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			h, err := a.loadedStories(cmd.Context())
			if err != nil {
				return err
			}
			defer h.Close()
			renderStatuses(a.out, h.Statuses())
			return nil
		},
	}
}

func newStoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "story",
		Short: "View, edit or delete a single status",
	}
	cmd.AddCommand(newStoryViewCmd(), newStoryEditCmd(), newStoryDeleteCmd())
	return cmd
}

func printStatus(a *app, s model.Status) {
	fmt.Fprintf(a.out, "%s  %s\n", s.User.Username, s.CreatedAt.Short())
	if s.MediaPath != "" {
		fmt.Fprintf(a.out, "media: %s\n", model.MediaURL(a.setting.BASE_URL, s.MediaPath))
	}
	fmt.Fprintln(a.out, s.Content)
}

// newStoryViewCmd shows a status the same way the viewer does: it stays on
// screen for the configured duration, then dismisses itself.
func newStoryViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <statusId>",
		Short: "Show a status until it dismisses itself",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			bus := a.withBus()
			defer a.close()

			h, err := a.loadedStories(ctx, story.WithBus(bus))
			if err != nil {
				return err
			}
			defer h.Close()
			updates, err := bus.Subscribe(ctx, events.TopicStory)
			if err != nil {
				return err
			}
			v := story.NewViewer(h, story.WithDuration(a.setting.StatusDuration()))
			if err := v.OpenById(args[0]); err != nil {
				return err
			}
			defer v.Close()
			if s, ok := v.Current(); ok {
				printStatus(a, s)
			}

			for v.State() != story.Closed {
				select {
				case <-ctx.Done():
					return nil
				case <-updates:
				}
			}
			fmt.Fprintln(a.out, "(dismissed)")
			return nil
		},
	}
}

func newStoryEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <statusId> <content>",
		Short: "Change the content of one of your statuses",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			h, err := a.loadedStories(cmd.Context())
			if err != nil {
				return err
			}
			defer h.Close()
			v := story.NewViewer(h, story.WithDuration(a.setting.StatusDuration()))
			if err := v.OpenById(args[0]); err != nil {
				return err
			}
			defer v.Close()
			if err := v.BeginEdit(); err != nil {
				return err
			}
			v.SetDraft(strings.Join(args[1:], " "))
			return v.SaveEdit(cmd.Context())
		},
	}
}

func newStoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <statusId>",
		Short: "Delete one of your statuses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			h, err := a.loadedStories(cmd.Context())
			if err != nil {
				return err
			}
			defer h.Close()
			v := story.NewViewer(h)
			if err := v.OpenById(args[0]); err != nil {
				return err
			}
			defer v.Close()
			return v.Delete(cmd.Context())
		},
	}
}
