package main

import (
	"context"
	"strings"

	"github.com/Leitan123/SmartScholarsPAF/people"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) loadedPeople(ctx context.Context) (*people.Holder, error) {
	h := people.NewHolder(a.api, a.session,
		people.WithNotifier(a.notifier),
		people.WithParallelism(a.setting.FETCH_PARALLELISM),
	)
	if err := h.Load(ctx); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

// lookupUser accepts an id, a username or an email.
func lookupUser(h *people.Holder, ref string) (string, error) {
	for _, u := range h.Snapshot().Users {
		if u.Id == ref || strings.EqualFold(u.Username, ref) || strings.EqualFold(u.Email, ref) {
			return u.Id, nil
		}
	}
	return "", errors.Wrap(people.ErrUnknownUser, ref)
}

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List every user with your follow state toward them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			h, err := a.loadedPeople(cmd.Context())
			if err != nil {
				return err
			}
			defer h.Close()
			renderUsers(a.out, a.session.User(), h.Snapshot())
			return nil
		},
	}
}

func newFollowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "follow <user>",
		Short: "Send a follow request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			h, err := a.loadedPeople(cmd.Context())
			if err != nil {
				return err
			}
			defer h.Close()
			userId, err := lookupUser(h, args[0])
			if err != nil {
				return err
			}
			if err := h.RequestFollow(cmd.Context(), userId); err != nil {
				return err
			}
			a.notifier.Success(args[0] + ": " + h.State(userId).String())
			return nil
		},
	}
}

func newUnfollowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unfollow <user>",
		Short: "Stop following a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			h, err := a.loadedPeople(cmd.Context())
			if err != nil {
				return err
			}
			defer h.Close()
			userId, err := lookupUser(h, args[0])
			if err != nil {
				return err
			}
			if err := h.Unfollow(cmd.Context(), userId); err != nil {
				return err
			}
			a.notifier.Success(args[0] + ": " + h.State(userId).String())
			return nil
		},
	}
}
