package main

import (
	"fmt"

	"github.com/Leitan123/SmartScholarsPAF/session"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the bearer token issued by the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			if token == "" {
				token = a.setting.Token
			}
			if token == "" {
				return errors.New("--token is required")
			}
			a.session.SignIn(session.Credentials{Token: token})
			if err := a.resolveUser(cmd.Context()); err != nil {
				return err
			}
			if err := a.store.Save(cmd.Context(), a.session.Credentials()); err != nil {
				return err
			}
			a.notifier.Success("Signed in as " + a.session.User().Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "bearer token, defaults to $FEEDSYNC_TOKEN")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			if err := a.store.Clear(cmd.Context()); err != nil {
				return err
			}
			a.session.Clear()
			a.notifier.Success("Signed out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			u := a.session.User()
			fmt.Fprintf(a.out, "%s <%s> id=%s\n", u.Username, u.Email, u.Id)
			return nil
		},
	}
}
