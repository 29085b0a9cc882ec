package main

import (
	"fmt"

	"github.com/Leitan123/SmartScholarsPAF/settings"
	"github.com/spf13/cobra"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Update your profile or delete your account",
	}
	cmd.AddCommand(newSettingsUpdateCmd(), newSettingsDeleteAccountCmd())
	return cmd
}

func newSettingsUpdateCmd() *cobra.Command {
	var username, email, password, confirm, image string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update username, email, password or profile image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			editor := settings.NewEditor(a.api, a.session, a.store, a.notifier)

			// Fields left out keep their current value.
			form := editor.Prefill()
			if cmd.Flags().Changed("username") {
				form.Username = username
			}
			if cmd.Flags().Changed("email") {
				form.Email = email
			}
			form.Password = password
			form.ConfirmPassword = confirm

			upload, closeFile, err := readUpload(image)
			if err != nil {
				return err
			}
			defer closeFile()
			form.ProfileImage = upload

			return editor.Submit(cmd.Context(), form)
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "new username")
	cmd.Flags().StringVar(&email, "email", "", "new email")
	cmd.Flags().StringVar(&password, "password", "", "new password, empty keeps the current one")
	cmd.Flags().StringVar(&confirm, "confirm", "", "new password again")
	cmd.Flags().StringVar(&image, "image", "", "profile image file")
	return cmd
}

func newSettingsDeleteAccountCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Delete your account and sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			editor := settings.NewEditor(a.api, a.session, a.store, a.notifier)

			var confirmer settings.Confirmer = stdinConfirmer{in: a.in, out: a.out}
			if yes {
				confirmer = settings.ConfirmFunc(func(string) bool { return true })
			}
			route, err := editor.DeleteAccount(cmd.Context(), confirmer)
			if err != nil {
				return err
			}
			if route == "" {
				fmt.Fprintln(a.out, "Kept your account.")
				return nil
			}
			fmt.Fprintf(a.out, "Signed out, sign in again at %s%s\n", a.setting.BASE_URL, route)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
