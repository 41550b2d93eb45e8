package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) credentials(cmd *cobra.Command) (string, string, error) {
	username, _ := cmd.Flags().GetString("username")
	if username == "" {
		var err error
		username, err = GetSimpleText(a.in, "Enter user name", a.out)
		if err != nil {
			return "", "", err
		}
	}
	password, err := GetPassword(a.in, a.out)
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

func newLoginCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			username, password, err := a.credentials(cmd)
			if err != nil {
				return err
			}
			sess, err := a.authService.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Logged in as %s\n", sess.Username)
			return nil
		},
	}
	cmd.Flags().StringP("username", "u", "", "user name")
	return cmd
}

func newRegisterCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			username, password, err := a.credentials(cmd)
			if err != nil {
				return err
			}
			if _, err := a.authService.Register(cmd.Context(), username, password); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Registered, now run: scratchmap login")
			return nil
		},
	}
	cmd.Flags().StringP("username", "u", "", "user name")
	return cmd
}

func newLogoutCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session; local data is kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			if err := a.authService.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}
