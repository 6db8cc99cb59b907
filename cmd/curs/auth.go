package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/akobyansamvel/curs/internal/api"
)

func newLoginCmd() *cobra.Command {
	var telegramCode string

	cmd := &cobra.Command{
		Use:   "login <username> [password]",
		Short: "Log in and print the bearer token",
		Long:  "Exchanges credentials (or a one-time telegram code with --telegram-code) for a bearer token. Export it as CURS_TOKEN for the other commands.",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			var resp *api.AuthResponse
			switch {
			case telegramCode != "":
				resp, err = e.client.TelegramAuth(cmd.Context(), telegramCode)
			case len(args) == 2:
				resp, err = e.client.Login(cmd.Context(), api.Credentials{
					Username: args[0],
					Password: args[1],
				})
			default:
				return fmt.Errorf("укажите имя пользователя и пароль либо --telegram-code")
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, e.tr("auth.logged_in")+"\n", resp.User.Username)
			fmt.Fprintf(out, "export CURS_TOKEN=%s\n", resp.Token)
			return nil
		},
	}

	cmd.Flags().StringVar(&telegramCode, "telegram-code", "", "one-time code issued by the telegram bot")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var email, firstName string

	cmd := &cobra.Command{
		Use:   "register <username> <password>",
		Short: "Create an account and print the bearer token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			resp, err := e.client.Register(cmd.Context(), api.RegisterForm{
				Username:  args[0],
				Password:  args[1],
				Email:     email,
				FirstName: firstName,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, e.tr("auth.logged_in")+"\n", resp.User.Username)
			fmt.Fprintf(out, "export CURS_TOKEN=%s\n", resp.Token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&firstName, "name", "", "first name")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Invalidate the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			if err := e.client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), e.tr("auth.logged_out"))
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity behind CURS_TOKEN",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			if e.cfg.Token == "" {
				return fmt.Errorf("%s", e.tr("error.unauthorized"))
			}

			subject, expiresAt, err := api.TokenIdentity(e.cfg.Token)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", subject)
			if !expiresAt.IsZero() {
				fmt.Fprintf(out, "expires: %s\n", expiresAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}
