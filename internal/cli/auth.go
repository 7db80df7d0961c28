package cli

import (
	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/guard"
)

func (c *cli) loginCommand() *cobra.Command {
	var creds domain.Credentials
	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Sign in and store the token",
		Args:        cobra.NoArgs,
		Annotations: noRestore(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := c.app.Session.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			c.printf("signed in as %s (%s), home: %s\n", user.Email, user.Role, guard.Home(user))
			return nil
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password")
	return cmd
}

func (c *cli) registerCommand() *cobra.Command {
	var reg domain.Registration
	cmd := &cobra.Command{
		Use:         "register",
		Short:       "Create a client account and sign in",
		Args:        cobra.NoArgs,
		Annotations: noRestore(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := c.app.Session.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			c.printf("registered and signed in as %s (%s)\n", user.Email, user.Role)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&reg.NomComplet, "name", "", "full name")
	f.StringVar(&reg.Email, "email", "", "account email")
	f.StringVar(&reg.Password, "password", "", "password, at least 6 characters")
	f.StringVar(&reg.PasswordConfirmation, "confirm", "", "password confirmation")
	f.StringVar(&reg.Telephone, "phone", "", "phone number")
	f.StringVar(&reg.Adresse, "address", "", "postal address")
	return cmd
}

func (c *cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "logout",
		Short:       "Sign out and drop the stored token",
		Args:        cobra.NoArgs,
		Annotations: noRestore(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			c.printf("signed out\n")
			return nil
		},
	}
}

func (c *cli) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user := c.app.Session.CurrentIdentity()
			if user == nil {
				c.printf("not signed in\n")
				return nil
			}
			return c.print(user)
		},
	}
}
