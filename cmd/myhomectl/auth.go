package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/myhome/myhome/internal/session"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and save the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup()
			if err != nil {
				return err
			}
			defer app.close()

			password, err := promptPassword("Password: ")
			if err != nil {
				return err
			}

			user, err := app.manager.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Printf("Signed in as %s (%s)\n", user.Name, user.Role)
			// Give the delayed welcome notice a chance to print before exit.
			time.Sleep(600 * time.Millisecond)
			return nil
		},
	}
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and discard the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup()
			if err != nil {
				return err
			}
			defer app.close()

			// Restore whatever is on disk first so the backend call carries
			// the refresh grant to revoke. Logout works either way.
			app.manager.Load(cmd.Context())
			app.manager.Logout(cmd.Context())
			return nil
		},
	}
}

func registerCmd() *cobra.Command {
	var (
		name       string
		role       string
		facilityID string
	)
	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create a new account (does not sign in)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup()
			if err != nil {
				return err
			}
			defer app.close()

			password, err := promptPassword("Password: ")
			if err != nil {
				return err
			}
			confirm, err := promptPassword("Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}

			data := session.RegisterData{
				Email:    args[0],
				Password: password,
				Name:     name,
				Role:     session.Role(role),
			}
			if facilityID != "" {
				data.FacilityID = &facilityID
			}

			user, err := app.manager.Register(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Printf("Account created for %s. Sign in with: myhomectl login %s\n", user.Email, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&role, "role", string(session.RoleCaregiver), "Account role (admin, caregiver, doctor, supervisor, facility_owner)")
	cmd.Flags().StringVar(&facilityID, "facility", "", "Facility the account belongs to")
	cmd.MarkFlagRequired("name")
	return cmd
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup()
			if err != nil {
				return err
			}
			defer app.close()

			if err := app.requireSession(cmd); err != nil {
				return err
			}
			return printJSON(app.manager.Current())
		},
	}
}

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect the saved session",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show session expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup()
			if err != nil {
				return err
			}
			defer app.close()

			if err := app.requireSession(cmd); err != nil {
				return err
			}
			user := app.manager.Current()
			expires := app.manager.ExpiresAt()
			fmt.Printf("Signed in as: %s <%s> (%s)\n", user.Name, user.Email, user.Role)
			fmt.Printf("Expires:      %s (in %s)\n",
				expires.Format(time.RFC1123), time.Until(expires).Round(time.Second))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Force an access token refresh now",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup()
			if err != nil {
				return err
			}
			defer app.close()

			if err := app.requireSession(cmd); err != nil {
				return err
			}
			if err := app.manager.Refresh(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("Session renewed, now expires %s\n", app.manager.ExpiresAt().Format(time.RFC1123))
			return nil
		},
	})
	return cmd
}

// promptPassword reads a password without echo when stdin is a terminal,
// falling back to a plain line read so the command stays scriptable.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
