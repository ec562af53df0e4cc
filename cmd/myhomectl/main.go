package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/myhome/myhome/internal/api"
	"github.com/myhome/myhome/internal/config"
	"github.com/myhome/myhome/internal/session"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "myhomectl",
		Short:         "MyHome facility administration client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(registerCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(sessionCmd())
	rootCmd.AddCommand(sandboxCmd())

	rootCmd.AddCommand(facilitiesCmd())
	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(residentsCmd())
	rootCmd.AddCommand(medicationsCmd())
	rootCmd.AddCommand(documentsCmd())
	rootCmd.AddCommand(contactsCmd())
	rootCmd.AddCommand(carePlansCmd())
	rootCmd.AddCommand(assessmentsCmd())
	rootCmd.AddCommand(notesCmd())
	rootCmd.AddCommand(formsCmd())
	rootCmd.AddCommand(reportsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app bundles the client-side wiring every command needs: config, logger,
// API client, and the session manager bound to it.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	client  *api.Client
	manager *session.Manager
}

func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger(cfg)

	client, err := api.New(cfg.APIBaseURL, api.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	store, err := session.NewFileStore(cfg.SessionFile)
	if err != nil {
		return nil, err
	}

	manager := session.NewManager(client, store, &termNotifier{}, logger, session.Options{
		Lifetime:      cfg.SessionLifetime(),
		RefreshLeeway: cfg.RefreshLeeway(),
		PollInterval:  cfg.ExpiryPollInterval(),
	})
	client.Bind(manager)

	return &app{cfg: cfg, logger: logger, client: client, manager: manager}, nil
}

func (a *app) close() {
	if a.manager != nil {
		a.manager.Close()
	}
}

// requireSession restores the persisted session and verifies it against the
// backend. Commands that talk to authenticated endpoints call this first.
func (a *app) requireSession(cmd *cobra.Command) error {
	if a.manager.Load(cmd.Context()) {
		return nil
	}
	return fmt.Errorf("not signed in, run %q first", "myhomectl login")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)
	}
	return logger
}

// termNotifier surfaces session notices on the terminal. These are the
// user-facing messages (welcome back, session expired) rather than log lines.
type termNotifier struct{}

func (termNotifier) Success(msg string) { fmt.Fprintln(os.Stderr, msg) }
func (termNotifier) Info(msg string)    { fmt.Fprintln(os.Stderr, msg) }
func (termNotifier) Error(msg string)   { fmt.Fprintln(os.Stderr, msg) }

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
