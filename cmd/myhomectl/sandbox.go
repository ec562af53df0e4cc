package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/myhome/myhome/internal/config"
	"github.com/myhome/myhome/internal/sandbox"
)

func sandboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sandbox",
		Short: "Run the built-in development backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			srv := sandbox.New(logger, sandbox.Options{
				SigningKey: cfg.SandboxSigningKey,
			})

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(":" + cfg.SandboxPort); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			logger.Info().Msg("shutting down sandbox backend")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
}
