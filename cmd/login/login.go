package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/authmodule/authmodule-api/internal/login"
	"github.com/authmodule/authmodule-api/internal/tui"
	"github.com/authmodule/authmodule-api/pkg/logger"
	"github.com/spf13/cobra"
)

var printToken bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Show the login screen.",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, loginCmd} {
		cmd.Flags().BoolVar(&printToken, "print-token", false, "print the session token after a successful login")
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	cfg, client, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctrl := login.NewController(client, login.NewInputRules(cfg.MinPasswordLength),
		login.WithLoginTimeout(time.Duration(cfg.RequestTimeoutSeconds)*time.Second),
	)

	result, err := tui.Run(ctx, ctrl)
	if err != nil {
		return err
	}

	switch {
	case result.Session != nil:
		name := result.Session.Name
		if name == "" {
			name = result.Session.Email
		}
		cmd.Printf("Logged in as %s\n", name)
		if printToken {
			cmd.Println(result.Session.Token)
		}
	case result.RegisterRequested:
		return register(ctx, cmd, client, cfg.MinPasswordLength, "", "")
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
