package main

import (
	"time"

	"github.com/authmodule/authmodule-api/config"
	"github.com/authmodule/authmodule-api/pkg/authclient"
	"github.com/authmodule/authmodule-api/pkg/httpclient"
	"github.com/authmodule/authmodule-api/pkg/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "authmodule-login",
	Short:         "Log in to the auth API from the terminal.",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runLogin,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd)
}

// setup loads the client config, sends logs to a file and builds an API client
func setup() (*config.ClientConfig, *authclient.Client, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, nil, err
	}

	// Log lines on stdout would tear the screen, so the client only logs to a file.
	if cfg.LogDir != "" {
		if err := logger.Initialize(logger.Config{
			Level:       cfg.LogLevel,
			LogDir:      cfg.LogDir,
			Environment: "production",
			ServiceName: "authmodule-login",
			FileOnly:    true,
		}); err != nil {
			return nil, nil, err
		}
	}

	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	httpClient := httpclient.NewStandardClient("authmodule-login", timeout)
	return cfg, authclient.New(cfg.APIBaseURL, httpClient), nil
}
