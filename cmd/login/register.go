package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/authmodule/authmodule-api/internal/login"
	"github.com/authmodule/authmodule-api/internal/models"
	"github.com/authmodule/authmodule-api/pkg/authclient"
	apperrors "github.com/authmodule/authmodule-api/pkg/errors"
	"github.com/authmodule/authmodule-api/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	registerEmail string
	registerName  string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, client, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		return register(commandContext(cmd), cmd, client, cfg.MinPasswordLength, registerEmail, registerName)
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "account email")
	registerCmd.Flags().StringVar(&registerName, "name", "", "display name")
}

func register(ctx context.Context, cmd *cobra.Command, client *authclient.Client, minPasswordLength int, email, name string) error {
	in := bufio.NewReader(os.Stdin)

	var err error
	if email == "" {
		if email, err = prompt(cmd, in, "Email: "); err != nil {
			return err
		}
	}
	if name == "" {
		if name, err = prompt(cmd, in, "Name: "); err != nil {
			return err
		}
	}

	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	// same policy as the login screen, checked before the round trip
	if hint, ok := login.NewInputRules(minPasswordLength).Check(email, password).Get(); ok {
		return errors.New(hint)
	}

	resp, err := client.Register(ctx, &models.RegisterRequest{
		Email:    strings.TrimSpace(email),
		Name:     strings.TrimSpace(name),
		Password: password,
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			return fmt.Errorf("an account with email %s already exists", email)
		}
		return fmt.Errorf("registration failed: %w", err)
	}

	cmd.Printf("%s (user id %s). You can log in now.\n", resp.Message, resp.UserID)
	return nil
}

func prompt(cmd *cobra.Command, in *bufio.Reader, label string) (string, error) {
	cmd.Print(label)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%s is required", strings.TrimSuffix(strings.ToLower(label), ": "))
	}
	return line, nil
}

func readPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("password prompt needs a terminal")
	}

	cmd.Print("Password: ")
	pass1, err := term.ReadPassword(fd)
	cmd.Println()
	if err != nil {
		return "", err
	}
	if len(pass1) == 0 {
		return "", errors.New("password is empty")
	}

	cmd.Print("Confirm password: ")
	pass2, err := term.ReadPassword(fd)
	cmd.Println()
	if err != nil {
		return "", err
	}

	if string(pass1) != string(pass2) {
		return "", errors.New("passwords do not match")
	}
	return string(pass1), nil
}
