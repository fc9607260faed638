package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/storyloom/collab/internal/auth"
	"github.com/storyloom/collab/internal/collab"
)

func newTokenCommand() *cobra.Command {
	var caller collab.Caller
	var secret string
	var issuer string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if caller.UID == "" {
				return errors.New("--uid is required")
			}
			if secret == "" {
				return errors.New("--secret or JWT_SECRET is required")
			}
			tok, err := auth.IssueToken(secret, issuer, caller, ttl)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&caller.UID, "uid", "", "Subject user id")
	cmd.Flags().StringVar(&caller.Email, "email", "", "Email claim")
	cmd.Flags().StringVar(&caller.Name, "name", "", "Display name claim")
	cmd.Flags().BoolVar(&caller.EmailVerified, "verified", false, "Mark the email as verified")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HMAC signing secret")
	cmd.Flags().StringVar(&issuer, "issuer", os.Getenv("JWT_ISSUER"), "Issuer claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}
