package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"civicledger/backend/internal/api/handler"
)

var tokenFlags struct {
	officer string
	citizen string
	ttl     time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for an officer or a citizen",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		subject, role := tokenFlags.officer, handler.RoleOfficer
		if tokenFlags.citizen != "" {
			subject, role = tokenFlags.citizen, handler.RoleCitizen
		}
		if subject == "" {
			return errors.New("one of --officer or --citizen is required")
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		tok, err := handler.NewTokenIssuer(e.cfg.JWTSecret, tokenFlags.ttl).Issue(subject, role)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenFlags.officer, "officer", "", "Officer id, e.g. ENG_001")
	f.StringVar(&tokenFlags.citizen, "citizen", "", "Citizen user id")
	f.DurationVar(&tokenFlags.ttl, "ttl", 72*time.Hour, "Token lifetime")
	tokenCmd.MarkFlagsMutuallyExclusive("officer", "citizen")
}
