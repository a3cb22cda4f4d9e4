package main

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"civicledger/backend/internal/models"
	"civicledger/backend/internal/storage"
)

var seedFlags struct {
	password string
}

var seedCmd = &cobra.Command{
	Use:   "seed-officers",
	Short: "Create the default officers (ENG_001, HIN_002)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		if err := seedOfficers(cmd.Context(), e.store, seedFlags.password); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Officers seeded.")
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFlags.password, "password", "password", "Initial password for every seeded officer")
}

func defaultOfficers() []models.Officer {
	return []models.Officer{
		{
			OfficerID:  "ENG_001",
			Name:       "Smith",
			Email:      "smith@rtgs.gov",
			Department: "Engineering",
			Categories: pq.StringArray{"Road Maintenance (Pothole)", "Electrical (Streetlight Outage)"},
		},
		{
			OfficerID:  "HIN_002",
			Name:       "Jane",
			Email:      "jane@rtgs.gov",
			Department: "Health Inspection",
			Categories: pq.StringArray{"Stray Dog Menace"},
		},
	}
}

// seedOfficers upserts the default officers. Re-running it resets their
// passwords but keeps their counters.
func seedOfficers(ctx context.Context, s storage.Storage, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	for _, o := range defaultOfficers() {
		o.PasswordHash = string(hash)
		if err := s.SaveOfficer(ctx, &o); err != nil {
			return fmt.Errorf("failed to save officer %s: %w", o.OfficerID, err)
		}
	}
	return nil
}
