package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"civicledger/backend/internal/apperr"
	"civicledger/backend/internal/proof"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <complaint_id>",
	Short: "Recompute the latest proof hash of a grievance and compare it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		g, err := e.store.GetGrievance(ctx, args[0])
		if err != nil {
			return err
		}
		p, err := e.store.LatestProof(ctx, g.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Complaint: %s (%s)\n", g.ComplaintID, g.Status)
		fmt.Fprintf(out, "Officer:   %s\n", p.OfficerID)
		fmt.Fprintf(out, "Score:     %.2f\n", p.Score)
		fmt.Fprintf(out, "Stored:    %s\n", p.ProofHash)
		fmt.Fprintf(out, "Computed:  %s\n", proof.Compute(g.ComplaintID, p.OfficerID, p.Score, p.VerifiedAt))
		if !proof.Verify(g.ComplaintID, *p) {
			e.log.WithField("complaint_id", g.ComplaintID).Error("Proof hash mismatch")
			return apperr.Newf(apperr.ErrDataIntegrity, "proof hash mismatch for %s", g.ComplaintID)
		}
		fmt.Fprintln(out, "Proof verified.")
		return nil
	},
}
