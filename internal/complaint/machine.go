package complaint

import (
	"errors"
	"time"

	"civicledger/backend/internal/analysis"
	"civicledger/backend/internal/apperr"
	"civicledger/backend/internal/models"
	"civicledger/backend/internal/storage"
)

// Machine applies lifecycle transitions inside a caller's transaction.
// Delete and Restore lock and re-read the grievance themselves; Resolve
// works on the row the caller already holds from tx.LockGrievance.
type Machine struct {
	fraudPenalty float64
}

func NewMachine(fraudPenalty float64) *Machine {
	return &Machine{fraudPenalty: fraudPenalty}
}

// Resolve moves an open grievance to RESOLVED or FRAUD according to the
// verdict and applies the officer counter changes. g must come from
// tx.LockGrievance in the same transaction; Resolve does not re-read it.
func (m *Machine) Resolve(tx storage.Tx, g *models.Grievance, v analysis.Verdict, at time.Time) (models.StatusEvent, error) {
	to := models.StatusResolved
	if v.Fraudulent {
		to = models.StatusFraud
	}
	if err := Transition(g.Status, to); err != nil {
		return models.StatusEvent{}, err
	}

	change := storage.GrievanceChange{Status: to, ResolvedAt: &at}
	delta := storage.OfficerDelta{Resolved: 1, Pending: -1}
	if v.Fraudulent {
		reason := v.Reason
		change.FraudReason = &reason
		delta = storage.OfficerDelta{Performance: -m.fraudPenalty}
	}

	if err := tx.UpdateGrievance(g.ID, change); err != nil {
		return models.StatusEvent{}, err
	}
	if err := tx.AdjustOfficer(g.AssignedOfficerID, delta); err != nil {
		return models.StatusEvent{}, err
	}

	ev := models.StatusEvent{
		ComplaintID: g.ComplaintID,
		From:        g.Status,
		To:          to,
		OfficerID:   g.AssignedOfficerID,
		Reason:      v.Reason,
		At:          at,
	}
	g.Status = to
	g.ResolvedAt = &at
	g.FraudReason = change.FraudReason
	return ev, nil
}

// Delete soft-deletes a RESOLVED or FRAUD grievance.
func (m *Machine) Delete(tx storage.Tx, complaintID string, at time.Time) (models.StatusEvent, error) {
	g, err := tx.LockGrievance(complaintID)
	if err != nil {
		return models.StatusEvent{}, err
	}
	if err := Transition(g.Status, models.StatusDeleted); err != nil {
		return models.StatusEvent{}, err
	}
	if err := tx.UpdateGrievance(g.ID, storage.GrievanceChange{Status: models.StatusDeleted}); err != nil {
		return models.StatusEvent{}, err
	}
	return models.StatusEvent{
		ComplaintID: complaintID,
		From:        g.Status,
		To:          models.StatusDeleted,
		OfficerID:   g.AssignedOfficerID,
		At:          at,
	}, nil
}

// Restore returns a DELETED grievance to the status its latest proof
// supports: FRAUD if that proof is fraudulent, RESOLVED otherwise.
func (m *Machine) Restore(tx storage.Tx, complaintID string, at time.Time) (models.StatusEvent, error) {
	g, err := tx.LockGrievance(complaintID)
	if err != nil {
		return models.StatusEvent{}, err
	}
	if g.Status != models.StatusDeleted {
		return models.StatusEvent{}, apperr.Newf(apperr.ErrInvalidTransition, "%s is %s, not DELETED", complaintID, g.Status)
	}

	p, err := tx.LatestProof(g.ID)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.StatusEvent{}, apperr.Newf(apperr.ErrDataIntegrity, "deleted grievance %s has no resolution proof", complaintID)
	}
	if err != nil {
		return models.StatusEvent{}, err
	}

	to := models.StatusResolved
	change := storage.GrievanceChange{Status: to}
	if p.IsFraudulent {
		to = models.StatusFraud
		change.Status = to
		if g.FraudReason == nil && p.FraudReason != "" {
			reason := p.FraudReason
			change.FraudReason = &reason
		}
	}
	if err := Transition(g.Status, to); err != nil {
		return models.StatusEvent{}, err
	}
	if err := tx.UpdateGrievance(g.ID, change); err != nil {
		return models.StatusEvent{}, err
	}

	return models.StatusEvent{
		ComplaintID: complaintID,
		From:        models.StatusDeleted,
		To:          to,
		OfficerID:   g.AssignedOfficerID,
		ProofHash:   p.ProofHash,
		At:          at,
	}, nil
}
