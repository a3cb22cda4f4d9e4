package models

import "time"

// StatusEvent describes one committed status transition. It is not persisted;
// the live feed and the Telegram notifier consume it.
type StatusEvent struct {
	ComplaintID string          `json:"complaint_id"`
	From        GrievanceStatus `json:"from"`
	To          GrievanceStatus `json:"to"`
	OfficerID   string          `json:"officer_id,omitempty"`
	ProofHash   string          `json:"proof_hash,omitempty"`
	Score       *float64        `json:"score,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	At          time.Time       `json:"at"`
}
