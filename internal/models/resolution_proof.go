package models

import "time"

// ResolutionProof is the immutable record of one resolution attempt.
// ProofHash commits to the complaint, officer, score and VerifiedAt.
type ResolutionProof struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	GrievanceID  uint      `gorm:"index;not null" json:"grievance_id"`
	OfficerID    string    `gorm:"type:text;not null" json:"officer_id"`
	Score        float64   `gorm:"not null" json:"score"`
	IsFraudulent bool      `gorm:"not null" json:"is_fraudulent"`
	FraudReason  string    `gorm:"type:text" json:"fraud_reason,omitempty"`
	Message      string    `gorm:"type:text" json:"message"`
	ProofHash    string    `gorm:"type:char(64);uniqueIndex;not null" json:"proof_hash"`
	VerifiedAt   time.Time `gorm:"not null" json:"verified_at"`
}
