package models

import (
	"github.com/lib/pq"
)

// Officer is a municipal employee who resolves grievances.
type Officer struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	OfficerID string `gorm:"type:text;uniqueIndex;not null" json:"officer_id"` // e.g. ENG_001
	Name      string `gorm:"type:text;not null" json:"name"`
	Email     string `gorm:"type:text;uniqueIndex" json:"email"`
	// PasswordHash is a bcrypt hash, never serialized.
	PasswordHash string         `gorm:"type:text" json:"-"`
	Department   string         `gorm:"type:text" json:"department"`
	Categories   pq.StringArray `gorm:"type:text[]" json:"categories"` // classifications this officer handles
	// Counters only ever change through relative updates in a transition transaction.
	PendingCount     int     `gorm:"not null;default:0" json:"pending_count"`
	ResolvedCount    int     `gorm:"not null;default:0" json:"resolved_count"`
	PerformanceScore float64 `gorm:"not null;default:95" json:"performance_score"`
}

// Handles reports whether the officer covers the given classification.
func (o *Officer) Handles(classification string) bool {
	for _, c := range o.Categories {
		if c == classification {
			return true
		}
	}
	return false
}

// DisplayName returns the name, or the officer id when no name is on record.
func (o *Officer) DisplayName() string {
	if o == nil {
		return ""
	}
	if o.Name != "" {
		return o.Name
	}
	return o.OfficerID
}
