package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"civicledger/backend/internal/config"
)

// NewComplaintID builds the public identifier: COMPLAINT, the filing time
// (yyyymmddHHMMSS, UTC) and 8 random hex characters.
func NewComplaintID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "COMPLAINT" + now.UTC().Format("20060102150405") + suffix
}

// BeforeCreate is a GORM hook. It fills the complaint id and the initial
// status when the caller left them empty.
func (g *Grievance) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ComplaintID == "" {
		g.ComplaintID = NewComplaintID(time.Now())
	}
	if g.Status == "" {
		g.Status = StatusPending
	}
	return
}

// BeforeCreate gives new officers the starting performance score.
func (o *Officer) BeforeCreate(tx *gorm.DB) (err error) {
	if o.PerformanceScore == 0 {
		o.PerformanceScore = config.InitialPerformanceScore
	}
	return
}
