// Package storage persists grievances, proofs, attachments, officers and
// drafts. Writes that must be atomic go through Storage.Transaction and the
// Tx handed to the callback.
package storage

import (
	"context"
	"time"

	"civicledger/backend/internal/models"
)

// Storage is the persistence boundary used by every service.
type Storage interface {
	// Transaction runs fn in one atomic unit of work. Any error returned by fn
	// rolls back every write made through tx. Errors that do not already carry
	// an apperr kind are reported as apperr.ErrPersistence.
	Transaction(ctx context.Context, fn func(tx Tx) error) error

	GetGrievance(ctx context.Context, complaintID string) (*models.Grievance, error)
	ListGrievances(ctx context.Context, filter GrievanceFilter) ([]models.Grievance, error)
	LatestProof(ctx context.Context, grievanceID uint) (*models.ResolutionProof, error)
	ListAttachments(ctx context.Context, grievanceID uint) ([]models.Attachment, error)

	GetOfficer(ctx context.Context, officerID string) (*models.Officer, error)
	GetOfficerByEmail(ctx context.Context, email string) (*models.Officer, error)
	SaveOfficer(ctx context.Context, officer *models.Officer) error

	SaveDraft(ctx context.Context, draft *models.Draft) error
	GetDraft(ctx context.Context, userID string) (*models.Draft, error)
	DeleteDraft(ctx context.Context, userID string) error

	Ping(ctx context.Context) error
}

// Tx is the write side of a transaction. Lookups that miss return an error
// wrapping apperr.ErrNotFound.
type Tx interface {
	// LockGrievance reads the grievance and holds it exclusively until the
	// transaction ends.
	LockGrievance(complaintID string) (*models.Grievance, error)
	CreateGrievance(g *models.Grievance) error
	UpdateGrievance(id uint, change GrievanceChange) error

	CreateProof(p *models.ResolutionProof) error
	LatestProof(grievanceID uint) (*models.ResolutionProof, error)
	CreateAttachment(a *models.Attachment) error

	// AdjustOfficer applies relative counter changes. Counters are floored at
	// zero and the performance score is clamped to [0,100].
	AdjustOfficer(officerID string, delta OfficerDelta) error
}

// GrievanceChange lists the columns a transition writes. Nil pointers leave
// the column untouched.
type GrievanceChange struct {
	Status      models.GrievanceStatus
	ResolvedAt  *time.Time
	FraudReason *string
}

// OfficerDelta is a relative change to an officer's counters.
type OfficerDelta struct {
	Resolved    int
	Pending     int
	Performance float64
}

func (d OfficerDelta) IsZero() bool {
	return d.Resolved == 0 && d.Pending == 0 && d.Performance == 0
}

// GrievanceFilter narrows ListGrievances. Zero values match everything.
type GrievanceFilter struct {
	FilerID        string
	OfficerID      string
	Classification string
	Statuses       []models.GrievanceStatus
	ExcludeDeleted bool
	OldestFirst    bool
}

func (f GrievanceFilter) match(g *models.Grievance) bool {
	if f.FilerID != "" && g.FilerID != f.FilerID {
		return false
	}
	if f.OfficerID != "" && g.AssignedOfficerID != f.OfficerID {
		return false
	}
	if f.Classification != "" && g.Classification != f.Classification {
		return false
	}
	if f.ExcludeDeleted && g.Status == models.StatusDeleted {
		return false
	}
	if len(f.Statuses) > 0 {
		for _, s := range f.Statuses {
			if g.Status == s {
				return true
			}
		}
		return false
	}
	return true
}

// clampPerformance keeps a score within the officer performance bounds.
func clampPerformance(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
