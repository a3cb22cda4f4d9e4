package models

import "time"

// GrievanceStatus is the lifecycle state of a grievance.
type GrievanceStatus string

const (
	StatusPending  GrievanceStatus = "PENDING"
	StatusReopened GrievanceStatus = "REOPENED"
	StatusResolved GrievanceStatus = "RESOLVED"
	StatusFraud    GrievanceStatus = "FRAUD"
	StatusDeleted  GrievanceStatus = "DELETED"
)

// Open reports whether an officer may still submit resolution proof.
func (s GrievanceStatus) Open() bool {
	return s == StatusPending || s == StatusReopened
}

// Terminal reports whether the grievance has a resolution outcome on record.
func (s GrievanceStatus) Terminal() bool {
	return s == StatusResolved || s == StatusFraud
}

func (s GrievanceStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReopened, StatusResolved, StatusFraud, StatusDeleted:
		return true
	}
	return false
}

// Grievance is a citizen complaint routed to a single officer.
// Rows are never physically removed; DELETED is a soft state.
type Grievance struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// ComplaintID is the public identifier, e.g. COMPLAINT20250101120000a1b2c3d4.
	ComplaintID string `gorm:"type:text;uniqueIndex;not null" json:"complaint_id"`
	// FilerID identifies the citizen who filed the grievance.
	FilerID             string `gorm:"type:text;index;not null" json:"filer_id"`
	RawText             string `gorm:"type:text;not null" json:"raw_text"`
	NormalizedText      string `gorm:"type:text" json:"normalized_text"`
	ProfessionalSummary string `gorm:"type:text" json:"professional_summary"`
	Classification      string `gorm:"type:text;index" json:"classification"`
	DepartmentID        string `gorm:"type:text" json:"department_id"`
	// LocationTag is the citizen's "lat,lng" claim, empty when not shared.
	LocationTag       string          `gorm:"type:text" json:"location_tag"`
	Status            GrievanceStatus `gorm:"type:text;index;not null;default:PENDING" json:"status"`
	AssignedOfficerID string          `gorm:"type:text;index" json:"assigned_officer_id"`
	FraudReason       *string         `gorm:"type:text" json:"fraud_reason,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	// ResolvedAt is set the first time the grievance reaches RESOLVED or FRAUD
	// and survives delete/restore.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	Proofs      []ResolutionProof `gorm:"foreignKey:GrievanceID" json:"-"`
	Attachments []Attachment      `gorm:"foreignKey:GrievanceID" json:"-"`
}
