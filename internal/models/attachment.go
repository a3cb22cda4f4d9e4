package models

import "time"

type AttachmentKind string

const (
	KindCitizenEvidence AttachmentKind = "citizen_evidence"
	KindResolutionPhoto AttachmentKind = "resolution_photo"
)

// Attachment references a stored file. The file itself lives in the file store.
type Attachment struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	GrievanceID uint           `gorm:"index;not null" json:"grievance_id"`
	FilePath    string         `gorm:"type:text;not null" json:"file_path"`
	ContentType string         `gorm:"type:text" json:"content_type"`
	Kind        AttachmentKind `gorm:"type:text;not null" json:"kind"`
	CreatedAt   time.Time      `json:"created_at"`
}
