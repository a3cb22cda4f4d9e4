package models

import "time"

// Draft is an unsubmitted grievance. A citizen keeps at most one.
type Draft struct {
	ID       uint      `gorm:"primaryKey" json:"-"`
	UserID   string    `gorm:"type:text;uniqueIndex;not null" json:"user_id"`
	RawText  string    `gorm:"type:text" json:"raw_text"`
	Location string    `gorm:"type:text" json:"location"`
	SavedAt  time.Time `json:"saved_at"`
}
