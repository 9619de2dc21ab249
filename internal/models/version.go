package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppVersion is a retained point-in-time snapshot of all mutable state.
// VersionNumber is strictly increasing across all versions ever created;
// retention keeps only the most recent MaxVersions rows.
type AppVersion struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	VersionNumber int       `gorm:"uniqueIndex;not null" json:"version_number"`
	Timestamp     time.Time `json:"timestamp"`
	Tag           string    `gorm:"size:256" json:"tag,omitempty"`
	Snapshot      []byte    `gorm:"type:jsonb" json:"snapshot_data,omitempty"`
	IsCurrent     bool      `gorm:"default:false" json:"is_current"`

	CreatedAt time.Time `json:"-"`
}

// BeforeCreate assigns identity and timestamp when absent.
func (v *AppVersion) BeforeCreate(_ *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now().UTC()
	}
	return nil
}
