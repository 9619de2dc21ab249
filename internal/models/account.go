package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrackedAccount represents a social media account whose posts are polled
// for token mentions and contract addresses.
type TrackedAccount struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Handle      string    `gorm:"size:64;uniqueIndex;not null" json:"handle"`
	DisplayName string    `gorm:"size:128" json:"display_name,omitempty"`
	IsActive    bool      `gorm:"default:true;index" json:"is_active"`
	AddedAt     time.Time `json:"added_at"`

	// Performance stats filled in by downstream enrichment, opaque here
	Performance string `gorm:"type:jsonb;default:'{}'" json:"performance,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// BeforeCreate assigns a UUID and timestamps when they are not set, so
// snapshot restores keep the original identity.
func (a *TrackedAccount) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AddedAt.IsZero() {
		a.AddedAt = time.Now().UTC()
	}
	return nil
}
