package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Blacklist item kinds.
const (
	BlacklistAccount = "account"
	BlacklistWord    = "word"
	BlacklistDomain  = "domain"
)

// BlacklistItem suppresses an account, word or domain when blacklist
// filtering is enabled. Owned by operator-facing endpoints; the polling
// pipeline only reads it.
type BlacklistItem struct {
	ID      string    `gorm:"primaryKey;size:36" json:"id"`
	Kind    string    `gorm:"size:16;index;not null" json:"type"`
	Value   string    `gorm:"size:256;not null" json:"value"`
	AddedAt time.Time `json:"added_at"`

	CreatedAt time.Time `json:"-"`
}

// BeforeCreate assigns identity and timestamp when absent.
func (b *BlacklistItem) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.AddedAt.IsZero() {
		b.AddedAt = time.Now().UTC()
	}
	return nil
}
