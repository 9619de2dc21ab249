package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Settings defaults.
const (
	DefaultMaxVersions        = 20
	DefaultMinQuorumThreshold = 3
	DefaultMaxTokenAgeMinutes = 10
)

// Settings is the singleton operator configuration. It is read fresh by
// the aggregation engine on every decision and replaced wholesale on
// update.
type Settings struct {
	ID                   string `gorm:"primaryKey;size:36" json:"id"`
	DarkMode             bool   `gorm:"default:true" json:"dark_mode"`
	SoundAlerts          bool   `gorm:"default:true" json:"sound_alerts"`
	DesktopNotifications bool   `gorm:"default:true" json:"desktop_notifications"`
	MaxVersions          int    `gorm:"default:20" json:"max_versions"`
	MonitoringEnabled    bool   `gorm:"default:false" json:"monitoring_enabled"`
	MinQuorumThreshold   int    `gorm:"default:3" json:"min_quorum_threshold"`
	MaxTokenAgeMinutes   int    `gorm:"default:10" json:"max_token_age_minutes"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// DefaultSettings returns the settings used before the operator has saved
// any.
func DefaultSettings() Settings {
	return Settings{
		DarkMode:             true,
		SoundAlerts:          true,
		DesktopNotifications: true,
		MaxVersions:          DefaultMaxVersions,
		MinQuorumThreshold:   DefaultMinQuorumThreshold,
		MaxTokenAgeMinutes:   DefaultMaxTokenAgeMinutes,
	}
}

// BeforeCreate assigns identity when absent.
func (s *Settings) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
