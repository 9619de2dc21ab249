package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/wnt/memetrack/internal/models"
)

// GetSettings returns the singleton settings row, falling back to defaults
// when the operator has never saved any.
func (s *Store) GetSettings(ctx context.Context) (models.Settings, error) {
	var settings models.Settings
	err := s.db.WithContext(ctx).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// ReplaceSettings replaces the settings singleton wholesale.
func (s *Store) ReplaceSettings(ctx context.Context, settings models.Settings) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Settings{}).Error; err != nil {
			return fmt.Errorf("failed to clear settings: %w", err)
		}
		if err := tx.Create(&settings).Error; err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		return nil
	})
}

// SetMonitoringEnabled persists the monitoring flag without touching the
// rest of the settings.
func (s *Store) SetMonitoringEnabled(ctx context.Context, enabled bool) error {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return err
	}
	settings.MonitoringEnabled = enabled
	return s.ReplaceSettings(ctx, settings)
}
