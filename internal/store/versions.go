package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/wnt/memetrack/internal/apperr"
	"github.com/wnt/memetrack/internal/metrics"
	"github.com/wnt/memetrack/internal/models"
)

// CreateVersion persists a version with the next strictly-increasing
// number and prunes history beyond maxVersions, all in one transaction.
// Numbering derives from max(version_number), not row count, so deleted
// versions never cause reuse.
func (s *Store) CreateVersion(ctx context.Context, version *models.AppVersion, maxVersions int) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxNumber int64
		if err := tx.Model(&models.AppVersion{}).
			Select("COALESCE(MAX(version_number), 0)").Scan(&maxNumber).Error; err != nil {
			return fmt.Errorf("failed to read max version number: %w", err)
		}
		version.VersionNumber = int(maxNumber) + 1
		if version.Tag == "" {
			version.Tag = fmt.Sprintf("Manual snapshot #%d", version.VersionNumber)
		}

		if err := tx.Create(version).Error; err != nil {
			return fmt.Errorf("failed to create version: %w", err)
		}

		if maxVersions > 0 {
			// Keep only the maxVersions most recent by version number
			var keep []string
			if err := tx.Model(&models.AppVersion{}).
				Order("version_number DESC").Limit(maxVersions).
				Pluck("id", &keep).Error; err != nil {
				return fmt.Errorf("failed to select retained versions: %w", err)
			}
			if err := tx.Where("id NOT IN ?", keep).
				Delete(&models.AppVersion{}).Error; err != nil {
				return fmt.Errorf("failed to prune versions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		metrics.RecordDatabaseOperation("version_insert", "failed")
		return err
	}
	metrics.RecordDatabaseOperation("version_insert", "success")
	return nil
}

// GetVersion loads a version by id. Returns apperr.ErrNotFound when absent.
func (s *Store) GetVersion(ctx context.Context, id string) (*models.AppVersion, error) {
	var version models.AppVersion
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("version", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load version: %w", err)
	}
	return &version, nil
}

// ListVersions returns all versions, newest first.
func (s *Store) ListVersions(ctx context.Context) ([]models.AppVersion, error) {
	var versions []models.AppVersion
	if err := s.db.WithContext(ctx).Order("version_number DESC").Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	return versions, nil
}

// ReplaceState atomically replaces the four live collections and the
// settings singleton with the snapshot contents. Used only by restore.
func (s *Store) ReplaceState(ctx context.Context, accounts []models.TrackedAccount, nameAlerts []models.NameAlert, caAlerts []models.CAAlert, blacklist []models.BlacklistItem, settings *models.Settings) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.TrackedAccount{},
			&models.NameAlert{},
			&models.CAAlert{},
			&models.BlacklistItem{},
		} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return fmt.Errorf("failed to clear collection: %w", err)
			}
		}

		if len(accounts) > 0 {
			if err := tx.Create(&accounts).Error; err != nil {
				return fmt.Errorf("failed to restore accounts: %w", err)
			}
		}
		if len(nameAlerts) > 0 {
			if err := tx.Create(&nameAlerts).Error; err != nil {
				return fmt.Errorf("failed to restore name alerts: %w", err)
			}
		}
		if len(caAlerts) > 0 {
			if err := tx.Create(&caAlerts).Error; err != nil {
				return fmt.Errorf("failed to restore contract alerts: %w", err)
			}
		}
		if len(blacklist) > 0 {
			if err := tx.Create(&blacklist).Error; err != nil {
				return fmt.Errorf("failed to restore blacklist: %w", err)
			}
		}

		if settings != nil {
			if err := tx.Where("1 = 1").Delete(&models.Settings{}).Error; err != nil {
				return fmt.Errorf("failed to clear settings: %w", err)
			}
			if err := tx.Create(settings).Error; err != nil {
				return fmt.Errorf("failed to restore settings: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		metrics.RecordDatabaseOperation("state_restore", "failed")
		return err
	}
	metrics.RecordDatabaseOperation("state_restore", "success")
	return nil
}
