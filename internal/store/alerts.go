package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wnt/memetrack/internal/apperr"
	"github.com/wnt/memetrack/internal/metrics"
	"github.com/wnt/memetrack/internal/models"
)

// ActiveNameAlert returns the active alert for a token name, or nil when
// the name is unseen.
func (s *Store) ActiveNameAlert(ctx context.Context, tokenName string) (*models.NameAlert, error) {
	var alert models.NameAlert
	err := s.db.WithContext(ctx).
		Where("token_name = ? AND is_active = ?", tokenName, true).
		First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load name alert: %w", err)
	}
	return &alert, nil
}

// CreateNameAlert persists a newly seen token name with its first
// contributor.
func (s *Store) CreateNameAlert(ctx context.Context, alert *models.NameAlert) error {
	if err := s.db.WithContext(ctx).Create(alert).Error; err != nil {
		metrics.RecordDatabaseOperation("name_alert_insert", "failed")
		return fmt.Errorf("failed to create name alert: %w", err)
	}
	metrics.RecordDatabaseOperation("name_alert_insert", "success")
	return nil
}

// AppendContributor atomically appends a contributor to an active alert and
// bumps the quorum count, as one read-check-write transaction with the row
// locked. Returns the updated alert and whether the handle was new; a
// repeat handle leaves the alert untouched.
func (s *Store) AppendContributor(ctx context.Context, alertID string, contributor models.Contributor) (*models.NameAlert, bool, error) {
	var alert models.NameAlert
	appended := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", alertID).First(&alert).Error; err != nil {
			return fmt.Errorf("failed to lock name alert: %w", err)
		}

		if alert.Contributors.Contains(contributor.Handle) {
			return nil
		}

		alert.Contributors = append(alert.Contributors, contributor)
		alert.QuorumCount = len(alert.Contributors)
		appended = true

		if err := tx.Model(&models.NameAlert{}).Where("id = ?", alertID).
			Updates(map[string]interface{}{
				"quorum_count": alert.QuorumCount,
				"contributors": alert.Contributors,
			}).Error; err != nil {
			return fmt.Errorf("failed to update name alert: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.RecordDatabaseOperation("name_alert_update", "failed")
		return nil, false, err
	}
	metrics.RecordDatabaseOperation("name_alert_update", "success")
	return &alert, appended, nil
}

// ListQuorumNameAlerts returns the active alerts at or above the quorum
// threshold, newest first. Sub-quorum alerts stay invisible.
func (s *Store) ListQuorumNameAlerts(ctx context.Context, minQuorum int) ([]models.NameAlert, error) {
	var alerts []models.NameAlert
	if err := s.db.WithContext(ctx).
		Where("is_active = ? AND quorum_count >= ?", true, minQuorum).
		Order("first_seen DESC").Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to list name alerts: %w", err)
	}
	return alerts, nil
}

// CountQuorumNameAlerts counts active alerts at or above the threshold.
func (s *Store) CountQuorumNameAlerts(ctx context.Context, minQuorum int) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.NameAlert{}).
		Where("is_active = ? AND quorum_count >= ?", true, minQuorum).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count name alerts: %w", err)
	}
	return count, nil
}

// DeactivateNameAlert clears the active flag on a name alert. Returns
// apperr.ErrNotFound when no active alert matches.
func (s *Store) DeactivateNameAlert(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Model(&models.NameAlert{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate name alert: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("name alert", id)
	}
	return nil
}

// InsertCAAlertIfAbsent inserts a contract alert unless one already exists
// for the address. Returns whether the row was created; the unique index
// on contract_address makes this a single atomic insert-if-absent.
func (s *Store) InsertCAAlertIfAbsent(ctx context.Context, alert *models.CAAlert) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contract_address"}},
			DoNothing: true,
		}).
		Create(alert)
	if result.Error != nil {
		metrics.RecordDatabaseOperation("ca_alert_insert", "failed")
		return false, fmt.Errorf("failed to insert contract alert: %w", result.Error)
	}
	metrics.RecordDatabaseOperation("ca_alert_insert", "success")
	return result.RowsAffected > 0, nil
}

// CAAlertExists reports whether an alert was ever created for the address.
func (s *Store) CAAlertExists(ctx context.Context, address string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.CAAlert{}).
		Where("contract_address = ?", address).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count contract alerts: %w", err)
	}
	return count > 0, nil
}

// ListCAAlerts returns all contract alerts, newest first.
func (s *Store) ListCAAlerts(ctx context.Context) ([]models.CAAlert, error) {
	var alerts []models.CAAlert
	if err := s.db.WithContext(ctx).Order("first_seen DESC").Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to list contract alerts: %w", err)
	}
	return alerts, nil
}

// CountCAAlerts counts all contract alerts ever created.
func (s *Store) CountCAAlerts(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.CAAlert{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count contract alerts: %w", err)
	}
	return count, nil
}

// ListAllNameAlerts returns every name alert regardless of quorum, for
// snapshots and export bundles.
func (s *Store) ListAllNameAlerts(ctx context.Context) ([]models.NameAlert, error) {
	var alerts []models.NameAlert
	if err := s.db.WithContext(ctx).Order("first_seen DESC").Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to list name alerts: %w", err)
	}
	return alerts, nil
}
