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

// CreateAccount inserts a new tracked account. Returns apperr.ErrConflict
// when the handle is already tracked.
func (s *Store) CreateAccount(ctx context.Context, account *models.TrackedAccount) error {
	var existing models.TrackedAccount
	err := s.db.WithContext(ctx).Where("handle = ?", account.Handle).First(&existing).Error
	if err == nil {
		return apperr.Conflict(fmt.Sprintf("account %s already exists", account.Handle))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check existing account: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		metrics.RecordDatabaseOperation("account_insert", "failed")
		return fmt.Errorf("failed to create account: %w", err)
	}
	metrics.RecordDatabaseOperation("account_insert", "success")
	return nil
}

// AccountExists reports whether a handle is already tracked.
func (s *Store) AccountExists(ctx context.Context, handle string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.TrackedAccount{}).
		Where("handle = ?", handle).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count > 0, nil
}

// ListAccounts returns all tracked accounts.
func (s *Store) ListAccounts(ctx context.Context) ([]models.TrackedAccount, error) {
	var accounts []models.TrackedAccount
	if err := s.db.WithContext(ctx).Order("added_at").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// ListActiveAccounts returns the accounts the monitor should poll.
func (s *Store) ListActiveAccounts(ctx context.Context) ([]models.TrackedAccount, error) {
	var accounts []models.TrackedAccount
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).
		Order("added_at").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list active accounts: %w", err)
	}
	return accounts, nil
}

// DeleteAccount removes a tracked account by id. Returns apperr.ErrNotFound
// when no row matched. Existing alerts are unaffected.
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.TrackedAccount{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("account", id)
	}
	return nil
}

// CountActiveAccounts counts accounts eligible for polling.
func (s *Store) CountActiveAccounts(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.TrackedAccount{}).
		Where("is_active = ?", true).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active accounts: %w", err)
	}
	return count, nil
}
