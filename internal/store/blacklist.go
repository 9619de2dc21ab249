package store

import (
	"context"
	"fmt"

	"github.com/wnt/memetrack/internal/apperr"
	"github.com/wnt/memetrack/internal/models"
)

// AddBlacklistItem inserts a blacklist entry.
func (s *Store) AddBlacklistItem(ctx context.Context, item *models.BlacklistItem) error {
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to add blacklist item: %w", err)
	}
	return nil
}

// ListBlacklist returns all blacklist entries.
func (s *Store) ListBlacklist(ctx context.Context) ([]models.BlacklistItem, error) {
	var items []models.BlacklistItem
	if err := s.db.WithContext(ctx).Order("added_at").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list blacklist: %w", err)
	}
	return items, nil
}

// DeleteBlacklistItem removes a blacklist entry by id.
func (s *Store) DeleteBlacklistItem(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.BlacklistItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete blacklist item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("blacklist item", id)
	}
	return nil
}
