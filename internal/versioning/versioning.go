// Package versioning captures and restores point-in-time snapshots of all
// mutable state.
package versioning

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wnt/memetrack/internal/metrics"
	"github.com/wnt/memetrack/internal/models"
)

// StateStore is the persistence surface the versioning subsystem reads
// and replaces. The other entity types are treated as opaque serializable
// payloads.
type StateStore interface {
	ListAccounts(ctx context.Context) ([]models.TrackedAccount, error)
	ListAllNameAlerts(ctx context.Context) ([]models.NameAlert, error)
	ListCAAlerts(ctx context.Context) ([]models.CAAlert, error)
	ListBlacklist(ctx context.Context) ([]models.BlacklistItem, error)
	GetSettings(ctx context.Context) (models.Settings, error)

	CreateVersion(ctx context.Context, version *models.AppVersion, maxVersions int) error
	GetVersion(ctx context.Context, id string) (*models.AppVersion, error)
	ListVersions(ctx context.Context) ([]models.AppVersion, error)
	ReplaceState(ctx context.Context, accounts []models.TrackedAccount, nameAlerts []models.NameAlert, caAlerts []models.CAAlert, blacklist []models.BlacklistItem, settings *models.Settings) error
}

// Snapshot is the full serialized capture of mutable state at one instant.
type Snapshot struct {
	Accounts   []models.TrackedAccount `json:"accounts"`
	NameAlerts []models.NameAlert      `json:"name_alerts"`
	CAAlerts   []models.CAAlert        `json:"ca_alerts"`
	Blacklist  []models.BlacklistItem  `json:"blacklist"`
	Settings   models.Settings         `json:"settings"`
	Timestamp  time.Time               `json:"timestamp"`
}

// Service owns AppVersion lifecycle. Version creation (with its pruning)
// and restore are mutually exclusive critical sections so a restore can
// never observe a half-pruned history.
type Service struct {
	store  StateStore
	logger zerolog.Logger
	mu     sync.Mutex
}

// New creates a Service.
func New(store StateStore, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With().Str("component", "versioning").Logger(),
	}
}

// CreateSnapshot captures the current state of all five collections.
func (s *Service) CreateSnapshot(ctx context.Context) (*Snapshot, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	nameAlerts, err := s.store.ListAllNameAlerts(ctx)
	if err != nil {
		return nil, err
	}
	caAlerts, err := s.store.ListCAAlerts(ctx)
	if err != nil {
		return nil, err
	}
	blacklist, err := s.store.ListBlacklist(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Accounts:   accounts,
		NameAlerts: nameAlerts,
		CAAlerts:   caAlerts,
		Blacklist:  blacklist,
		Settings:   settings,
		Timestamp:  time.Now().UTC(),
	}, nil
}

// CreateVersion snapshots current state and persists it under the next
// version number, pruning retained history to the configured maximum.
func (s *Service) CreateVersion(ctx context.Context, tag string) (*models.AppVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.CreateSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot: %w", err)
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	maxVersions := snapshot.Settings.MaxVersions
	if maxVersions <= 0 {
		maxVersions = models.DefaultMaxVersions
	}

	version := &models.AppVersion{
		Tag:      tag,
		Snapshot: payload,
	}
	if err := s.store.CreateVersion(ctx, version, maxVersions); err != nil {
		return nil, err
	}

	metrics.VersionsCreated.Inc()
	s.logger.Info().
		Int("version", version.VersionNumber).
		Str("tag", version.Tag).
		Msg("Version created")
	return version, nil
}

// ListVersions returns retained versions, newest first.
func (s *Service) ListVersions(ctx context.Context) ([]models.AppVersion, error) {
	return s.store.ListVersions(ctx)
}

// Restore replaces all live state with the named version's snapshot. It
// is a destructive point-in-time jump: no merging, and no new version is
// created. Returns apperr.ErrNotFound when the version does not exist.
func (s *Service) Restore(ctx context.Context, versionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	version, err := s.store.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}

	var snapshot Snapshot
	if err := json.Unmarshal(version.Snapshot, &snapshot); err != nil {
		return fmt.Errorf("failed to decode snapshot for version %d: %w", version.VersionNumber, err)
	}

	settings := snapshot.Settings
	if err := s.store.ReplaceState(ctx, snapshot.Accounts, snapshot.NameAlerts, snapshot.CAAlerts, snapshot.Blacklist, &settings); err != nil {
		return err
	}

	metrics.VersionsRestored.Inc()
	s.logger.Info().Int("version", version.VersionNumber).Msg("Version restored")
	return nil
}
