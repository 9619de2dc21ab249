// Package engine implements the signal aggregation core: the quorum-gated
// name alert aggregator and the one-shot contract alert admission gate.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wnt/memetrack/internal/broadcast"
	"github.com/wnt/memetrack/internal/metrics"
	"github.com/wnt/memetrack/internal/models"
)

// AlertStore is the persistence surface the engine mutates. Append and
// insert operations must be atomic per key.
type AlertStore interface {
	ActiveNameAlert(ctx context.Context, tokenName string) (*models.NameAlert, error)
	CreateNameAlert(ctx context.Context, alert *models.NameAlert) error
	AppendContributor(ctx context.Context, alertID string, contributor models.Contributor) (*models.NameAlert, bool, error)
	CAAlertExists(ctx context.Context, address string) (bool, error)
	InsertCAAlertIfAbsent(ctx context.Context, alert *models.CAAlert) (bool, error)
}

// SettingsSource supplies the live settings. The engine reads it on every
// decision rather than caching, so threshold changes apply immediately.
type SettingsSource interface {
	GetSettings(ctx context.Context) (models.Settings, error)
}

// Oracle is the freshness collaborator contract (best-effort, fail-open).
type Oracle interface {
	IsFreshEnough(ctx context.Context, address string, maxAge time.Duration) bool
}

// Broadcaster receives admitted alert events.
type Broadcaster interface {
	Broadcast(event broadcast.Event)
}

// Sighting identifies one post by one tracked handle.
type Sighting struct {
	Handle  string
	PostID  string
	PostURL string
}

// Engine owns all NameAlert and CAAlert lifecycle transitions. Mutations
// for one token name or contract address are serialized through a per-key
// lock so concurrent sightings cannot race the read-check-write sequence.
type Engine struct {
	store     AlertStore
	settings  SettingsSource
	oracle    Oracle
	broadcast Broadcaster
	logger    zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an Engine.
func New(store AlertStore, settings SettingsSource, oracle Oracle, b Broadcaster, logger zerolog.Logger) *Engine {
	return &Engine{
		store:     store,
		settings:  settings,
		oracle:    oracle,
		broadcast: b,
		logger:    logger.With().Str("component", "engine").Logger(),
		locks:     make(map[string]*sync.Mutex),
	}
}

// lockKey serializes all work for one key and returns the unlock func.
func (e *Engine) lockKey(key string) func() {
	e.mu.Lock()
	l, ok := e.locks[key]
	if !ok {
		l = &sync.Mutex{}
		e.locks[key] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// ProcessNameSighting feeds one token name sighting through the quorum
// state machine. Re-sighting by a handle that already contributed is an
// idempotent no-op. Broadcasts happen exactly when the threshold is first
// met at creation (threshold <= 1) or when a new contributor lands at or
// above the threshold.
func (e *Engine) ProcessNameSighting(ctx context.Context, tokenName string, sighting Sighting) error {
	unlock := e.lockKey("name:" + tokenName)
	defer unlock()

	settings, err := e.settings.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	threshold := settings.MinQuorumThreshold
	if threshold < 1 {
		threshold = 1
	}

	existing, err := e.store.ActiveNameAlert(ctx, tokenName)
	if err != nil {
		return err
	}

	contributor := models.Contributor{
		Handle:  sighting.Handle,
		PostID:  sighting.PostID,
		PostURL: sighting.PostURL,
	}

	if existing == nil {
		alert := &models.NameAlert{
			TokenName:    tokenName,
			QuorumCount:  1,
			Contributors: models.Contributors{contributor},
			IsActive:     true,
		}
		if err := e.store.CreateNameAlert(ctx, alert); err != nil {
			return err
		}
		metrics.RecordNameSighting("created")

		if threshold <= 1 {
			e.broadcast.Broadcast(broadcast.Event{Type: broadcast.EventNameAlert, Data: alert})
			e.logger.Info().Str("token", tokenName).Msg("Immediate name alert")
		} else {
			e.logger.Debug().
				Str("token", tokenName).
				Int("quorum", 1).
				Int("threshold", threshold).
				Msg("New token name detected")
		}
		return nil
	}

	updated, appended, err := e.store.AppendContributor(ctx, existing.ID, contributor)
	if err != nil {
		return err
	}
	if !appended {
		metrics.RecordNameSighting("duplicate")
		e.logger.Debug().
			Str("token", tokenName).
			Str("handle", sighting.Handle).
			Msg("Handle already contributed to alert")
		return nil
	}
	metrics.RecordNameSighting("appended")

	if updated.QuorumCount >= threshold {
		e.broadcast.Broadcast(broadcast.Event{
			Type: broadcast.EventNameAlertUpdate,
			Data: map[string]interface{}{
				"token_name":    tokenName,
				"quorum_count":  updated.QuorumCount,
				"new_account":   sighting.Handle,
				"threshold_met": true,
			},
		})
		e.logger.Info().
			Str("token", tokenName).
			Int("quorum", updated.QuorumCount).
			Int("threshold", threshold).
			Msg("Name alert threshold reached")
	}
	return nil
}

// ProcessAddressSighting runs one contract address through the admission
// gate: duplicate check, freshness gate, then a single insert-if-absent.
// Rejections are silent; the gate is a pure filter in a background
// pipeline. candidateNames are the token names extracted from the same
// post and supply the display name.
func (e *Engine) ProcessAddressSighting(ctx context.Context, address string, candidateNames []string, sighting Sighting) error {
	unlock := e.lockKey("ca:" + address)
	defer unlock()

	exists, err := e.store.CAAlertExists(ctx, address)
	if err != nil {
		return err
	}
	if exists {
		metrics.RecordCAAdmission("duplicate")
		e.logger.Debug().Str("address", address).Msg("Contract alert already exists")
		return nil
	}

	settings, err := e.settings.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	maxAge := time.Duration(settings.MaxTokenAgeMinutes) * time.Minute

	if !e.oracle.IsFreshEnough(ctx, address, maxAge) {
		metrics.RecordCAAdmission("stale")
		e.logger.Info().Str("address", address).Msg("Filtering out established token")
		return nil
	}

	tokenName := "NEW"
	if len(candidateNames) > 0 {
		tokenName = candidateNames[0]
	}

	alert := &models.CAAlert{
		ContractAddress: address,
		TokenName:       tokenName,
		Chain:           "Solana",
		SourceHandle:    sighting.Handle,
		PostID:          sighting.PostID,
		PostURL:         sighting.PostURL,
		LaunchURL:       fmt.Sprintf("https://pump.fun/%s", address),
		ExplorerURL:     fmt.Sprintf("https://solscan.io/account/%s", address),
	}

	created, err := e.store.InsertCAAlertIfAbsent(ctx, alert)
	if err != nil {
		return err
	}
	if !created {
		// Lost the insert race to another admission path
		metrics.RecordCAAdmission("duplicate")
		return nil
	}
	metrics.RecordCAAdmission("admitted")

	e.logger.Info().
		Str("token", tokenName).
		Str("address", address).
		Str("handle", sighting.Handle).
		Msg("New contract alert admitted")

	e.broadcast.Broadcast(broadcast.Event{Type: broadcast.EventCAAlert, Data: alert})
	return nil
}
