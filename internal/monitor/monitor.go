// Package monitor drives the polling loop that feeds the aggregation
// engine from the ingestion source.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wnt/memetrack/internal/apperr"
	"github.com/wnt/memetrack/internal/engine"
	"github.com/wnt/memetrack/internal/extract"
	"github.com/wnt/memetrack/internal/ingestion"
	"github.com/wnt/memetrack/internal/logger"
	"github.com/wnt/memetrack/internal/metrics"
	"github.com/wnt/memetrack/internal/models"
)

// Default cadence for the polling loop.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultErrorBackoff = 10 * time.Second
)

// AccountSource lists the accounts eligible for polling.
type AccountSource interface {
	ListActiveAccounts(ctx context.Context) ([]models.TrackedAccount, error)
}

// Sink consumes extracted sightings. Satisfied by *engine.Engine.
type Sink interface {
	ProcessNameSighting(ctx context.Context, tokenName string, sighting engine.Sighting) error
	ProcessAddressSighting(ctx context.Context, address string, candidateNames []string, sighting engine.Sighting) error
}

// Config holds the monitor cadence.
type Config struct {
	PollInterval time.Duration
	ErrorBackoff time.Duration
}

// Monitor is the scheduler handle. Exactly one polling loop runs per
// Monitor: Start on a running monitor returns a conflict instead of
// spawning a second loop, and Stop is idempotent.
type Monitor struct {
	accounts AccountSource
	source   ingestion.Source
	sink     Sink
	filter   Filter
	interval time.Duration
	backoff  time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	eg      *errgroup.Group
	running bool
}

// New creates a Monitor. filter may be nil for no filtering.
func New(accounts AccountSource, source ingestion.Source, sink Sink, filter Filter, cfg Config, log zerolog.Logger) *Monitor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = DefaultErrorBackoff
	}
	if filter == nil {
		filter = NopFilter{}
	}
	return &Monitor{
		accounts: accounts,
		source:   source,
		sink:     sink,
		filter:   filter,
		interval: cfg.PollInterval,
		backoff:  cfg.ErrorBackoff,
		logger:   logger.WithComponent(log, "monitor"),
	}
}

// Start launches the polling loop. Returns apperr.ErrConflict when the
// loop is already running.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return apperr.Conflict("monitoring already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	eg, egCtx := errgroup.WithContext(ctx)
	m.cancel = cancel
	m.eg = eg
	m.running = true

	eg.Go(func() error {
		return m.run(egCtx)
	})

	m.logger.Info().Dur("interval", m.interval).Msg("Monitoring started")
	return nil
}

// Stop halts the polling loop and waits for the in-flight cycle to wind
// down. Stopping an idle monitor is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.cancel()

	done := make(chan error, 1)
	go func() {
		done <- m.eg.Wait()
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		m.logger.Warn().Msg("Monitor shutdown timed out")
	}

	m.running = false
	m.logger.Info().Msg("Monitoring stopped")
}

// Running reports whether the polling loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// run loops until the context is cancelled. A whole-cycle failure backs
// off for longer before retrying; the loop itself never terminates on
// error.
func (m *Monitor) run(ctx context.Context) error {
	for {
		sleep := m.interval
		if err := m.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.logger.Error().Err(err).Msg("Monitoring cycle failed")
			metrics.RecordPollCycle("failed")
			sleep = m.backoff
		} else {
			metrics.RecordPollCycle("success")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// cycle polls every active account once, sequentially. Per-account fetch
// failures are logged and skipped so one broken handle cannot starve the
// rest.
func (m *Monitor) cycle(ctx context.Context) error {
	accounts, err := m.accounts.ListActiveAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active accounts: %w", err)
	}

	for _, account := range accounts {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if m.filter.SkipAccount(ctx, account.Handle) {
			continue
		}

		if err := m.pollAccount(ctx, account.Handle); err != nil {
			m.logger.Warn().Err(err).Str("handle", account.Handle).Msg("Failed to poll account, continuing")
		}
	}
	return nil
}

func (m *Monitor) pollAccount(ctx context.Context, handle string) error {
	start := time.Now()
	posts, err := m.source.FetchRecentPosts(ctx, handle)
	metrics.AccountFetchSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("failed to fetch posts: %w", err)
	}

	accountLogger := logger.WithHandle(m.logger, handle)
	for _, post := range posts {
		m.processPost(ctx, handle, post, accountLogger)
	}
	return nil
}

// processPost runs extraction on one post and feeds results to the
// aggregation engine. Engine failures are isolated per sighting.
func (m *Monitor) processPost(ctx context.Context, handle string, post ingestion.Post, log zerolog.Logger) {
	metrics.PostsProcessed.Inc()

	if m.filter.SkipPost(ctx, post.Text) {
		return
	}

	sighting := engine.Sighting{
		Handle:  handle,
		PostID:  post.ID,
		PostURL: fmt.Sprintf("https://twitter.com/%s/status/%s", handle, post.ID),
	}

	names := extract.TokenNames(post.Text)
	for _, name := range names {
		if m.filter.SkipName(ctx, name) {
			continue
		}
		if err := m.sink.ProcessNameSighting(ctx, name, sighting); err != nil {
			log.Error().Err(err).Str("token", name).Msg("Failed to process name sighting")
		}
	}

	if address, ok := extract.ContractAddress(post.Text); ok {
		if err := m.sink.ProcessAddressSighting(ctx, address, names, sighting); err != nil {
			log.Error().Err(err).Str("address", address).Msg("Failed to process address sighting")
		}
	}
}
