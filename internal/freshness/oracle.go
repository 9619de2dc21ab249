// Package freshness classifies contract addresses as recently created or
// established, against an external chain-metadata source.
package freshness

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wnt/memetrack/internal/metrics"
	"github.com/wnt/memetrack/internal/utils"
)

// Config controls the oracle's timeout and failure bias.
type Config struct {
	// APIBase is the metadata source, e.g. https://public-api.solscan.io
	APIBase string

	// Timeout bounds each lookup. Zero means DefaultTimeout.
	Timeout time.Duration

	// FailOpen is the verdict when the source has no record or the
	// lookup fails. The shipped default is true: an unknown address is
	// treated as fresh so a true launch is never missed, at the cost of
	// false positives.
	FailOpen bool
}

// DefaultTimeout bounds a single metadata lookup.
const DefaultTimeout = 5 * time.Second

// Oracle answers best-effort freshness queries for contract addresses.
type Oracle struct {
	client   *utils.HTTPClient
	failOpen bool
	logger   zerolog.Logger
	now      func() time.Time
}

// accountMeta is the subset of the metadata response we read.
type accountMeta struct {
	CreatedTime int64 `json:"createdTime"`
}

// New creates an Oracle.
func New(cfg Config, logger zerolog.Logger) *Oracle {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Oracle{
		client: utils.NewHTTPClient(
			utils.WithBaseURL(cfg.APIBase),
			utils.WithTimeout(timeout),
			utils.WithRetries(0, 0),
		),
		failOpen: cfg.FailOpen,
		logger:   logger.With().Str("component", "freshness").Logger(),
		now:      time.Now,
	}
}

// IsFreshEnough reports whether the address was created within maxAge.
// Unknown addresses and lookup failures resolve to the configured
// fail-open verdict; callers must treat the answer as best-effort.
func (o *Oracle) IsFreshEnough(ctx context.Context, address string, maxAge time.Duration) bool {
	var meta accountMeta
	err := o.client.GetJSON(ctx, fmt.Sprintf("/account/%s", address), nil, &meta)
	if err != nil {
		if utils.IsNotFound(err) {
			// Not indexed yet means the token is extremely new
			o.logger.Debug().Str("address", address).Msg("Address not indexed, treating as fresh")
			metrics.RecordFreshnessLookup("unknown")
			return o.failOpen
		}
		o.logger.Warn().Err(err).Str("address", address).Msg("Freshness lookup failed")
		metrics.RecordFreshnessLookup("error")
		return o.failOpen
	}

	if meta.CreatedTime == 0 {
		// Indexed but no creation time recorded
		metrics.RecordFreshnessLookup("unknown")
		return o.failOpen
	}

	age := o.now().Sub(time.Unix(meta.CreatedTime, 0))
	if age <= maxAge {
		o.logger.Info().
			Str("address", address).
			Dur("age", age).
			Dur("max_age", maxAge).
			Msg("Address is within the freshness window")
		metrics.RecordFreshnessLookup("fresh")
		return true
	}

	o.logger.Debug().
		Str("address", address).
		Dur("age", age).
		Dur("max_age", maxAge).
		Msg("Address is too old")
	metrics.RecordFreshnessLookup("stale")
	return false
}
