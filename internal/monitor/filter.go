package monitor

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wnt/memetrack/internal/models"
)

// Filter is the suppression extension point consulted by the polling
// loop. The default pipeline runs unfiltered; operators opt into the
// blacklist-backed implementation via configuration.
type Filter interface {
	// SkipAccount suppresses polling of a handle entirely.
	SkipAccount(ctx context.Context, handle string) bool
	// SkipPost suppresses a whole post before extraction.
	SkipPost(ctx context.Context, text string) bool
	// SkipName suppresses one extracted token name.
	SkipName(ctx context.Context, name string) bool
}

// NopFilter suppresses nothing.
type NopFilter struct{}

func (NopFilter) SkipAccount(context.Context, string) bool { return false }
func (NopFilter) SkipPost(context.Context, string) bool    { return false }
func (NopFilter) SkipName(context.Context, string) bool    { return false }

// BlacklistSource lists the operator-maintained blacklist.
type BlacklistSource interface {
	ListBlacklist(ctx context.Context) ([]models.BlacklistItem, error)
}

// BlacklistFilter suppresses sightings against the blacklist: account
// entries skip polling, word entries skip matching token names, domain
// entries skip posts mentioning the domain. Lookup failures suppress
// nothing, so a broken blacklist cannot silence the pipeline.
type BlacklistFilter struct {
	source BlacklistSource
	logger zerolog.Logger
}

// NewBlacklistFilter creates a blacklist-backed Filter.
func NewBlacklistFilter(source BlacklistSource, logger zerolog.Logger) *BlacklistFilter {
	return &BlacklistFilter{
		source: source,
		logger: logger.With().Str("component", "blacklist_filter").Logger(),
	}
}

func (f *BlacklistFilter) items(ctx context.Context, kind string) []models.BlacklistItem {
	all, err := f.source.ListBlacklist(ctx)
	if err != nil {
		f.logger.Warn().Err(err).Msg("Failed to load blacklist, suppressing nothing")
		return nil
	}
	var matched []models.BlacklistItem
	for _, item := range all {
		if item.Kind == kind {
			matched = append(matched, item)
		}
	}
	return matched
}

// SkipAccount reports whether the handle is blacklisted.
func (f *BlacklistFilter) SkipAccount(ctx context.Context, handle string) bool {
	for _, item := range f.items(ctx, models.BlacklistAccount) {
		if strings.EqualFold(item.Value, handle) {
			return true
		}
	}
	return false
}

// SkipPost reports whether the post mentions a blacklisted domain.
func (f *BlacklistFilter) SkipPost(ctx context.Context, text string) bool {
	lower := strings.ToLower(text)
	for _, item := range f.items(ctx, models.BlacklistDomain) {
		if strings.Contains(lower, strings.ToLower(item.Value)) {
			return true
		}
	}
	return false
}

// SkipName reports whether the token name is a blacklisted word.
func (f *BlacklistFilter) SkipName(ctx context.Context, name string) bool {
	for _, item := range f.items(ctx, models.BlacklistWord) {
		if strings.EqualFold(item.Value, name) {
			return true
		}
	}
	return false
}
