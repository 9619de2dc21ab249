package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wnt/memetrack/internal/broadcast"
	"github.com/wnt/memetrack/internal/models"
)

// fakeStore is an in-memory AlertStore.
type fakeStore struct {
	mu         sync.Mutex
	nameAlerts map[string]*models.NameAlert
	caAlerts   map[string]*models.CAAlert
	nextID     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nameAlerts: make(map[string]*models.NameAlert),
		caAlerts:   make(map[string]*models.CAAlert),
	}
}

func (f *fakeStore) ActiveNameAlert(_ context.Context, tokenName string) (*models.NameAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, ok := f.nameAlerts[tokenName]
	if !ok || !alert.IsActive {
		return nil, nil
	}
	clone := *alert
	return &clone, nil
}

func (f *fakeStore) CreateNameAlert(_ context.Context, alert *models.NameAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	alert.ID = fmt.Sprintf("alert-%d", f.nextID)
	clone := *alert
	f.nameAlerts[alert.TokenName] = &clone
	return nil
}

func (f *fakeStore) AppendContributor(_ context.Context, alertID string, contributor models.Contributor) (*models.NameAlert, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, alert := range f.nameAlerts {
		if alert.ID != alertID {
			continue
		}
		if alert.Contributors.Contains(contributor.Handle) {
			clone := *alert
			return &clone, false, nil
		}
		alert.Contributors = append(alert.Contributors, contributor)
		alert.QuorumCount = len(alert.Contributors)
		clone := *alert
		return &clone, true, nil
	}
	return nil, false, fmt.Errorf("alert %s not found", alertID)
}

func (f *fakeStore) CAAlertExists(_ context.Context, address string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.caAlerts[address]
	return ok, nil
}

func (f *fakeStore) InsertCAAlertIfAbsent(_ context.Context, alert *models.CAAlert) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.caAlerts[alert.ContractAddress]; ok {
		return false, nil
	}
	clone := *alert
	f.caAlerts[alert.ContractAddress] = &clone
	return true, nil
}

// fakeSettings serves a fixed settings value.
type fakeSettings struct {
	settings models.Settings
}

func (f *fakeSettings) GetSettings(context.Context) (models.Settings, error) {
	return f.settings, nil
}

// fakeOracle answers a fixed verdict and records the asked max age.
type fakeOracle struct {
	fresh      bool
	lastMaxAge time.Duration
	calls      int
}

func (f *fakeOracle) IsFreshEnough(_ context.Context, _ string, maxAge time.Duration) bool {
	f.calls++
	f.lastMaxAge = maxAge
	return f.fresh
}

// fakeBroadcaster collects broadcast events.
type fakeBroadcaster struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (f *fakeBroadcaster) Broadcast(event broadcast.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeBroadcaster) all() []broadcast.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]broadcast.Event(nil), f.events...)
}

func newTestEngine(threshold int, fresh bool) (*Engine, *fakeStore, *fakeOracle, *fakeBroadcaster) {
	st := newFakeStore()
	settings := models.DefaultSettings()
	settings.MinQuorumThreshold = threshold
	oracle := &fakeOracle{fresh: fresh}
	bc := &fakeBroadcaster{}
	eng := New(st, &fakeSettings{settings: settings}, oracle, bc, zerolog.Nop())
	return eng, st, oracle, bc
}

func TestNameSightingQuorumProgression(t *testing.T) {
	eng, st, _, bc := newTestEngine(3, true)
	ctx := context.Background()

	require.NoError(t, eng.ProcessNameSighting(ctx, "FOO", Sighting{Handle: "alice", PostID: "1"}))
	require.NoError(t, eng.ProcessNameSighting(ctx, "FOO", Sighting{Handle: "bob", PostID: "2"}))
	assert.Empty(t, bc.all(), "no broadcast below the quorum threshold")

	require.NoError(t, eng.ProcessNameSighting(ctx, "FOO", Sighting{Handle: "carol", PostID: "3"}))

	events := bc.all()
	require.Len(t, events, 1)
	assert.Equal(t, broadcast.EventNameAlertUpdate, events[0].Type)

	data, ok := events[0].Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "FOO", data["token_name"])
	assert.Equal(t, 3, data["quorum_count"])
	assert.Equal(t, "carol", data["new_account"])
	assert.Equal(t, true, data["threshold_met"])

	alert := st.nameAlerts["FOO"]
	require.NotNil(t, alert)
	assert.Equal(t, 3, alert.QuorumCount)
	assert.Len(t, alert.Contributors, 3)
}

func TestNameSightingAboveThresholdKeepsBroadcasting(t *testing.T) {
	eng, _, _, bc := newTestEngine(2, true)
	ctx := context.Background()

	require.NoError(t, eng.ProcessNameSighting(ctx, "BAR", Sighting{Handle: "alice"}))
	require.NoError(t, eng.ProcessNameSighting(ctx, "BAR", Sighting{Handle: "bob"}))
	require.NoError(t, eng.ProcessNameSighting(ctx, "BAR", Sighting{Handle: "carol"}))

	events := bc.all()
	require.Len(t, events, 2)
	assert.Equal(t, broadcast.EventNameAlertUpdate, events[0].Type)
	assert.Equal(t, broadcast.EventNameAlertUpdate, events[1].Type)
}

func TestNameSightingDuplicateHandleIsIdempotent(t *testing.T) {
	eng, st, _, bc := newTestEngine(3, true)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, eng.ProcessNameSighting(ctx, "FOO", Sighting{Handle: "alice", PostID: fmt.Sprintf("%d", i)}))
	}

	alert := st.nameAlerts["FOO"]
	require.NotNil(t, alert)
	assert.Equal(t, 1, alert.QuorumCount, "repeat sightings by one handle must not grow the quorum")
	assert.Empty(t, bc.all())
}

func TestNameSightingImmediateThreshold(t *testing.T) {
	eng, _, _, bc := newTestEngine(1, true)

	require.NoError(t, eng.ProcessNameSighting(context.Background(), "WIF", Sighting{Handle: "alice", PostID: "1"}))

	events := bc.all()
	require.Len(t, events, 1)
	assert.Equal(t, broadcast.EventNameAlert, events[0].Type)

	alert, ok := events[0].Data.(*models.NameAlert)
	require.True(t, ok)
	assert.Equal(t, "WIF", alert.TokenName)
	assert.Equal(t, 1, alert.QuorumCount)
}

func TestNameSightingZeroThresholdClampedToOne(t *testing.T) {
	eng, _, _, bc := newTestEngine(0, true)

	require.NoError(t, eng.ProcessNameSighting(context.Background(), "FOO", Sighting{Handle: "alice"}))
	require.Len(t, bc.all(), 1)
}

func TestNameSightingConcurrentSameToken(t *testing.T) {
	eng, st, _, _ := newTestEngine(10, true)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = eng.ProcessNameSighting(ctx, "FOO", Sighting{Handle: fmt.Sprintf("user%d", n)})
		}(i)
	}
	wg.Wait()

	alert := st.nameAlerts["FOO"]
	require.NotNil(t, alert)
	assert.Equal(t, 8, alert.QuorumCount, "every distinct handle lands exactly once")
}

func TestAddressSightingAdmitsFreshToken(t *testing.T) {
	eng, st, oracle, bc := newTestEngine(3, true)
	ctx := context.Background()
	const address = "So11111111111111111111111111111111111111112"

	err := eng.ProcessAddressSighting(ctx, address, []string{"WIF", "BONK"}, Sighting{
		Handle:  "alice",
		PostID:  "42",
		PostURL: "https://twitter.com/alice/status/42",
	})
	require.NoError(t, err)

	alert := st.caAlerts[address]
	require.NotNil(t, alert)
	assert.Equal(t, "WIF", alert.TokenName, "first candidate name wins")
	assert.Equal(t, "Solana", alert.Chain)
	assert.Equal(t, "alice", alert.SourceHandle)
	assert.Equal(t, "https://pump.fun/"+address, alert.LaunchURL)
	assert.Equal(t, "https://solscan.io/account/"+address, alert.ExplorerURL)

	events := bc.all()
	require.Len(t, events, 1)
	assert.Equal(t, broadcast.EventCAAlert, events[0].Type)

	assert.Equal(t, 10*time.Minute, oracle.lastMaxAge, "max age comes from settings")
}

func TestAddressSightingIsOneShot(t *testing.T) {
	eng, _, oracle, bc := newTestEngine(3, true)
	ctx := context.Background()
	const address = "So11111111111111111111111111111111111111112"

	require.NoError(t, eng.ProcessAddressSighting(ctx, address, nil, Sighting{Handle: "alice"}))
	require.NoError(t, eng.ProcessAddressSighting(ctx, address, nil, Sighting{Handle: "bob"}))

	assert.Len(t, bc.all(), 1, "a contract address alerts at most once")
	assert.Equal(t, 1, oracle.calls, "duplicates short-circuit before the freshness lookup")
}

func TestAddressSightingRejectsStaleToken(t *testing.T) {
	eng, st, _, bc := newTestEngine(3, false)
	ctx := context.Background()
	const address = "So11111111111111111111111111111111111111112"

	require.NoError(t, eng.ProcessAddressSighting(ctx, address, nil, Sighting{Handle: "alice"}))

	assert.Empty(t, st.caAlerts, "stale tokens are rejected silently")
	assert.Empty(t, bc.all())
}

func TestAddressSightingFallbackName(t *testing.T) {
	eng, st, _, _ := newTestEngine(3, true)
	const address = "So11111111111111111111111111111111111111112"

	require.NoError(t, eng.ProcessAddressSighting(context.Background(), address, nil, Sighting{Handle: "alice"}))

	alert := st.caAlerts[address]
	require.NotNil(t, alert)
	assert.Equal(t, "NEW", alert.TokenName)
}
