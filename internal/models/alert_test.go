package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContributorsContains(t *testing.T) {
	contributors := Contributors{
		{Handle: "alice", PostID: "1"},
		{Handle: "bob", PostID: "2"},
	}

	assert.True(t, contributors.Contains("alice"))
	assert.False(t, contributors.Contains("carol"))
	assert.False(t, contributors.Contains("ALICE"), "handle matching is exact")
	assert.False(t, Contributors(nil).Contains("alice"))
}

func TestContributorsScan(t *testing.T) {
	var c Contributors
	require.NoError(t, c.Scan([]byte(`[{"handle":"alice","post_id":"1","post_url":"u"}]`)))
	require.Len(t, c, 1)
	assert.Equal(t, "alice", c[0].Handle)

	var fromString Contributors
	require.NoError(t, fromString.Scan(`[{"handle":"bob"}]`))
	require.Len(t, fromString, 1)

	var fromNil Contributors
	require.NoError(t, fromNil.Scan(nil))
	assert.Empty(t, fromNil)

	var bad Contributors
	require.Error(t, bad.Scan(42))
}

func TestNameAlertBeforeCreate(t *testing.T) {
	alert := &NameAlert{TokenName: "WIF"}
	require.NoError(t, alert.BeforeCreate(nil))
	assert.NotEmpty(t, alert.ID)
	assert.False(t, alert.FirstSeen.IsZero())

	// Existing identity survives, so restore keeps snapshot ids
	fixed := &NameAlert{ID: "fixed-id", TokenName: "WIF"}
	require.NoError(t, fixed.BeforeCreate(nil))
	assert.Equal(t, "fixed-id", fixed.ID)
}

func TestCAAlertBeforeCreateDefaultsChain(t *testing.T) {
	alert := &CAAlert{ContractAddress: "So11111111111111111111111111111111111111112"}
	require.NoError(t, alert.BeforeCreate(nil))
	assert.Equal(t, "Solana", alert.Chain)
	assert.NotEmpty(t, alert.ID)
}
