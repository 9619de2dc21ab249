package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider fakes the scrape provider. The run endpoint returns a run
// id, the status endpoint reports the configured status, and the items
// endpoint returns the dataset only once the run has succeeded.
type fakeProvider struct {
	mu     sync.Mutex
	status string
	items  []map[string]interface{}
}

func (p *fakeProvider) setStatus(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = status
}

func (p *fakeProvider) server(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		status := p.status
		items := p.items
		p.mu.Unlock()

		switch {
		case r.Method == http.MethodPost:
			if r.URL.Query().Get("token") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			var payload searchRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Len(t, payload.SearchTerms, 1)
			assert.Equal(t, "Latest", payload.Sort)

			fmt.Fprint(w, `{"data": {"id": "run-123"}}`)
		case r.URL.Path == "/actor-runs/run-123":
			fmt.Fprintf(w, `{"data": {"status": %q}}`, status)
		case r.URL.Path == "/actor-runs/run-123/dataset/items":
			// The provider's dataset is empty until the run finishes
			if status != "SUCCEEDED" {
				json.NewEncoder(w).Encode([]map[string]interface{}{})
				return
			}
			json.NewEncoder(w).Encode(items)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestClient(t *testing.T, apiBase string) *Client {
	t.Helper()
	client, err := NewClient(Config{APIBase: apiBase, APIToken: "test-token", MaxPosts: 5}, zerolog.Nop())
	require.NoError(t, err)
	client.runPollInterval = 5 * time.Millisecond
	client.runWaitTimeout = time.Second
	return client
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(Config{APIBase: "http://example.com"}, zerolog.Nop())
	require.Error(t, err)
}

func TestFetchRecentPosts(t *testing.T) {
	provider := &fakeProvider{status: "SUCCEEDED", items: []map[string]interface{}{
		{"id_str": "1001", "text": "gm $WIF"},
		{"id_str": "1002", "text": "launching soon"},
	}}
	server := provider.server(t)
	defer server.Close()

	client := newTestClient(t, server.URL)
	posts, err := client.FetchRecentPosts(context.Background(), "alice")
	require.NoError(t, err)

	require.Len(t, posts, 2)
	assert.Equal(t, "1001", posts[0].ID)
	assert.Equal(t, "gm $WIF", posts[0].Text)
	assert.Equal(t, "1002", posts[1].ID)
}

func TestFetchRecentPostsWaitsForRunCompletion(t *testing.T) {
	provider := &fakeProvider{status: "RUNNING", items: []map[string]interface{}{
		{"id_str": "2001", "text": "stealth launch $MOON"},
	}}
	server := provider.server(t)
	defer server.Close()

	// Flip the run to finished a little after the fetch starts; until
	// then the dataset endpoint serves an empty result.
	go func() {
		time.Sleep(50 * time.Millisecond)
		provider.setStatus("SUCCEEDED")
	}()

	client := newTestClient(t, server.URL)
	posts, err := client.FetchRecentPosts(context.Background(), "alice")
	require.NoError(t, err)

	require.Len(t, posts, 1, "the dataset must be collected only after the run finishes")
	assert.Equal(t, "2001", posts[0].ID)
}

func TestFetchRecentPostsFailedRun(t *testing.T) {
	provider := &fakeProvider{status: "FAILED"}
	server := provider.server(t)
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.FetchRecentPosts(context.Background(), "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FAILED")
}

func TestFetchRecentPostsRunTimeout(t *testing.T) {
	provider := &fakeProvider{status: "RUNNING"}
	server := provider.server(t)
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.runWaitTimeout = 20 * time.Millisecond

	_, err := client.FetchRecentPosts(context.Background(), "alice")
	require.Error(t, err)
}

func TestFetchRecentPostsDropsDemoResults(t *testing.T) {
	provider := &fakeProvider{status: "SUCCEEDED", items: []map[string]interface{}{
		{"id_str": "1", "text": "real post"},
		{"id_str": "2", "text": "placeholder", "demo": true},
	}}
	server := provider.server(t)
	defer server.Close()

	client := newTestClient(t, server.URL)
	posts, err := client.FetchRecentPosts(context.Background(), "alice")
	require.NoError(t, err)

	require.Len(t, posts, 1)
	assert.Equal(t, "real post", posts[0].Text)
}

func TestFetchRecentPostsEmptyDataset(t *testing.T) {
	provider := &fakeProvider{status: "SUCCEEDED", items: []map[string]interface{}{}}
	server := provider.server(t)
	defer server.Close()

	client := newTestClient(t, server.URL)
	posts, err := client.FetchRecentPosts(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFetchRecentPostsMissingRunID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.FetchRecentPosts(context.Background(), "alice")
	require.Error(t, err)
}
