package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outpost-sh/outpost/pkg/config"
	"github.com/outpost-sh/outpost/pkg/dnsprovider"
	"github.com/outpost-sh/outpost/pkg/reconciler"
	"github.com/outpost-sh/outpost/pkg/recovery"
	"github.com/outpost-sh/outpost/pkg/statestore"
	"github.com/outpost-sh/outpost/pkg/types"
)

// flowStore is an in-memory statestore.Store
type flowStore struct {
	mu     sync.Mutex
	values map[string]string
}

func (s *flowStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", statestore.ErrNotFound
	}
	return v, nil
}

func (s *flowStore) Put(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *flowStore) PutSecret(ctx context.Context, key, value string) error {
	return s.Put(ctx, key, value)
}

func (s *flowStore) Close() error { return nil }

// flowPlatform launches "i-new" and reports it running with a public address
type flowPlatform struct {
	mu      sync.Mutex
	created int
}

func (p *flowPlatform) CreateFromTemplate(ctx context.Context, templateID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created++
	return "i-new", nil
}

func (p *flowPlatform) Describe(ctx context.Context, instanceID string) (*types.Instance, error) {
	return &types.Instance{
		ID:       instanceID,
		State:    types.StateRunning,
		PublicIP: "203.0.113.7",
	}, nil
}

// TestInterruptionToDNSFlow walks the whole chain: an interruption for the
// managed instance produces a replacement and moves the reference, then the
// replacement's running notification lands its address in the DNS record.
func TestInterruptionToDNSFlow(t *testing.T) {
	var (
		mu       sync.Mutex
		contents []string
	)
	dnsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		contents = append(contents, body["content"])
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"result": map[string]any{
				"id":      "rec-1",
				"name":    "vpn.example.com",
				"content": body["content"],
			},
		})
	}))
	defer dnsSrv.Close()

	store := &flowStore{values: map[string]string{
		"instance-id":      "i-old",
		"cloudflare-token": "tok",
	}}
	platform := &flowPlatform{}

	policy := config.DefaultPolicy()
	policy.PollInterval = config.Duration(time.Millisecond)
	policy.LookupBaseDelay = config.Duration(time.Millisecond)
	policy.UpdateBaseDelay = config.Duration(time.Millisecond)

	rec := recovery.New(store, platform, "lt-0abc", policy)
	recon := reconciler.New(store, platform, dnsprovider.NewClient(dnsprovider.WithBaseURL(dnsSrv.URL)),
		"zone-1", "rec-1", policy)
	dispatcher := NewDispatcher(rec, recon, policy.Redeliveries)

	ctx := context.Background()

	// Interruption for the instance we manage
	require.NoError(t, dispatcher.Dispatch(ctx, NewInterruption("i-old", "terminate")))
	assert.Equal(t, 1, platform.created)
	ref, err := store.Get(ctx, statestore.KeyInstanceID)
	require.NoError(t, err)
	assert.Equal(t, "i-new", ref)

	// A duplicate of the same interruption is discarded by the moved reference
	require.NoError(t, dispatcher.Dispatch(ctx, NewInterruption("i-old", "terminate")))
	assert.Equal(t, 1, platform.created)

	// The replacement reports running; its address lands in DNS
	require.NoError(t, dispatcher.Dispatch(ctx, NewStateChange("i-new", types.StateRunning)))
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, contents, 1)
	assert.Equal(t, "203.0.113.7", contents[0])
}
