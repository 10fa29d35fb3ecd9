package recovery

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outpost-sh/outpost/pkg/config"
	"github.com/outpost-sh/outpost/pkg/log"
	"github.com/outpost-sh/outpost/pkg/statestore"
	"github.com/outpost-sh/outpost/pkg/types"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true, Output: io.Discard})
	os.Exit(m.Run())
}

// fakeStore is an in-memory statestore.Store that records operations
type fakeStore struct {
	mu     sync.Mutex
	values map[string]string
	ops    *[]string
	getErr error
	putErr error
}

func newFakeStore(ops *[]string) *fakeStore {
	return &fakeStore{values: make(map[string]string), ops: ops}
}

func (s *fakeStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", s.getErr
	}
	v, ok := s.values[key]
	if !ok {
		return "", statestore.ErrNotFound
	}
	return v, nil
}

func (s *fakeStore) Put(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	if s.ops != nil {
		*s.ops = append(*s.ops, "put:"+key+"="+value)
	}
	s.values[key] = value
	return nil
}

func (s *fakeStore) PutSecret(ctx context.Context, key, value string) error {
	return s.Put(ctx, key, value)
}

func (s *fakeStore) Close() error { return nil }

// fakePlatform scripts CreateFromTemplate and a sequence of Describe states
type fakePlatform struct {
	mu          sync.Mutex
	ops         *[]string
	createID    string
	createErr   error
	states      []types.InstanceState
	describeErr error
	idx         int
	creates     int
}

func (p *fakePlatform) CreateFromTemplate(ctx context.Context, templateID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creates++
	if p.ops != nil {
		*p.ops = append(*p.ops, "create:"+templateID)
	}
	if p.createErr != nil {
		return "", p.createErr
	}
	return p.createID, nil
}

func (p *fakePlatform) Describe(ctx context.Context, instanceID string) (*types.Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ops != nil {
		*p.ops = append(*p.ops, "describe:"+instanceID)
	}
	if p.describeErr != nil {
		return nil, p.describeErr
	}
	i := p.idx
	if i >= len(p.states) {
		i = len(p.states) - 1
	}
	p.idx++
	return &types.Instance{ID: instanceID, State: p.states[i]}, nil
}

func testPolicy() config.Policy {
	p := config.DefaultPolicy()
	p.PollInterval = config.Duration(time.Millisecond)
	p.PollAttempts = 3
	return p
}

// TestRecoveryReplacesCurrentInstance tests the happy path end to end
func TestRecoveryReplacesCurrentInstance(t *testing.T) {
	var ops []string
	store := newFakeStore(&ops)
	require.NoError(t, store.Put(context.Background(), statestore.KeyInstanceID, "i-old"))
	ops = ops[:0]

	platform := &fakePlatform{
		ops:      &ops,
		createID: "i-new",
		states:   []types.InstanceState{types.StatePending, types.StateRunning},
	}

	c := New(store, platform, "lt-0abc", testPolicy())
	err := c.HandleInterruption(context.Background(), types.InterruptionSignal{InstanceID: "i-old", Action: "terminate"})
	require.NoError(t, err)

	// The reference now points at the replacement
	ref, err := store.Get(context.Background(), statestore.KeyInstanceID)
	require.NoError(t, err)
	assert.Equal(t, "i-new", ref)

	// The reference write happens before the first readiness poll
	assert.Equal(t, []string{
		"create:lt-0abc",
		"put:instance-id=i-new",
		"describe:i-new",
		"describe:i-new",
	}, ops)
}

// TestRecoveryIdempotentOnDuplicate tests that a duplicate signal for the
// already-replaced instance launches nothing
func TestRecoveryIdempotentOnDuplicate(t *testing.T) {
	store := newFakeStore(nil)
	require.NoError(t, store.Put(context.Background(), statestore.KeyInstanceID, "i-old"))

	platform := &fakePlatform{
		createID: "i-new",
		states:   []types.InstanceState{types.StateRunning},
	}
	c := New(store, platform, "lt-0abc", testPolicy())

	sig := types.InterruptionSignal{InstanceID: "i-old"}
	require.NoError(t, c.HandleInterruption(context.Background(), sig))
	assert.Equal(t, 1, platform.creates)

	// Same signal again: the reference now says i-new, so this is stale
	require.NoError(t, c.HandleInterruption(context.Background(), sig))
	assert.Equal(t, 1, platform.creates, "duplicate signal must not launch a second replacement")
}

// TestRecoveryBootstrapSentinel tests that the sentinel matches any instance id
func TestRecoveryBootstrapSentinel(t *testing.T) {
	store := newFakeStore(nil)
	require.NoError(t, store.Put(context.Background(), statestore.KeyInstanceID, types.SentinelInstanceID))

	platform := &fakePlatform{createID: "i-first", states: []types.InstanceState{types.StateRunning}}
	c := New(store, platform, "lt-0abc", testPolicy())

	err := c.HandleInterruption(context.Background(), types.InterruptionSignal{InstanceID: "i-anything"})
	require.NoError(t, err)
	assert.Equal(t, 1, platform.creates)

	ref, _ := store.Get(context.Background(), statestore.KeyInstanceID)
	assert.Equal(t, "i-first", ref)
}

// TestRecoveryMissingReference tests that an absent reference behaves like
// the sentinel
func TestRecoveryMissingReference(t *testing.T) {
	store := newFakeStore(nil)
	platform := &fakePlatform{createID: "i-first", states: []types.InstanceState{types.StateRunning}}
	c := New(store, platform, "lt-0abc", testPolicy())

	err := c.HandleInterruption(context.Background(), types.InterruptionSignal{InstanceID: "i-anything"})
	require.NoError(t, err)
	assert.Equal(t, 1, platform.creates)
}

// TestRecoveryForeignSignal tests discarding a signal for someone else's instance
func TestRecoveryForeignSignal(t *testing.T) {
	store := newFakeStore(nil)
	require.NoError(t, store.Put(context.Background(), statestore.KeyInstanceID, "i-A"))

	platform := &fakePlatform{createID: "i-new", states: []types.InstanceState{types.StateRunning}}
	c := New(store, platform, "lt-0abc", testPolicy())

	err := c.HandleInterruption(context.Background(), types.InterruptionSignal{InstanceID: "i-B"})
	require.NoError(t, err, "foreign signals are discarded successfully")
	assert.Equal(t, 0, platform.creates)

	ref, _ := store.Get(context.Background(), statestore.KeyInstanceID)
	assert.Equal(t, "i-A", ref, "reference must be untouched")
}

// TestRecoveryLaunchFailureIsFatal tests that launch errors surface
func TestRecoveryLaunchFailureIsFatal(t *testing.T) {
	store := newFakeStore(nil)
	require.NoError(t, store.Put(context.Background(), statestore.KeyInstanceID, "i-old"))

	boom := errors.New("no capacity")
	platform := &fakePlatform{createErr: boom}
	c := New(store, platform, "lt-0abc", testPolicy())

	err := c.HandleInterruption(context.Background(), types.InterruptionSignal{InstanceID: "i-old"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// The reference still points at the old instance
	ref, _ := store.Get(context.Background(), statestore.KeyInstanceID)
	assert.Equal(t, "i-old", ref)
}

// TestRecoveryTerminalStateIsFatal tests that a replacement dying during
// the readiness wait aborts the recovery
func TestRecoveryTerminalStateIsFatal(t *testing.T) {
	store := newFakeStore(nil)
	require.NoError(t, store.Put(context.Background(), statestore.KeyInstanceID, "i-old"))

	platform := &fakePlatform{
		createID: "i-new",
		states:   []types.InstanceState{types.StatePending, types.StateTerminated},
	}
	c := New(store, platform, "lt-0abc", testPolicy())

	err := c.HandleInterruption(context.Background(), types.InterruptionSignal{InstanceID: "i-old"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal state")
}

// TestRecoveryPollBudgetExhausted tests the bounded readiness wait
func TestRecoveryPollBudgetExhausted(t *testing.T) {
	store := newFakeStore(nil)
	require.NoError(t, store.Put(context.Background(), statestore.KeyInstanceID, "i-old"))

	platform := &fakePlatform{
		createID: "i-new",
		states:   []types.InstanceState{types.StatePending},
	}
	c := New(store, platform, "lt-0abc", testPolicy())

	err := c.HandleInterruption(context.Background(), types.InterruptionSignal{InstanceID: "i-old"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not reach running")

	// Budget was 3 polls
	assert.Equal(t, 3, platform.idx)
}

// TestRecoveryDescribeErrorsCountAgainstBudget tests that transient poll
// failures neither abort nor extend the wait
func TestRecoveryDescribeErrorsCountAgainstBudget(t *testing.T) {
	store := newFakeStore(nil)
	require.NoError(t, store.Put(context.Background(), statestore.KeyInstanceID, "i-old"))

	platform := &fakePlatform{
		createID:    "i-new",
		describeErr: errors.New("throttled"),
	}
	c := New(store, platform, "lt-0abc", testPolicy())

	err := c.HandleInterruption(context.Background(), types.InterruptionSignal{InstanceID: "i-old"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not reach running")
}
