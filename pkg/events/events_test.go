package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outpost-sh/outpost/pkg/types"
)

// TestParseEventBridgeInterruption tests the spot interruption envelope
func TestParseEventBridgeInterruption(t *testing.T) {
	body := []byte(`{
		"detail-type": "EC2 Spot Instance Interruption Warning",
		"detail": {"instance-id": "i-0abc", "instance-action": "terminate"}
	}`)

	sig, err := ParseEventBridge(body)
	require.NoError(t, err)
	assert.Equal(t, KindInterruption, sig.Kind)
	assert.Equal(t, "i-0abc", sig.InstanceID)
	assert.Equal(t, "terminate", sig.Action)
	assert.NotEmpty(t, sig.ID)
}

// TestParseEventBridgeStateChange tests the state-change envelope
func TestParseEventBridgeStateChange(t *testing.T) {
	body := []byte(`{
		"detail-type": "EC2 Instance State-change Notification",
		"detail": {"instance-id": "i-0def", "state": "running"}
	}`)

	sig, err := ParseEventBridge(body)
	require.NoError(t, err)
	assert.Equal(t, KindStateChange, sig.Kind)
	assert.Equal(t, "i-0def", sig.InstanceID)
	assert.Equal(t, types.StateRunning, sig.State)
}

// TestParseEventBridgeRejects tests malformed and foreign events
func TestParseEventBridgeRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "not json at all"},
		{"unknown detail-type", `{"detail-type": "EC2 Instance Launch Successful", "detail": {}}`},
		{"interruption without instance id", `{"detail-type": "EC2 Spot Instance Interruption Warning", "detail": {}}`},
		{"state change without instance id", `{"detail-type": "EC2 Instance State-change Notification", "detail": {"state": "running"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEventBridge([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

// TestBrokerFanOut tests that every subscriber sees every signal
func TestBrokerFanOut(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub1 := broker.Subscribe()
	sub2 := broker.Subscribe()
	assert.Equal(t, 2, broker.SubscriberCount())

	sig := NewInterruption("i-0abc", "terminate")
	broker.Publish(sig)

	assert.Equal(t, sig, <-sub1)
	assert.Equal(t, sig, <-sub2)
}

// TestBrokerUnsubscribe tests that removed subscribers stop receiving
func TestBrokerUnsubscribe(t *testing.T) {
	broker := NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	broker.Unsubscribe(sub)
	assert.Equal(t, 0, broker.SubscriberCount())

	// The channel is closed on unsubscribe
	_, ok := <-sub
	assert.False(t, ok)
}
