package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/outpost-sh/outpost/pkg/types"
)

// Kind discriminates the two signal shapes the platform delivers.
type Kind string

const (
	KindInterruption Kind = "interruption"
	KindStateChange  Kind = "state-change"
)

// Signal is one delivery of a platform notification. The ID identifies
// the delivery, not the event: a duplicated event arrives as two signals
// with two IDs.
type Signal struct {
	ID         string
	Kind       Kind
	InstanceID string
	Action     string              // interruption only
	State      types.InstanceState // state-change only
	ReceivedAt time.Time
}

// NewInterruption builds an interruption signal delivery.
func NewInterruption(instanceID, action string) *Signal {
	return &Signal{
		ID:         uuid.New().String(),
		Kind:       KindInterruption,
		InstanceID: instanceID,
		Action:     action,
		ReceivedAt: time.Now(),
	}
}

// NewStateChange builds a state-change signal delivery.
func NewStateChange(instanceID string, state types.InstanceState) *Signal {
	return &Signal{
		ID:         uuid.New().String(),
		Kind:       KindStateChange,
		InstanceID: instanceID,
		State:      state,
		ReceivedAt: time.Now(),
	}
}

// EventBridge detail-types Outpost subscribes to.
const (
	detailTypeInterruption = "EC2 Spot Instance Interruption Warning"
	detailTypeStateChange  = "EC2 Instance State-change Notification"
)

type eventBridgeEnvelope struct {
	DetailType string          `json:"detail-type"`
	Detail     json.RawMessage `json:"detail"`
}

type interruptionDetail struct {
	InstanceID     string `json:"instance-id"`
	InstanceAction string `json:"instance-action"`
}

type stateChangeDetail struct {
	InstanceID string `json:"instance-id"`
	State      string `json:"state"`
}

// ParseEventBridge converts a raw EventBridge event body into a Signal.
// Unknown detail-types are an error; the caller drops the message.
func ParseEventBridge(body []byte) (*Signal, error) {
	var envelope eventBridgeEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse event envelope: %w", err)
	}

	switch envelope.DetailType {
	case detailTypeInterruption:
		var detail interruptionDetail
		if err := json.Unmarshal(envelope.Detail, &detail); err != nil {
			return nil, fmt.Errorf("failed to parse interruption detail: %w", err)
		}
		if detail.InstanceID == "" {
			return nil, fmt.Errorf("interruption event has no instance id")
		}
		return NewInterruption(detail.InstanceID, detail.InstanceAction), nil

	case detailTypeStateChange:
		var detail stateChangeDetail
		if err := json.Unmarshal(envelope.Detail, &detail); err != nil {
			return nil, fmt.Errorf("failed to parse state-change detail: %w", err)
		}
		if detail.InstanceID == "" {
			return nil, fmt.Errorf("state-change event has no instance id")
		}
		return NewStateChange(detail.InstanceID, types.InstanceState(detail.State)), nil

	default:
		return nil, fmt.Errorf("unknown event detail-type %q", envelope.DetailType)
	}
}
