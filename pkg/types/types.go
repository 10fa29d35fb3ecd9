package types

// SentinelInstanceID is the value the authoritative instance reference holds
// before the first recovery has ever run. Provisioning writes it once; the
// recovery controller treats it as "always applicable" so the very first
// interruption signal can bootstrap the reference.
const SentinelInstanceID = "initial"

// InstanceState represents the lifecycle state of a compute instance as
// reported by the platform.
type InstanceState string

const (
	StatePending      InstanceState = "pending"
	StateRunning      InstanceState = "running"
	StateShuttingDown InstanceState = "shutting-down"
	StateTerminated   InstanceState = "terminated"
	StateStopping     InstanceState = "stopping"
	StateStopped      InstanceState = "stopped"
)

// Terminal reports whether the state is one the instance cannot leave.
// Reaching a terminal state while waiting for a replacement to boot is fatal.
func (s InstanceState) Terminal() bool {
	switch s {
	case StateShuttingDown, StateTerminated, StateStopping, StateStopped:
		return true
	}
	return false
}

// Instance is the platform's view of a single compute instance.
type Instance struct {
	ID       string
	State    InstanceState
	PublicIP string
}

// InterruptionSignal notifies that an instance is about to be reclaimed.
// Delivery is at-least-once; duplicates are expected and handled by the
// recovery controller's applicability check.
type InterruptionSignal struct {
	InstanceID string
	Action     string // platform hint, e.g. "terminate"; informational only
}

// StateChangeSignal notifies that an instance transitioned lifecycle state.
// Only the transition into StateRunning is actionable.
type StateChangeSignal struct {
	InstanceID string
	State      InstanceState
}
