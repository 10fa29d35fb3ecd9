/*
Package types defines the core data structures shared by the Outpost
controllers.

This package contains the fundamental types of Outpost's domain model:
instance lifecycle states, the two ephemeral signal shapes delivered by the
platform (interruption and state-change), the platform's view of an
instance, and the sentinel value of the authoritative instance reference.
All other packages depend on it; it depends on nothing.

# The Authoritative Instance Reference

Outpost manages exactly one VPN instance at a time. Which instance that is
lives outside the process, in the shared state store, as a single mutable
value: the current instance ID. Both controllers read it on every
invocation and compare it against the instance ID carried by the incoming
signal. A mismatch means the signal is stale, duplicated, or about someone
else's instance, and is discarded.

Before the first recovery ever runs the reference holds
SentinelInstanceID ("initial"), written once at provisioning time. The
recovery controller treats the sentinel as matching any instance ID so the
very first interruption can seed the reference with a real value.

# Lifecycle States

InstanceState mirrors the platform's instance lifecycle verbatim:

	pending -> running -> (stopping|shutting-down) -> (stopped|terminated)

Only StateRunning gates DNS reconciliation. The four states an instance
cannot leave on its own are terminal (see InstanceState.Terminal); hitting
one of them while polling for a replacement to boot aborts the recovery.

# Signals

InterruptionSignal and StateChangeSignal are ephemeral, at-least-once,
possibly duplicated, possibly reordered across the two controllers. They
are never persisted; idempotency comes entirely from the reference check
described above.
*/
package types
