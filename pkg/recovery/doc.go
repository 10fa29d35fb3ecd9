/*
Package recovery implements the controller that replaces the managed VPN
instance when the platform reclaims it.

The controller is invoked once per interruption signal and runs to
completion without ever calling the DNS reconciler; the two are coupled
only through the state store and the platform's own state-change signals.

# Algorithm

 1. Read the authoritative instance reference from the state store.
 2. Applicability check: proceed only when the reference matches the
    signaled instance, or still holds the bootstrap sentinel. Anything
    else is a stale, duplicate, or foreign signal and is discarded
    successfully — this is the idempotency guard that keeps duplicate
    deliveries from launching two replacements.
 3. Launch exactly one replacement from the configured launch template.
    Zero instances back, or an instance without an ID, is fatal.
 4. Write the replacement's ID into the reference BEFORE waiting for it
    to boot. If the process dies after this write, future duplicates of
    the old instance's signal fail the applicability check; the only loss
    is the readiness wait.
 5. Poll the replacement's lifecycle state on a fixed interval (default
    10s, 30 attempts). Running ends the wait; a terminal state or an
    exhausted budget is fatal.

Fatal conditions are logged at error level and returned so the dispatcher
can redeliver the signal within its own bounded budget; nothing inside
this package retries beyond the polling loop above.

# What happens next

The controller never touches DNS. When the replacement reaches running,
the platform emits a state-change signal, and the DNS reconciler — a
separate invocation — picks it up, confirms the reference matches, and
moves the record. See package reconciler.
*/
package recovery
