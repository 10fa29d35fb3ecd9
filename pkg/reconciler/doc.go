/*
Package reconciler keeps the public DNS record pointed at the managed
instance's current address.

It reacts to lifecycle state-change signals, not to the recovery
controller: the two never call each other. A reconciliation runs when an
instance transitions into running AND the authoritative instance
reference says that instance is ours. Everything else — intermediate
states, foreign instances, signals that raced a newer recovery — is
discarded successfully at info level.

A run resolves the instance's live public address from the platform
(never from a cache, never from the DNS record itself), fetches the DNS
credential from the state store, and issues a partial update of the
record's content. The two network interactions carry independent retry
budgets:

  - address lookup: 5 attempts, 2s base delay, doubling; "no address
    assigned yet" is retryable, the instance vanishing is not
  - record update: 3 attempts, 1s base delay, doubling; any non-success
    response is retryable and the provider's error payload rides along
    verbatim when the budget runs out

Once both budgets are spent the invocation fails and the error surfaces
to the dispatcher for its own bounded redelivery. The reconciler never
launches instances, whatever goes wrong.
*/
package reconciler
