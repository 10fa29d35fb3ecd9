/*
Package retry provides the shared bounded-retry wrapper used by both
controllers.

Each call site owns its own Policy, so the address-lookup retry (5
attempts, 2s base delay) and the DNS-update retry (3 attempts, 1s base
delay) run independently even within one reconciliation. The schedule is
plain exponential doubling with no jitter: the wait before attempt n is
BaseDelay * 2^(n-2).

An operation signals a non-retryable failure by returning
retry.Permanent(err); anything else is retried until the budget runs out,
at which point the last observed error is returned to the caller.

The backoff engine is cenkalti/backoff with randomization disabled; this
package pins the configuration so every call site gets the same
deterministic shape.
*/
package retry
