/*
Package statestore provides the shared external state both Outpost
controllers coordinate through.

The two controllers never call each other and share no memory; the only
thing connecting a recovery to the reconciliation that follows it is this
store. It holds a handful of hierarchical keys under a per-deployment
prefix, most importantly the authoritative instance reference
(KeyInstanceID) and the DNS provider credential (KeyDNSToken).

Two backends implement the Store interface:

  - SSMStore: AWS Systems Manager Parameter Store. Secrets are
    SecureString parameters decrypted by the service at read time. This is
    the production backend.
  - BoltStore: a single-bucket bbolt file for development and tests.
    Secret values are AES-256-GCM encrypted with a key derived from an
    operator passphrase, so the on-disk file mirrors SecureString
    semantics.

# Consistency

Put is an unconditional overwrite; the interface deliberately offers no
compare-and-swap. Concurrent writers therefore race last-write-wins. The
recovery controller's applicability check is the only guard against
acting twice on duplicate signals, which leaves a narrow window where two
near-simultaneous interruption signals for the same instance could both
pass the check and launch two replacements. With at most one interruption
per instance and duplicate deliveries being rare, that risk is accepted
rather than closed.
*/
package statestore
