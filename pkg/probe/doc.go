/*
Package probe provides a TCP reachability check used by `outpost status`.

After a recovery the state store and the platform say the endpoint is
running; the probe answers the operator's next question, whether anything
actually listens at the address. The result is reported, never acted on:
no controller makes decisions from a probe.
*/
package probe
