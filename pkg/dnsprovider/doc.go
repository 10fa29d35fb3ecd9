/*
Package dnsprovider talks to the Cloudflare DNS API.

The only operation Outpost needs is a partial update of one known record:

	PATCH /zones/{zone}/dns_records/{record}
	{"content": "203.0.113.7"}

The record is treated as a value to overwrite, never to merge; each
reconciliation re-resolves the live address from the platform and pushes
it, trusting nothing cached from earlier runs.

The client deliberately does no retrying and no token storage. The
reconciler owns the retry policy and fetches the token from the state
store per invocation, so a rotated credential takes effect without a
restart. Failures carry Cloudflare's own error payload verbatim in
ProviderError, which is what ends up in the log when a retry budget is
exhausted.
*/
package dnsprovider
