/*
Package config loads and validates Outpost configuration.

Configuration is layered: shipped defaults, then an optional YAML file,
then OUTPOST_* environment variables, with later layers winning. Load
validates the result at cold start and fails fast on a missing required
setting, so a misconfigured deployment never gets far enough to consume
a signal.

Required settings:

	OUTPOST_STATE_PREFIX        state-store key prefix, e.g. /outpost/prod
	OUTPOST_LAUNCH_TEMPLATE_ID  launch template for replacement instances
	OUTPOST_DNS_ZONE_ID         Cloudflare zone containing the record
	OUTPOST_DNS_RECORD_ID       Cloudflare record to keep updated

Everything numeric about the control loops (readiness poll interval and
attempts, both retry budgets, dispatcher redeliveries) lives in Policy.
The defaults are the shipped behavior, not hard law; deployments tune
them through the YAML file:

	policy:
	  poll_interval: 10s
	  poll_attempts: 30
	  lookup_attempts: 5
	  lookup_base_delay: 2s
	  update_attempts: 3
	  update_base_delay: 1s
	  redeliveries: 2
*/
package config
