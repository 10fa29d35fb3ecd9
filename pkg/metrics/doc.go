/*
Package metrics exposes Prometheus instrumentation and health reporting
for the Outpost daemon.

Collectors are package-level and registered in init, so any package can
increment them without wiring:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.RecoveryDuration)
	metrics.RecoveriesTotal.WithLabelValues(metrics.OutcomeHandled).Inc()

The daemon serves Handler() at /metrics and HealthHandler() at /healthz.
Components register themselves at startup and update their status as
conditions change; any unhealthy component flips the /healthz response to
503 so an external monitor notices a wedged signal loop.

One-shot CLI invocations carry the same counters but typically exit
before anything scrapes them; they exist for the daemon.
*/
package metrics
