/*
Package observability turns pipeline lifecycle events into Prometheus metrics
and structured log records.

Both sinks are plain domain.LifecycleHooks values and can be combined with
domain.ChainHooks:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := domain.ChainHooks(metrics.Hooks(), observability.LogHooks(logger))
*/
package observability
