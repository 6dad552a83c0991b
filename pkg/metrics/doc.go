/*
Package metrics registers the Prometheus instrumentation named throughout
spec.md — one counter or gauge per stage of the pipeline (§2.1 "Clock &
Metrics", §7, §8) — plus a small health registry used for the process's
/healthz, /readyz, and /livez endpoints.

Counters and gauges are package-level prometheus.Collector values registered
once in init(), following the teacher's pattern in warren/pkg/metrics:
callers reach for the variable directly (metrics.EntityPostFailures.Inc())
rather than looking values up by name.

Handler returns the standard promhttp handler for mounting under /metrics.
*/
package metrics
