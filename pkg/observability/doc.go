/*
Package observability turns engine lifecycle hooks into Prometheus metrics
and structured log records.

Metrics owns a private registry so several engines (or tests) never collide
on the global one. Hooks from different sources are combined with Merge.
*/
package observability
