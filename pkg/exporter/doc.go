// Package exporter bridges the shared counter registry to Prometheus.
//
// The Collector is an unchecked prometheus.Collector: the set of metrics
// it emits is whatever the registry holds at scrape time, so it cannot
// describe its metrics up front. Each scrape takes one registry snapshot
// and emits one counter per live entry, plus two self-gauges reporting
// the live-entry count and the admission limit.
//
// Registry names are arbitrary byte sequences; exported names are
// sanitized to the Prometheus metric name character set. If two distinct
// registry names sanitize to the same exported name, the first one seen
// wins and later ones are dropped from the exposition (the registry
// itself is unaffected).
//
// The UsageReporter complements scraping with a cron-scheduled log line
// of registry usage, warning as the admission limit approaches: once the
// limit is reached, new names silently stop being admitted, so operators
// want the warning before that happens.
package exporter
