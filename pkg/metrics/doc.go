/*
Package metrics defines and registers the Prometheus metrics exposed by
the ingest daemon: session lifecycle counts, admission outcomes, work
queue throughput, close/flush latency, transport request counts, and
store connectivity. Handler serves them for scraping; Timer is the
shared helper for timing an operation into a histogram.

	timer := metrics.NewTimer()
	// ... do work ...
	timer.ObserveDurationVec(metrics.HTTPRequestDuration, route)
*/
package metrics
