/*
Package store is a typed façade over the external key-value service that
holds all durable ingest state: per-session counters and sets, the shared
work queue, and process-wide config values.

Every multi-key mutation elsewhere in this module goes through a Pipeline
returned by Store.Pipeline and committed atomically with Commit — no other
package talks to Redis directly. Connection and command failures are
wrapped in ErrUnavailable so callers can treat them uniformly; this package
applies no retry policy of its own.
*/
package store
