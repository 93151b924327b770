/*
Package session owns the `context:<id>:*` key schema: creating sessions,
answering read-only queries against them, applying the pending-bytes and
processed-reads counters, and running the close/flush algorithm that drains
a session back out of the store and, optionally, to disk.

No exported method here holds an in-process lock; all coordination is the
store's atomic counters, per spec's soft-budget concurrency model.
*/
package session
