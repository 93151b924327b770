/*
Package queue publishes accepted batches to the shared work queue that
filter workers consume. Enqueue writes a job's full record with one
store.Pipeline and finishes that same pipeline with the work:queue append,
so a job id is never visible before its payload.
*/
package queue
