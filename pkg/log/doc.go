/*
Package log wraps zerolog to give every component a structured, leveled
logger with a consistent set of context fields.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	sessionLog := log.WithSessionID(id.String())
	sessionLog.Info().Int("pending_bytes", 128).Msg("upload accepted")

Console output is used for local development (Init with JSONOutput: false);
JSON output is used in production so logs can be shipped to an aggregator.
*/
package log
