/*
Package log provides structured logging for atsbridge using zerolog.

The log package wraps zerolog to give every component a consistently
tagged logger: component name, application id, attempt id. All logs carry
timestamps and respect a single global level set via Init.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithComponent("poster").With().
		Str("app_id", appID).Logger()
	logger.Warn().Err(err).Msg("post failed, retrying")

# Why zerolog

The poster's retry loop (spec.md §4.4) needs to log the first transient
failure at WARN and subsequent ones at DEBUG until a success resets the
flag — zerolog's zero-allocation field builder makes that conditional,
per-call level cheap enough to do on every retry without its own counter.
*/
package log
