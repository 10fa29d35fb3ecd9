/*
Package log provides structured logging for Outpost built on zerolog.

Init configures the single global logger once at process start; every
component then derives a child logger carrying a component field:

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	logger := log.WithComponent("recovery")
	logger.Info().Str("instance_id", id).Msg("replacement launched")

Log levels follow the error taxonomy of the controllers: discarded
(stale, duplicate, foreign) signals log at info, individual retry
attempts at warn, and fatal conditions at error with the full error
attached before the error is returned to the dispatcher.

Console output (the default) is for interactive use; daemons should set
JSONOutput for machine-parseable lines.
*/
package log
