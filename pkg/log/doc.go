// Package log provides the structured logging abstraction used by batchby.
//
// The core batch and pattern packages never log. The runner, record tailer
// and sinks accept a [Logger] so embedding programs can plug in their own
// logging library. A zerolog adapter and a no-op logger are provided.
//
//	logger := log.NewZerologAdapter(os.Stderr, zerolog.InfoLevel)
//	logger.Info("batch delivered", log.Int("items", 3))
//
// Use [NoopLogger] in tests or when output is not wanted.
package log
