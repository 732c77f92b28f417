// Package logging provides structured logging for nsqwire.
//
// This package wraps a zap logger with package-level functions so the codec,
// the stream helpers and the CLI share one logger without passing it around.
//
// # Log Levels
//
//   - Debug: every frame sent or received, raw byte dumps
//   - Info: CLI progress
//   - Warn: decode failures
//   - Error: fatal CLI errors
//
// # Silent by Default
//
// Until Initialize is called with a level, or NSQWIRE_LOG_LEVEL is set, the
// logger is a no-op. Library users of the protocol package see no output.
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Frame Logging
//
//	logging.LogFrame("recv", value, n)
//	logging.LogRawBytes("captured stream", data)
//
// Byte dumps are truncated to the first 256 bytes.
package logging
