// Package logger provides a structured logging interface for the crawler.
//
// It wraps zerolog behind a small Logger interface:
//   - leveled messages (Debug, Info, Warn, Error)
//   - derived loggers carrying fields (WithField, WithFields, WithError)
//   - one-shot structured messages (InfoWithFields and friends)
//   - a colored console writer on stderr, optionally teed to a file
//   - a global logger for command-level code
//
// Library packages take a Logger in their constructors so tests can pass a
// TestLogger and assert on what was logged:
//
//	log := logger.NewTestLogger()
//	c := crawler.New(gw, st, log, nil)
//	...
//	if !log.HasMessage("Identity discovered") { ... }
package logger
