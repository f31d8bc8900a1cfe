// Package audit relays dashboard sign-in events to sinks off the caller's
// goroutine.
//
// # Components
//
//   - [Sink]: event consumer (channel, JSON lines, slog, fan-out, no-op).
//   - [Dispatcher]: buffered relay that either drops or blocks when full.
//   - [Event]: one record of a login, OTP, logout or forced-logout outcome.
//
// # Architecture boundaries
//
// This package only buffers and delivers. Which events exist and when they
// fire is decided by the goAdmin root package.
//
// # What this package must NOT do
//
//   - Import goAdmin or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
