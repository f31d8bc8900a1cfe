// Package goAdmin is the sign-in and session layer of the content dashboard.
//
// The content backend owns every business rule. This package owns what the
// dashboard client has to remember between requests: who is signed in, how
// many attempts a login type has left, whether it is locked out, and the
// one-time-code challenge in between.
//
// # Layout
//
//   - [Client] holds the shared dependencies (backend client, storage, clock,
//     metrics, audit) and is built with [Builder].
//   - [Tab] is one dashboard instance: a [SessionContext], a [LoginPage] and a
//     [LockoutPolicy] over one storage namespace. The terminal UI opens one
//     tab; the web server opens one per browser.
//   - [RouteGuard] decides whether a view renders, waits or redirects.
//
// # What this package must NOT do
//
//   - Decide whether credentials are valid. Only the backend does that.
//   - Coordinate between tabs sharing a namespace. Concurrent writers race
//     on single-key overwrites and converge on the next read.
package goAdmin
