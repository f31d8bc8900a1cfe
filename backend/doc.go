// Package backend is the HTTP client for the content backend's REST API.
//
// It only speaks the wire contract: login, OTP verification, the token probe
// and section listings. Interpreting a response (lockouts, attempts, OTP
// challenges) is the caller's job. Every call is a single request with no
// retries; a response that cannot be decoded is reported as [ErrUnavailable].
package backend
