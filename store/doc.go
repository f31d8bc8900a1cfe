// Package store persists the dashboard operator's identity and per
// login-type failure state in a flat string key-value map.
//
// # Layout
//
// The key names mirror what the dashboard has always written:
//
//	accessToken, userType, userEmail, userId, username, isAdmin
//	lockout_<loginType>   JSON {"duration":<seconds>,"timestamp":<epoch ms>}
//	attempts_<loginType>  decimal integer
//
// # Architecture boundaries
//
// [Storage] is the raw map (memory, JSON file, or Redis). [Store] is the typed
// accessor every caller goes through so raw key strings never leak out of this
// package. Neither enforces policy: lockout expiry, the attempts/lockout
// exclusivity rule and identity ownership belong to the goAdmin root package.
//
// # What this package must NOT do
//
//   - Import goAdmin (no upward imports).
//   - Offer multi-key atomicity. Each write is a single key overwrite; callers
//     that update two keys accept that the pair is not transactional.
package store
