// Package middleware adapts the goAdmin session model to net/http.
//
// # Handlers
//
//   - [BrowserID] assigns every browser a stable id cookie and exposes it
//     through [BrowserIDFromContext]. The web server keys its per-browser
//     tabs and storage namespaces on this id.
//   - [Guard] runs a [goAdmin.RouteGuard] against the caller's session view
//     and answers redirects as JSON instead of rendering.
//   - [RequireAdmin] is Guard with an admin-only allow-list.
//
// This package makes no backend calls. Session state comes from the
// resolver the caller supplies.
package middleware
