// Package export pushes task items to external trackers.
//
// Each Connector shapes an Item into one provider's payload (Notion pages,
// Trello cards, GitHub issues, Google Tasks) and posts it through the
// resilience facade under that provider's policy. A successful export
// returns a Receipt identifying the created remote object and the request
// id the call carried.
//
// Credentials come from a TokenSource. StaticTokenSource wraps a fixed
// token; AppTokenSource exchanges a GitHub App key for short-lived
// installation tokens; ServiceAccountTokenSource performs the Google
// JWT-bearer grant. Both refreshing sources cache the minted token until
// shortly before it expires.
package export
