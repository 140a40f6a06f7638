// Package study composes the entitlement reconciliation building blocks into
// the application use cases of the study backend.
//
// Every quota-gated write runs as one unit:
//
//	resolve tier -> check quota -> write
//
// The unit executes inside a TxRunner. When any step after the tier
// resolution fails, the user's previously persisted tier is restored before
// the error is returned, so a rejected request leaves the user record as it
// found it. Subscription records written during resolution are kept.
//
// VerifyPurchase is the explicit "check my purchase" action. Unlike the
// quota paths it surfaces provider failures to the caller.
//
// Postgres implementations of the repositories and of tier.UserStore live
// next to the in-memory ones used by tests and local development.
package study
