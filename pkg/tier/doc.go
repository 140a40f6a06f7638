// Package tier derives a user's account tier from their stored subscriptions.
//
// Resolver.Resolve is the authoritative path used before every quota-gated
// write. A user without an active subscription record is free and the
// billing provider is not called. Otherwise the most recent active record is
// verified live; the fresh result is written back to the entitlement store
// and the user is premium while the subscription is active, in grace period
// or on hold and has not expired. Any verification failure marks the record
// inactive and resolves to free. The resulting tier is persisted on the user
// record every time.
//
// Resolver.Cached reads the persisted tier, optionally through a redis
// display cache. It never calls the provider and must not be used for quota
// or authorization decisions.
package tier
