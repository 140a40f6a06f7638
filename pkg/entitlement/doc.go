// Package entitlement persists verified Google Play subscriptions.
//
// One Record exists per purchase token. Upsert overwrites every provider
// derived field of an existing record and never reassigns its owner; a new
// token inserts a record owned by the given user. Two verifications racing
// on the same new token still produce one row: the unique index on
// purchase_token rejects the second insert and the store retries it once as
// an update.
//
// Records are never removed. SoftDelete sets deleted_at, and deleted records
// are ignored by every read except GetByToken.
//
// PostgresStore is the production implementation; MemoryStore has the same
// semantics for tests and local runs. Migrations embeds the goose files that
// create the subscriptions table.
package entitlement
