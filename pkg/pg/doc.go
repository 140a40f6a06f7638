// Package pg wires PostgreSQL access for flashly on top of pgx/v5.
//
// Connect opens a pgxpool.Pool with startup retries. Migrate applies goose
// migrations from an fs.FS, usually an embed.FS owned by the package that
// defines the tables. TxManager runs a function inside a transaction and
// stores the pgx.Tx in the context; repositories call Querier(ctx, pool) so
// the same code path works inside and outside a transaction.
//
// Error helpers classify driver errors: IsDuplicateKeyError matches SQLSTATE
// 23505, IsNotFoundError matches pgx.ErrNoRows.
package pg
