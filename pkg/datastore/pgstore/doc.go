// Package pgstore implements the datastore contract on PostgreSQL: visit
// records as JSONB rows keyed by participant, RXCUI and center ids in
// lookup tables, schema managed through embedded goose migrations.
//
//	pool, err := pgstore.Connect(ctx, cfg)
//	err = pgstore.Migrate(ctx, pool)
//	store := pgstore.New(pool, "ptid", "visitnum")
//
// Previous-visit selection happens engine-side via datastore.SelectPrevious
// so order-field semantics match the in-memory and mongo backends exactly.
package pgstore
