// Package qualitycheck is the top-level driver for record validation: it
// binds a rule schema to a primary-key field and an optional datastore,
// checks the schema at construction, and exposes per-record validation
// returning passed/system-failure flags, flat per-field errors and the
// hierarchical error tree.
//
//	s, err := schema.ParseFile("rules/uds.yaml")
//	qc, err := qualitycheck.New("ptid", s, qualitycheck.WithDatastore(store))
//	res := qc.ValidateRecord(ctx, record)
//	if !res.Passed { ... res.Errors ... }
//
// Validation findings never abort a record; system faults (datastore
// errors, malformed formulas, a missing primary key value) do, and are
// reported through Result.SystemFailure without leaking into findings.
package qualitycheck
