// Package schema models the declarative rule documents applied to form
// records: an ordered mapping from field name to a typed rule set.
//
// Rule files are YAML or JSON (YAML being a superset, one parser serves
// both). Parsing is strict: unknown rule names, unknown constraint keys and
// malformed argument shapes fail the load with ErrUnknownRule or
// ErrInvalidSchema, so a typo in a rule file can never silently disable a
// check. Field order from the source document is preserved; downstream error
// reporting follows it.
//
// Sub-schemas — the if/then/else clauses of compatibility constraints, the
// previous/current clauses of temporal constraints, and anyof branches —
// parse recursively into the same typed model. A temporalrules block may
// carry its orderby either at the top level or per constraint; the parser
// normalizes to per-constraint so the evaluator sees one shape.
package schema
