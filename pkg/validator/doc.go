// Package validator is the rule evaluation engine: it walks a record
// field by field against a parsed schema, dispatches each declared rule to
// its handler, and collects structured findings.
//
// # Evaluation order
//
// Fields follow schema source order. Within a field, standard rules run
// first (type, allowed, forbidden, min, max, regex, filled, anyof), then
// the custom rules in a fixed order: compare_with, compare_age,
// compatibility, logic, temporalrules, compute_gds, check_with, function.
// A null value closes the field early: only the null-tolerant rules
// (filled, compare_with, compare_age, compatibility, logic) still run,
// which is what lets conditional requiredness work on blank fields.
//
// # Recursion
//
// Clause checks — compatibility if/then/else, temporalrules
// previous/current, anyof branches — construct a fresh child validator per
// clause field, sharing the datastore, primary key and clock but never
// error state. Child findings are captured and folded into a single finding
// on the outer field whose message names the source clause; the Causes list
// and the error Tree preserve the nesting for programmatic consumers.
//
// # Failure model
//
// Rule handlers report validation findings and never abort the record.
// System faults — datastore failures, malformed formulas, unknown
// functions, missing datastore for temporal checks — return as errors from
// Validate and void the findings; callers surface them separately.
//
// A Validator instance is single-threaded: one record at a time, one
// instance per goroutine. Schemas are read-only and shareable.
package validator
