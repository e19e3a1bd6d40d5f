// Package value defines the tagged scalar model shared by the schema, the
// rule evaluator and the JSON-logic interpreter: null, bool, integer, float,
// string, date and list values with uniform numeric treatment.
//
// Two comparison regimes coexist and are intentionally asymmetric:
//
//   - Equal implements soft equality: numerics compare within an absolute
//     tolerance of 0.01, null equals only null, and numeric-looking strings
//     participate as numbers.
//   - Compare applies comparator tokens ("<", "<=", ...) exactly, with null
//     treated as incomparable for ordering (both orderings fail).
//
// Strings shaped like YYYY-MM-DD or YYYY/MM/DD (and month-first US forms)
// gain date semantics on demand through AsDate, which is how schemas attach
// date rules to string fields.
//
// The package has no dependencies beyond the standard library and is safe
// for concurrent use; values are immutable.
package value
