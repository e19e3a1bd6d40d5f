// Package jsonlogic implements the small JSON-logic dialect used by the
// "logic" rule: nested boolean, arithmetic and comparison operators plus the
// counting operators that clinical score checks rely on.
//
// An expression is the decoded form of the rule file: a primitive (returned
// as-is), a list, or a single-key map {operator: arguments}. Supported
// operators:
//
//	var, ==, !=, <, <=, >, >=, +, -, *, /, and, or, !, in, if, count, count_exact
//
// Equality is soft (absolute float tolerance 0.01, null equals only null);
// ordering is exact and returns false whenever either side is null. "and",
// "or" and "if" short-circuit. Unknown operators and division by zero return
// errors so the caller can surface them as system failures rather than
// validation findings.
package jsonlogic
