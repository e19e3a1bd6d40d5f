package jsonlogic

import "errors"

var (
	// ErrUnknownOperator is returned for operators outside the supported set.
	// The evaluator treats this as a system error, not a validation failure.
	ErrUnknownOperator = errors.New("unrecognized operation")

	// ErrDivisionByZero is returned when "/" receives a zero divisor.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrMalformedExpression is returned for structurally invalid expression
	// trees (wrong arity, multi-key operator nodes).
	ErrMalformedExpression = errors.New("malformed logic expression")
)
