package jsonlogic

import (
	"fmt"
	"strings"

	"github.com/dmitrymomot/formqc/pkg/value"
)

// Record is the variable context a formula evaluates against.
type Record map[string]value.Value

// Apply evaluates a JSON-logic expression tree against a record. The tree is
// the decoded form of the rule file: a primitive, a list, or a single-key
// map {operator: arguments}. Primitives evaluate to themselves.
func Apply(expr any, data Record) (value.Value, error) {
	switch node := expr.(type) {
	case map[string]any:
		if len(node) != 1 {
			return value.Null(), fmt.Errorf("%w: expected single operator, got %d keys", ErrMalformedExpression, len(node))
		}
		for op, args := range node {
			return applyOp(op, argList(args), data)
		}
		return value.Null(), nil
	case []any:
		items := make([]value.Value, len(node))
		for i, item := range node {
			v, err := Apply(item, data)
			if err != nil {
				return value.Null(), err
			}
			items[i] = v
		}
		return value.ListOf(items), nil
	default:
		return value.FromAny(expr), nil
	}
}

// argList normalizes the unary shorthand {"var": "x"} to {"var": ["x"]}.
func argList(args any) []any {
	if list, ok := args.([]any); ok {
		return list
	}
	return []any{args}
}

func applyOp(op string, args []any, data Record) (value.Value, error) {
	switch op {
	case "var":
		return opVar(args, data)
	case "and", "or":
		return opBool(op, args, data)
	case "if", "?:":
		return opIf(args, data)
	}

	// Remaining operators are strict: evaluate every argument first.
	vals := make([]value.Value, len(args))
	for i, arg := range args {
		v, err := Apply(arg, data)
		if err != nil {
			return value.Null(), err
		}
		vals[i] = v
	}

	switch op {
	case "==":
		return binary(op, vals, func(a, b value.Value) (value.Value, error) {
			return value.Bool(value.Equal(a, b)), nil
		})
	case "!=":
		return binary(op, vals, func(a, b value.Value) (value.Value, error) {
			return value.Bool(!value.Equal(a, b)), nil
		})
	case "<", "<=", ">", ">=":
		return binary(op, vals, func(a, b value.Value) (value.Value, error) {
			// Null never orders, regardless of the other side.
			if a.IsNull() || b.IsNull() {
				return value.Bool(false), nil
			}
			ok, err := value.Compare(op, a, b)
			if err != nil {
				return value.Null(), err
			}
			return value.Bool(ok), nil
		})
	case "!":
		if len(vals) != 1 {
			return value.Null(), fmt.Errorf("%w: ! takes one argument", ErrMalformedExpression)
		}
		return value.Bool(!value.Truthy(vals[0])), nil
	case "in":
		return opIn(vals)
	case "+", "-", "*", "/":
		return opArithmetic(op, vals)
	case "count":
		n := int64(0)
		for _, v := range flatten(vals) {
			if value.Truthy(v) {
				n++
			}
		}
		return value.Int(n), nil
	case "count_exact":
		flat := flatten(vals)
		if len(flat) < 2 {
			return value.Null(), fmt.Errorf("%w: count_exact needs a base and at least 1 value", ErrMalformedExpression)
		}
		base := flat[0]
		n := int64(0)
		for _, v := range flat[1:] {
			if value.Equal(base, v) {
				n++
			}
		}
		return value.Int(n), nil
	}

	return value.Null(), fmt.Errorf("%w: %q", ErrUnknownOperator, op)
}

func binary(op string, vals []value.Value, f func(a, b value.Value) (value.Value, error)) (value.Value, error) {
	if len(vals) != 2 {
		return value.Null(), fmt.Errorf("%w: %q takes two arguments", ErrMalformedExpression, op)
	}
	return f(vals[0], vals[1])
}

func opVar(args []any, data Record) (value.Value, error) {
	if len(args) == 0 {
		return value.Null(), fmt.Errorf("%w: var needs a name", ErrMalformedExpression)
	}
	nameVal, err := Apply(args[0], data)
	if err != nil {
		return value.Null(), err
	}
	name, _ := nameVal.Str()
	if name == "" {
		name = nameVal.String()
	}

	v, ok := data[name]
	if ok && !v.IsNull() {
		return v, nil
	}
	// Missing or null falls back to the default when one was given.
	if len(args) > 1 {
		return Apply(args[1], data)
	}
	return value.Null(), nil
}

// opBool short-circuits: "and" returns the first falsy argument (or the last
// one), "or" the first truthy argument (or the last one).
func opBool(op string, args []any, data Record) (value.Value, error) {
	if len(args) == 0 {
		return value.Bool(op == "and"), nil
	}
	var last value.Value
	for _, arg := range args {
		v, err := Apply(arg, data)
		if err != nil {
			return value.Null(), err
		}
		if op == "and" && !value.Truthy(v) {
			return v, nil
		}
		if op == "or" && value.Truthy(v) {
			return v, nil
		}
		last = v
	}
	return last, nil
}

// opIf evaluates [cond, then, cond2, then2, ..., else] pairs lazily.
func opIf(args []any, data Record) (value.Value, error) {
	i := 0
	for ; i+1 < len(args); i += 2 {
		cond, err := Apply(args[i], data)
		if err != nil {
			return value.Null(), err
		}
		if value.Truthy(cond) {
			return Apply(args[i+1], data)
		}
	}
	if i < len(args) {
		return Apply(args[i], data)
	}
	return value.Null(), nil
}

func opIn(vals []value.Value) (value.Value, error) {
	if len(vals) != 2 {
		return value.Null(), fmt.Errorf("%w: in takes two arguments", ErrMalformedExpression)
	}
	needle, haystack := vals[0], vals[1]
	if items, ok := haystack.Items(); ok {
		for _, item := range items {
			if value.Equal(needle, item) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	}
	if s, ok := haystack.Str(); ok {
		return value.Bool(strings.Contains(s, needle.String())), nil
	}
	return value.Bool(false), nil
}

func opArithmetic(op string, vals []value.Value) (value.Value, error) {
	nums := make([]float64, len(vals))
	for i, v := range vals {
		f, ok := v.Number()
		if !ok {
			return value.Null(), fmt.Errorf("%w: %q needs numeric arguments, got %s", ErrMalformedExpression, op, v.Kind())
		}
		nums[i] = f
	}

	var result float64
	switch op {
	case "+":
		for _, n := range nums {
			result += n
		}
	case "-":
		switch len(nums) {
		case 1:
			result = -nums[0]
		case 2:
			result = nums[0] - nums[1]
		default:
			return value.Null(), fmt.Errorf("%w: - takes one or two arguments", ErrMalformedExpression)
		}
	case "*":
		result = 1
		for _, n := range nums {
			result *= n
		}
	case "/":
		if len(nums) != 2 {
			return value.Null(), fmt.Errorf("%w: / takes two arguments", ErrMalformedExpression)
		}
		if nums[1] == 0 {
			return value.Null(), ErrDivisionByZero
		}
		result = nums[0] / nums[1]
	}

	if result == float64(int64(result)) {
		return value.Int(int64(result)), nil
	}
	return value.Float(result), nil
}

// flatten expands one level of list arguments so {"count": [[...]]} and
// {"count": [...]} behave identically.
func flatten(vals []value.Value) []value.Value {
	out := make([]value.Value, 0, len(vals))
	for _, v := range vals {
		if items, ok := v.Items(); ok {
			out = append(out, items...)
			continue
		}
		out = append(out, v)
	}
	return out
}
