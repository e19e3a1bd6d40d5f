package schema

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/formqc/pkg/value"
)

// Parse decodes a rule document into a Schema. The document is YAML; since
// YAML is a superset of JSON, .json rule files parse through the same path.
// Field order in the document is preserved. Unknown rule names and malformed
// rule arguments fail the parse.
func Parse(data []byte) (*Schema, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("%w: empty rule document", ErrInvalidSchema)
	}
	return parseSchemaNode(root.Content[0], "")
}

// ParseFile reads and parses a rule file.
func ParseFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return Parse(data)
}

// MustParse parses a rule document and panics on failure. Intended for
// tests and static rule sets.
func MustParse(data string) *Schema {
	s, err := Parse([]byte(data))
	if err != nil {
		panic(err)
	}
	return s
}

func parseSchemaNode(n *yaml.Node, path string) (*Schema, error) {
	n = resolveAlias(n)
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %sexpected a mapping of field names to rules", ErrInvalidSchema, prefix(path))
	}
	s := &Schema{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		field := n.Content[i].Value
		fs, err := parseFieldSchema(n.Content[i+1], joinPath(path, field))
		if err != nil {
			return nil, err
		}
		s.add(field, fs)
	}
	return s, nil
}

func parseFieldSchema(n *yaml.Node, path string) (*FieldSchema, error) {
	n = resolveAlias(n)
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %sexpected a mapping of rule names to arguments", ErrInvalidSchema, prefix(path))
	}

	fs := &FieldSchema{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		rule := n.Content[i].Value
		arg := resolveAlias(n.Content[i+1])
		rulePath := joinPath(path, rule)

		var err error
		switch rule {
		case "type":
			fs.Types, err = parseTypes(arg, rulePath)
		case "required":
			fs.Required, err = parseBool(arg, rulePath)
		case "nullable":
			fs.Nullable, err = parseBool(arg, rulePath)
		case "filled":
			var b bool
			if b, err = parseBool(arg, rulePath); err == nil {
				fs.Filled = &b
			}
		case "allowed":
			fs.Allowed, err = parseValueList(arg, rulePath)
		case "forbidden":
			fs.Forbidden, err = parseValueList(arg, rulePath)
		case "min":
			fs.Min, err = parseBound(arg, rulePath)
		case "max":
			fs.Max, err = parseBound(arg, rulePath)
		case "regex":
			fs.Regex, err = parseRegex(arg, rulePath)
		case "anyof":
			fs.AnyOf, err = parseAnyOf(arg, rulePath)
		case "formatting":
			fs.Formatting, err = parseEnum(arg, rulePath, "date", "datetime")
		case "meta":
			fs.Meta, err = parseMeta(arg, rulePath)
		case "compare_with":
			fs.CompareWith, err = parseCompareWith(arg, rulePath)
		case "compare_age":
			fs.CompareAge, err = parseCompareAge(arg, rulePath)
		case "compatibility":
			fs.Compatibility, err = parseCompatibility(arg, rulePath)
		case "logic":
			fs.Logic, err = parseLogic(arg, rulePath)
		case "temporalrules":
			fs.TemporalRules, err = parseTemporalRules(arg, rulePath)
		case "compute_gds":
			fs.ComputeGDS, err = parseStringList(arg, rulePath)
			if err == nil && len(fs.ComputeGDS) < 15 {
				err = fmt.Errorf("%w: %scompute_gds needs the 15 scale fields, got %d", ErrInvalidSchema, prefix(rulePath), len(fs.ComputeGDS))
			}
		case "check_with":
			fs.CheckWith, err = parseEnum(arg, rulePath, "rxnorm")
		case "function":
			fs.Function, err = parseFunction(arg, rulePath)
		default:
			return nil, fmt.Errorf("%w: %q at %s", ErrUnknownRule, rule, path)
		}
		if err != nil {
			return nil, err
		}
	}
	return fs, nil
}

func parseTypes(n *yaml.Node, path string) ([]string, error) {
	var tags []string
	switch n.Kind {
	case yaml.ScalarNode:
		tags = []string{n.Value}
	case yaml.SequenceNode:
		for _, item := range n.Content {
			tags = append(tags, resolveAlias(item).Value)
		}
	default:
		return nil, fmt.Errorf("%w: %stype takes a tag or list of tags", ErrInvalidSchema, prefix(path))
	}
	for i, tag := range tags {
		if tag == "boolean" {
			tags[i] = "bool"
			tag = "bool"
		}
		if !slices.Contains(TypeTags, tag) {
			return nil, fmt.Errorf("%w: %sunsupported type tag %q", ErrInvalidSchema, prefix(path), tag)
		}
	}
	return tags, nil
}

func parseBool(n *yaml.Node, path string) (bool, error) {
	var b bool
	if err := n.Decode(&b); err != nil {
		return false, fmt.Errorf("%w: %sexpected a boolean", ErrInvalidSchema, prefix(path))
	}
	return b, nil
}

func parseValueList(n *yaml.Node, path string) ([]value.Value, error) {
	var raw []any
	if err := n.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %sexpected a list of values", ErrInvalidSchema, prefix(path))
	}
	vals := make([]value.Value, len(raw))
	for i, item := range raw {
		vals[i] = value.FromAny(item)
	}
	return vals, nil
}

func parseStringList(n *yaml.Node, path string) ([]string, error) {
	var list []string
	if err := n.Decode(&list); err != nil {
		return nil, fmt.Errorf("%w: %sexpected a list of field names", ErrInvalidSchema, prefix(path))
	}
	return list, nil
}

func parseBound(n *yaml.Node, path string) (*Bound, error) {
	var raw any
	if err := n.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %sexpected a scalar bound", ErrInvalidSchema, prefix(path))
	}
	if s, ok := raw.(string); ok {
		switch s {
		case KeywordCurrentDate, KeywordCurrentYear, KeywordCurrentMonth, KeywordCurrentDay:
			return &Bound{Keyword: s}, nil
		}
	}
	return &Bound{Literal: value.FromAny(raw)}, nil
}

func parseRegex(n *yaml.Node, path string) (*Pattern, error) {
	var raw string
	if err := n.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %sexpected a pattern string", ErrInvalidSchema, prefix(path))
	}
	// Full-string match regardless of how the pattern was written.
	re, err := regexp.Compile("^(?:" + strings.TrimSuffix(strings.TrimPrefix(raw, "^"), "$") + ")$")
	if err != nil {
		return nil, fmt.Errorf("%w: %sinvalid pattern: %w", ErrInvalidSchema, prefix(path), err)
	}
	return &Pattern{Raw: raw, Re: re}, nil
}

func parseAnyOf(n *yaml.Node, path string) ([]*FieldSchema, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: %sanyof takes a list of rule mappings", ErrInvalidSchema, prefix(path))
	}
	branches := make([]*FieldSchema, 0, len(n.Content))
	for i, item := range n.Content {
		branch, err := parseFieldSchema(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		branches = append(branches, branch)
	}
	if len(branches) == 0 {
		return nil, fmt.Errorf("%w: %sanyof needs at least one branch", ErrInvalidSchema, prefix(path))
	}
	return branches, nil
}

func parseEnum(n *yaml.Node, path string, allowed ...string) (string, error) {
	var s string
	if err := n.Decode(&s); err != nil || !slices.Contains(allowed, s) {
		return "", fmt.Errorf("%w: %sexpected one of %v", ErrInvalidSchema, prefix(path), allowed)
	}
	return s, nil
}

func parseMeta(n *yaml.Node, path string) (*Meta, error) {
	var raw map[string]any
	if err := n.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %smeta takes a mapping", ErrInvalidSchema, prefix(path))
	}
	m := &Meta{}
	if msg, ok := raw["errmsg"].(string); ok {
		m.ErrMsg = msg
	}
	return m, nil
}

func parseCompareWith(n *yaml.Node, path string) (*CompareWith, error) {
	raw, err := decodeMapping(n, path, "comparator", "base", "adjustment", "op", "previous_record", "ignore_empty")
	if err != nil {
		return nil, err
	}

	cw := &CompareWith{Adjustment: value.Null()}
	if cw.Comparator, err = requireComparator(raw, path); err != nil {
		return nil, err
	}

	base, ok := raw["base"]
	if !ok {
		return nil, fmt.Errorf("%w: %sbase is required", ErrInvalidSchema, prefix(path))
	}
	cw.Base = value.FromAny(base)

	_, hasAdjustment := raw["adjustment"]
	op, hasOp := raw["op"].(string)
	if hasAdjustment != hasOp {
		return nil, fmt.Errorf("%w: %sadjustment and op must be given together", ErrInvalidSchema, prefix(path))
	}
	if hasOp {
		if !slices.Contains([]string{"+", "-", "*", "/", "abs"}, op) {
			return nil, fmt.Errorf("%w: %sunsupported op %q", ErrInvalidSchema, prefix(path), op)
		}
		cw.Op = op
		cw.Adjustment = value.FromAny(raw["adjustment"])
	}

	if prev, ok := raw["previous_record"].(bool); ok {
		cw.PreviousRecord = prev
	}
	switch ie := raw["ignore_empty"].(type) {
	case nil:
	case bool:
		cw.IgnoreEmpty = ie
	case string:
		cw.IgnoreEmpty = true
		cw.IgnoreEmptyFields = []string{ie}
	case []any:
		cw.IgnoreEmpty = true
		for _, f := range ie {
			name, ok := f.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %signore_empty entries must be field names", ErrInvalidSchema, prefix(path))
			}
			cw.IgnoreEmptyFields = append(cw.IgnoreEmptyFields, name)
		}
	default:
		return nil, fmt.Errorf("%w: %signore_empty must be a bool or field list", ErrInvalidSchema, prefix(path))
	}

	return cw, nil
}

func parseCompareAge(n *yaml.Node, path string) (*CompareAge, error) {
	raw, err := decodeMapping(n, path, "comparator", "birth_year", "birth_month", "birth_day", "compare_to")
	if err != nil {
		return nil, err
	}

	ca := &CompareAge{BirthMonth: value.Null(), BirthDay: value.Null()}
	if ca.Comparator, err = requireComparator(raw, path); err != nil {
		return nil, err
	}

	birthYear, ok := raw["birth_year"]
	if !ok {
		return nil, fmt.Errorf("%w: %sbirth_year is required", ErrInvalidSchema, prefix(path))
	}
	ca.BirthYear = value.FromAny(birthYear)
	if m, ok := raw["birth_month"]; ok {
		ca.BirthMonth = value.FromAny(m)
	}
	if d, ok := raw["birth_day"]; ok {
		ca.BirthDay = value.FromAny(d)
	}

	switch ct := raw["compare_to"].(type) {
	case nil:
		return nil, fmt.Errorf("%w: %scompare_to is required", ErrInvalidSchema, prefix(path))
	case []any:
		for _, item := range ct {
			ca.CompareTo = append(ca.CompareTo, value.FromAny(item))
		}
		if len(ca.CompareTo) == 0 {
			return nil, fmt.Errorf("%w: %scompare_to list cannot be empty", ErrInvalidSchema, prefix(path))
		}
	default:
		ca.CompareTo = []value.Value{value.FromAny(ct)}
	}

	return ca, nil
}

func parseCompatibility(n *yaml.Node, path string) ([]*CompatConstraint, error) {
	if n.Kind != yaml.SequenceNode || len(n.Content) == 0 {
		return nil, fmt.Errorf("%w: %scompatibility takes a non-empty list of constraints", ErrInvalidSchema, prefix(path))
	}

	constraints := make([]*CompatConstraint, 0, len(n.Content))
	for i, item := range n.Content {
		item = resolveAlias(item)
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		c := &CompatConstraint{Index: -1, IfOp: "AND", ThenOp: "AND", ElseOp: "AND"}

		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: %sexpected a constraint mapping", ErrInvalidSchema, prefix(itemPath))
		}
		for j := 0; j+1 < len(item.Content); j += 2 {
			key := item.Content[j].Value
			val := item.Content[j+1]
			var err error
			switch key {
			case "index":
				if err = val.Decode(&c.Index); err != nil {
					return nil, fmt.Errorf("%w: %sindex must be an integer", ErrInvalidSchema, prefix(itemPath))
				}
			case "if_op":
				c.IfOp, err = parseClauseOp(val, itemPath)
			case "then_op":
				c.ThenOp, err = parseClauseOp(val, itemPath)
			case "else_op":
				c.ElseOp, err = parseClauseOp(val, itemPath)
			case "if":
				c.If, err = parseSchemaNode(val, joinPath(itemPath, "if"))
			case "then":
				c.Then, err = parseSchemaNode(val, joinPath(itemPath, "then"))
			case "else":
				c.Else, err = parseSchemaNode(val, joinPath(itemPath, "else"))
			default:
				return nil, fmt.Errorf("%w: %q at %s", ErrUnknownRule, key, itemPath)
			}
			if err != nil {
				return nil, err
			}
		}
		if c.If == nil || c.If.Len() == 0 || c.Then == nil || c.Then.Len() == 0 {
			return nil, fmt.Errorf("%w: %sif and then clauses are required", ErrInvalidSchema, prefix(itemPath))
		}
		constraints = append(constraints, c)
	}
	return constraints, nil
}

func parseLogic(n *yaml.Node, path string) (*Logic, error) {
	raw, err := decodeMapping(n, path, "formula", "errmsg", "errormsg")
	if err != nil {
		return nil, err
	}
	formula, ok := raw["formula"].(map[string]any)
	if !ok || len(formula) == 0 {
		return nil, fmt.Errorf("%w: %sformula is required", ErrInvalidSchema, prefix(path))
	}
	l := &Logic{Formula: formula}
	// Both spellings occur in the wild; errmsg wins when both are present.
	if msg, ok := raw["errormsg"].(string); ok {
		l.ErrMsg = msg
	}
	if msg, ok := raw["errmsg"].(string); ok {
		l.ErrMsg = msg
	}
	return l, nil
}

func parseTemporalRules(n *yaml.Node, path string) ([]*TemporalConstraint, error) {
	n = resolveAlias(n)

	constraintsNode := n
	orderBy := ""
	// Either a bare constraint list, or {orderby: ..., constraints: [...]}.
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			switch key := n.Content[i].Value; key {
			case "orderby":
				orderBy = resolveAlias(n.Content[i+1]).Value
			case "constraints":
				constraintsNode = resolveAlias(n.Content[i+1])
			default:
				return nil, fmt.Errorf("%w: %q at %s", ErrUnknownRule, key, path)
			}
		}
	}
	if constraintsNode.Kind != yaml.SequenceNode || len(constraintsNode.Content) == 0 {
		return nil, fmt.Errorf("%w: %stemporalrules takes a non-empty list of constraints", ErrInvalidSchema, prefix(path))
	}

	constraints := make([]*TemporalConstraint, 0, len(constraintsNode.Content))
	for i, item := range constraintsNode.Content {
		item = resolveAlias(item)
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		c := &TemporalConstraint{Index: -1, PrevOp: "AND", CurrOp: "AND", OrderBy: orderBy}

		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: %sexpected a constraint mapping", ErrInvalidSchema, prefix(itemPath))
		}
		for j := 0; j+1 < len(item.Content); j += 2 {
			key := item.Content[j].Value
			val := resolveAlias(item.Content[j+1])
			var err error
			switch key {
			case "index":
				if err = val.Decode(&c.Index); err != nil {
					return nil, fmt.Errorf("%w: %sindex must be an integer", ErrInvalidSchema, prefix(itemPath))
				}
			case "prev_op":
				c.PrevOp, err = parseClauseOp(val, itemPath)
			case "curr_op":
				c.CurrOp, err = parseClauseOp(val, itemPath)
			case "previous":
				c.Previous, err = parseSchemaNode(val, joinPath(itemPath, "previous"))
			case "current":
				c.Current, err = parseSchemaNode(val, joinPath(itemPath, "current"))
			case "orderby":
				c.OrderBy = val.Value
			case "swap_order":
				c.SwapOrder, err = parseBool(val, joinPath(itemPath, "swap_order"))
			case "ignore_empty":
				if val.Kind == yaml.SequenceNode {
					c.IgnoreEmpty, err = parseStringList(val, joinPath(itemPath, "ignore_empty"))
				} else {
					c.IgnoreEmpty = []string{val.Value}
				}
			default:
				return nil, fmt.Errorf("%w: %q at %s", ErrUnknownRule, key, itemPath)
			}
			if err != nil {
				return nil, err
			}
		}
		if c.Previous == nil || c.Previous.Len() == 0 || c.Current == nil || c.Current.Len() == 0 {
			return nil, fmt.Errorf("%w: %sprevious and current clauses are required", ErrInvalidSchema, prefix(itemPath))
		}
		constraints = append(constraints, c)
	}
	return constraints, nil
}

func parseFunction(n *yaml.Node, path string) (*FunctionCall, error) {
	raw, err := decodeMapping(n, path, "name", "args")
	if err != nil {
		return nil, err
	}
	name, ok := raw["name"].(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: %sfunction name is required", ErrInvalidSchema, prefix(path))
	}
	fc := &FunctionCall{Name: name}
	if args, ok := raw["args"].(map[string]any); ok {
		fc.Args = args
	}
	return fc, nil
}

func parseClauseOp(n *yaml.Node, path string) (string, error) {
	op := strings.ToUpper(resolveAlias(n).Value)
	if op != "AND" && op != "OR" {
		return "", fmt.Errorf("%w: %sclause operator must be and/or", ErrInvalidSchema, prefix(path))
	}
	return op, nil
}

func requireComparator(raw map[string]any, path string) (string, error) {
	cmp, ok := raw["comparator"].(string)
	if !ok || !slices.Contains(value.Comparators, cmp) {
		return "", fmt.Errorf("%w: %scomparator must be one of %v", ErrInvalidSchema, prefix(path), value.Comparators)
	}
	return cmp, nil
}

// decodeMapping decodes a mapping node into map[string]any, rejecting keys
// outside the allowed set.
func decodeMapping(n *yaml.Node, path string, allowed ...string) (map[string]any, error) {
	var raw map[string]any
	if err := n.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %sexpected a mapping", ErrInvalidSchema, prefix(path))
	}
	for key := range raw {
		if !slices.Contains(allowed, key) {
			return nil, fmt.Errorf("%w: %q at %s", ErrUnknownRule, key, path)
		}
	}
	return raw, nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		return n.Alias
	}
	return n
}

func joinPath(path, elem string) string {
	if path == "" {
		return elem
	}
	return path + "." + elem
}

func prefix(path string) string {
	if path == "" {
		return ""
	}
	return path + ": "
}
