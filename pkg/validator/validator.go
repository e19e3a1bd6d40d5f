package validator

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/dmitrymomot/formqc/pkg/datastore"
	"github.com/dmitrymomot/formqc/pkg/schema"
	"github.com/dmitrymomot/formqc/pkg/value"
)

// Record is one form submission under validation.
type Record = datastore.Record

// RoundingMode selects how prorated scale scores are rounded.
type RoundingMode int

const (
	// RoundHalfUp rounds .5 away from zero. This is the current scoring
	// behavior.
	RoundHalfUp RoundingMode = iota
	// RoundHalfEven is kept for regression comparisons against historic
	// score files.
	RoundHalfEven
)

// Option configures a Validator.
type Option func(*Validator)

// WithPrimaryKey sets the field identifying the participant across visits.
func WithPrimaryKey(field string) Option {
	return func(v *Validator) { v.pk = field }
}

// WithDatastore binds the store used for prior visits and code lookups.
func WithDatastore(ds datastore.Datastore) Option {
	return func(v *Validator) { v.ds = ds }
}

// WithClock overrides the time source used by current_date/current_year
// bounds. Tests pin this to keep year-relative rules deterministic.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// WithAllowUnknown controls whether record fields absent from the schema
// are tolerated (true) or reported as findings (false, the default).
func WithAllowUnknown(allow bool) Option {
	return func(v *Validator) { v.allowUnknown = allow }
}

// WithGDSRounding selects the proration rounding mode.
func WithGDSRounding(mode RoundingMode) Option {
	return func(v *Validator) { v.gdsRounding = mode }
}

// WithFunction registers an additional named validation function for the
// function rule.
func WithFunction(name string, fn RuleFunc) Option {
	return func(v *Validator) { v.functions[name] = fn }
}

// WithLogger sets the logger for cast and rule diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(v *Validator) {
		if log != nil {
			v.log = log
		}
	}
}

// Validator evaluates one record at a time against a schema. It is not safe
// for concurrent use; run one validator per goroutine and share the schema
// and (thread-safe) datastore between them.
type Validator struct {
	schema       *schema.Schema
	pk           string
	ds           datastore.Datastore
	allowUnknown bool
	now          func() time.Time
	gdsRounding  RoundingMode
	functions    map[string]RuleFunc
	log          *slog.Logger

	record    Record
	missing   map[string]bool
	prevCache map[string]Record
	errs      Errors
	warnings  []string
	scores    map[string]value.Value
}

// New creates a validator over a parsed schema.
func New(s *schema.Schema, opts ...Option) *Validator {
	v := &Validator{
		schema:    s,
		now:       time.Now,
		functions: map[string]RuleFunc{},
		log:       slog.Default(),
	}
	v.functions["score_variables"] = scoreVariables
	v.functions["check_adcid"] = checkADCID
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// child builds the fresh validator instance used for nested clause checks:
// same datastore, primary key, clock and registry, its own error state.
// Unknown fields are always tolerated inside clause checks because the
// clause schema covers a single field of a full record.
func (v *Validator) child(sub *schema.Schema) *Validator {
	return &Validator{
		schema:       sub,
		pk:           v.pk,
		ds:           v.ds,
		allowUnknown: true,
		now:          v.now,
		gdsRounding:  v.gdsRounding,
		functions:    v.functions,
		log:          v.log,
	}
}

// Validate evaluates a record. The returned Errors hold the validation
// findings; a non-nil error reports a system fault (datastore failure,
// malformed formula, unknown function), in which case findings are void.
// The input record is not mutated.
func (v *Validator) Validate(ctx context.Context, input Record) (Errors, error) {
	v.errs = nil
	v.warnings = nil
	v.scores = map[string]value.Value{}
	v.prevCache = map[string]Record{}
	v.record, v.missing = v.castRecord(input)

	for _, field := range v.schema.Fields() {
		fs, _ := v.schema.Field(field)
		if err := v.validateField(ctx, field, fs); err != nil {
			return nil, err
		}
	}

	if !v.allowUnknown {
		var unknown []string
		for key := range v.record {
			if _, ok := v.schema.Field(key); !ok {
				unknown = append(unknown, key)
			}
		}
		sort.Strings(unknown)
		for _, key := range unknown {
			v.errs = append(v.errs, Error{
				Field:     key,
				Rule:      "unknown",
				Value:     v.record[key].String(),
				Message:   "unknown field",
				RuleIndex: -1,
			})
		}
	}

	return v.errs, nil
}

// Scores returns the computed-score side table populated by the last
// Validate call (score_variables totals keyed by their configured name).
func (v *Validator) Scores() map[string]value.Value { return v.scores }

// Warnings returns non-fatal diagnostics from the last Validate call.
func (v *Validator) Warnings() []string { return v.warnings }

// Record exposes the cast record under validation to registered functions.
func (v *Validator) Record() Record { return v.record }

// AddError records a validation finding, honoring the field's meta errmsg
// override when one is declared.
func (v *Validator) AddError(e Error) {
	if fs, ok := v.schema.Field(e.Field); ok && fs.Meta != nil && fs.Meta.ErrMsg != "" {
		e.Message = fs.Meta.ErrMsg
	}
	v.errs = append(v.errs, e)
}

func (v *Validator) warn(msg string) {
	v.warnings = append(v.warnings, msg)
	v.log.Warn(msg)
}

// castRecord coerces string inputs to the schema's declared types, maps
// empty strings to null, and fills schema fields absent from the input with
// null so every rule has a value to look at. The second return names the
// fields that were filled in. Casting an already-cast record is a no-op.
func (v *Validator) castRecord(input Record) (Record, map[string]bool) {
	rec := make(Record, len(input)+v.schema.Len())
	missing := make(map[string]bool)

	for key, raw := range input {
		if s, ok := raw.Str(); ok && s == "" {
			rec[key] = value.Null()
			continue
		}
		if fs, ok := v.schema.Field(key); ok && len(fs.Types) > 0 && !raw.IsNull() {
			rec[key] = v.coerce(key, raw, fs.Types[0])
			continue
		}
		rec[key] = raw
	}

	for _, field := range v.schema.Fields() {
		if _, ok := rec[field]; !ok {
			rec[field] = value.Null()
			missing[field] = true
		}
	}
	return rec, missing
}

func (v *Validator) coerce(field string, raw value.Value, tag string) value.Value {
	switch tag {
	case "integer":
		if s, ok := raw.Str(); ok {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return value.Int(i)
			}
		}
		if f, ok := raw.Float64(); ok && f == float64(int64(f)) {
			return value.Int(int64(f))
		}
	case "float":
		if s, ok := raw.Str(); ok {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return value.Float(f)
			}
		}
	case "bool":
		if s, ok := raw.Str(); ok {
			if b, err := strconv.ParseBool(s); err == nil {
				return value.Bool(b)
			}
		}
	case "date":
		if t, ok := raw.AsDate(); ok {
			return value.Date(t)
		}
	}
	if raw.Kind().String() != tag {
		v.log.Debug("failed to cast field to schema type",
			slog.String("field", field),
			slog.String("value", raw.String()),
			slog.String("type", tag))
	}
	return raw
}

// validateField runs one field's rules in the fixed evaluation order. When
// the value is null only the null-tolerant rules (filled, compare_with,
// compare_age, compatibility, logic) run; all other rules are skipped.
func (v *Validator) validateField(ctx context.Context, field string, fs *schema.FieldSchema) error {
	val := v.record[field]

	if val.IsNull() {
		if v.missing[field] && fs.Required {
			v.AddError(Error{Field: field, Rule: "required", Value: val.String(), Message: "required field", RuleIndex: -1})
		} else if !fs.Nullable {
			v.AddError(Error{Field: field, Rule: "nullable", Value: val.String(), Message: "null value not allowed", RuleIndex: -1})
		}
		// Null gate: only the null-tolerant rules run past this point.
		v.checkFilled(field, fs, val)
		if err := v.validateCompareWith(ctx, field, fs, val); err != nil {
			return err
		}
		if err := v.validateCompareAge(field, fs, val); err != nil {
			return err
		}
		if err := v.validateCompatibility(ctx, field, fs, val); err != nil {
			return err
		}
		return v.validateLogic(field, fs, val)
	}

	v.checkType(field, fs, val)
	v.checkAllowed(field, fs, val)
	v.checkForbidden(field, fs, val)
	v.checkBounds(field, fs, val)
	v.checkRegex(field, fs, val)
	v.checkFilled(field, fs, val)
	if err := v.checkAnyOf(ctx, field, fs, val); err != nil {
		return err
	}

	if err := v.validateCompareWith(ctx, field, fs, val); err != nil {
		return err
	}
	if err := v.validateCompareAge(field, fs, val); err != nil {
		return err
	}
	if err := v.validateCompatibility(ctx, field, fs, val); err != nil {
		return err
	}
	if err := v.validateLogic(field, fs, val); err != nil {
		return err
	}
	if err := v.validateTemporalRules(ctx, field, fs, val); err != nil {
		return err
	}
	v.validateComputeGDS(field, fs, val)
	if err := v.validateCheckWith(ctx, field, fs, val); err != nil {
		return err
	}
	return v.validateFunction(ctx, field, fs, val)
}

// resolveKey turns a rule operand into a concrete value: clock keywords
// first, then a field of the current record, then the literal itself.
func (v *Validator) resolveKey(k value.Value) value.Value {
	if s, ok := k.Str(); ok {
		switch s {
		case schema.KeywordCurrentDate:
			return value.Date(v.now())
		case schema.KeywordCurrentYear:
			return value.Int(int64(v.now().Year()))
		case schema.KeywordCurrentMonth:
			return value.Int(int64(v.now().Month()))
		case schema.KeywordCurrentDay:
			return value.Int(int64(v.now().Day()))
		}
		if fieldVal, ok := v.record[s]; ok {
			return fieldVal
		}
	}
	return k
}
