package qualitycheck

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/formqc/pkg/datastore"
	"github.com/dmitrymomot/formqc/pkg/schema"
	"github.com/dmitrymomot/formqc/pkg/validator"
	"github.com/dmitrymomot/formqc/pkg/value"
)

// SystemField keys system-fault messages in the flat error mapping, keeping
// them apart from per-field validation findings.
const SystemField = "__system__"

// Option configures the underlying validator.
type Option func(*config)

type config struct {
	strict        bool
	validatorOpts []validator.Option
}

// WithStrict controls unknown-field handling: strict (the default) reports
// record fields absent from the schema as findings.
func WithStrict(strict bool) Option {
	return func(c *config) { c.strict = strict }
}

// WithDatastore binds the prior-visit and reference-code store.
func WithDatastore(ds datastore.Datastore) Option {
	return func(c *config) { c.validatorOpts = append(c.validatorOpts, validator.WithDatastore(ds)) }
}

// WithClock pins the time source for current_date/current_year rules.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.validatorOpts = append(c.validatorOpts, validator.WithClock(now)) }
}

// WithGDSRounding selects the proration rounding mode.
func WithGDSRounding(mode validator.RoundingMode) Option {
	return func(c *config) { c.validatorOpts = append(c.validatorOpts, validator.WithGDSRounding(mode)) }
}

// WithFunction registers an additional named validation function.
func WithFunction(name string, fn validator.RuleFunc) Option {
	return func(c *config) { c.validatorOpts = append(c.validatorOpts, validator.WithFunction(name, fn)) }
}

// WithLogger sets the logger passed to the validator.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) { c.validatorOpts = append(c.validatorOpts, validator.WithLogger(log)) }
}

// QualityCheck drives per-record validation: it owns a validator bound to a
// primary-key field and schema, casts incoming records, and packages
// results. Not safe for concurrent use; construct one per goroutine.
type QualityCheck struct {
	pkField string
	schema  *schema.Schema
	v       *validator.Validator
}

// Result is the outcome of validating one record.
type Result struct {
	// Passed is true when the record satisfied every rule.
	Passed bool
	// SystemFailure is true when validation aborted on a fault; findings
	// are void in that case.
	SystemFailure bool
	// Errors maps field name to formatted findings. Empty when Passed.
	Errors map[string][]string
	// Tree is the hierarchical view of the findings.
	Tree *validator.Tree
	// Scores carries computed score totals keyed by their configured name.
	Scores map[string]value.Value
	// Warnings are non-fatal diagnostics (e.g. unbuildable birth dates).
	Warnings []string
}

// New builds a QualityCheck for a schema. The schema must declare the
// primary-key field with required: true; rule files with unknown rules or
// malformed arguments have already failed in schema.Parse.
func New(pkField string, s *schema.Schema, opts ...Option) (*QualityCheck, error) {
	if pkField == "" {
		return nil, ErrNoPrimaryKeyField
	}
	fs, ok := s.Field(pkField)
	if !ok {
		return nil, fmt.Errorf("%w: schema does not define primary key field %q", ErrSchemaCheck, pkField)
	}
	if !fs.Required {
		return nil, fmt.Errorf("%w: primary key field %q must be declared required", ErrSchemaCheck, pkField)
	}

	cfg := &config{strict: true}
	for _, opt := range opts {
		opt(cfg)
	}

	vopts := append([]validator.Option{
		validator.WithPrimaryKey(pkField),
		validator.WithAllowUnknown(!cfg.strict),
	}, cfg.validatorOpts...)

	return &QualityCheck{
		pkField: pkField,
		schema:  s,
		v:       validator.New(s, vopts...),
	}, nil
}

// PrimaryKey returns the configured primary-key field name.
func (qc *QualityCheck) PrimaryKey() string { return qc.pkField }

// Schema returns the schema under validation.
func (qc *QualityCheck) Schema() *schema.Schema { return qc.schema }

// ValidateRecord evaluates one record. Missing schema fields are filled
// with null before evaluation; the input is not mutated. A missing or null
// primary key is a system failure, as is any datastore or formula fault.
func (qc *QualityCheck) ValidateRecord(ctx context.Context, record datastore.Record) Result {
	if pk, ok := record[qc.pkField]; !ok || pk.IsNull() {
		return Result{
			SystemFailure: true,
			Errors: map[string][]string{
				qc.pkField: {fmt.Sprintf("primary key variable %s not set in current visit data", qc.pkField)},
			},
			Tree: validator.NewTree(nil),
		}
	}

	errs, err := qc.v.Validate(ctx, record)
	if err != nil {
		return Result{
			SystemFailure: true,
			Errors:        map[string][]string{SystemField: {err.Error()}},
			Tree:          validator.NewTree(nil),
		}
	}

	return Result{
		Passed:   len(errs) == 0,
		Errors:   errs.ByField(),
		Tree:     validator.NewTree(errs),
		Scores:   qc.v.Scores(),
		Warnings: qc.v.Warnings(),
	}
}

// RecordFromStrings converts one row of string cells (e.g. a CSV row) into
// a record; empty cells become null and typed fields are coerced during the
// cast inside ValidateRecord.
func RecordFromStrings(row map[string]string) datastore.Record {
	rec := make(datastore.Record, len(row))
	for k, s := range row {
		if s == "" {
			rec[k] = value.Null()
			continue
		}
		rec[k] = value.String(s)
	}
	return rec
}
