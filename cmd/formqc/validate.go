package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/formqc/pkg/config"
	"github.com/dmitrymomot/formqc/pkg/datastore"
	"github.com/dmitrymomot/formqc/pkg/datastore/mongostore"
	"github.com/dmitrymomot/formqc/pkg/datastore/pgstore"
	"github.com/dmitrymomot/formqc/pkg/datastore/rediscache"
	"github.com/dmitrymomot/formqc/pkg/qualitycheck"
	"github.com/dmitrymomot/formqc/pkg/schema"
)

// errRecordsFailed signals a clean run with failing records; main maps it
// to exit code 1 without the error banner.
var errRecordsFailed = errors.New("one or more records failed validation")

type validateFlags struct {
	rulesPath   string
	recordsPath string
	outputPath  string
	format      string
	pkField     string
	orderBy     string
	store       string
	redisCache  bool
	lenient     bool
}

func newValidateCmd() *cobra.Command {
	flags := &validateFlags{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate CSV records against a rule file",
		Long: "Reads rules from a JSON or YAML file and records from a CSV whose\n" +
			"header row names the fields, validates every record, and writes a\n" +
			"CSV or JSON report. Exits 0 only when all records pass.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.rulesPath, "rules", "", "rule file (JSON or YAML)")
	cmd.Flags().StringVar(&flags.recordsPath, "records", "", "input CSV of records")
	cmd.Flags().StringVarP(&flags.outputPath, "output", "o", "", "report path (default stdout)")
	cmd.Flags().StringVar(&flags.format, "format", "csv", "report format: csv or json")
	cmd.Flags().StringVar(&flags.pkField, "pk", "", "primary key field name")
	cmd.Flags().StringVar(&flags.orderBy, "orderby", "", "visit order field for temporal rules")
	cmd.Flags().StringVar(&flags.store, "datastore", "", "prior-visit datastore: csv, pg or mongo (default none)")
	cmd.Flags().BoolVar(&flags.redisCache, "redis-cache", false, "cache code lookups in redis")
	cmd.Flags().BoolVar(&flags.lenient, "lenient", false, "skip unknown fields instead of reporting them")
	_ = cmd.MarkFlagRequired("rules")
	_ = cmd.MarkFlagRequired("records")
	_ = cmd.MarkFlagRequired("pk")

	return cmd
}

func runValidate(ctx context.Context, flags *validateFlags) error {
	if flags.format != "csv" && flags.format != "json" {
		return fmt.Errorf("unsupported report format %q", flags.format)
	}

	rules, err := schema.ParseFile(flags.rulesPath)
	if err != nil {
		return err
	}

	_, rows, err := readRecords(flags.recordsPath)
	if err != nil {
		return err
	}
	log.Info("records loaded", "path", flags.recordsPath, "count", len(rows))

	ds, err := buildDatastore(ctx, flags, rows)
	if err != nil {
		return err
	}

	opts := []qualitycheck.Option{qualitycheck.WithStrict(!flags.lenient)}
	if ds != nil {
		opts = append(opts, qualitycheck.WithDatastore(ds))
	}
	qc, err := qualitycheck.New(flags.pkField, rules, opts...)
	if err != nil {
		return err
	}

	report := newReport(flags.pkField)
	for i, row := range rows {
		rec := qualitycheck.RecordFromStrings(row)
		res := qc.ValidateRecord(ctx, rec)
		report.add(i+1, row[flags.pkField], res)
		if res.SystemFailure {
			log.Error("system failure while validating record", "row", i+1, "pk", row[flags.pkField])
		}
	}

	out := os.Stdout
	if flags.outputPath != "" {
		f, err := os.Create(flags.outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if flags.format == "json" {
		err = report.writeJSON(out)
	} else {
		err = report.writeCSV(out)
	}
	if err != nil {
		return err
	}

	log.Info("validation finished",
		"run_id", report.RunID, "total", len(rows), "failed", report.failedCount())
	if report.failedCount() > 0 {
		return errRecordsFailed
	}
	return nil
}

// readRecords loads a CSV whose header row names the fields.
func readRecords(path string) ([]string, []map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var rows []map[string]string
	for {
		cells, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading CSV row %d: %w", len(rows)+2, err)
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(cells) {
				row[name] = cells[i]
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// buildDatastore wires the prior-visit store selected on the command line.
// "csv" replays the input file itself as visit history, which makes
// temporal rules work on a self-contained export.
func buildDatastore(ctx context.Context, flags *validateFlags, rows []map[string]string) (datastore.Datastore, error) {
	var ds datastore.Datastore

	switch flags.store {
	case "":
		return nil, nil
	case "csv":
		if flags.orderBy == "" {
			return nil, errors.New("--datastore csv requires --orderby")
		}
		mem := datastore.NewMemory(flags.pkField, flags.orderBy)
		for _, row := range rows {
			mem.Add(qualitycheck.RecordFromStrings(row))
		}
		ds = mem
	case "pg":
		var cfg pgstore.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		pool, err := pgstore.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := pgstore.Migrate(ctx, pool); err != nil {
			return nil, err
		}
		ds = pgstore.New(pool, flags.pkField, flags.orderBy)
	case "mongo":
		var cfg mongostore.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		store, err := mongostore.Connect(ctx, cfg, flags.pkField, flags.orderBy)
		if err != nil {
			return nil, err
		}
		ds = store
	default:
		return nil, fmt.Errorf("unsupported datastore %q", flags.store)
	}

	if flags.redisCache {
		var cfg rediscache.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := rediscache.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		ds = rediscache.New(ds, client, cfg)
	}
	return ds, nil
}
