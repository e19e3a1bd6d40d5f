package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formqc/pkg/qualitycheck"
)

// report collects per-record outcomes for serialization.
type report struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	PKField     string        `json:"pk_field"`
	Records     []recordEntry `json:"records"`
}

type recordEntry struct {
	Row        int                 `json:"row"`
	PK         string              `json:"pk"`
	Passed     bool                `json:"passed"`
	SysFailure bool                `json:"sys_failure"`
	Errors     map[string][]string `json:"errors,omitempty"`
}

func newReport(pkField string) *report {
	return &report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		PKField:     pkField,
	}
}

func (r *report) add(row int, pk string, res qualitycheck.Result) {
	r.Records = append(r.Records, recordEntry{
		Row:        row,
		PK:         pk,
		Passed:     res.Passed,
		SysFailure: res.SystemFailure,
		Errors:     res.Errors,
	})
}

func (r *report) failedCount() int {
	n := 0
	for _, rec := range r.Records {
		if !rec.Passed {
			n++
		}
	}
	return n
}

func (r *report) writeJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func (r *report) writeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"row", r.PKField, "passed", "sys_failure", "errors"}); err != nil {
		return err
	}
	for _, rec := range r.Records {
		if err := cw.Write([]string{
			strconv.Itoa(rec.Row),
			rec.PK,
			strconv.FormatBool(rec.Passed),
			strconv.FormatBool(rec.SysFailure),
			summarizeErrors(rec.Errors),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// summarizeErrors flattens the per-field findings into one cell, fields in
// alphabetical order for stable reports.
func summarizeErrors(errs map[string][]string) string {
	if len(errs) == 0 {
		return ""
	}
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var parts []string
	for _, f := range fields {
		for _, msg := range errs[f] {
			parts = append(parts, fmt.Sprintf("%s: %s", f, msg))
		}
	}
	return strings.Join(parts, "; ")
}
