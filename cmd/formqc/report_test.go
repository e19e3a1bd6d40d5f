package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formqc/pkg/qualitycheck"
)

func TestReportCSV(t *testing.T) {
	r := newReport("ptid")
	r.add(1, "a", qualitycheck.Result{Passed: true})
	r.add(2, "b", qualitycheck.Result{
		Errors: map[string][]string{
			"hello": {"unallowed value pluto"},
			"age":   {"min value is 0"},
		},
	})

	var buf bytes.Buffer
	require.NoError(t, r.writeCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "row,ptid,passed,sys_failure,errors", lines[0])
	assert.Contains(t, lines[1], "1,a,true,false,")
	assert.Contains(t, lines[2], "age: min value is 0; hello: unallowed value pluto",
		"error summary is field-sorted for stable reports")

	assert.Equal(t, 1, r.failedCount())
}

func TestReportJSON(t *testing.T) {
	r := newReport("ptid")
	r.add(1, "a", qualitycheck.Result{Passed: true})

	var buf bytes.Buffer
	require.NoError(t, r.writeJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, r.RunID, decoded["run_id"])
	assert.Len(t, decoded["records"], 1)
}
