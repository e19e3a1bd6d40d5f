package value

import (
	"regexp"
	"time"
)

// DateLayout is the canonical rendering of date values.
const DateLayout = "2006-01-02"

var yearFirstRe = regexp.MustCompile(`^\d{4}[-/]\d{1,2}[-/]\d{1,2}$`)

// dateLayouts are tried in order when interpreting a string as a date.
// Year-first forms are only attempted when the string shape calls for them,
// so "05/06/2001" stays month-first.
var (
	yearFirstLayouts  = []string{"2006-01-02", "2006/01/02", "2006-1-2", "2006/1/2"}
	monthFirstLayouts = []string{"01/02/2006", "1/2/2006", "01-02-2006", "1-2-2006"}
)

// ParseDate interprets a string as a calendar date. Strings shaped
// YYYY-MM-DD or YYYY/MM/DD parse year-first; otherwise month-first forms
// are tried.
func ParseDate(s string) (time.Time, bool) {
	layouts := monthFirstLayouts
	if yearFirstRe.MatchString(s) {
		layouts = yearFirstLayouts
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AsDate reports the value under date semantics: date values directly,
// string values through ParseDate.
func (v Value) AsDate() (time.Time, bool) {
	switch v.kind {
	case KindDate:
		return v.t, true
	case KindString:
		return ParseDate(v.s)
	}
	return time.Time{}, false
}
