// Package parser extracts structured fields from bracket-format log lines.
package parser

import (
	"regexp"
	"time"
)

// Example: [2025-06-24T10:13:19.975Z] [ERROR] [mcadatpj8molqcfa6zb] This is a ERROR log message
var lineRegex = regexp.MustCompile(`^\[(.*?)\] \[(.*?)\] \[(.*?)\] (.*)$`)

// ParsedLine is the structured result of parsing one bracket-format line.
// Extraction is purely syntactic: RawDate always holds the first bracket
// segment, and Date is non-zero only when that segment parses as a date.
// The message segment is greedy to end of line, so literal ']' characters
// inside it are preserved.
type ParsedLine struct {
	Date    time.Time
	RawDate string
	Level   string
	TraceID string
	Message string
}

// ParseLine parses one line of the form "[date] [LEVEL] [traceId] message".
// It returns nil when the line does not match the bracket pattern; a
// non-match is an expected outcome, not an error. A date segment that is
// present but not a valid date still matches; the caller decides how to
// handle the zero Date.
func ParseLine(line string) *ParsedLine {
	m := lineRegex.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	p := &ParsedLine{
		RawDate: m[1],
		Level:   m[2],
		TraceID: m[3],
		Message: m[4],
	}
	if t, err := time.Parse(time.RFC3339Nano, m[1]); err == nil {
		p.Date = t
	}
	return p
}
