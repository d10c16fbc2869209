package worker

import (
	"strconv"
	"time"
)

// Candidate key lists per canonical field. Resolution walks each list in
// order and the first non-empty value wins, which keeps synonym precedence
// auditable: logLevel beats log_level beats level, and so on.
var (
	messageKeys = []string{"message", "log_message"}
	levelKeys   = []string{"logLevel", "log_level", "level"}
	traceKeys   = []string{"traceId", "trace_id"}
	sourceKeys  = []string{"sourceApp", "source_app"}
	dateKeys    = []string{"date", "timestamp"}
)

// resolveField returns the first non-empty string value among the
// candidate keys, in declared order.
func resolveField(payload map[string]any, candidates []string) (string, bool) {
	for _, key := range candidates {
		v, ok := payload[key]
		if !ok {
			continue
		}
		if s := stringify(v); s != "" {
			return s, true
		}
	}
	return "", false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// resolveDate resolves the event time from the candidate keys. Accepted
// forms are RFC 3339 strings and Unix millisecond numbers. Anything else
// (including absence) yields ok=false and the caller defaults to now;
// an unparseable date is a deliberate leniency, not a rejection.
func resolveDate(payload map[string]any) (time.Time, bool) {
	for _, key := range dateKeys {
		v, ok := payload[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
				return ts, true
			}
		case float64:
			if t > 0 {
				return time.UnixMilli(int64(t)), true
			}
		}
	}
	return time.Time{}, false
}
