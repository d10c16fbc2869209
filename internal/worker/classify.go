package worker

import (
	"bytes"
	"encoding/json"

	"github.com/logstream-io/logstream/internal/parser"
)

// PayloadKind discriminates the recognized queue payload shapes.
type PayloadKind int

const (
	// KindInvalid marks a payload that is neither a JSON object nor a
	// bracket-format line.
	KindInvalid PayloadKind = iota
	// KindObject is a structured JSON object payload.
	KindObject
	// KindRawLine is a bracket-format text line payload.
	KindRawLine
)

// Classified is the tagged result of payload classification. Exactly one
// of Object and Line is set for the non-invalid kinds.
type Classified struct {
	Kind   PayloadKind
	Object map[string]any
	Line   *parser.ParsedLine
}

// Classify determines the shape of one queue payload. JSON is attempted
// first; a JSON-encoded string is unwrapped one level and re-examined, so
// producers that enqueue a quoted raw line or a quoted JSON document are
// both handled. Anything that is not JSON is tried as a bracket-format
// line.
func Classify(payload []byte) Classified {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return Classified{Kind: KindInvalid}
	}

	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err == nil {
		return Classified{Kind: KindObject, Object: obj}
	}

	var quoted string
	if err := json.Unmarshal(trimmed, &quoted); err == nil {
		if err := json.Unmarshal([]byte(quoted), &obj); err == nil {
			return Classified{Kind: KindObject, Object: obj}
		}
		if p := parser.ParseLine(quoted); p != nil {
			return Classified{Kind: KindRawLine, Line: p}
		}
		return Classified{Kind: KindInvalid}
	}

	if p := parser.ParseLine(string(trimmed)); p != nil {
		return Classified{Kind: KindRawLine, Line: p}
	}
	return Classified{Kind: KindInvalid}
}
