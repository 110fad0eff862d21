package report

import (
	"encoding/json"
	"strings"
	"time"
)

// rawResponseLimit caps how much of an unparseable reply is kept on the
// error variant.
const rawResponseLimit = 500

// DefaultDisclaimer is the fixed boilerplate inserted when the model reply
// omits a disclaimer. Every success-variant record carries a non-empty
// disclaimer, either the model's own or this one.
var DefaultDisclaimer = []string{
	"This analysis is for informational purposes only and does not constitute medical advice.",
	"Please consult with a healthcare professional for proper medical diagnosis and treatment.",
	"Results may vary and this tool cannot substitute for laboratory testing.",
	"This report was generated using AI analysis of an uploaded image.",
	"Some values may not be accurately extracted if the image quality is poor.",
	"Always verify results with your original laboratory report.",
}

// Normalizer turns the raw model reply into a Record. It never fails: a reply
// that cannot be parsed yields the error variant instead.
type Normalizer struct {
	// Now supplies timestamps. Defaults to time.Now; tests pin it.
	Now func() time.Time
}

// NewNormalizer returns a Normalizer using the wall clock.
func NewNormalizer() *Normalizer {
	return &Normalizer{Now: time.Now}
}

// Normalize extracts the JSON object from the reply and builds a Record.
//
// The reply is sliced between its first '{' and last '}' before parsing.
// This is a deliberate heuristic, not a real parser: it tolerates prose
// around the object but breaks on nested braces inside string values or
// multiple JSON-like blocks in one reply.
func (n *Normalizer) Normalize(raw string) *Record {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return n.errorRecord("Could not parse the blood report", raw)
	}

	slice := raw[start : end+1]

	var fields map[string]any
	if err := json.Unmarshal([]byte(slice), &fields); err != nil {
		return n.errorRecord("Could not parse JSON response", slice)
	}

	fields["analysis_timestamp"] = n.now().Format(time.RFC3339)
	if _, ok := fields["disclaimer"]; !ok {
		fields["disclaimer"] = DefaultDisclaimer
	}
	return &Record{fields: fields}
}

func (n *Normalizer) errorRecord(msg, raw string) *Record {
	return &Record{fields: map[string]any{
		"error":        msg,
		"raw_response": truncate(raw, rawResponseLimit),
		"timestamp":    n.now().Format(time.RFC3339),
	}}
}

func (n *Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

// truncate cuts s to at most limit characters, counting runes so a multi-byte
// reply is not split mid-character.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
