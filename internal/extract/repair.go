package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/avolkov/finledger/internal/domain"
)

// The model's response is untrusted text. Repair is an ordered chain of pure
// stages (text → objects | error); a stage runs only when every earlier stage
// failed, and the first success wins.
type repairStage struct {
	name string
	fn   func(string) ([]map[string]any, error)
}

func repairStages() []repairStage {
	return []repairStage{
		{"strip-and-parse", stripAndParse},
		{"array-extract", arrayExtract},
		{"bracket-repair", bracketRepair},
		{"object-salvage", objectSalvage},
	}
}

// NormalizeResponse converts a raw model response into a flat list of
// candidate objects, reporting which repair stage produced them. A stage that
// parses the response ends the chain even when it yields zero objects — an
// empty but well-formed response is an empty record set, not a parse failure.
// Exhausting the chain is terminal: ExtractionFailure("unparseable-response")
// with a bounded excerpt, never the full payload.
func NormalizeResponse(raw string) ([]map[string]any, string, error) {
	for _, stage := range repairStages() {
		objects, err := stage.fn(raw)
		if err != nil {
			continue
		}
		return objects, stage.name, nil
	}
	return nil, "", domain.ExtractionFailure("unparseable-response", raw)
}

// stripWrapping removes code fences and surrounding prose, then slices to the
// span between the first opening bracket/brace and the last matching closer.
func stripWrapping(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	objStart := strings.IndexAny(s, "{[")
	if objStart == -1 {
		return s
	}
	closer := "}"
	if s[objStart] == '[' {
		closer = "]"
	}
	if end := strings.LastIndex(s, closer); end > objStart {
		s = s[objStart : end+1]
	}
	return strings.TrimSpace(s)
}

func stripAndParse(raw string) ([]map[string]any, error) {
	return decodeCandidates(stripWrapping(raw))
}

// decodeCandidates parses JSON and flattens it into candidate objects. A
// top-level array is used directly. For a top-level object the contract keys
// ("accounts", "transactions") are collected when present; otherwise the
// first array-valued field is used, which handles the model wrapping its
// output under an unexpected key.
func decodeCandidates(s string) ([]map[string]any, error) {
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return nil, err
	}

	switch v := parsed.(type) {
	case []any:
		return collectObjects(v), nil
	case map[string]any:
		var out []map[string]any
		if accounts, ok := v["accounts"].([]any); ok {
			out = append(out, collectObjects(accounts)...)
		}
		if transactions, ok := v["transactions"].([]any); ok {
			out = append(out, collectObjects(transactions)...)
		}
		if out != nil {
			return out, nil
		}

		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if arr, ok := v[k].([]any); ok {
				return collectObjects(arr), nil
			}
		}
		return nil, fmt.Errorf("object has no array-valued field")
	default:
		return nil, fmt.Errorf("top-level value is %T, want array or object", parsed)
	}
}

func collectObjects(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// arrayExtract pulls the first top-level JSON array substring out of
// arbitrary surrounding text by scanning bracket depth from the first '['.
func arrayExtract(raw string) ([]map[string]any, error) {
	start := strings.Index(raw, "[")
	if start == -1 {
		return nil, fmt.Errorf("no array in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return decodeCandidates(raw[start : i+1])
			}
		}
	}
	return nil, fmt.Errorf("unterminated array in response")
}

// bracketRepair appends the closers a truncated response is missing, then
// re-parses. Handles the model running out of tokens mid-array.
func bracketRepair(raw string) ([]map[string]any, error) {
	s := stripWrapping(raw)

	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '[':
			stack = append(stack, ']')
		case c == '{':
			stack = append(stack, '}')
		case c == ']' || c == '}':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if len(stack) == 0 {
		return nil, fmt.Errorf("brackets already balanced")
	}

	// A truncated response usually ends mid-object; drop a trailing comma or
	// dangling partial value before closing.
	s = strings.TrimRight(s, ", \n\t")

	var b strings.Builder
	b.WriteString(s)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return decodeCandidates(b.String())
}

var (
	objectFragmentRe = regexp.MustCompile(`\{[^{}]*\}`)
	dateKeyRe        = regexp.MustCompile(`"date"\s*:`)
)

// objectSalvage regex-matches individual {...} fragments containing a
// date-like key and parses each independently, keeping only those that parse.
func objectSalvage(raw string) ([]map[string]any, error) {
	fragments := objectFragmentRe.FindAllString(raw, -1)
	var out []map[string]any
	for _, frag := range fragments {
		if !dateKeyRe.MatchString(frag) {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(frag), &obj); err != nil {
			continue
		}
		out = append(out, obj)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no salvageable objects")
	}
	return out, nil
}
