package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Model completions asked for JSON routinely come back as near-JSON: prose
// around the object, single quotes, bare keys, trailing commas, truncated
// output. NormalizeInsightJSON coerces such text into the strict
// commentary/tips shape through a pipeline of independent repair passes,
// failing only when no pass can recover a parseable object.

var (
	jsonSpanRe      = regexp.MustCompile(`(?s)\{.*\}`)
	escapeSeqRe     = regexp.MustCompile(`\\[rnt]`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	bareKeyRe       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_-]*)(\s*:)`)
	singleQuoteRe   = regexp.MustCompile(`'([^']*)'`)
)

// NormalizeInsightJSON extracts, sanitizes and repairs near-JSON text into
// the strict {commentary, tips} shape. Missing fields become empty arrays; a
// present field of the wrong type invalidates the whole payload and both
// arrays come back empty. A ParseError is returned only when no repair pass
// yields parseable JSON.
func NormalizeInsightJSON(provider, raw string) (commentary []string, tips []string, err error) {
	span := extractJSONSpan(raw)
	if span == "" {
		return nil, nil, &ParseError{Provider: provider, Raw: raw, Err: errNoJSONObject}
	}

	span = sanitize(span)
	if !strings.HasSuffix(span, "}") {
		// Truncated completion: close the object and hope the repair passes
		// can make sense of the rest.
		span += "}"
	}

	shape, parseErr := parseShape(span)
	if parseErr != nil {
		repaired := repair(span)
		shape, parseErr = parseShape(repaired)
		if parseErr != nil {
			return nil, nil, &ParseError{Provider: provider, Raw: span, Err: parseErr}
		}
	}

	return coerceShape(shape)
}

var errNoJSONObject = jsonError("no JSON object found in response")

type jsonError string

func (e jsonError) Error() string { return string(e) }

// extractJSONSpan returns the candidate JSON object within raw text
func extractJSONSpan(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		return trimmed
	}
	if span := jsonSpanRe.FindString(trimmed); span != "" {
		return span
	}
	// No closing brace anywhere; take everything from the first opening
	// brace so the truncation repair can close it.
	if i := strings.Index(trimmed, "{"); i >= 0 {
		return trimmed[i:]
	}
	return ""
}

// sanitize strips non-ASCII codepoints, collapses literal escape sequences
// and repeated whitespace, and trims.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	s = b.String()
	s = escapeSeqRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// repair applies the second-chance heuristics: trailing commas, bare object
// keys, single-quoted strings.
func repair(s string) string {
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	s = bareKeyRe.ReplaceAllString(s, `$1"$2"$3`)
	s = singleQuoteRe.ReplaceAllString(s, `"$1"`)
	return s
}

// insightShape defers field decoding so type mismatches are detectable
// without failing the whole parse.
type insightShape struct {
	Commentary json.RawMessage `json:"commentary"`
	Tips       json.RawMessage `json:"tips"`
}

func parseShape(s string) (insightShape, error) {
	var shape insightShape
	if err := json.Unmarshal([]byte(s), &shape); err != nil {
		return insightShape{}, err
	}
	return shape, nil
}

// coerceShape turns raw fields into string slices. A present field that is
// not an array marks the whole response malformed: never partially trust a
// bad shape.
func coerceShape(shape insightShape) ([]string, []string, error) {
	commentary, ok := decodeStringArray(shape.Commentary)
	if !ok {
		return []string{}, []string{}, nil
	}
	tips, ok := decodeStringArray(shape.Tips)
	if !ok {
		return []string{}, []string{}, nil
	}
	return commentary, tips, nil
}

// decodeStringArray decodes a raw field into strings. Missing or null fields
// coerce to an empty array; any other non-array shape reports invalid.
func decodeStringArray(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return []string{}, true
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	if out == nil {
		out = []string{}
	}
	return out, true
}
