package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMissingSeparator reports a non-blank line in a standard-format reply
// that has no "Key: value" separator.
var ErrMissingSeparator = errors.New("line has no key/value separator")

var overallCFRPattern = regexp.MustCompile(`(?i)Overall\s+Hospitalized\s+CFR\s*[:=]\s*\**([0-9.]+)\**`)

// ParseExtraction decodes a refinement reply as a JSON object keyed by
// parameter name. A surrounding markdown code fence is tolerated; anything
// else that is not a JSON object is an error.
func ParseExtraction(reply string) (map[string]string, error) {
	trimmed := stripCodeFence(strings.TrimSpace(reply))

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse reply as JSON object: %w", err)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = stringifyValue(v)
	}
	return out, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func stringifyValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

// ParseStandardText parses a plain-text standard-format reply, one
// "Key: value" pair per line. Bullet and bold markers around the key are
// stripped, blank lines are skipped, and a remaining line without a
// separator is an ErrMissingSeparator naming the line. Later duplicates
// overwrite earlier ones.
func ParseStandardText(text string) (map[string]string, error) {
	out := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, marker := range []string{"- ", "* ", "• "} {
			if strings.HasPrefix(line, marker) {
				line = strings.TrimSpace(strings.TrimPrefix(line, marker))
				break
			}
		}
		line = strings.ReplaceAll(line, "**", "")

		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrMissingSeparator, line)
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out, nil
}

// ExtractOverallCFR pulls the value from the mandated summary line
// "Overall Hospitalized CFR: <value>", tolerating "=" and bold markers.
func ExtractOverallCFR(text string) (string, bool) {
	m := overallCFRPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// CalculateCFR divides the numerator by the denominator after stripping
// non-digit characters from both. Missing digits or a zero denominator
// yield an empty string rather than a number.
func CalculateCFR(numerator, denominator string) string {
	num, okNum := extractInt(numerator)
	den, okDen := extractInt(denominator)
	if !okNum || !okDen || den == 0 {
		return ""
	}
	return strconv.FormatFloat(float64(num)/float64(den), 'g', -1, 64)
}

func extractInt(s string) (int, bool) {
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, false
	}
	return n, true
}
