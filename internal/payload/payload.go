// Package payload locates and decodes structured JSON payloads embedded in
// free-text agent replies. The agent is asked to include a JSON region in its
// answer; everything around it is prose we discard. Extraction never panics
// and decode failures are ordinary error values the caller branches on.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoPayload indicates no balanced JSON region was found in the text.
	ErrNoPayload = errors.New("no structured payload in agent output")

	// ErrInvalidPayload indicates a JSON region was found but did not decode
	// into the expected shape.
	ErrInvalidPayload = errors.New("malformed structured payload")
)

// Extract returns the first balanced JSON object or array embedded in text.
// String literals and escapes are honored so brackets inside quoted text do
// not unbalance the scan.
func Extract(text string) (string, error) {
	start := -1
	var open, close byte
	for i := 0; i < len(text); i++ {
		if text[i] == '{' || text[i] == '[' {
			start = i
			open = text[i]
			if open == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return "", ErrNoPayload
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// brackets inside strings are literal
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: unbalanced region", ErrNoPayload)
}

// Unmarshal extracts the first balanced JSON region from text and decodes it
// into v. Returns ErrNoPayload or ErrInvalidPayload (wrapped) on failure.
func Unmarshal(text string, v any) error {
	region, err := Extract(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(region), v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// IDs decodes a payload that is expected to be an ordered list of item ids.
// Both bare string arrays and arrays of {"id": ...} objects are accepted,
// since agents produce either shape depending on phrasing.
func IDs(text string) ([]string, error) {
	region, err := Extract(text)
	if err != nil {
		return nil, err
	}

	var plain []string
	if err := json.Unmarshal([]byte(region), &plain); err == nil {
		return trimAll(plain), nil
	}

	var tagged []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(region), &tagged); err == nil {
		ids := make([]string, 0, len(tagged))
		for _, t := range tagged {
			if t.ID != "" {
				ids = append(ids, strings.TrimSpace(t.ID))
			}
		}
		return ids, nil
	}

	return nil, fmt.Errorf("%w: expected an id list", ErrInvalidPayload)
}

func trimAll(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
