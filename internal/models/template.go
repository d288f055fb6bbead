package models

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// QueryTemplate is a template string with one or more ${key} placeholders.
type QueryTemplate struct {
	text string
	keys []string
}

// NewQueryTemplate parses text. Returns ErrInvalidTemplate when text is blank
// or contains no placeholders.
func NewQueryTemplate(text string) (*QueryTemplate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: template text is empty", ErrInvalidTemplate)
	}
	matches := placeholderPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: template %q has no placeholders", ErrInvalidTemplate, text)
	}
	seen := make(map[string]struct{}, len(matches))
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		key := strings.TrimSpace(m[1])
		if key == "" {
			return nil, fmt.Errorf("%w: template %q has an empty placeholder", ErrInvalidTemplate, text)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return &QueryTemplate{text: text, keys: keys}, nil
}

// Text returns the raw template text.
func (t *QueryTemplate) Text() string { return t.text }

// Keys returns the placeholder keys in template order, without duplicates.
func (t *QueryTemplate) Keys() []string {
	return append([]string(nil), t.keys...)
}

func (t *QueryTemplate) String() string { return t.text }
