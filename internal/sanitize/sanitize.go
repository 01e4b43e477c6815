// Package sanitize strips markup from user-supplied text before it is stored.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictOnce   sync.Once
	strictPolicy *bluemonday.Policy
)

func policy() *bluemonday.Policy {
	strictOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// Text removes every HTML element and trims surrounding space. Entities are
// decoded so "&" round-trips as typed.
func Text(input string) string {
	value := strings.TrimSpace(input)
	if value == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(policy().Sanitize(value)))
}

// TextPtr cleans an optional value. Blank input becomes nil.
func TextPtr(input *string) *string {
	if input == nil {
		return nil
	}
	value := Text(*input)
	if value == "" {
		return nil
	}
	return &value
}
