// Package sanitize filters untrusted block text down to the markup its field
// allows.
package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rubiojr/edjs/pkg/core"
)

// Sanitizer applies allow-list policies built with bluemonday. Policies are
// built once per distinct allow-list and shared; bluemonday policies are safe
// for concurrent use after creation.
type Sanitizer struct {
	policies sync.Map // allow-list key -> *bluemonday.Policy
	strict   *bluemonday.Policy
}

// New returns an empty Sanitizer.
func New() *Sanitizer {
	return &Sanitizer{strict: bluemonday.StrictPolicy()}
}

// Sanitize returns s restricted to the allowed markup. A nil allow-list strips
// all markup and escapes the remaining text; Any returns s unchanged.
func (s *Sanitizer) Sanitize(input string, tags *core.AllowedTags) string {
	if input == "" {
		return ""
	}
	if tags != nil && tags.Any {
		return input
	}
	return s.policy(tags).Sanitize(input)
}

func (s *Sanitizer) policy(tags *core.AllowedTags) *bluemonday.Policy {
	key := tags.Key()
	if key == "none" {
		return s.strict
	}
	if p, ok := s.policies.Load(key); ok {
		return p.(*bluemonday.Policy)
	}
	p, _ := s.policies.LoadOrStore(key, buildPolicy(tags))
	return p.(*bluemonday.Policy)
}

func buildPolicy(tags *core.AllowedTags) *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	urls := false
	for _, rule := range tags.Rules {
		tag := strings.ToLower(strings.TrimSpace(rule.Tag))
		if tag == "" {
			continue
		}
		p.AllowElements(tag)

		var attrs []string
		for _, attr := range rule.Attributes {
			attr = strings.ToLower(strings.TrimSpace(attr))
			if attr == "" {
				continue
			}
			if attr == "href" || attr == "src" {
				urls = true
			}
			attrs = append(attrs, attr)
		}
		if len(attrs) > 0 {
			p.AllowAttrs(attrs...).OnElements(tag)
		}
	}

	if urls {
		p.AllowStandardURLs()
	}
	return p
}

var defaultSanitizer = New()

// Sanitize filters input with a process-wide Sanitizer.
func Sanitize(input string, tags *core.AllowedTags) string {
	return defaultSanitizer.Sanitize(input, tags)
}
