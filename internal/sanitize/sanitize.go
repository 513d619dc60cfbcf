// Package sanitize cleans site-supplied override markup before it is placed
// into a consent form.
package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	overridePolicyOnce sync.Once
	overridePolicy     *bluemonday.Policy
)

// HTML strips scripts, event handlers and other active content from an
// override while keeping ordinary formatting, links and lists.
func HTML(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(overrideSanitizer().Sanitize(trimmed))
}

func overrideSanitizer() *bluemonday.Policy {
	overridePolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("class").Globally()
		policy.AllowElements("section", "span", "div")
		overridePolicy = policy
	})
	return overridePolicy
}
