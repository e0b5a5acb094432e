// Package htmlsanitize strips dangerous markup from user-supplied
// free-text fields (IVR notes) before storage.
package htmlsanitize

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// Sanitize removes scripts, event handlers, and other unsafe markup,
// keeping basic formatting tags. Plain text passes through unchanged.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()
	})
	return policy.Sanitize(s)
}
