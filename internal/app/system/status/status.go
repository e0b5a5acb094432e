// Package status centralizes record status values so stores and
// handlers compare against constants, not scattered string literals.
package status

// Account and hierarchy node statuses.
const (
	Active   = "active"
	Disabled = "disabled"
)

// IVR request lifecycle statuses.
const (
	IVRPending  = "pending"
	IVRInReview = "in_review"
	IVRVerified = "verified"
	IVRDenied   = "denied"
)

// AllIVR lists the IVR lifecycle statuses in lifecycle order.
var AllIVR = []string{IVRPending, IVRInReview, IVRVerified, IVRDenied}

// ValidIVR reports whether s is a known IVR lifecycle status.
func ValidIVR(s string) bool {
	switch s {
	case IVRPending, IVRInReview, IVRVerified, IVRDenied:
		return true
	}
	return false
}
