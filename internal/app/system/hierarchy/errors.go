// internal/app/system/hierarchy/errors.go
package hierarchy

import "errors"

// Resolution errors. These indicate a data or deployment defect and are
// surfaced to the caller unretried; none of them may degrade into an
// empty (or full) visibility scope.
var (
	// ErrUnknownUser means the directory has no entry for the user id.
	// Callers must render an explicit "no access data" state, not an
	// empty list.
	ErrUnknownUser = errors.New("hierarchy: no directory entry for user")

	// ErrMalformedHierarchy means a cycle, duplicate node, or multi-parent
	// condition was detected during traversal. The resolution is abandoned;
	// no partial result is returned.
	ErrMalformedHierarchy = errors.New("hierarchy: malformed hierarchy")

	// ErrMissingAnchor means the user record lacks the hierarchy anchor
	// its role requires (e.g. a distributor with no distributor node).
	ErrMissingAnchor = errors.New("hierarchy: user is missing the hierarchy anchor for its role")

	// ErrUnsupportedRole means the user's role is not in the visibility
	// table. New roles are added to the table deliberately; they are never
	// default-handled.
	ErrUnsupportedRole = errors.New("hierarchy: unsupported role")
)
