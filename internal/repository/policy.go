package repository

import (
	"fmt"

	"complaintdesk/internal/model"
)

// TransitionPolicy decides which status changes the repository accepts.
// Identity transitions never reach the policy.
type TransitionPolicy interface {
	Allow(from, to model.ComplaintStatus) bool
}

// ForwardOnly lets a complaint move along pending, in-progress, resolved,
// skipping steps but never going back.
type ForwardOnly struct{}

// Allow implements TransitionPolicy.
func (ForwardOnly) Allow(from, to model.ComplaintStatus) bool {
	return to.Rank() > from.Rank()
}

// Permissive accepts any change between valid statuses.
type Permissive struct{}

// Allow implements TransitionPolicy.
func (Permissive) Allow(_, to model.ComplaintStatus) bool {
	return to.Valid()
}

// PolicyByName maps the STATUS_POLICY setting to a policy.
func PolicyByName(name string) (TransitionPolicy, error) {
	switch name {
	case "", "forward-only":
		return ForwardOnly{}, nil
	case "permissive":
		return Permissive{}, nil
	default:
		return nil, fmt.Errorf("unknown status policy %q", name)
	}
}
