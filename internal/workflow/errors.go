package workflow

import (
	"fmt"
	"strings"

	"github.com/twxlab/twx/internal/models"
)

// PreconditionError is a domain failure of a workflow transition: the
// element is in the wrong status or approvals are missing. It maps to a
// 400 at the HTTP boundary, never a 500, and carries enough detail for a
// caller to render an actionable message.
type PreconditionError struct {
	Reason           string
	ElementStatus    models.ElementStatus
	MissingApprovals []models.ApprovalRole
}

func (e *PreconditionError) Error() string {
	if len(e.MissingApprovals) == 0 {
		return e.Reason
	}
	parts := make([]string, len(e.MissingApprovals))
	for i, r := range e.MissingApprovals {
		parts[i] = string(r)
	}
	return fmt.Sprintf("%s (missing: %s)", e.Reason, strings.Join(parts, ", "))
}

// Precondition reasons surfaced to clients.
const (
	ReasonNotInTransit     = "element is not in transit"
	ReasonMissingApprovals = "transfer is not fully approved"
)
