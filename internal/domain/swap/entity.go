package swap

import "time"

type Status string

const (
	// StatusPending awaits the target employee's response.
	StatusPending Status = "PENDING"
	// StatusAccepted means the target agreed; a manager decision is next.
	StatusAccepted Status = "ACCEPTED"
	// StatusRejected means the target declined the swap.
	StatusRejected Status = "REJECTED"
	// StatusApproved means a manager approved and the shifts were exchanged.
	StatusApproved Status = "APPROVED"
	// StatusDeclined means a manager turned the swap down.
	StatusDeclined Status = "DECLINED"
	// StatusCancelled means the requester withdrew the request.
	StatusCancelled Status = "CANCELLED"
	// StatusExpired means no decision landed before the earlier shift began.
	StatusExpired Status = "EXPIRED"
)

var StatusValues = []string{
	string(StatusPending),
	string(StatusAccepted),
	string(StatusRejected),
	string(StatusApproved),
	string(StatusDeclined),
	string(StatusCancelled),
	string(StatusExpired),
}

// Open reports whether the request can still advance. Only PENDING and
// ACCEPTED requests block new swaps on the same assignments.
func (s Status) Open() bool {
	return s == StatusPending || s == StatusAccepted
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

var PriorityValues = []string{
	string(PriorityLow),
	string(PriorityMedium),
	string(PriorityHigh),
}

// SwapRequest is one employee's offer to trade an upcoming shift with a
// colleague. It moves through two gates: the target employee accepts or
// rejects, then a manager approves or declines. Approval is the point where
// the two assignments actually exchange employees.
type SwapRequest struct {
	ID string

	RequesterID           string
	TargetEmployeeID      string
	RequesterAssignmentID string
	TargetAssignmentID    string

	Status    Status
	Priority  Priority
	Reason    string
	Emergency bool

	TargetReason      *string
	TargetRespondedAt *time.Time

	DecidedBy     *string
	DecidedAt     *time.Time
	DecisionNotes *string

	// ExpiresAt is the earlier of the two planned shift starts; an
	// undecided request past this moment can no longer be executed.
	ExpiresAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
