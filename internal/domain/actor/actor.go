package actor

import (
	"context"
	"errors"
)

// Capability is a single resolved permission. Capabilities are resolved once
// per request at the HTTP edge and passed into core operations explicitly;
// business logic never re-derives them from role strings.
type Capability string

const (
	// Template catalog
	CapabilityTemplateManage Capability = "template.manage"
	CapabilityTemplateView   Capability = "template.view"

	// Schedules & assignments
	CapabilityScheduleManage  Capability = "schedule.manage"
	CapabilityScheduleView    Capability = "schedule.view"
	CapabilityAssignmentWrite Capability = "assignment.write"
	CapabilityAssignmentView  Capability = "assignment.view"
	CapabilitySelfCheckIn     Capability = "assignment.self_check_in"

	// Violations & explanations
	CapabilityViolationReview   Capability = "violation.review"
	CapabilityViolationView     Capability = "violation.view"
	CapabilityExplanationSubmit Capability = "explanation.submit"
	CapabilityEvidenceVerify    Capability = "evidence.verify"

	// Shift swaps
	CapabilitySwapRequest Capability = "swap.request"
	CapabilitySwapDecide  Capability = "swap.decide"
	CapabilitySwapView    Capability = "swap.view"

	// Payroll
	CapabilityPayrollCalculate Capability = "payroll.calculate"
	CapabilityPayrollApprove   Capability = "payroll.approve"
	CapabilityPayrollView      Capability = "payroll.view"
)

var (
	ErrActorMissing = errors.New("no actor resolved in context")

	// ErrForbidden signals the caller lacks the capability an operation
	// requires.
	ErrForbidden = errors.New("caller lacks the required capability")
)

// Actor is the already-authenticated caller identity consumed by every core
// operation. Identity resolution itself lives outside this system.
type Actor struct {
	UserID       string
	EmployeeID   string
	Capabilities []Capability
}

// Can reports whether the actor holds the given capability.
func (a Actor) Can(c Capability) bool {
	for _, held := range a.Capabilities {
		if held == c {
			return true
		}
	}
	return false
}

type ctxKey struct{}

// WithActor returns a context carrying the resolved actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext extracts the resolved actor from the context.
func FromContext(ctx context.Context) (Actor, error) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	if !ok {
		return Actor{}, ErrActorMissing
	}
	return a, nil
}
