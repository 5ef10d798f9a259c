package template

import (
	"context"
	"time"

	"github.com/classboard/backoffice-go/internal/domain/actor"
)

// TemplateService defines business logic for the shift template catalog.
type TemplateService interface {
	// CreateTemplate creates a new active template.
	CreateTemplate(ctx context.Context, caller actor.Actor, req CreateTemplateRequest) (TemplateResponse, error)

	// UpdateTemplate edits a template. Edits never mutate existing
	// assignments, which carry their own derived planned windows.
	UpdateTemplate(ctx context.Context, caller actor.Actor, req UpdateTemplateRequest) (TemplateResponse, error)

	// DeactivateTemplate hides the template from new scheduling. Past
	// assignments are untouched.
	DeactivateTemplate(ctx context.Context, caller actor.Actor, id string) error

	GetTemplate(ctx context.Context, id string) (TemplateResponse, error)

	ListTemplates(ctx context.Context, activeOnly bool) ([]TemplateResponse, error)

	// ListOverlapping lists active templates whose clock windows overlap
	// [start,end); used for cross-template overlap warnings.
	ListOverlapping(ctx context.Context, start, end time.Time) ([]TemplateResponse, error)

	ListOvertimeEligible(ctx context.Context) ([]TemplateResponse, error)
}
