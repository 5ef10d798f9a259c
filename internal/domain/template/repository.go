package template

import (
	"context"
	"time"
)

// TemplateRepository defines data access for shift templates.
type TemplateRepository interface {
	Create(ctx context.Context, tpl ShiftTemplate) (ShiftTemplate, error)

	GetByID(ctx context.Context, id string) (ShiftTemplate, error)

	Update(ctx context.Context, tpl ShiftTemplate) error

	// List retrieves templates, optionally restricted to active ones,
	// ordered by sort_order then name.
	List(ctx context.Context, activeOnly bool) ([]ShiftTemplate, error)

	// ListOverlapping retrieves active templates whose [start,end) clock
	// window overlaps the given one (half-open comparison on clock times).
	ListOverlapping(ctx context.Context, start, end time.Time) ([]ShiftTemplate, error)

	// ListOvertimeEligible retrieves active templates flagged for overtime.
	ListOvertimeEligible(ctx context.Context) ([]ShiftTemplate, error)
}
