// Package absence is the read-side contract to the leave system. Scheduling
// only needs to know which days an employee is approved to be away.
package absence

import (
	"context"
	"time"
)

// ApprovedAbsence is one approved leave covering a date range, inclusive on
// both ends. It blocks the whole day for scheduling.
type ApprovedAbsence struct {
	ID         string
	EmployeeID string
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
}

// Covers reports whether the absence includes the given date.
func (a ApprovedAbsence) Covers(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	return !d.Before(a.StartDate) && !d.After(a.EndDate)
}

// Repository reads approved absences.
type Repository interface {
	// ListApprovedByEmployeeAndDate returns the approved absences covering
	// the date for the employee.
	ListApprovedByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) ([]ApprovedAbsence, error)
}
