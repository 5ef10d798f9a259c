package payroll

import "errors"

// Payroll domain errors
var (
	ErrPayrollNotFound = errors.New("payroll not found")
	ErrSalaryNotFound  = errors.New("base salary not found for employee")

	ErrInvalidTransition    = errors.New("invalid payroll status transition")
	ErrPayrollNotEditable   = errors.New("payroll is approved or paid and cannot be recalculated")
	ErrPayrollPaid          = errors.New("payroll is already paid")
	ErrCancelReasonRequired = errors.New("cancellation reason is required")
	ErrStaleState           = errors.New("payroll was modified concurrently")
)
