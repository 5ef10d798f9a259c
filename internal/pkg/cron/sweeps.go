package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/classboard/backoffice-go/internal/domain/assignment"
	"github.com/classboard/backoffice-go/internal/domain/schedule"
	"github.com/classboard/backoffice-go/internal/domain/swap"
	"github.com/classboard/backoffice-go/internal/domain/violation"
)

// SweepJobs bundles the periodic housekeeping sweeps. Each sweep is
// idempotent, so any external trigger cadence is safe.
type SweepJobs struct {
	assignmentSvc assignment.AssignmentService
	scheduleSvc   schedule.ScheduleService
	violationSvc  violation.ViolationService
	swapSvc       swap.SwapService

	archiveRetainDays  int
	detectLookbackDays int
}

func NewSweepJobs(
	assignmentSvc assignment.AssignmentService,
	scheduleSvc schedule.ScheduleService,
	violationSvc violation.ViolationService,
	swapSvc swap.SwapService,
	archiveRetainDays int,
	detectLookbackDays int,
) *SweepJobs {
	return &SweepJobs{
		assignmentSvc:      assignmentSvc,
		scheduleSvc:        scheduleSvc,
		violationSvc:       violationSvc,
		swapSvc:            swapSvc,
		archiveRetainDays:  archiveRetainDays,
		detectLookbackDays: detectLookbackDays,
	}
}

func (j *SweepJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("mark_no_shows", 15*time.Minute, j.MarkNoShows)
	scheduler.AddJob("detect_violations", 1*time.Hour, j.DetectViolations)
	scheduler.AddJob("expire_swap_requests", 1*time.Hour, j.ExpireSwapRequests)
	scheduler.AddJob("auto_archive_schedules", 24*time.Hour, j.AutoArchiveSchedules)
}

// MarkNoShows flips SCHEDULED assignments past their grace deadline to
// NO_SHOW.
func (j *SweepJobs) MarkNoShows(ctx context.Context) error {
	marked, err := j.assignmentSvc.MarkNoShows(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark no-shows: %w", err)
	}
	if marked > 0 {
		slog.Info("Cron: Marked no-show assignments", "count", marked)
	}
	return nil
}

// DetectViolations sweeps recently finished assignments for attendance
// rule breaches.
func (j *SweepJobs) DetectViolations(ctx context.Context) error {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -j.detectLookbackDays)

	result, err := j.violationSvc.DetectViolations(ctx, from, now)
	if err != nil {
		return fmt.Errorf("failed to detect violations: %w", err)
	}
	if len(result.Created) > 0 {
		slog.Info("Cron: Detected attendance violations",
			"inspected", result.Inspected,
			"created", len(result.Created))
	}
	return nil
}

// ExpireSwapRequests closes open swap requests whose earlier shift already
// began.
func (j *SweepJobs) ExpireSwapRequests(ctx context.Context) error {
	expired, err := j.swapSvc.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to expire swap requests: %w", err)
	}
	if expired > 0 {
		slog.Info("Cron: Expired swap requests", "count", expired)
	}
	return nil
}

// AutoArchiveSchedules retires PUBLISHED schedules that ended long ago.
func (j *SweepJobs) AutoArchiveSchedules(ctx context.Context) error {
	archived, err := j.scheduleSvc.AutoArchive(ctx, time.Now().UTC(), j.archiveRetainDays)
	if err != nil {
		return fmt.Errorf("failed to auto-archive schedules: %w", err)
	}
	if archived > 0 {
		slog.Info("Cron: Auto-archived schedules", "count", archived)
	}
	return nil
}
