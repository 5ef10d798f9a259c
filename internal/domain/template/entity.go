package template

import "time"

// ShiftTemplate is a reusable definition of a shift's time window. Start and
// end are clock times within a single day (templates never span midnight);
// only the hour/minute components are meaningful.
type ShiftTemplate struct {
	ID               string
	Name             string
	StartTime        time.Time
	EndTime          time.Time
	HasBreak         bool
	BreakMinutes     int
	OvertimeEligible bool
	Active           bool
	SortOrder        int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// RegularMinutes is the paid working duration of the shift: the window length
// minus the unpaid break.
func (t ShiftTemplate) RegularMinutes() int {
	total := int(t.windowDuration().Minutes())
	if t.HasBreak {
		total -= t.BreakMinutes
	}
	return total
}

// WindowMinutes is the full planned window length, break included.
func (t ShiftTemplate) WindowMinutes() int {
	return int(t.windowDuration().Minutes())
}

func (t ShiftTemplate) windowDuration() time.Duration {
	start := clockOf(t.StartTime)
	end := clockOf(t.EndTime)
	return end.Sub(start)
}

// StartOn/EndOn anchor the template's clock times onto a concrete date.
func (t ShiftTemplate) StartOn(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		t.StartTime.Hour(), t.StartTime.Minute(), 0, 0, date.Location())
}

func (t ShiftTemplate) EndOn(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		t.EndTime.Hour(), t.EndTime.Minute(), 0, 0, date.Location())
}

func clockOf(t time.Time) time.Time {
	return time.Date(0, 1, 1, t.Hour(), t.Minute(), 0, 0, time.UTC)
}
