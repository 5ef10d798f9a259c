package template

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/domain/template"
	"github.com/classboard/backoffice-go/internal/pkg/validator"
	"github.com/classboard/backoffice-go/internal/repository/memory"
)

var manager = actor.Actor{
	UserID:       "user-mgr",
	Capabilities: []actor.Capability{actor.CapabilityTemplateManage},
}

func newTestService() (template.TemplateService, *memory.TemplateRepository) {
	repo := memory.NewTemplateRepository()
	return NewTemplateService(repo), repo
}

func TestTemplateService_Create_Success(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.CreateTemplate(ctx, manager, template.CreateTemplateRequest{
		Name:             "Morning Shift",
		StartTime:        "08:00",
		EndTime:          "16:00",
		HasBreak:         true,
		BreakMinutes:     60,
		OvertimeEligible: true,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Morning Shift", created.Name)
	assert.Equal(t, "08:00", created.StartTime)
	assert.Equal(t, "16:00", created.EndTime)
	assert.Equal(t, 420, created.RegularMinutes)
	assert.True(t, created.Active)
}

func TestTemplateService_Create_Forbidden(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService()

	viewer := actor.Actor{UserID: "user-view", Capabilities: []actor.Capability{actor.CapabilityTemplateView}}
	_, err := svc.CreateTemplate(ctx, viewer, template.CreateTemplateRequest{
		Name:      "Morning Shift",
		StartTime: "08:00",
		EndTime:   "16:00",
	})
	assert.ErrorIs(t, err, actor.ErrForbidden)
}

func TestTemplateService_Create_RejectsInvertedWindow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.CreateTemplate(ctx, manager, template.CreateTemplateRequest{
		Name:      "Night Shift",
		StartTime: "22:00",
		EndTime:   "06:00",
	})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "end_time", verrs[0].Field)
}

func TestTemplateService_Create_RejectsBreakLongerThanWindow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.CreateTemplate(ctx, manager, template.CreateTemplateRequest{
		Name:         "Short Shift",
		StartTime:    "08:00",
		EndTime:      "09:00",
		HasBreak:     true,
		BreakMinutes: 90,
	})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "break_minutes", verrs[0].Field)
}

func TestTemplateService_Create_DuplicateName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService()

	req := template.CreateTemplateRequest{
		Name:      "Morning Shift",
		StartTime: "08:00",
		EndTime:   "16:00",
	}
	_, err := svc.CreateTemplate(ctx, manager, req)
	require.NoError(t, err)

	_, err = svc.CreateTemplate(ctx, manager, req)
	assert.ErrorIs(t, err, template.ErrTemplateNameExists)
}

func TestTemplateService_Update_MergedResultRevalidated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.CreateTemplate(ctx, manager, template.CreateTemplateRequest{
		Name:      "Morning Shift",
		StartTime: "08:00",
		EndTime:   "16:00",
	})
	require.NoError(t, err)

	// Moving start past end must fail even though each field alone is valid.
	newStart := "17:00"
	_, err = svc.UpdateTemplate(ctx, manager, template.UpdateTemplateRequest{
		ID:        created.ID,
		StartTime: &newStart,
	})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestTemplateService_Update_ClearingBreakResetsMinutes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.CreateTemplate(ctx, manager, template.CreateTemplateRequest{
		Name:         "Morning Shift",
		StartTime:    "08:00",
		EndTime:      "16:00",
		HasBreak:     true,
		BreakMinutes: 60,
	})
	require.NoError(t, err)

	noBreak := false
	updated, err := svc.UpdateTemplate(ctx, manager, template.UpdateTemplateRequest{
		ID:       created.ID,
		HasBreak: &noBreak,
	})
	require.NoError(t, err)

	assert.False(t, updated.HasBreak)
	assert.Equal(t, 0, updated.BreakMinutes)
	assert.Equal(t, 480, updated.RegularMinutes)
}

func TestTemplateService_Deactivate_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.CreateTemplate(ctx, manager, template.CreateTemplateRequest{
		Name:      "Morning Shift",
		StartTime: "08:00",
		EndTime:   "16:00",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateTemplate(ctx, manager, created.ID))
	require.NoError(t, svc.DeactivateTemplate(ctx, manager, created.ID))

	got, err := svc.GetTemplate(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestTemplateService_List_ActiveOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService()

	morning, err := svc.CreateTemplate(ctx, manager, template.CreateTemplateRequest{
		Name:      "Morning Shift",
		StartTime: "08:00",
		EndTime:   "16:00",
		SortOrder: 1,
	})
	require.NoError(t, err)
	_, err = svc.CreateTemplate(ctx, manager, template.CreateTemplateRequest{
		Name:      "Evening Shift",
		StartTime: "14:00",
		EndTime:   "22:00",
		SortOrder: 2,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateTemplate(ctx, manager, morning.ID))

	active, err := svc.ListTemplates(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Evening Shift", active[0].Name)

	all, err := svc.ListTemplates(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTemplateService_ListOverlapping(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.CreateTemplate(ctx, manager, template.CreateTemplateRequest{
		Name:      "Morning Shift",
		StartTime: "08:00",
		EndTime:   "12:00",
	})
	require.NoError(t, err)
	_, err = svc.CreateTemplate(ctx, manager, template.CreateTemplateRequest{
		Name:      "Afternoon Shift",
		StartTime: "12:00",
		EndTime:   "18:00",
	})
	require.NoError(t, err)

	// 10:00-12:00 touches the afternoon shift boundary and must not match it.
	overlapping, err := svc.ListOverlapping(ctx,
		clock(t, "10:00"), clock(t, "12:00"))
	require.NoError(t, err)
	require.Len(t, overlapping, 1)
	assert.Equal(t, "Morning Shift", overlapping[0].Name)
}

func clock(t *testing.T, value string) time.Time {
	t.Helper()
	v, ok := validator.IsValidClockTime(value)
	require.True(t, ok)
	return v
}
