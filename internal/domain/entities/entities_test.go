package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecurrence_WireShape(t *testing.T) {
	nextDue := time.Date(2024, 3, 22, 14, 30, 0, 0, time.UTC)
	interval := 3

	rec := &Recurrence{
		Type:     RecurrenceCustom,
		Time:     "14:30",
		Interval: &interval,
		NextDue:  &nextDue,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"custom","time":"14:30","interval":3,"nextDue":"2024-03-22T14:30:00Z"}`, string(data))
}

func TestRecurrence_WireShapeOmitsInterval(t *testing.T) {
	// Non-custom rules never serialize an interval, and a terminated lineage
	// keeps an explicit nextDue null.
	rec := &Recurrence{Type: RecurrenceWeekly, Time: "09:00"}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"weekly","time":"09:00","nextDue":null}`, string(data))
}

func TestRecurrence_ValueAndScan(t *testing.T) {
	nextDue := time.Date(2024, 3, 22, 14, 30, 0, 0, time.UTC)
	rec := &Recurrence{Type: RecurrenceWeekly, Time: "14:30", NextDue: &nextDue}

	value, err := rec.Value()
	require.NoError(t, err)

	var got Recurrence
	require.NoError(t, got.Scan(value))
	assert.Equal(t, rec.Type, got.Type)
	assert.Equal(t, rec.Time, got.Time)
	require.NotNil(t, got.NextDue)
	assert.True(t, nextDue.Equal(*got.NextDue))
}

func TestRecurrence_ScanLegacyNextDueShapes(t *testing.T) {
	// Stored documents predating this service carry nextDue as unix seconds
	// or as a {"seconds": …} wrapper; both decode to the same instant.
	for _, raw := range []string{
		`{"type":"weekly","time":"14:30","nextDue":1710513000}`,
		`{"type":"weekly","time":"14:30","nextDue":{"seconds":1710513000,"nanoseconds":0}}`,
		`{"type":"weekly","time":"14:30","nextDue":"2024-03-15T14:30:00Z"}`,
	} {
		var got Recurrence
		require.NoError(t, got.Scan([]byte(raw)), "raw=%s", raw)
		require.NotNil(t, got.NextDue, "raw=%s", raw)
		assert.True(t, time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC).Equal(*got.NextDue), "raw=%s", raw)
	}

	// Unrecognizable nextDue ends the lineage rather than failing the row.
	var got Recurrence
	require.NoError(t, got.Scan([]byte(`{"type":"weekly","time":"14:30","nextDue":"soon"}`)))
	assert.Nil(t, got.NextDue)
}

func TestRecurrence_NilValue(t *testing.T) {
	var rec *Recurrence
	value, err := rec.Value()
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestRecurrence_IntervalDays(t *testing.T) {
	three := 3
	zero := 0

	assert.Equal(t, 3, (&Recurrence{Interval: &three}).IntervalDays())
	assert.Equal(t, DefaultCustomInterval, (&Recurrence{Interval: &zero}).IntervalDays())
	assert.Equal(t, DefaultCustomInterval, (&Recurrence{}).IntervalDays())
}

func TestTask_Complete(t *testing.T) {
	task := &Task{Status: TaskStatusPending}
	now := time.Now()

	require.NoError(t, task.Complete(now))
	assert.Equal(t, TaskStatusCompleted, task.Status)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, now, *task.CompletedAt)

	err := task.Complete(now)
	assert.ErrorIs(t, err, ErrTaskAlreadyCompleted)
}

func TestTask_IsOverdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, (&Task{Status: TaskStatusPending, DueDate: &past}).IsOverdue(now))
	assert.False(t, (&Task{Status: TaskStatusPending, DueDate: &future}).IsOverdue(now))
	assert.False(t, (&Task{Status: TaskStatusCompleted, DueDate: &past}).IsOverdue(now))
	assert.False(t, (&Task{Status: TaskStatusPending}).IsOverdue(now))
}

func TestTask_IsRecurring(t *testing.T) {
	assert.False(t, (&Task{Recurring: true}).IsRecurring())
	assert.False(t, (&Task{Recurrence: &Recurrence{Type: RecurrenceDaily}}).IsRecurring())
	assert.True(t, (&Task{Recurring: true, Recurrence: &Recurrence{Type: RecurrenceDaily}}).IsRecurring())
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, TaskStatusInProgress.IsValid())
	assert.False(t, TaskStatus("archived").IsValid())

	assert.True(t, RecurrenceCustom.IsValid())
	assert.False(t, RecurrenceType("yearly").IsValid())

	assert.True(t, PriorityHigh.IsValid())
	assert.False(t, Priority("urgent").IsValid())

	assert.True(t, InputMethodVoice.IsValid())
	assert.False(t, InputMethod("sms").IsValid())
}

func TestUser_Permissions(t *testing.T) {
	teamID := uuid.New()
	otherTeam := uuid.New()

	member := &User{Plan: PlanPremium, Role: UserRoleMember, IsActive: true, TeamID: &teamID}
	assert.True(t, member.IsPremium())
	assert.True(t, member.CanViewTeamDashboard(teamID))
	assert.False(t, member.CanViewTeamDashboard(otherTeam))

	admin := &User{Plan: PlanFree, Role: UserRoleAdmin, IsActive: true}
	assert.False(t, admin.IsPremium())
	assert.True(t, admin.CanViewTeamDashboard(teamID))

	inactive := &User{Plan: PlanPremium, Role: UserRoleMember, TeamID: &teamID}
	assert.False(t, inactive.CanViewTeamDashboard(teamID))
}
