package recurrence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/core/internal/domain/entities"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func TestNextOccurrence_Daily(t *testing.T) {
	next, ok := NextOccurrence(mustTime(t, "2024-03-15T09:00:00Z"), entities.RecurrenceDaily, "09:00", 0)
	require.True(t, ok)
	assert.Equal(t, mustTime(t, "2024-03-16T09:00:00Z"), next)
}

func TestNextOccurrence_Weekly(t *testing.T) {
	next, ok := NextOccurrence(mustTime(t, "2024-03-15T00:00:00Z"), entities.RecurrenceWeekly, "14:30", 0)
	require.True(t, ok)
	assert.Equal(t, mustTime(t, "2024-03-22T14:30:00Z"), next)
}

func TestNextOccurrence_MonthlyRollover(t *testing.T) {
	// Jan 31 has no counterpart in February; calendar normalization rolls
	// the occurrence into early March.
	next, ok := NextOccurrence(mustTime(t, "2024-01-31T08:00:00Z"), entities.RecurrenceMonthly, "08:00", 0)
	require.True(t, ok)
	assert.Equal(t, mustTime(t, "2024-03-02T08:00:00Z"), next)
}

func TestNextOccurrence_Monthly(t *testing.T) {
	next, ok := NextOccurrence(mustTime(t, "2024-04-10T12:00:00Z"), entities.RecurrenceMonthly, "07:15", 0)
	require.True(t, ok)
	assert.Equal(t, mustTime(t, "2024-05-10T07:15:00Z"), next)
}

func TestNextOccurrence_CustomInterval(t *testing.T) {
	next, ok := NextOccurrence(mustTime(t, "2024-03-01T10:00:00Z"), entities.RecurrenceCustom, "10:00", 3)
	require.True(t, ok)
	assert.Equal(t, mustTime(t, "2024-03-04T10:00:00Z"), next)
}

func TestNextOccurrence_CustomDefaultsToSevenDays(t *testing.T) {
	for _, interval := range []int{0, -5} {
		next, ok := NextOccurrence(mustTime(t, "2024-03-01T10:00:00Z"), entities.RecurrenceCustom, "10:00", interval)
		require.True(t, ok)
		assert.Equal(t, mustTime(t, "2024-03-08T10:00:00Z"), next)
	}
}

func TestNextOccurrence_AnchorsTimeOfDay(t *testing.T) {
	// Whatever time the reference carries, the occurrence lands on the
	// configured HH:MM with zero seconds.
	next, ok := NextOccurrence(mustTime(t, "2024-03-15T23:59:59Z"), entities.RecurrenceDaily, "06:45", 0)
	require.True(t, ok)
	assert.Equal(t, mustTime(t, "2024-03-16T06:45:00Z"), next)
	assert.Zero(t, next.Second())
	assert.Zero(t, next.Nanosecond())
}

func TestNextOccurrence_PreservesLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	ref := time.Date(2024, 3, 15, 9, 0, 0, 0, loc)
	next, ok := NextOccurrence(ref, entities.RecurrenceDaily, "09:00", 0)
	require.True(t, ok)
	assert.Equal(t, loc, next.Location())
}

func TestNextOccurrence_UnknownType(t *testing.T) {
	_, ok := NextOccurrence(mustTime(t, "2024-03-15T09:00:00Z"), entities.RecurrenceType("yearly"), "09:00", 0)
	assert.False(t, ok)
}

func TestNextOccurrence_ZeroReference(t *testing.T) {
	_, ok := NextOccurrence(time.Time{}, entities.RecurrenceDaily, "09:00", 0)
	assert.False(t, ok)
}

func TestNextOccurrence_MalformedTimeOfDay(t *testing.T) {
	for _, timeOfDay := range []string{"", "9", "25:00", "09:60", "ab:cd", "09:00:00extra"} {
		_, ok := NextOccurrence(mustTime(t, "2024-03-15T09:00:00Z"), entities.RecurrenceDaily, timeOfDay, 0)
		assert.False(t, ok, "timeOfDay=%q", timeOfDay)
	}
}

func TestNextOccurrence_IsPure(t *testing.T) {
	ref := mustTime(t, "2024-03-15T09:00:00Z")
	first, ok := NextOccurrence(ref, entities.RecurrenceWeekly, "14:30", 0)
	require.True(t, ok)
	second, ok := NextOccurrence(ref, entities.RecurrenceWeekly, "14:30", 0)
	require.True(t, ok)
	assert.Equal(t, first, second)
	assert.Equal(t, mustTime(t, "2024-03-15T09:00:00Z"), ref)
}

func TestDerive_NonRecurring(t *testing.T) {
	assert.Nil(t, Derive(DeriveInput{Recurring: false, Type: entities.RecurrenceDaily, Time: "09:00", DueDate: time.Now()}))
}

func TestDerive_MissingDueDate(t *testing.T) {
	assert.Nil(t, Derive(DeriveInput{Recurring: true, Type: entities.RecurrenceDaily, Time: "09:00"}))
}

func TestDerive_Weekly(t *testing.T) {
	rec := Derive(DeriveInput{
		Recurring: true,
		Type:      entities.RecurrenceWeekly,
		Time:      "14:30",
		DueDate:   mustTime(t, "2024-03-15T00:00:00Z"),
	})
	require.NotNil(t, rec)
	assert.Equal(t, entities.RecurrenceWeekly, rec.Type)
	assert.Equal(t, "14:30", rec.Time)
	assert.Nil(t, rec.Interval)
	require.NotNil(t, rec.NextDue)
	assert.Equal(t, mustTime(t, "2024-03-22T14:30:00Z"), *rec.NextDue)
}

func TestDerive_IntervalOnlyKeptForCustom(t *testing.T) {
	interval := 3

	rec := Derive(DeriveInput{
		Recurring: true,
		Type:      entities.RecurrenceDaily,
		Time:      "09:00",
		Interval:  &interval,
		DueDate:   mustTime(t, "2024-03-15T00:00:00Z"),
	})
	require.NotNil(t, rec)
	assert.Nil(t, rec.Interval)

	rec = Derive(DeriveInput{
		Recurring: true,
		Type:      entities.RecurrenceCustom,
		Time:      "09:00",
		Interval:  &interval,
		DueDate:   mustTime(t, "2024-03-15T00:00:00Z"),
	})
	require.NotNil(t, rec)
	require.NotNil(t, rec.Interval)
	assert.Equal(t, 3, *rec.Interval)
	require.NotNil(t, rec.NextDue)
	assert.Equal(t, mustTime(t, "2024-03-18T09:00:00Z"), *rec.NextDue)
}

func TestDerive_UnknownTypeKeepsRuleWithoutNextDue(t *testing.T) {
	rec := Derive(DeriveInput{
		Recurring: true,
		Type:      entities.RecurrenceType("yearly"),
		Time:      "09:00",
		DueDate:   mustTime(t, "2024-03-15T00:00:00Z"),
	})
	require.NotNil(t, rec)
	assert.Nil(t, rec.NextDue)
}

func recurringTask(t *testing.T, nextDue time.Time) *entities.Task {
	t.Helper()
	assignee := uuid.New()
	return &entities.Task{
		ID:          uuid.New(),
		Title:       "Water the plants",
		Status:      entities.TaskStatusCompleted,
		Priority:    entities.PriorityMedium,
		Tags:        pq.StringArray{"home", "weekly"},
		AssigneeID:  &assignee,
		CreatorID:   assignee,
		InputMethod: entities.InputMethodManual,
		Recurring:   true,
		Recurrence: &entities.Recurrence{
			Type:    entities.RecurrenceWeekly,
			Time:    "14:30",
			NextDue: &nextDue,
		},
	}
}

func TestRegenerate_SpawnsWhenDue(t *testing.T) {
	nextDue := mustTime(t, "2024-03-22T14:30:00Z")
	task := recurringTask(t, nextDue)
	now := mustTime(t, "2024-03-23T08:00:00Z")

	next := Regenerate(task, now)
	require.NotNil(t, next)
	assert.Equal(t, entities.TaskStatusInProgress, next.Status)
	require.NotNil(t, next.DueDate)
	assert.Equal(t, nextDue, *next.DueDate)
	require.NotNil(t, next.ParentTaskID)
	assert.Equal(t, task.ID, *next.ParentTaskID)
	assert.Equal(t, task.Title, next.Title)
	assert.Equal(t, task.AssigneeID, next.AssigneeID)
	assert.True(t, next.Recurring)

	require.NotNil(t, next.Recurrence)
	require.NotNil(t, next.Recurrence.NextDue)
	assert.Equal(t, mustTime(t, "2024-03-29T14:30:00Z"), *next.Recurrence.NextDue)
}

func TestRegenerate_ExactlyAtNextDue(t *testing.T) {
	nextDue := mustTime(t, "2024-03-22T14:30:00Z")
	task := recurringTask(t, nextDue)

	next := Regenerate(task, nextDue)
	require.NotNil(t, next)
}

func TestRegenerate_NotYetDue(t *testing.T) {
	task := recurringTask(t, mustTime(t, "2024-03-22T14:30:00Z"))
	assert.Nil(t, Regenerate(task, mustTime(t, "2024-03-20T08:00:00Z")))
}

func TestRegenerate_NoRecurrence(t *testing.T) {
	task := recurringTask(t, mustTime(t, "2024-03-22T14:30:00Z"))
	task.Recurring = false
	task.Recurrence = nil
	assert.Nil(t, Regenerate(task, mustTime(t, "2024-03-23T08:00:00Z")))
	assert.Nil(t, Regenerate(nil, mustTime(t, "2024-03-23T08:00:00Z")))
}

func TestRegenerate_NilNextDueEndsLineage(t *testing.T) {
	task := recurringTask(t, time.Time{})
	task.Recurrence.NextDue = nil
	assert.Nil(t, Regenerate(task, mustTime(t, "2024-03-23T08:00:00Z")))
}

func TestRegenerate_UnknownTypeEndsChain(t *testing.T) {
	nextDue := mustTime(t, "2024-03-22T14:30:00Z")
	task := recurringTask(t, nextDue)
	task.Recurrence.Type = entities.RecurrenceType("yearly")

	next := Regenerate(task, mustTime(t, "2024-03-23T08:00:00Z"))
	require.NotNil(t, next)
	require.NotNil(t, next.Recurrence)
	assert.Nil(t, next.Recurrence.NextDue)
}

func TestRegenerate_DoesNotMutateOriginal(t *testing.T) {
	nextDue := mustTime(t, "2024-03-22T14:30:00Z")
	task := recurringTask(t, nextDue)

	next := Regenerate(task, mustTime(t, "2024-03-23T08:00:00Z"))
	require.NotNil(t, next)

	next.Tags[0] = "changed"
	assert.Equal(t, "home", task.Tags[0])
	assert.Equal(t, nextDue, *task.Recurrence.NextDue)
}
