// Package recurrence computes the next occurrence of a recurring task from
// its rule and regenerates the follow-up instance when a recurring task is
// completed. All functions are pure: no I/O, no mutation of inputs, and no
// panics. Failure states are reported through ok=false / nil results so call
// sites can fall back without crashing the request path.
package recurrence

import (
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/taskloop/core/internal/domain/entities"
)

// NextOccurrence returns the occurrence one period after ref, anchored to the
// configured HH:MM time of day (seconds and nanoseconds zeroed, ref location
// preserved). It returns ok=false when ref is the zero time, the rule type is
// unknown, or timeOfDay does not parse as a 24-hour HH:MM string.
//
// Monthly advancement uses time.AddDate calendar normalization: a day-of-month
// the target month lacks rolls over into the following month (Jan 31 → Mar 2
// or Mar 3). See the package tests for the pinned behavior.
func NextOccurrence(ref time.Time, typ entities.RecurrenceType, timeOfDay string, interval int) (time.Time, bool) {
	if ref.IsZero() {
		return time.Time{}, false
	}

	hour, minute, ok := parseTimeOfDay(timeOfDay)
	if !ok {
		return time.Time{}, false
	}

	// Anchor the time of day before advancing so the occurrence lands on the
	// configured clock time regardless of the time carried by ref.
	working := time.Date(ref.Year(), ref.Month(), ref.Day(), hour, minute, 0, 0, ref.Location())

	switch typ {
	case entities.RecurrenceDaily:
		return working.AddDate(0, 0, 1), true
	case entities.RecurrenceWeekly:
		return working.AddDate(0, 0, 7), true
	case entities.RecurrenceMonthly:
		return working.AddDate(0, 1, 0), true
	case entities.RecurrenceCustom:
		if interval < 1 {
			interval = entities.DefaultCustomInterval
		}
		return working.AddDate(0, 0, interval), true
	default:
		return time.Time{}, false
	}
}

// DeriveInput carries the form fields read at task-creation time.
type DeriveInput struct {
	Recurring bool
	Type      entities.RecurrenceType
	Time      string
	Interval  *int
	DueDate   time.Time
}

// Derive packages a recurrence rule with its computed next occurrence. It
// returns nil when the recurring flag is unset or the due date is missing,
// meaning "no recurrence data" rather than a partial object. A rule whose
// occurrence cannot be computed (unknown type, bad time) is still returned,
// with NextDue left nil.
func Derive(in DeriveInput) *entities.Recurrence {
	if !in.Recurring || in.DueDate.IsZero() {
		return nil
	}

	rec := &entities.Recurrence{
		Type: in.Type,
		Time: in.Time,
	}
	if in.Type == entities.RecurrenceCustom {
		rec.Interval = in.Interval
	}

	if next, ok := NextOccurrence(in.DueDate, in.Type, in.Time, rec.IntervalDays()); ok {
		rec.NextDue = &next
	}
	return rec
}

// Regenerate produces the follow-up instance for a completed recurring task.
// It returns nil when the task carries no usable rule, when NextDue is null
// (terminated lineage), or when NextDue is still in the future — occurrence
// generation is lazy, so nothing is spawned until the check finds a due
// occurrence in the past or present.
//
// The returned task copies the original's payload fields, starts in-progress,
// is due at the previous NextDue, and carries a rule whose NextDue is one
// further period ahead (nil when the rule type is unrecognized, ending the
// chain). The ID is left unset for the persistence layer; ParentTaskID points
// at the completed task so duplicate completion events can be deduplicated.
func Regenerate(task *entities.Task, now time.Time) *entities.Task {
	if task == nil || !task.IsRecurring() || task.Recurrence.NextDue == nil {
		return nil
	}

	nextDue := *task.Recurrence.NextDue
	if nextDue.After(now) {
		return nil
	}

	rec := &entities.Recurrence{
		Type:     task.Recurrence.Type,
		Time:     task.Recurrence.Time,
		Interval: task.Recurrence.Interval,
	}
	if second, ok := NextOccurrence(nextDue, rec.Type, rec.Time, rec.IntervalDays()); ok {
		rec.NextDue = &second
	}

	parentID := task.ID
	due := nextDue
	return &entities.Task{
		TeamID:       task.TeamID,
		ParentTaskID: &parentID,
		Title:        task.Title,
		Description:  task.Description,
		Status:       entities.TaskStatusInProgress,
		Priority:     task.Priority,
		Tags:         cloneTags(task.Tags),
		AssigneeID:   task.AssigneeID,
		CreatorID:    task.CreatorID,
		InputMethod:  task.InputMethod,
		DueDate:      &due,
		Recurring:    true,
		Recurrence:   rec,
	}
}

func cloneTags(tags pq.StringArray) pq.StringArray {
	if tags == nil {
		return nil
	}
	out := make(pq.StringArray, len(tags))
	copy(out, tags)
	return out
}

// parseTimeOfDay parses a strict 24-hour "HH:MM" string.
func parseTimeOfDay(s string) (hour, minute int, ok bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}

	minute, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}

	return hour, minute, true
}
