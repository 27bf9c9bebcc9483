package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/core/internal/domain/entities"
	"github.com/taskloop/core/internal/domain/recurrence"
	"github.com/taskloop/core/internal/ports"
)

func newTestCaptureService(now time.Time) *CaptureService {
	return NewCaptureService(recurrence.FixedClock{T: now})
}

func TestCaptureParse_StripsCommandPrefix(t *testing.T) {
	svc := newTestCaptureService(time.Now())

	draft := svc.Parse(ports.CaptureRequest{Transcript: "Remind me to water the plants"})
	assert.Equal(t, "water the plants", draft.Title)
	assert.Equal(t, entities.PriorityMedium, draft.Priority)
	assert.Equal(t, entities.InputMethodVoice, draft.InputMethod)
	assert.Nil(t, draft.DueDate)
}

func TestCaptureParse_HighPriority(t *testing.T) {
	svc := newTestCaptureService(time.Now())

	draft := svc.Parse(ports.CaptureRequest{Transcript: "add a task to send the invoice, urgent"})
	assert.Equal(t, entities.PriorityHigh, draft.Priority)
	assert.Equal(t, "send the invoice", draft.Title)
}

func TestCaptureParse_LowPriority(t *testing.T) {
	svc := newTestCaptureService(time.Now())

	draft := svc.Parse(ports.CaptureRequest{Transcript: "new task tidy the desk, no rush"})
	assert.Equal(t, entities.PriorityLow, draft.Priority)
	assert.Equal(t, "tidy the desk", draft.Title)
}

func TestCaptureParse_NegatedUrgencyIsLow(t *testing.T) {
	svc := newTestCaptureService(time.Now())

	// "not urgent" contains "urgent"; the negation must win every time.
	for i := 0; i < 50; i++ {
		draft := svc.Parse(ports.CaptureRequest{Transcript: "new task tidy the desk, not urgent"})
		require.Equal(t, entities.PriorityLow, draft.Priority)
		require.Equal(t, "tidy the desk", draft.Title)
	}
}

func TestCaptureParse_DueTomorrow(t *testing.T) {
	now := time.Date(2024, 3, 23, 9, 0, 0, 0, time.UTC)
	svc := newTestCaptureService(now)

	draft := svc.Parse(ports.CaptureRequest{Transcript: "remind me to file the report tomorrow"})
	require.NotNil(t, draft.DueDate)
	assert.Equal(t, time.Date(2024, 3, 24, 23, 59, 0, 0, time.UTC), *draft.DueDate)
	assert.Equal(t, "file the report", draft.Title)
}

func TestCaptureParse_DueToday(t *testing.T) {
	now := time.Date(2024, 3, 23, 9, 0, 0, 0, time.UTC)
	svc := newTestCaptureService(now)

	draft := svc.Parse(ports.CaptureRequest{Transcript: "I need to call the dentist today"})
	require.NotNil(t, draft.DueDate)
	assert.Equal(t, time.Date(2024, 3, 23, 23, 59, 0, 0, time.UTC), *draft.DueDate)
}

func TestCaptureParse_NextWeek(t *testing.T) {
	now := time.Date(2024, 3, 23, 9, 0, 0, 0, time.UTC)
	svc := newTestCaptureService(now)

	draft := svc.Parse(ports.CaptureRequest{Transcript: "create a task to review the budget next week"})
	require.NotNil(t, draft.DueDate)
	assert.Equal(t, time.Date(2024, 3, 30, 23, 59, 0, 0, time.UTC), *draft.DueDate)
}

func TestCaptureParse_UnrecognizableFallsBackToTranscript(t *testing.T) {
	svc := newTestCaptureService(time.Now())

	draft := svc.Parse(ports.CaptureRequest{Transcript: "mumble mumble"})
	assert.Equal(t, "mumble mumble", draft.Title)
	assert.Equal(t, entities.PriorityMedium, draft.Priority)

	// A transcript that is nothing but command words still yields a title.
	draft = svc.Parse(ports.CaptureRequest{Transcript: "Add a task"})
	assert.NotEmpty(t, draft.Title)
}
