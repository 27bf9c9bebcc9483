package services

import (
	"strings"
	"time"

	"github.com/taskloop/core/internal/domain/entities"
	"github.com/taskloop/core/internal/domain/recurrence"
	"github.com/taskloop/core/internal/ports"
)

// CaptureService turns a voice transcript into a draft task. Speech-to-text
// happens on the client; this side only cleans the transcript and pulls out
// the fields it can recognize by keyword.
type CaptureService struct {
	clock recurrence.Clock
}

// NewCaptureService creates a new capture service
func NewCaptureService(clock recurrence.Clock) *CaptureService {
	if clock == nil {
		clock = recurrence.SystemClock{}
	}
	return &CaptureService{clock: clock}
}

// Leading command phrases stripped before the title is taken.
var capturePrefixes = []string{
	"add a task to",
	"add task to",
	"add a task",
	"add task",
	"create a task to",
	"create task",
	"new task",
	"remind me to",
	"remember to",
	"i need to",
	"to do",
	"todo",
}

// Checked in order: negated phrases come before the words they contain,
// so "not urgent" never reads as urgent.
var priorityKeywords = []struct {
	phrase   string
	priority entities.Priority
}{
	{"not urgent", entities.PriorityLow},
	{"no rush", entities.PriorityLow},
	{"low priority", entities.PriorityLow},
	{"whenever", entities.PriorityLow},
	{"high priority", entities.PriorityHigh},
	{"urgent", entities.PriorityHigh},
	{"important", entities.PriorityHigh},
	{"asap", entities.PriorityHigh},
}

// Parse extracts a draft task from a transcript. It always succeeds; an
// unrecognizable transcript becomes a medium-priority task whose title is
// the cleaned transcript itself.
func (s *CaptureService) Parse(req ports.CaptureRequest) ports.CreateTaskRequest {
	text := strings.TrimSpace(strings.ToLower(req.Transcript))

	priority := entities.PriorityMedium
	for _, kw := range priorityKeywords {
		if strings.Contains(text, kw.phrase) {
			priority = kw.priority
			text = strings.ReplaceAll(text, kw.phrase, "")
			break
		}
	}

	var dueDate *time.Time
	now := s.clock.Now()
	switch {
	case strings.Contains(text, "tomorrow"):
		due := endOfDay(now.AddDate(0, 0, 1))
		dueDate = &due
		text = strings.ReplaceAll(text, "tomorrow", "")
	case strings.Contains(text, "today"):
		due := endOfDay(now)
		dueDate = &due
		text = strings.ReplaceAll(text, "today", "")
	case strings.Contains(text, "next week"):
		due := endOfDay(now.AddDate(0, 0, 7))
		dueDate = &due
		text = strings.ReplaceAll(text, "next week", "")
	}

	for _, prefix := range capturePrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			break
		}
	}

	title := strings.TrimSpace(strings.Trim(strings.TrimSpace(text), ".,!?"))
	if title == "" {
		title = strings.TrimSpace(req.Transcript)
	}

	return ports.CreateTaskRequest{
		Title:       title,
		Priority:    priority,
		InputMethod: entities.InputMethodVoice,
		DueDate:     dueDate,
	}
}

func endOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 23, 59, 0, 0, t.Location())
}
