package entities

import (
	"encoding/json"
	"math"
	"time"
)

// Stored nextDue values predate this service and arrive in several shapes:
// native times, RFC3339 or bare date-time strings, unix seconds or
// milliseconds, and document-store timestamp wrappers serialized as
// {"seconds": …, "nanoseconds": …} maps. NormalizeTimestamp is the single
// place that union is resolved; call sites never type-sniff themselves.
func NormalizeTimestamp(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t, true
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case string:
		return parseTimeString(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromUnix(f)
	case float64:
		return fromUnix(t)
	case int64:
		return fromUnix(float64(t))
	case int:
		return fromUnix(float64(t))
	case map[string]interface{}:
		return fromWrapper(t)
	default:
		return time.Time{}, false
	}
}

func parseTimeString(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// fromUnix treats values past the year-3000 second range as milliseconds.
func fromUnix(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return time.Time{}, false
	}
	const msThreshold = 32503680000 // 3000-01-01 as unix seconds
	if f > msThreshold {
		sec := int64(f / 1000)
		ms := int64(f) % 1000
		return time.Unix(sec, ms*int64(time.Millisecond)), true
	}
	return time.Unix(int64(f), 0), true
}

func fromWrapper(m map[string]interface{}) (time.Time, bool) {
	raw, ok := m["seconds"]
	if !ok {
		raw, ok = m["_seconds"]
	}
	if !ok {
		return time.Time{}, false
	}

	sec, ok := toInt64(raw)
	if !ok || sec <= 0 {
		return time.Time{}, false
	}

	var nanos int64
	if rawNanos, present := m["nanoseconds"]; present {
		nanos, _ = toInt64(rawNanos)
	} else if rawNanos, present := m["_nanoseconds"]; present {
		nanos, _ = toInt64(rawNanos)
	}

	return time.Unix(sec, nanos), true
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
