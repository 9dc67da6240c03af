package app

import "time"

// Users enter plain calendar days; the wire carries ISO-8601 instants pinned
// to midday UTC so a timezone shift can never roll the date over.
const (
	dayLayout     = "2006-01-02"
	displayLayout = "02/01/2006"
	wireSuffix    = "T12:00:00.000Z"
)

// DatePortion extracts the calendar-day part of a value that may be a plain
// day or a full ISO instant. Anything unparseable reads as empty.
func DatePortion(s string) string {
	if len(s) < len(dayLayout) {
		return ""
	}
	day := s[:len(dayLayout)]
	if _, err := time.Parse(dayLayout, day); err != nil {
		return ""
	}
	return day
}

// ToWireDate serializes a calendar day (or anything DatePortion accepts) to
// its wire instant, e.g. "2025-03-10" -> "2025-03-10T12:00:00.000Z".
func ToWireDate(s string) string {
	day := DatePortion(s)
	if day == "" {
		return ""
	}
	return day + wireSuffix
}

// DisplayDate formats a wire date for the locale as day/month/year, using
// only the date portion and ignoring any time or zone component.
func DisplayDate(s string) string {
	day := DatePortion(s)
	if day == "" {
		return ""
	}
	t, err := time.Parse(dayLayout, day)
	if err != nil {
		return ""
	}
	return t.Format(displayLayout)
}

// Today returns the current calendar day.
func Today() string {
	return time.Now().Format(dayLayout)
}

// ClampDates enforces the date ordering rules by raising, never rejecting:
// a start before today becomes today, then an end before the (possibly
// raised) start becomes the start. Inputs are calendar days.
func ClampDates(start, end, today string) (string, string) {
	if start < today {
		start = today
	}
	if end < start {
		end = start
	}
	return start, end
}
