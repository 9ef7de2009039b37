package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const MinutesPerDay = 24 * 60

var (
	ErrInvalidClock = errors.New("invalid clock time")
	ErrInvalidDay   = errors.New("invalid day of week")
)

// Session is one recurring weekly block of a section. Times are minutes
// since midnight; the interval is half-open, [StartMinute, EndMinute).
type Session struct {
	Day         time.Weekday `json:"day" validate:"gte=0,lte=6"`
	StartMinute int          `json:"startMinute" validate:"gte=0,ltfield=EndMinute"`
	EndMinute   int          `json:"endMinute" validate:"lte=1440"`
	Room        string       `json:"room,omitempty"`
	TeacherName string       `json:"teacherName,omitempty"`
}

func (s Session) Duration() int {
	return s.EndMinute - s.StartMinute
}

func (s Session) String() string {
	return fmt.Sprintf("%s %s-%s", s.Day, FormatClock(s.StartMinute), FormatClock(s.EndMinute))
}

// ParseClock converts "HH:MM", "HH:MM:SS" or a Postgres time value such as
// "0000-01-01T07:20:00Z" into minutes since midnight. Seconds are accepted
// but ignored; minutes are never dropped.
func ParseClock(value string) (int, error) {
	s := strings.TrimSpace(value)
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = strings.TrimSuffix(s[i+1:], "Z")
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}

	for _, part := range parts {
		if !twoDigits(part) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
		}
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])

	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}

	return h*60 + m, nil
}

func twoDigits(s string) bool {
	return len(s) == 2 && s[0] >= '0' && s[0] <= '9' && s[1] >= '0' && s[1] <= '9'
}

func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

var dayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseDay accepts full English day names and their three letter
// abbreviations, case-insensitively.
func ParseDay(value string) (time.Weekday, error) {
	s := strings.ToLower(strings.TrimSpace(value))
	if d, ok := dayNames[s]; ok {
		return d, nil
	}
	if len(s) == 3 {
		for name, d := range dayNames {
			if strings.HasPrefix(name, s) {
				return d, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDay, value)
}
