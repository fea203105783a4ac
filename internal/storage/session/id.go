// Package session persists workflow session state and metrics for the
// lopen store. A session is one identifiable workflow run against a
// module; its identity, state record, and metrics record live in a
// per-session directory under .lopen/sessions/.
package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateFormat = "20060102"

// ID identifies one workflow session: a module name, the date the
// session was started, and a per-day counter starting at 1. The
// canonical string form is "{module}-{YYYYMMDD}-{counter}", which parses
// back losslessly. ID is an immutable value type; use it wherever a
// session identity is required rather than a raw string.
type ID struct {
	module  string
	date    time.Time
	counter int
}

// NewID constructs a validated ID. The module name is normalized to
// lower case and the date truncated to its day in UTC.
func NewID(module string, date time.Time, counter int) (ID, error) {
	module = NormalizeModule(module)
	if module == "" {
		return ID{}, fmt.Errorf("session module cannot be empty")
	}
	if counter < 1 {
		return ID{}, fmt.Errorf("session counter must be >= 1, got %d", counter)
	}
	return ID{
		module:  module,
		date:    truncateToDay(date),
		counter: counter,
	}, nil
}

// Parse converts a canonical session ID string back into an ID.
// Module names may themselves contain hyphens, so the date and counter
// are taken from the right.
func Parse(s string) (ID, error) {
	lastDash := strings.LastIndex(s, "-")
	if lastDash < 0 {
		return ID{}, fmt.Errorf("invalid session ID %q: missing counter", s)
	}
	counter, err := strconv.Atoi(s[lastDash+1:])
	if err != nil {
		return ID{}, fmt.Errorf("invalid session ID %q: bad counter: %w", s, err)
	}

	rest := s[:lastDash]
	dateDash := strings.LastIndex(rest, "-")
	if dateDash < 0 {
		return ID{}, fmt.Errorf("invalid session ID %q: missing date", s)
	}
	date, err := time.ParseInLocation(dateFormat, rest[dateDash+1:], time.UTC)
	if err != nil {
		return ID{}, fmt.Errorf("invalid session ID %q: bad date: %w", s, err)
	}

	return NewID(rest[:dateDash], date, counter)
}

// Module returns the normalized module name.
func (id ID) Module() string { return id.module }

// Date returns the session date, truncated to the day in UTC.
func (id ID) Date() time.Time { return id.date }

// Counter returns the per-day counter, starting at 1.
func (id ID) Counter() int { return id.counter }

// String returns the canonical form "{module}-{YYYYMMDD}-{counter}".
func (id ID) String() string {
	return fmt.Sprintf("%s-%s-%d", id.module, id.date.Format(dateFormat), id.counter)
}

// IsZero reports whether the ID is the zero value.
func (id ID) IsZero() bool {
	return id.module == "" && id.counter == 0
}

// Compare orders IDs oldest-first by (date, counter, module). The module
// name breaks cross-module ties deterministically.
func (id ID) Compare(other ID) int {
	if c := id.date.Compare(other.date); c != 0 {
		return c
	}
	if id.counter != other.counter {
		if id.counter < other.counter {
			return -1
		}
		return 1
	}
	return strings.Compare(id.module, other.module)
}

// NormalizeModule lower-cases and trims a module name, matching the
// normalization applied when a session is created.
func NormalizeModule(module string) string {
	return strings.ToLower(strings.TrimSpace(module))
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
