package schedule

import (
	"time"

	dom "github.com/jchyng/todo-list/internal/domain"
)

// Status is the derived classification of a todo at a point in time.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusOverdue    Status = "overdue"
	StatusUpcoming   Status = "upcoming"
	StatusNoDeadline Status = "no-deadline"
)

// Reference fixes "today" for a whole request: the start and end of the
// current calendar day in the service's configured zone. Every date
// comparison in this package goes through it, so all call sites share
// one day boundary.
type Reference struct {
	loc      *time.Location
	dayStart time.Time
	dayEnd   time.Time
}

// NewReference builds a Reference for the day containing now in loc.
func NewReference(now time.Time, loc *time.Location) Reference {
	if loc == nil {
		loc = time.UTC
	}
	return Reference{
		loc:      loc,
		dayStart: DayStart(now, loc),
		dayEnd:   DayEnd(now, loc),
	}
}

// DayStart truncates t to 00:00:00.000 of its calendar day in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DayEnd returns 23:59:59.999 of t's calendar day in loc.
func DayEnd(t time.Time, loc *time.Location) time.Time {
	return DayStart(t, loc).Add(24*time.Hour - time.Millisecond)
}

// DateKey formats t's calendar day in loc as "YYYY-MM-DD".
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

func (r Reference) Location() *time.Location { return r.loc }
func (r Reference) DayStart() time.Time      { return r.dayStart }
func (r Reference) DayEnd() time.Time        { return r.dayEnd }

// Classify derives the status of a todo relative to the reference day.
// Completion always wins; a due date earlier than today's start is
// overdue, today or later is upcoming.
func Classify(t dom.Todo, ref Reference) Status {
	if t.IsDone {
		return StatusCompleted
	}
	if t.DueAt == nil {
		return StatusNoDeadline
	}
	if DayStart(*t.DueAt, ref.loc).Before(ref.dayStart) {
		return StatusOverdue
	}
	return StatusUpcoming
}

// BucketDate is the calendar day a todo is attached to on the calendar:
// the completion day for completed todos, else the due day. Incomplete
// todos without a due date have no bucket and report ok=false.
func BucketDate(t dom.Todo, loc *time.Location) (time.Time, bool) {
	if t.IsDone {
		return DayStart(t.DoneAt(), loc), true
	}
	if t.DueAt != nil {
		return DayStart(*t.DueAt, loc), true
	}
	return time.Time{}, false
}
