package schedule

import (
	"math"
	"time"

	dom "github.com/jchyng/todo-list/internal/domain"
)

// Stats summarizes the deadline-bearing todos of a period. Todos that
// are incomplete and have no due date are excluded from Total and from
// the completion rate.
type Stats struct {
	Completed      int `json:"completed"`
	Upcoming       int `json:"upcoming"`
	Overdue        int `json:"overdue"`
	Total          int `json:"total"`
	CompletionRate int `json:"completionRate"`
}

// GroupByDate partitions todos into a date-key -> todos map using
// BucketDate. Input order is preserved within each bucket; a todo with
// no bucket is skipped. Each todo lands in at most one bucket because
// the key is computed exactly once.
func GroupByDate(todos []dom.Todo, loc *time.Location) map[string][]dom.Todo {
	byDate := make(map[string][]dom.Todo)
	for _, t := range todos {
		day, ok := BucketDate(t, loc)
		if !ok {
			continue
		}
		key := DateKey(day, loc)
		byDate[key] = append(byDate[key], t)
	}
	return byDate
}

// MonthStats computes Stats over the todos whose bucket date falls in
// (year, month) in the reference zone. month is 1-12. A zero year means
// "no month scope": every bucketed todo counts.
func MonthStats(todos []dom.Todo, ref Reference, year int, month time.Month) Stats {
	var scopeStart, scopeEnd time.Time
	scoped := year != 0
	if scoped {
		scopeStart = time.Date(year, month, 1, 0, 0, 0, 0, ref.loc)
		scopeEnd = scopeStart.AddDate(0, 1, 0).Add(-time.Millisecond)
	}

	var s Stats
	for _, t := range todos {
		day, ok := BucketDate(t, ref.loc)
		if !ok {
			continue
		}
		if scoped && (day.Before(scopeStart) || day.After(scopeEnd)) {
			continue
		}
		switch Classify(t, ref) {
		case StatusCompleted:
			s.Completed++
		case StatusOverdue:
			s.Overdue++
		case StatusUpcoming:
			s.Upcoming++
		}
	}
	s.Total = s.Completed + s.Overdue + s.Upcoming
	if s.Total > 0 {
		s.CompletionRate = int(math.Round(100 * float64(s.Completed) / float64(s.Total)))
	}
	return s
}
