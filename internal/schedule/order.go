package schedule

import (
	"sort"

	dom "github.com/jchyng/todo-list/internal/domain"
)

// VisibleInList reports whether a todo belongs in the flat list view.
// Incomplete todos whose due date has already passed are hidden here;
// they surface on the calendar as overdue instead.
func VisibleInList(t dom.Todo, ref Reference) bool {
	if t.IsDone || t.DueAt == nil {
		return true
	}
	return !t.DueAt.Before(ref.dayStart)
}

// SortForList orders todos for the flat list view, in place:
//
//  1. incomplete before completed;
//  2. incomplete with a due date before incomplete without, due dates
//     ascending, deadline-less by creation time descending;
//  3. completed by completion time descending.
//
// The sort is stable, so todos equal under every key keep store order.
func SortForList(todos []dom.Todo) {
	sort.SliceStable(todos, func(i, j int) bool {
		a, b := todos[i], todos[j]

		if a.IsDone != b.IsDone {
			return !a.IsDone
		}

		if !a.IsDone {
			aDue, bDue := a.DueAt != nil, b.DueAt != nil
			if aDue && bDue {
				return a.DueAt.Before(*b.DueAt)
			}
			if aDue != bDue {
				return aDue
			}
			return a.CreatedAt.After(b.CreatedAt)
		}

		return a.DoneAt().After(b.DoneAt())
	})
}

// FilterForList applies VisibleInList over a snapshot, preserving order.
func FilterForList(todos []dom.Todo, ref Reference) []dom.Todo {
	out := make([]dom.Todo, 0, len(todos))
	for _, t := range todos {
		if VisibleInList(t, ref) {
			out = append(out, t)
		}
	}
	return out
}
