package schedule

import (
	"testing"
	"time"

	dom "github.com/jchyng/todo-list/internal/domain"
)

func tp(t time.Time) *time.Time { return &t }

// Fixed "today" for every test: 2024-06-15 10:30 UTC.
var (
	testNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
	testRef = NewReference(testNow, time.UTC)

	yesterday = time.Date(2024, 6, 14, 18, 0, 0, 0, time.UTC)
	tomorrow  = time.Date(2024, 6, 16, 9, 0, 0, 0, time.UTC)
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		todo dom.Todo
		want Status
	}{
		{
			name: "completed",
			todo: dom.Todo{IsDone: true, CompletedAt: tp(testNow)},
			want: StatusCompleted,
		},
		{
			name: "completed wins over overdue due date",
			todo: dom.Todo{IsDone: true, CompletedAt: tp(testNow), DueAt: tp(yesterday)},
			want: StatusCompleted,
		},
		{
			name: "due yesterday is overdue",
			todo: dom.Todo{DueAt: tp(yesterday)},
			want: StatusOverdue,
		},
		{
			name: "due earlier today is upcoming, not overdue",
			todo: dom.Todo{DueAt: tp(time.Date(2024, 6, 15, 0, 30, 0, 0, time.UTC))},
			want: StatusUpcoming,
		},
		{
			name: "due tomorrow is upcoming",
			todo: dom.Todo{DueAt: tp(tomorrow)},
			want: StatusUpcoming,
		},
		{
			name: "no due date",
			todo: dom.Todo{},
			want: StatusNoDeadline,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.todo, testRef); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBucketDate(t *testing.T) {
	completedToday := dom.Todo{IsDone: true, CompletedAt: tp(testNow), DueAt: tp(yesterday)}
	day, ok := BucketDate(completedToday, time.UTC)
	if !ok {
		t.Fatal("completed todo must have a bucket")
	}
	// Completion date wins over the old due date.
	if got := DateKey(day, time.UTC); got != "2024-06-15" {
		t.Errorf("completed bucket = %s, want 2024-06-15", got)
	}

	dueOnly := dom.Todo{DueAt: tp(tomorrow)}
	day, ok = BucketDate(dueOnly, time.UTC)
	if !ok {
		t.Fatal("due-dated todo must have a bucket")
	}
	if got := DateKey(day, time.UTC); got != "2024-06-16" {
		t.Errorf("due bucket = %s, want 2024-06-16", got)
	}

	// Completed with no due date still buckets under the completion day.
	noDueDone := dom.Todo{IsDone: true, CompletedAt: tp(testNow)}
	if _, ok := BucketDate(noDueDone, time.UTC); !ok {
		t.Error("completed todo without due date must still bucket by completion")
	}

	if _, ok := BucketDate(dom.Todo{}, time.UTC); ok {
		t.Error("incomplete todo without due date must have no bucket")
	}
}

func TestBucketDateFallsBackToUpdatedAt(t *testing.T) {
	// Rows completed before completed_at existed carry only updated_at.
	legacy := dom.Todo{IsDone: true, UpdatedAt: testNow}
	day, ok := BucketDate(legacy, time.UTC)
	if !ok {
		t.Fatal("legacy completed todo must have a bucket")
	}
	if got := DateKey(day, time.UTC); got != "2024-06-15" {
		t.Errorf("legacy bucket = %s, want 2024-06-15", got)
	}
}

func TestDayBoundaries(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	// 2024-06-15 01:00 KST is still 2024-06-14 in UTC.
	at := time.Date(2024, 6, 14, 16, 0, 0, 0, time.UTC)

	if got := DateKey(at, seoul); got != "2024-06-15" {
		t.Errorf("DateKey in KST = %s, want 2024-06-15", got)
	}
	if got := DateKey(at, time.UTC); got != "2024-06-14" {
		t.Errorf("DateKey in UTC = %s, want 2024-06-14", got)
	}

	start := DayStart(at, seoul)
	if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 {
		t.Errorf("DayStart not at midnight: %v", start)
	}
	end := DayEnd(at, seoul)
	if !end.After(start) || end.Sub(start) != 24*time.Hour-time.Millisecond {
		t.Errorf("DayEnd wrong distance from start: %v", end.Sub(start))
	}
}

func TestNewReferenceNilLocation(t *testing.T) {
	ref := NewReference(testNow, nil)
	if ref.Location() != time.UTC {
		t.Error("nil location must default to UTC")
	}
	if !ref.DayStart().Equal(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DayStart = %v", ref.DayStart())
	}
}
