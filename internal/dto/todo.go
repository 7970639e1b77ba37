package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	dom "github.com/jchyng/todo-list/internal/domain"
	"github.com/jchyng/todo-list/internal/schedule"
	"github.com/jchyng/todo-list/internal/service"
)

// DueAt parses dueDate from JSON as either date-only ("2006-01-02") or
// RFC3339. Date-only is stored as start of that day in UTC.
//
// The field is tri-state: UnmarshalJSON runs only when the key is
// present, so Present() distinguishes an omitted field from an explicit
// null (which clears the deadline).
type DueAt struct {
	t       *time.Time
	present bool
}

func (d *DueAt) UnmarshalJSON(data []byte) error {
	d.present = true
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.t = nil
		return nil
	}
	s := strings.TrimSpace(*raw)
	layouts := []string{
		"2006-01-02", // date only
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			// If it was date-only (no time component), use start of day UTC
			if layout == "2006-01-02" {
				parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			}
			d.t = &parsed
			return nil
		}
	}
	return fmt.Errorf("dueDate: use date (YYYY-MM-DD) or RFC3339 datetime")
}

// Ptr returns *time.Time for use in service/domain.
func (d DueAt) Ptr() *time.Time { return d.t }

// Present reports whether the field appeared in the request body.
func (d DueAt) Present() bool { return d.present }

type CreateTodoRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	DueDate     DueAt  `json:"dueDate"` // optional: "2026-02-19" or RFC3339
}

type UpdateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	DueDate     DueAt   `json:"dueDate"` // absent = keep, null = clear, value = set
}

type TodoResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"dueDate"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// FromTodo converts a domain todo into its response shape.
func FromTodo(t dom.Todo) TodoResponse {
	return TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.IsDone,
		DueDate:     t.DueAt,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// FromTodos converts a slice, never returning nil so lists marshal as [].
func FromTodos(list []dom.Todo) []TodoResponse {
	out := make([]TodoResponse, len(list))
	for i := range list {
		out[i] = FromTodo(list[i])
	}
	return out
}

type ListTodosResponse struct {
	Todos []TodoResponse `json:"todos"`
	Count int            `json:"count"`
}

type ListViewResponse struct {
	Todos []TodoResponse    `json:"todos"`
	Count int               `json:"count"`
	Stats service.ListStats `json:"stats"`
}

type CalendarResponse struct {
	TodosByDate map[string][]TodoResponse `json:"todosByDate"`
	Stats       schedule.Stats            `json:"stats"`
	StartDate   string                    `json:"startDate"`
	EndDate     string                    `json:"endDate"`
}

// FromCalendar converts the service's calendar view, keeping bucket
// keys intact.
func FromCalendar(v service.CalendarView, startDate, endDate string) CalendarResponse {
	byDate := make(map[string][]TodoResponse, len(v.ByDate))
	for key, todos := range v.ByDate {
		byDate[key] = FromTodos(todos)
	}
	return CalendarResponse{
		TodosByDate: byDate,
		Stats:       v.Stats,
		StartDate:   startDate,
		EndDate:     endDate,
	}
}

type PurgeResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}
