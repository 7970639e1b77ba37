package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"

	"github.com/jchyng/todo-list/internal/cache"
	dom "github.com/jchyng/todo-list/internal/domain"
	"github.com/jchyng/todo-list/internal/repo"
	"github.com/jchyng/todo-list/internal/schedule"
)

// ErrNotFound covers missing, soft-deleted and foreign-owned todos
// alike; callers cannot tell the three apart.
var ErrNotFound = errors.New("not found")

// ValidationError lists the field failures of a rejected input.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, ", ")
}

// ListView is the payload of the ordered flat list.
type ListView struct {
	Todos []dom.Todo
	Stats ListStats
}

// ListStats are the flat-list counters: Pending = Total - Completed.
type ListStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// CalendarView is the payload of the calendar query.
type CalendarView struct {
	ByDate map[string][]dom.Todo
	Stats  schedule.Stats
}

// UpdatePatch carries a partial update. Nil pointer fields are left
// unchanged; SetDue distinguishes "clear the due date" (true, DueAt
// nil) from "don't touch it" (false).
type UpdatePatch struct {
	Title       *string
	Description *string
	IsDone      *bool
	DueAt       *time.Time
	SetDue      bool
}

// TodoService is the business layer over the todo store. All date
// classification is delegated to the schedule package with the day
// boundary of the configured zone.
type TodoService struct {
	repo  repo.TodoRepo
	cache *cache.TodoCache
	loc   *time.Location
	sf    singleflight.Group
}

// NewTodoService creates a TodoService. If c is nil, caching is disabled.
func NewTodoService(r repo.TodoRepo, c *cache.TodoCache, loc *time.Location) *TodoService {
	if loc == nil {
		loc = time.UTC
	}
	return &TodoService{repo: r, cache: c, loc: loc}
}

func (s *TodoService) Create(ctx context.Context, ownerID int64, title, desc string, dueAt *time.Time) (dom.Todo, error) {
	title, desc, verr := sanitizeTodoInput(title, desc)
	if verr != nil {
		return dom.Todo{}, verr
	}

	t, err := s.repo.Create(ctx, dom.Todo{
		OwnerID:     ownerID,
		Title:       title,
		Description: desc,
		DueAt:       dueAt,
	})
	if err != nil {
		return dom.Todo{}, err
	}
	s.invalidateCache(ctx, ownerID)
	return t, nil
}

func (s *TodoService) GetByID(ctx context.Context, ownerID, id int64) (dom.Todo, error) {
	t, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return dom.Todo{}, mapRepoErr(err)
	}
	return t, nil
}

// List is the raw filterable listing; it bypasses the cache because
// filter combinations fan out too widely to be worth keying.
func (s *TodoService) List(ctx context.Context, ownerID int64, f repo.ListFilter) ([]dom.Todo, error) {
	if _, ok := f.SortColumn(); !ok {
		return nil, &ValidationError{Fields: []string{"unsupported sort field"}}
	}
	return s.repo.List(ctx, ownerID, f)
}

// ListView returns the ordered flat list: overdue incomplete todos are
// hidden, everything else sorted by the multi-key policy.
func (s *TodoService) ListView(ctx context.Context, ownerID int64, now time.Time) (ListView, error) {
	ref := schedule.NewReference(now, s.loc)

	snapshot, err := s.cachedList(ctx, ownerID, ref)
	if err != nil {
		return ListView{}, err
	}

	todos := schedule.FilterForList(snapshot, ref)
	schedule.SortForList(todos)

	stats := ListStats{Total: len(todos)}
	for _, t := range todos {
		if t.IsDone {
			stats.Completed++
		}
	}
	stats.Pending = stats.Total - stats.Completed
	return ListView{Todos: todos, Stats: stats}, nil
}

func (s *TodoService) cachedList(ctx context.Context, ownerID int64, ref schedule.Reference) ([]dom.Todo, error) {
	if s.cache == nil {
		return s.repo.ListView(ctx, ownerID, ref.DayStart())
	}
	key := "list:" + strconv.FormatInt(ownerID, 10) + ":" + ref.DayStart().Format("2006-01-02")
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		if list, err := s.cache.GetList(ctx, ownerID); err == nil && list != nil {
			return list, nil
		}
		list, err := s.repo.ListView(ctx, ownerID, ref.DayStart())
		if err != nil {
			return nil, err
		}
		_ = s.cache.SetList(ctx, ownerID, list)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dom.Todo), nil
}

// CalendarView groups the window's todos by calendar day and computes
// month stats. startDate/endDate are inclusive calendar days; year is 0
// for an unscoped month, else month is 1-12.
func (s *TodoService) CalendarView(ctx context.Context, ownerID int64, now, startDate, endDate time.Time, year int, month time.Month) (CalendarView, error) {
	ref := schedule.NewReference(now, s.loc)
	start := schedule.DayStart(startDate, s.loc)
	end := schedule.DayEnd(endDate, s.loc)

	todos, err := s.cachedWindow(ctx, ownerID, start, end)
	if err != nil {
		return CalendarView{}, err
	}

	return CalendarView{
		ByDate: schedule.GroupByDate(todos, s.loc),
		Stats:  schedule.MonthStats(todos, ref, year, month),
	}, nil
}

func (s *TodoService) cachedWindow(ctx context.Context, ownerID int64, start, end time.Time) ([]dom.Todo, error) {
	if s.cache == nil {
		return s.repo.FindInWindow(ctx, ownerID, start, end)
	}
	key := "window:" + strconv.FormatInt(ownerID, 10) + ":" +
		strconv.FormatInt(start.Unix(), 10) + "-" + strconv.FormatInt(end.Unix(), 10)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		if list, err := s.cache.GetWindow(ctx, ownerID, start, end); err == nil && list != nil {
			return list, nil
		}
		list, err := s.repo.FindInWindow(ctx, ownerID, start, end)
		if err != nil {
			return nil, err
		}
		_ = s.cache.SetWindow(ctx, ownerID, start, end, list)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dom.Todo), nil
}

func (s *TodoService) Update(ctx context.Context, ownerID, id int64, p UpdatePatch) (dom.Todo, error) {
	existing, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return dom.Todo{}, mapRepoErr(err)
	}

	patch := existing
	if p.Title != nil {
		patch.Title = *p.Title
	}
	if p.Description != nil {
		patch.Description = *p.Description
	}
	title, desc, verr := sanitizeTodoInput(patch.Title, patch.Description)
	if verr != nil {
		return dom.Todo{}, verr
	}
	patch.Title = title
	patch.Description = desc
	if p.IsDone != nil {
		patch.IsDone = *p.IsDone
	}
	if p.SetDue {
		patch.DueAt = p.DueAt
	}

	t, err := s.repo.Update(ctx, ownerID, id, patch)
	if err != nil {
		return dom.Todo{}, mapRepoErr(err)
	}
	s.invalidateCache(ctx, ownerID)
	return t, nil
}

// Toggle flips the completion flag. The store maintains completed_at on
// both transitions in the same write.
func (s *TodoService) Toggle(ctx context.Context, ownerID, id int64) (dom.Todo, error) {
	t, err := s.repo.ToggleDone(ctx, ownerID, id)
	if err != nil {
		return dom.Todo{}, mapRepoErr(err)
	}
	s.invalidateCache(ctx, ownerID)
	return t, nil
}

// Delete soft-deletes the todo and returns it.
func (s *TodoService) Delete(ctx context.Context, ownerID, id int64) (dom.Todo, error) {
	t, err := s.repo.SoftDelete(ctx, ownerID, id)
	if err != nil {
		return dom.Todo{}, mapRepoErr(err)
	}
	s.invalidateCache(ctx, ownerID)
	return t, nil
}

func (s *TodoService) Search(ctx context.Context, ownerID int64, q string) ([]dom.Todo, error) {
	q = strings.TrimSpace(q)
	if s.cache == nil {
		return s.repo.Search(ctx, ownerID, q)
	}
	key := "search:" + strconv.FormatInt(ownerID, 10) + ":" + strings.ToLower(q)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		if list, err := s.cache.GetSearch(ctx, ownerID, q); err == nil && list != nil {
			return list, nil
		}
		list, err := s.repo.Search(ctx, ownerID, q)
		if err != nil {
			return nil, err
		}
		_ = s.cache.SetSearch(ctx, ownerID, q, list)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dom.Todo), nil
}

// Purge soft-deletes every todo the owner has and returns the count.
func (s *TodoService) Purge(ctx context.Context, ownerID int64) (int64, error) {
	n, err := s.repo.PurgeOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	s.invalidateCache(ctx, ownerID)
	return n, nil
}

func (s *TodoService) invalidateCache(ctx context.Context, ownerID int64) {
	if s.cache != nil {
		_ = s.cache.InvalidateOwner(ctx, ownerID)
	}
}

func mapRepoErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
