package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	dom "github.com/jchyng/todo-list/internal/domain"
	"github.com/jchyng/todo-list/internal/repo"
)

// fakeTodoRepo is an in-memory TodoRepo mirroring the store's
// conditional-write semantics, including completed_at transitions.
type fakeTodoRepo struct {
	todos  map[int64]dom.Todo
	nextID int64
	now    time.Time
}

func newFakeRepo(now time.Time) *fakeTodoRepo {
	return &fakeTodoRepo{todos: map[int64]dom.Todo{}, nextID: 1, now: now}
}

func (f *fakeTodoRepo) Create(_ context.Context, t dom.Todo) (dom.Todo, error) {
	t.ID = f.nextID
	f.nextID++
	t.CreatedAt = f.now
	t.UpdatedAt = f.now
	f.todos[t.ID] = t
	return t, nil
}

func (f *fakeTodoRepo) visible(ownerID, id int64) (dom.Todo, bool) {
	t, ok := f.todos[id]
	if !ok || t.OwnerID != ownerID || t.DeletedAt != nil {
		return dom.Todo{}, false
	}
	return t, true
}

func (f *fakeTodoRepo) GetByID(_ context.Context, ownerID, id int64) (dom.Todo, error) {
	t, ok := f.visible(ownerID, id)
	if !ok {
		return dom.Todo{}, pgx.ErrNoRows
	}
	return t, nil
}

func (f *fakeTodoRepo) List(_ context.Context, ownerID int64, _ repo.ListFilter) ([]dom.Todo, error) {
	var out []dom.Todo
	for id := int64(1); id < f.nextID; id++ {
		if t, ok := f.visible(ownerID, id); ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTodoRepo) ListView(_ context.Context, ownerID int64, dayStart time.Time) ([]dom.Todo, error) {
	var out []dom.Todo
	for id := int64(1); id < f.nextID; id++ {
		t, ok := f.visible(ownerID, id)
		if !ok {
			continue
		}
		if t.DueAt == nil || !t.DueAt.Before(dayStart) || t.IsDone {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTodoRepo) FindInWindow(_ context.Context, ownerID int64, start, end time.Time) ([]dom.Todo, error) {
	inWindow := func(at time.Time) bool { return !at.Before(start) && !at.After(end) }
	var out []dom.Todo
	for id := int64(1); id < f.nextID; id++ {
		t, ok := f.visible(ownerID, id)
		if !ok {
			continue
		}
		if t.IsDone && inWindow(t.DoneAt()) {
			out = append(out, t)
		} else if !t.IsDone && t.DueAt != nil && inWindow(*t.DueAt) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTodoRepo) Update(_ context.Context, ownerID, id int64, patch dom.Todo) (dom.Todo, error) {
	t, ok := f.visible(ownerID, id)
	if !ok {
		return dom.Todo{}, pgx.ErrNoRows
	}
	if patch.IsDone && !t.IsDone {
		now := f.now
		patch.CompletedAt = &now
	} else if !patch.IsDone {
		patch.CompletedAt = nil
	} else {
		patch.CompletedAt = t.CompletedAt
	}
	patch.ID, patch.OwnerID, patch.CreatedAt = t.ID, t.OwnerID, t.CreatedAt
	patch.UpdatedAt = f.now
	f.todos[id] = patch
	return patch, nil
}

func (f *fakeTodoRepo) SoftDelete(_ context.Context, ownerID, id int64) (dom.Todo, error) {
	t, ok := f.visible(ownerID, id)
	if !ok {
		return dom.Todo{}, pgx.ErrNoRows
	}
	now := f.now
	t.DeletedAt = &now
	t.UpdatedAt = now
	f.todos[id] = t
	return t, nil
}

func (f *fakeTodoRepo) ToggleDone(_ context.Context, ownerID, id int64) (dom.Todo, error) {
	t, ok := f.visible(ownerID, id)
	if !ok {
		return dom.Todo{}, pgx.ErrNoRows
	}
	t.IsDone = !t.IsDone
	if t.IsDone {
		now := f.now
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
	t.UpdatedAt = f.now
	f.todos[id] = t
	return t, nil
}

func (f *fakeTodoRepo) Search(_ context.Context, ownerID int64, q string) ([]dom.Todo, error) {
	q = strings.ToLower(q)
	var out []dom.Todo
	for id := int64(1); id < f.nextID; id++ {
		t, ok := f.visible(ownerID, id)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Description), q) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTodoRepo) PurgeOwner(_ context.Context, ownerID int64) (int64, error) {
	var n int64
	for id := int64(1); id < f.nextID; id++ {
		if t, ok := f.visible(ownerID, id); ok {
			now := f.now
			t.DeletedAt = &now
			f.todos[id] = t
			n++
		}
	}
	return n, nil
}

var (
	svcNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	svcCtx = context.Background()
)

func newTestService(now time.Time) (*TodoService, *fakeTodoRepo) {
	r := newFakeRepo(now)
	return NewTodoService(r, nil, time.UTC), r
}

func tptr(t time.Time) *time.Time { return &t }

func TestCreateSanitizes(t *testing.T) {
	svc, _ := newTestService(svcNow)

	got, err := svc.Create(svcCtx, 1, "  <b>buy milk</b>  ", "<script>alert(1)</script>note", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Title != "buy milk" {
		t.Errorf("Title = %q, want %q", got.Title, "buy milk")
	}
	if got.Description != "note" {
		t.Errorf("Description = %q, want %q", got.Description, "note")
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(svcNow)

	tests := []struct {
		name  string
		title string
		desc  string
	}{
		{"empty title", "   ", ""},
		{"markup-only title", "<div></div>", ""},
		{"title too long", strings.Repeat("a", 201), ""},
		{"description too long", "ok", strings.Repeat("b", 1001)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(svcCtx, 1, tt.title, tt.desc, nil)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if len(verr.Fields) == 0 {
				t.Error("ValidationError must name failing fields")
			}
		})
	}
}

func TestUpdateDueDateTriState(t *testing.T) {
	svc, _ := newTestService(svcNow)
	due := svcNow.AddDate(0, 0, 2)
	created, err := svc.Create(svcCtx, 1, "task", "", &due)
	if err != nil {
		t.Fatal(err)
	}

	// Patch without SetDue leaves the due date alone.
	got, err := svc.Update(svcCtx, 1, created.ID, UpdatePatch{Title: tstr("renamed")})
	if err != nil {
		t.Fatal(err)
	}
	if got.DueAt == nil || !got.DueAt.Equal(due) {
		t.Error("untouched due date changed")
	}

	// SetDue with nil clears the deadline.
	got, err = svc.Update(svcCtx, 1, created.ID, UpdatePatch{SetDue: true})
	if err != nil {
		t.Fatal(err)
	}
	if got.DueAt != nil {
		t.Error("due date not cleared")
	}
}

func tstr(s string) *string { return &s }

func TestUpdateNotFoundAcrossOwners(t *testing.T) {
	svc, _ := newTestService(svcNow)
	created, _ := svc.Create(svcCtx, 1, "mine", "", nil)

	// Another owner sees NotFound, not Forbidden.
	_, err := svc.Update(svcCtx, 2, created.ID, UpdatePatch{Title: tstr("stolen")})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-owner update err = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetByID(svcCtx, 2, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-owner get err = %v, want ErrNotFound", err)
	}
}

func TestToggleSetsCompletedAt(t *testing.T) {
	svc, _ := newTestService(svcNow)
	due := svcNow.AddDate(0, 0, -3)
	created, _ := svc.Create(svcCtx, 1, "late", "", &due)

	done, err := svc.Toggle(svcCtx, 1, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !done.IsDone || done.CompletedAt == nil {
		t.Fatal("toggle true must set CompletedAt")
	}

	undone, err := svc.Toggle(svcCtx, 1, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if undone.IsDone || undone.CompletedAt != nil {
		t.Error("toggle false must clear CompletedAt")
	}
}

func TestListViewHidesOverdue(t *testing.T) {
	svc, _ := newTestService(svcNow)
	past := svcNow.AddDate(0, 0, -2)
	future := svcNow.AddDate(0, 0, 2)

	svc.Create(svcCtx, 1, "overdue", "", &past)
	upcoming, _ := svc.Create(svcCtx, 1, "upcoming", "", &future)
	done, _ := svc.Create(svcCtx, 1, "done", "", nil)
	svc.Toggle(svcCtx, 1, done.ID)

	view, err := svc.ListView(svcCtx, 1, svcNow)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Todos) != 2 {
		t.Fatalf("visible = %d, want 2", len(view.Todos))
	}
	if view.Todos[0].ID != upcoming.ID || view.Todos[1].ID != done.ID {
		t.Errorf("order = %v, want [upcoming done]", []int64{view.Todos[0].ID, view.Todos[1].ID})
	}
	if view.Stats.Total != 2 || view.Stats.Completed != 1 || view.Stats.Pending != 1 {
		t.Errorf("stats = %+v", view.Stats)
	}
}

func TestCalendarViewReclassifiesOnToggle(t *testing.T) {
	svc, _ := newTestService(svcNow)
	past := time.Date(2024, 6, 13, 12, 0, 0, 0, time.UTC)
	created, _ := svc.Create(svcCtx, 1, "late", "", &past)

	winStart := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	winEnd := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	view, err := svc.CalendarView(svcCtx, 1, svcNow, winStart, winEnd, 2024, time.June)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.ByDate["2024-06-13"]) != 1 {
		t.Fatal("expected todo under its due date")
	}
	if view.Stats.Overdue != 1 {
		t.Errorf("overdue = %d, want 1", view.Stats.Overdue)
	}

	if _, err := svc.Toggle(svcCtx, 1, created.ID); err != nil {
		t.Fatal(err)
	}

	view, err = svc.CalendarView(svcCtx, 1, svcNow, winStart, winEnd, 2024, time.June)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.ByDate["2024-06-13"]) != 0 {
		t.Error("completed todo must leave the due-date bucket")
	}
	if len(view.ByDate["2024-06-15"]) != 1 {
		t.Error("completed todo must bucket under the completion day")
	}
	if view.Stats.Overdue != 0 || view.Stats.Completed != 1 {
		t.Errorf("stats after toggle = %+v", view.Stats)
	}
}

func TestDeleteHidesFromAllReads(t *testing.T) {
	svc, _ := newTestService(svcNow)
	future := svcNow.AddDate(0, 0, 1)
	created, _ := svc.Create(svcCtx, 1, "gone soon", "", &future)

	deleted, err := svc.Delete(svcCtx, 1, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if deleted.DeletedAt == nil {
		t.Error("soft delete must stamp DeletedAt")
	}

	if _, err := svc.GetByID(svcCtx, 1, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
	view, _ := svc.ListView(svcCtx, 1, svcNow)
	if len(view.Todos) != 0 {
		t.Error("deleted todo visible in list view")
	}
	cal, _ := svc.CalendarView(svcCtx, 1, svcNow, svcNow.AddDate(0, 0, -14), svcNow.AddDate(0, 0, 14), 0, 0)
	if len(cal.ByDate) != 0 {
		t.Error("deleted todo visible in calendar view")
	}
}

func TestPurgeCountsOwnedTodos(t *testing.T) {
	svc, _ := newTestService(svcNow)
	svc.Create(svcCtx, 1, "a", "", nil)
	svc.Create(svcCtx, 1, "b", "", nil)
	svc.Create(svcCtx, 2, "other owner", "", nil)

	n, err := svc.Purge(svcCtx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("purged = %d, want 2", n)
	}

	// The other owner's data is untouched.
	view, _ := svc.ListView(svcCtx, 2, svcNow)
	if len(view.Todos) != 1 {
		t.Error("purge crossed owner boundary")
	}
}
