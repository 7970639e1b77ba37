package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	dom "github.com/jchyng/todo-list/internal/domain"
)

// ListFilter constrains the flat list query. Nil/zero fields are
// ignored. SortBy must be one of the allowed keys (see sortColumns).
type ListFilter struct {
	Completed *bool
	DueFrom   *time.Time
	DueTo     *time.Time
	SortBy    string
	// SortAsc flips the direction to ascending. The zero value keeps
	// the newest-first default.
	SortAsc bool
}

var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"title":     "title",
	"dueDate":   "due_at",
}

// SortColumn resolves the filter's sort key to a column, defaulting to
// created_at. Unknown keys report ok=false.
func (f ListFilter) SortColumn() (string, bool) {
	if f.SortBy == "" {
		return "created_at", true
	}
	col, ok := sortColumns[f.SortBy]
	return col, ok
}

// OrderBy resolves the filter to an ORDER BY body such as
// "created_at ASC". The direction is honored even when SortBy is
// empty, so ascending order on the default column works.
func (f ListFilter) OrderBy() (string, bool) {
	col, ok := f.SortColumn()
	if !ok {
		return "", false
	}
	dir := "DESC"
	if f.SortAsc {
		dir = "ASC"
	}
	return col + " " + dir, true
}

// TodoRepo provides todo persistence. Every operation is scoped to the
// owning user; a row belonging to someone else behaves exactly like a
// missing row (pgx.ErrNoRows).
type TodoRepo interface {
	Create(ctx context.Context, t dom.Todo) (dom.Todo, error)
	GetByID(ctx context.Context, ownerID, id int64) (dom.Todo, error)
	List(ctx context.Context, ownerID int64, f ListFilter) ([]dom.Todo, error)
	ListView(ctx context.Context, ownerID int64, dayStart time.Time) ([]dom.Todo, error)
	FindInWindow(ctx context.Context, ownerID int64, start, end time.Time) ([]dom.Todo, error)
	Update(ctx context.Context, ownerID, id int64, patch dom.Todo) (dom.Todo, error)
	SoftDelete(ctx context.Context, ownerID, id int64) (dom.Todo, error)
	ToggleDone(ctx context.Context, ownerID, id int64) (dom.Todo, error)
	Search(ctx context.Context, ownerID int64, q string) ([]dom.Todo, error)
	PurgeOwner(ctx context.Context, ownerID int64) (int64, error)
}

const todoColumns = `id, owner_id, title, description, is_done, due_at, completed_at, created_at, updated_at, deleted_at`

type PGTodoRepo struct {
	db *pgxpool.Pool
}

func NewPGTodoRepo(db *pgxpool.Pool) *PGTodoRepo {
	return &PGTodoRepo{db: db}
}

func scanTodo(row pgx.Row) (dom.Todo, error) {
	var t dom.Todo
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.IsDone,
		&t.DueAt, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	return t, err
}

func collectTodos(rows pgx.Rows) ([]dom.Todo, error) {
	defer rows.Close()
	var list []dom.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	query := `
		INSERT INTO todos (owner_id, title, description, due_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + todoColumns
	return scanTodo(r.db.QueryRow(ctx, query, t.OwnerID, t.Title, t.Description, t.DueAt))
}

func (r *PGTodoRepo) GetByID(ctx context.Context, ownerID, id int64) (dom.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos WHERE id = $2 AND owner_id = $1 AND deleted_at IS NULL`
	return scanTodo(r.db.QueryRow(ctx, query, ownerID, id))
}

func (r *PGTodoRepo) List(ctx context.Context, ownerID int64, f ListFilter) ([]dom.Todo, error) {
	order, ok := f.OrderBy()
	if !ok {
		return nil, fmt.Errorf("unsupported sort field %q", f.SortBy)
	}

	query := `
		SELECT ` + todoColumns + `
		FROM todos WHERE owner_id = $1 AND deleted_at IS NULL`
	args := []any{ownerID}
	if f.Completed != nil {
		args = append(args, *f.Completed)
		query += fmt.Sprintf(" AND is_done = $%d", len(args))
	}
	if f.DueFrom != nil && f.DueTo != nil {
		args = append(args, *f.DueFrom, *f.DueTo)
		query += fmt.Sprintf(" AND due_at >= $%d AND due_at <= $%d", len(args)-1, len(args))
	}
	query += " ORDER BY " + order

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectTodos(rows)
}

// ListView fetches the candidate set for the flat list view: todos that
// are deadline-less, not yet past their due day, or completed.
func (r *PGTodoRepo) ListView(ctx context.Context, ownerID int64, dayStart time.Time) ([]dom.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE owner_id = $1 AND deleted_at IS NULL
		  AND (due_at IS NULL OR due_at >= $2 OR is_done)
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, ownerID, dayStart)
	if err != nil {
		return nil, err
	}
	return collectTodos(rows)
}

// FindInWindow fetches every todo relevant to a calendar window:
// completed todos whose completion falls inside it, plus incomplete
// todos whose due date does.
func (r *PGTodoRepo) FindInWindow(ctx context.Context, ownerID int64, start, end time.Time) ([]dom.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE owner_id = $1 AND deleted_at IS NULL
		  AND (
		    (is_done AND COALESCE(completed_at, updated_at) BETWEEN $2 AND $3)
		    OR (NOT is_done AND due_at BETWEEN $2 AND $3)
		  )
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, ownerID, start, end)
	if err != nil {
		return nil, err
	}
	return collectTodos(rows)
}

// Update writes the full patch row. completed_at follows the is_done
// transition: set on false->true, cleared when is_done ends up false.
func (r *PGTodoRepo) Update(ctx context.Context, ownerID, id int64, patch dom.Todo) (dom.Todo, error) {
	query := `
		UPDATE todos SET
			title = $3,
			description = $4,
			due_at = $5,
			is_done = $6,
			completed_at = CASE
				WHEN $6 AND NOT is_done THEN NOW()
				WHEN NOT $6 THEN NULL
				ELSE completed_at
			END,
			updated_at = NOW()
		WHERE id = $2 AND owner_id = $1 AND deleted_at IS NULL
		RETURNING ` + todoColumns
	return scanTodo(r.db.QueryRow(ctx, query, ownerID, id,
		patch.Title, patch.Description, patch.DueAt, patch.IsDone))
}

// SoftDelete marks the row invisible to every read and returns it so
// the client can remove it optimistically.
func (r *PGTodoRepo) SoftDelete(ctx context.Context, ownerID, id int64) (dom.Todo, error) {
	query := `
		UPDATE todos SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND owner_id = $1 AND deleted_at IS NULL
		RETURNING ` + todoColumns
	return scanTodo(r.db.QueryRow(ctx, query, ownerID, id))
}

// ToggleDone flips is_done in a single conditional write, maintaining
// completed_at on both transitions.
func (r *PGTodoRepo) ToggleDone(ctx context.Context, ownerID, id int64) (dom.Todo, error) {
	query := `
		UPDATE todos SET
			is_done = NOT is_done,
			completed_at = CASE WHEN NOT is_done THEN NOW() ELSE NULL END,
			updated_at = NOW()
		WHERE id = $2 AND owner_id = $1 AND deleted_at IS NULL
		RETURNING ` + todoColumns
	return scanTodo(r.db.QueryRow(ctx, query, ownerID, id))
}

func (r *PGTodoRepo) Search(ctx context.Context, ownerID int64, q string) ([]dom.Todo, error) {
	pattern := "%" + q + "%"
	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE owner_id = $1 AND deleted_at IS NULL
		  AND (title ILIKE $2 OR description ILIKE $2)
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, ownerID, pattern)
	if err != nil {
		return nil, err
	}
	return collectTodos(rows)
}

// PurgeOwner soft-deletes every todo the owner has, returning the
// number of rows affected. Used by account deletion.
func (r *PGTodoRepo) PurgeOwner(ctx context.Context, ownerID int64) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE todos SET deleted_at = NOW(), updated_at = NOW()
		 WHERE owner_id = $1 AND deleted_at IS NULL`, ownerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
