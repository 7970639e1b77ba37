package domain

import "time"

// Todo is the domain entity for a single task. It is owned by exactly
// one user and is never visible outside that user's scope.
//
// CompletedAt is set when IsDone flips false->true and cleared on the
// reverse flip. The calendar view buckets completed todos by this
// timestamp; UpdatedAt stays a pure audit field.
type Todo struct {
	ID          int64
	OwnerID     int64
	Title       string
	Description string
	IsDone      bool
	DueAt       *time.Time
	CompletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// DoneAt returns the completion instant of a completed todo. Rows
// completed before the completed_at column existed are backfilled from
// updated_at by migration, but a nil check stays here for safety.
func (t Todo) DoneAt() time.Time {
	if t.CompletedAt != nil {
		return *t.CompletedAt
	}
	return t.UpdatedAt
}
