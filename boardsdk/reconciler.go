package boardsdk

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrEmptyTitle is returned for task creation with no title, before any
// network call is made.
var ErrEmptyTitle = errors.New("boardsdk: task title must not be empty")

// boardAPI is the slice of the REST client the reconciler needs. *Client
// satisfies it.
type boardAPI interface {
	Board(ctx context.Context, boardID uuid.UUID) (*BoardDetail, error)
	CreateTask(ctx context.Context, boardID uuid.UUID, req CreateTaskRequest) (Task, error)
	UpdateTask(ctx context.Context, taskID uuid.UUID, req UpdateTaskRequest) (Task, error)
	DeleteTask(ctx context.Context, taskID uuid.UUID) error
}

// Reconciler keeps an ordered, per-column task cache consistent with the
// server. Moves are optimistic: the cache is respliced before the network
// round trip, kept on success, and fully reverted by refetching the
// authoritative collection on failure. Creation, edits, and deletes are
// pessimistic: the cache changes only after the server confirms.
//
// Ordinal position within a column is client bookkeeping only. Two clients
// moving tasks into the same column concurrently will each see their own
// order until the next Refresh; that divergence window is accepted.
type Reconciler struct {
	api     boardAPI
	boardID uuid.UUID

	mu      sync.Mutex
	columns map[TaskStatus][]Task
}

// NewReconciler creates an empty reconciler for one board. Call Refresh to
// populate it.
func NewReconciler(api boardAPI, boardID uuid.UUID) *Reconciler {
	return &Reconciler{
		api:     api,
		boardID: boardID,
		columns: emptyColumns(),
	}
}

func emptyColumns() map[TaskStatus][]Task {
	return map[TaskStatus][]Task{
		TaskStatusToDo:       {},
		TaskStatusInProgress: {},
		TaskStatusDone:       {},
	}
}

// Refresh replaces the whole cache with the server's task collection.
// Idempotent: refreshing twice against an unchanged server yields the same
// cache. Exactly one task per id survives, whatever the server sent.
func (r *Reconciler) Refresh(ctx context.Context) error {
	detail, err := r.api.Board(ctx, r.boardID)
	if err != nil {
		return fmt.Errorf("boardsdk.Reconciler.Refresh: %w", err)
	}

	columns := emptyColumns()
	seen := make(map[uuid.UUID]bool, len(detail.Tasks))
	for _, t := range detail.Tasks {
		if seen[t.ID] || !t.Status.Valid() {
			continue
		}
		seen[t.ID] = true
		columns[t.Status] = append(columns[t.Status], t)
	}

	r.mu.Lock()
	r.columns = columns
	r.mu.Unlock()
	return nil
}

// Column returns the ordered tasks in one kanban column.
func (r *Reconciler) Column(status TaskStatus) []Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Task, len(r.columns[status]))
	copy(out, r.columns[status])
	return out
}

// Task returns the cached task by id.
func (r *Reconciler) Task(taskID uuid.UUID) (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _, t, ok := r.locate(taskID)
	return t, ok
}

// locate finds a task's column and index. Caller holds r.mu.
func (r *Reconciler) locate(taskID uuid.UUID) (TaskStatus, int, Task, bool) {
	for status, tasks := range r.columns {
		for i, t := range tasks {
			if t.ID == taskID {
				return status, i, t, true
			}
		}
	}
	return "", 0, Task{}, false
}

// CreateTask creates a task on the server, then refreshes the full
// collection. Pessimistic: the server assigns the identity, so there is no
// provisional local card to place.
func (r *Reconciler) CreateTask(ctx context.Context, req CreateTaskRequest) (Task, error) {
	if req.Title == "" {
		return Task{}, ErrEmptyTitle
	}

	t, err := r.api.CreateTask(ctx, r.boardID, req)
	if err != nil {
		return Task{}, fmt.Errorf("boardsdk.Reconciler.CreateTask: %w", err)
	}

	if err := r.Refresh(ctx); err != nil {
		return t, fmt.Errorf("boardsdk.Reconciler.CreateTask: created but refresh failed: %w", err)
	}
	return t, nil
}

// MoveTask moves a task to newIndex within newStatus's column. The cache is
// respliced immediately, before the server call. On success the optimistic
// order stands. On failure the whole collection is refetched and the
// authoritative order replaces the optimistic one; the pre-move order is not
// restored, because local index bookkeeping cannot be trusted after a
// failure.
func (r *Reconciler) MoveTask(ctx context.Context, taskID uuid.UUID, newStatus TaskStatus, newIndex int) error {
	if !newStatus.Valid() {
		return fmt.Errorf("boardsdk.Reconciler.MoveTask: unknown status %q", newStatus)
	}

	r.mu.Lock()
	oldStatus, oldIdx, t, ok := r.locate(taskID)
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("boardsdk.Reconciler.MoveTask: task %s not in cache", taskID)
	}

	// Optimistic splice: remove, restatus, reinsert at the target index.
	col := r.columns[oldStatus]
	r.columns[oldStatus] = append(col[:oldIdx], col[oldIdx+1:]...)

	t.Status = newStatus
	dst := r.columns[newStatus]
	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex > len(dst) {
		newIndex = len(dst)
	}
	dst = append(dst, Task{})
	copy(dst[newIndex+1:], dst[newIndex:])
	dst[newIndex] = t
	r.columns[newStatus] = dst
	r.mu.Unlock()

	updated, err := r.api.UpdateTask(ctx, taskID, UpdateTaskRequest{Status: newStatus})
	if err != nil {
		// Full revert via authoritative refetch, never a forward-only patch.
		if refreshErr := r.Refresh(ctx); refreshErr != nil {
			return errors.Join(
				fmt.Errorf("boardsdk.Reconciler.MoveTask: %w", err),
				refreshErr,
			)
		}
		return fmt.Errorf("boardsdk.Reconciler.MoveTask: %w", err)
	}

	// Success keeps the optimistic position; only the task fields are
	// reconciled with the server's copy.
	r.mu.Lock()
	if status, i, _, ok := r.locate(taskID); ok {
		updated.Status = status
		r.columns[status][i] = updated
	}
	r.mu.Unlock()
	return nil
}

// UpdateTask edits task fields pessimistically: the cache is touched only
// after the server confirms. Status changes belong to MoveTask.
func (r *Reconciler) UpdateTask(ctx context.Context, taskID uuid.UUID, req UpdateTaskRequest) (Task, error) {
	updated, err := r.api.UpdateTask(ctx, taskID, req)
	if err != nil {
		return Task{}, fmt.Errorf("boardsdk.Reconciler.UpdateTask: %w", err)
	}

	r.mu.Lock()
	r.upsertLocked(updated)
	r.mu.Unlock()
	return updated, nil
}

// DeleteTask removes a task pessimistically.
func (r *Reconciler) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	if err := r.api.DeleteTask(ctx, taskID); err != nil {
		return fmt.Errorf("boardsdk.Reconciler.DeleteTask: %w", err)
	}

	r.mu.Lock()
	r.removeLocked(taskID)
	r.mu.Unlock()
	return nil
}

// HandleTaskUpdate applies a confirmed task mutation broadcast by the
// server. A task arriving in a new column is appended at the end; its
// position there is reconciled on the next Refresh.
func (r *Reconciler) HandleTaskUpdate(task Task) {
	if !task.Status.Valid() {
		log.Warn().Str("task_id", task.ID.String()).Str("status", string(task.Status)).Msg("boardsdk: dropping task event with unknown status")
		return
	}

	r.mu.Lock()
	r.upsertLocked(task)
	r.mu.Unlock()
}

// HandleTaskDeleted applies a confirmed task deletion broadcast by the
// server.
func (r *Reconciler) HandleTaskDeleted(taskID uuid.UUID) {
	r.mu.Lock()
	r.removeLocked(taskID)
	r.mu.Unlock()
}

// upsertLocked replaces the cached task in place when its column is
// unchanged, relocates it to the end of the new column otherwise, and
// appends it when unseen. Caller holds r.mu.
func (r *Reconciler) upsertLocked(task Task) {
	status, i, _, ok := r.locate(task.ID)
	switch {
	case ok && status == task.Status:
		r.columns[status][i] = task
	case ok:
		col := r.columns[status]
		r.columns[status] = append(col[:i], col[i+1:]...)
		r.columns[task.Status] = append(r.columns[task.Status], task)
	default:
		r.columns[task.Status] = append(r.columns[task.Status], task)
	}
}

// removeLocked deletes the cached task wherever it sits. Caller holds r.mu.
func (r *Reconciler) removeLocked(taskID uuid.UUID) {
	if status, i, _, ok := r.locate(taskID); ok {
		col := r.columns[status]
		r.columns[status] = append(col[:i], col[i+1:]...)
	}
}
