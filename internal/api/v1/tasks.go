package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/collabhq/collabboard/internal/domain"
)

type CreateTaskInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
	Body    struct {
		Title       string     `json:"title" minLength:"1" maxLength:"500" doc:"Task title"`
		Description string     `json:"description,omitempty" doc:"Task description"`
		AssigneeID  *uuid.UUID `json:"assignee_id,omitempty" doc:"Assigned user ID"`
	}
}

type CreateTaskOutput struct {
	Body *domain.Task
}

type UpdateTaskInput struct {
	TaskID uuid.UUID `path:"taskID" doc:"Task ID"`
	Body   struct {
		Title       string     `json:"title,omitempty" maxLength:"500" doc:"Task title"`
		Description *string    `json:"description,omitempty" doc:"Task description"`
		AssigneeID  *uuid.UUID `json:"assignee_id,omitempty" doc:"Assigned user ID"`
		Status      string     `json:"status,omitempty" doc:"Target kanban column"`
	}
}

type UpdateTaskOutput struct {
	Body *domain.Task
}

type DeleteTaskInput struct {
	TaskID uuid.UUID `path:"taskID" doc:"Task ID"`
}

func RegisterTaskRoutes(api huma.API, store DataStore, events EventPublisher) {
	huma.Register(api, huma.Operation{
		OperationID: "create-task",
		Method:      http.MethodPost,
		Path:        "/boards/{boardID}/tasks",
		Summary:     "Create a task on a board",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *CreateTaskInput) (*CreateTaskOutput, error) {
		userID, err := requireIdentity(ctx)
		if err != nil {
			return nil, err
		}
		if err := requireMember(ctx, store, input.BoardID, userID); err != nil {
			return nil, err
		}

		now := time.Now()
		t := &domain.Task{
			ID:          uuid.New(),
			BoardID:     input.BoardID,
			Title:       input.Body.Title,
			Description: input.Body.Description,
			Status:      domain.TaskStatusToDo,
			AssigneeID:  input.Body.AssigneeID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := store.Tasks().Create(ctx, t); err != nil {
			return nil, huma.Error500InternalServerError("failed to create task", err)
		}

		// Broadcast is best-effort: the write already succeeded, and
		// clients resynchronize on refresh regardless.
		if err := events.PublishTaskUpdate(ctx, t); err != nil {
			log.Warn().Err(err).Str("task_id", t.ID.String()).Msg("task create broadcast")
		}

		return &CreateTaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        "/tasks/{taskID}",
		Summary:     "Update a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskInput) (*UpdateTaskOutput, error) {
		userID, err := requireIdentity(ctx)
		if err != nil {
			return nil, err
		}

		existing, err := store.Tasks().GetByID(ctx, input.TaskID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}
		if err := requireMember(ctx, store, existing.BoardID, userID); err != nil {
			return nil, err
		}

		if input.Body.Title != "" {
			existing.Title = input.Body.Title
		}
		if input.Body.Description != nil {
			existing.Description = *input.Body.Description
		}
		if input.Body.AssigneeID != nil {
			existing.AssigneeID = input.Body.AssigneeID
		}
		if input.Body.Status != "" {
			status := domain.TaskStatus(input.Body.Status)
			if !status.Valid() {
				return nil, huma.Error400BadRequest("unknown task status: " + input.Body.Status)
			}
			existing.Status = status
		}
		existing.UpdatedAt = time.Now()

		if err := store.Tasks().Update(ctx, existing); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to update task", err)
		}

		if err := events.PublishTaskUpdate(ctx, existing); err != nil {
			log.Warn().Err(err).Str("task_id", existing.ID.String()).Msg("task update broadcast")
		}

		return &UpdateTaskOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{taskID}",
		Summary:     "Delete a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *DeleteTaskInput) (*struct{}, error) {
		userID, err := requireIdentity(ctx)
		if err != nil {
			return nil, err
		}

		existing, err := store.Tasks().GetByID(ctx, input.TaskID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}
		if err := requireMember(ctx, store, existing.BoardID, userID); err != nil {
			return nil, err
		}

		if err := store.Tasks().Delete(ctx, input.TaskID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete task", err)
		}

		if err := events.PublishTaskDeleted(ctx, existing.BoardID, existing.ID); err != nil {
			log.Warn().Err(err).Str("task_id", existing.ID.String()).Msg("task delete broadcast")
		}

		return nil, nil
	})
}
