package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/todo-service/internal/auth"
	"github.com/spec-kit/todo-service/internal/domain"
	"github.com/spec-kit/todo-service/internal/events"
	"github.com/spec-kit/todo-service/internal/repository"
	apperrors "github.com/spec-kit/todo-service/pkg/util"
)

const maxTitleLength = 255

// TaskService coordinates ownership-scoped task workflows. Every operation
// that touches a specific task resolves it first and checks ownership before
// reading or mutating anything.
type TaskService struct {
	tasks      repository.TaskRepository
	dispatcher events.Dispatcher
}

// NewTaskService constructs the service.
func NewTaskService(tasks repository.TaskRepository, dispatcher events.Dispatcher) *TaskService {
	return &TaskService{tasks: tasks, dispatcher: dispatcher}
}

// TaskCreateInput describes task creation payload. Zero-value status and
// priority fall back to todo/medium.
type TaskCreateInput struct {
	Title       string
	Description *string
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
	DueDate     *time.Time
}

// Patch wraps a nullable field of a partial update. An unset patch leaves
// the stored value alone; a set patch with a nil value clears it.
type Patch[T any] struct {
	Set   bool
	Value *T
}

// TaskUpdateInput describes a partial update; unset fields are left untouched.
type TaskUpdateInput struct {
	Title       *string
	Description Patch[string]
	Status      *domain.TaskStatus
	Priority    *domain.TaskPriority
	DueDate     Patch[time.Time]
}

// CreateTask creates a task owned by ownerID.
func (s *TaskService) CreateTask(ctx context.Context, ownerID string, input TaskCreateInput) (*domain.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, apperrors.NewValidationError("title too long", map[string]any{"max_length": maxTitleLength})
	}

	status := input.Status
	if status == "" {
		status = domain.TaskStatusTodo
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": string(status)})
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": string(priority)})
	}

	task := &domain.Task{
		OwnerID:     ownerID,
		Title:       title,
		Description: input.Description,
		Priority:    priority,
		DueDate:     input.DueDate,
	}
	// Keeps completed_at coupled to status even for tasks born completed.
	task.ApplyStatus(status, time.Now())

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventTaskCreated,
		TaskID:  task.ID,
		OwnerID: ownerID,
		Payload: events.TaskCreatedPayload{Title: task.Title, Status: task.Status, Priority: task.Priority},
	})
	return task, nil
}

// GetTask returns a task if it exists and actorID owns it.
func (s *TaskService) GetTask(ctx context.Context, actorID, taskID string) (*domain.Task, error) {
	return s.getOwned(ctx, actorID, taskID)
}

// ListTasks returns the owner's tasks, optionally filtered by status.
func (s *TaskService) ListTasks(ctx context.Context, ownerID string, status *domain.TaskStatus) ([]domain.Task, error) {
	if status != nil && !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": string(*status)})
	}
	return s.tasks.ListByOwner(ctx, ownerID, status)
}

// UpdateTask applies a partial update to an owned task. Validation happens
// before any field is touched, so a rejected update leaves the task as it was.
func (s *TaskService) UpdateTask(ctx context.Context, actorID, taskID string, input TaskUpdateInput) (*domain.Task, error) {
	task, err := s.getOwned(ctx, actorID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		trimmed := strings.TrimSpace(*input.Title)
		if trimmed == "" {
			return nil, apperrors.NewValidationError("title required", nil)
		}
		if utf8.RuneCountInString(trimmed) > maxTitleLength {
			return nil, apperrors.NewValidationError("title too long", map[string]any{"max_length": maxTitleLength})
		}
		input.Title = &trimmed
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": string(*input.Status)})
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": string(*input.Priority)})
	}

	oldStatus := task.Status
	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description.Set {
		task.Description = input.Description.Value
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.DueDate.Set {
		task.DueDate = input.DueDate.Value
	}
	if input.Status != nil {
		task.ApplyStatus(*input.Status, time.Now())
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("task", map[string]any{"id": taskID})
		}
		return nil, err
	}

	if task.Status != oldStatus {
		s.publish(ctx, events.Event{
			Type:    events.EventTaskStatusChanged,
			TaskID:  task.ID,
			OwnerID: actorID,
			Payload: events.TaskStatusChangedPayload{OldStatus: oldStatus, NewStatus: task.Status},
		})
		if task.Status == domain.TaskStatusCompleted {
			s.publish(ctx, events.Event{
				Type:    events.EventTaskCompleted,
				TaskID:  task.ID,
				OwnerID: actorID,
			})
		}
	}
	return task, nil
}

// DeleteTask removes an owned task.
func (s *TaskService) DeleteTask(ctx context.Context, actorID, taskID string) error {
	task, err := s.getOwned(ctx, actorID, taskID)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("task", map[string]any{"id": taskID})
		}
		return err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventTaskDeleted,
		TaskID:  task.ID,
		OwnerID: actorID,
		Payload: events.TaskDeletedPayload{Title: task.Title},
	})
	return nil
}

// Summary aggregates the owner's tasks into counts and a completion rate.
func (s *TaskService) Summary(ctx context.Context, ownerID string) (domain.TaskSummary, error) {
	tasks, err := s.tasks.ListByOwner(ctx, ownerID, nil)
	if err != nil {
		return domain.TaskSummary{}, err
	}
	return domain.Summarize(tasks), nil
}

// getOwned resolves the task and enforces ownership. Not-found is decided
// strictly before the ownership check.
func (s *TaskService) getOwned(ctx context.Context, actorID, taskID string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("task", map[string]any{"id": taskID})
		}
		return nil, err
	}
	if err := auth.AuthorizeOwner(actorID, task.OwnerID); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}
