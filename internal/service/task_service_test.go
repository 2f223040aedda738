package service

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/todo-service/internal/domain"
	"github.com/spec-kit/todo-service/internal/events"
	apperrors "github.com/spec-kit/todo-service/pkg/util"
)

// memTaskRepo is an in-memory TaskRepository for service tests.
type memTaskRepo struct {
	tasks map[string]*domain.Task
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: make(map[string]*domain.Task)}
}

func (r *memTaskRepo) Create(_ context.Context, task *domain.Task) error {
	task.ID = uuid.NewString()
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	stored := *task
	r.tasks[task.ID] = &stored
	return nil
}

func (r *memTaskRepo) Update(_ context.Context, task *domain.Task) error {
	if _, ok := r.tasks[task.ID]; !ok {
		return pgx.ErrNoRows
	}
	task.UpdatedAt = time.Now()
	stored := *task
	r.tasks[task.ID] = &stored
	return nil
}

func (r *memTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	if task, ok := r.tasks[id]; ok {
		copied := *task
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *memTaskRepo) ListByOwner(_ context.Context, ownerID string, status *domain.TaskStatus) ([]domain.Task, error) {
	var result []domain.Task
	for _, task := range r.tasks {
		if task.OwnerID != ownerID {
			continue
		}
		if status != nil && task.Status != *status {
			continue
		}
		result = append(result, *task)
	}
	return result, nil
}

func (r *memTaskRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tasks[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tasks, id)
	return nil
}

func setupTaskService() (*TaskService, *memTaskRepo, *eventRecorder) {
	repo := newMemTaskRepo()
	dispatcher := events.NewInMemoryDispatcher()
	recorder := &eventRecorder{}
	recorder.subscribeAll(dispatcher)
	return NewTaskService(repo, dispatcher), repo, recorder
}

// eventRecorder collects everything published during a test.
type eventRecorder struct {
	events []events.Event
}

func (r *eventRecorder) subscribeAll(d events.Dispatcher) {
	for _, eventType := range []events.EventType{
		events.EventTaskCreated,
		events.EventTaskStatusChanged,
		events.EventTaskCompleted,
		events.EventTaskDeleted,
	} {
		d.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			r.events = append(r.events, event)
			return nil
		})
	}
}

func (r *eventRecorder) typesSeen() []events.EventType {
	seen := make([]events.EventType, 0, len(r.events))
	for _, event := range r.events {
		seen = append(seen, event.Type)
	}
	return seen
}

func TestTaskService_CreateTask(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name           string
		input          TaskCreateInput
		errorAssertion func(t *testing.T, err error)
		check          func(t *testing.T, task *domain.Task)
	}{
		{
			name:  "defaults applied",
			input: TaskCreateInput{Title: "T"},
			check: func(t *testing.T, task *domain.Task) {
				assert.Equal(t, domain.TaskStatusTodo, task.Status)
				assert.Equal(t, domain.TaskPriorityMedium, task.Priority)
				assert.Nil(t, task.CompletedAt)
			},
		},
		{
			name:  "explicit todo has nil completed_at",
			input: TaskCreateInput{Title: "T", Status: domain.TaskStatusTodo},
			check: func(t *testing.T, task *domain.Task) {
				assert.Nil(t, task.CompletedAt)
			},
		},
		{
			name:  "created as completed is stamped",
			input: TaskCreateInput{Title: "T", Status: domain.TaskStatusCompleted},
			check: func(t *testing.T, task *domain.Task) {
				assert.NotNil(t, task.CompletedAt)
			},
		},
		{
			name:  "multibyte title at limit accepted",
			input: TaskCreateInput{Title: strings.Repeat("ő", 255)},
			check: func(t *testing.T, task *domain.Task) {
				assert.Equal(t, 255, utf8.RuneCountInString(task.Title))
			},
		},
		{
			name:  "title over limit rejected",
			input: TaskCreateInput{Title: strings.Repeat("ő", 256)},
			errorAssertion: func(t *testing.T, err error) {
				assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
			},
		},
		{
			name:  "empty title rejected",
			input: TaskCreateInput{Title: "   "},
			errorAssertion: func(t *testing.T, err error) {
				assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
			},
		},
		{
			name:  "unknown status rejected",
			input: TaskCreateInput{Title: "T", Status: "archived"},
			errorAssertion: func(t *testing.T, err error) {
				assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
			},
		},
		{
			name:  "unknown priority rejected",
			input: TaskCreateInput{Title: "T", Priority: "urgent"},
			errorAssertion: func(t *testing.T, err error) {
				assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := setupTaskService()
			task, err := svc.CreateTask(ctx, "alice-id", tt.input)
			if tt.errorAssertion != nil {
				require.Error(t, err)
				tt.errorAssertion(t, err)
				assert.Nil(t, task)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, task)
			assert.NotEmpty(t, task.ID)
			assert.Equal(t, "alice-id", task.OwnerID)
			tt.check(t, task)
		})
	}
}

func TestTaskService_CompletedAtToggle(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupTaskService()

	task, err := svc.CreateTask(ctx, "alice-id", TaskCreateInput{Title: "T", Status: domain.TaskStatusTodo})
	require.NoError(t, err)
	require.Nil(t, task.CompletedAt)

	completed := domain.TaskStatusCompleted
	task, err = svc.UpdateTask(ctx, "alice-id", task.ID, TaskUpdateInput{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)
	assert.NotNil(t, task.CompletedAt)

	todo := domain.TaskStatusTodo
	task, err = svc.UpdateTask(ctx, "alice-id", task.ID, TaskUpdateInput{Status: &todo})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusTodo, task.Status)
	assert.Nil(t, task.CompletedAt)
}

func TestTaskService_UpdateClearsNullableFields(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupTaskService()

	desc := "notes"
	due := time.Now().Add(24 * time.Hour)
	task, err := svc.CreateTask(ctx, "alice-id", TaskCreateInput{Title: "T", Description: &desc, DueDate: &due})
	require.NoError(t, err)
	require.NotNil(t, task.Description)
	require.NotNil(t, task.DueDate)

	t.Run("unset patches leave fields alone", func(t *testing.T) {
		newTitle := "renamed"
		updated, err := svc.UpdateTask(ctx, "alice-id", task.ID, TaskUpdateInput{Title: &newTitle})
		require.NoError(t, err)
		require.NotNil(t, updated.Description)
		assert.Equal(t, "notes", *updated.Description)
		assert.NotNil(t, updated.DueDate)
	})

	t.Run("explicit nulls clear fields", func(t *testing.T) {
		updated, err := svc.UpdateTask(ctx, "alice-id", task.ID, TaskUpdateInput{
			Description: Patch[string]{Set: true},
			DueDate:     Patch[time.Time]{Set: true},
		})
		require.NoError(t, err)
		assert.Nil(t, updated.Description)
		assert.Nil(t, updated.DueDate)
	})

	t.Run("set patch with value replaces", func(t *testing.T) {
		replacement := "new notes"
		updated, err := svc.UpdateTask(ctx, "alice-id", task.ID, TaskUpdateInput{
			Description: Patch[string]{Set: true, Value: &replacement},
		})
		require.NoError(t, err)
		require.NotNil(t, updated.Description)
		assert.Equal(t, "new notes", *updated.Description)
	})
}

func TestTaskService_OwnershipEnforcement(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupTaskService()

	task, err := svc.CreateTask(ctx, "alice-id", TaskCreateInput{Title: "alice's task"})
	require.NoError(t, err)

	inProgress := domain.TaskStatusInProgress

	t.Run("bob cannot read", func(t *testing.T) {
		_, err := svc.GetTask(ctx, "bob-id", task.ID)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
	})

	t.Run("bob cannot update", func(t *testing.T) {
		_, err := svc.UpdateTask(ctx, "bob-id", task.ID, TaskUpdateInput{Status: &inProgress})
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
	})

	t.Run("bob cannot delete", func(t *testing.T) {
		err := svc.DeleteTask(ctx, "bob-id", task.ID)
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
	})

	t.Run("missing task is not-found even for a stranger", func(t *testing.T) {
		_, err := svc.GetTask(ctx, "bob-id", uuid.NewString())
		require.Error(t, err)
		domainErr := apperrors.ToDomainError(err)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
		assert.Equal(t, 404, domainErr.HTTPStatus)
	})

	t.Run("owner retains full access", func(t *testing.T) {
		got, err := svc.GetTask(ctx, "alice-id", task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, got.ID)
	})
}

func TestTaskService_UpdateRejectionLeavesTaskUntouched(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := setupTaskService()

	task, err := svc.CreateTask(ctx, "alice-id", TaskCreateInput{Title: "original"})
	require.NoError(t, err)

	newTitle := "renamed"
	badPriority := domain.TaskPriority("urgent")
	_, err = svc.UpdateTask(ctx, "alice-id", task.ID, TaskUpdateInput{Title: &newTitle, Priority: &badPriority})
	require.Error(t, err)

	stored, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Title)
	assert.Equal(t, domain.TaskPriorityMedium, stored.Priority)
}

func TestTaskService_ListTasks(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupTaskService()

	_, err := svc.CreateTask(ctx, "alice-id", TaskCreateInput{Title: "a", Status: domain.TaskStatusTodo})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, "alice-id", TaskCreateInput{Title: "b", Status: domain.TaskStatusCompleted})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, "bob-id", TaskCreateInput{Title: "c"})
	require.NoError(t, err)

	all, err := svc.ListTasks(ctx, "alice-id", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed := domain.TaskStatusCompleted
	filtered, err := svc.ListTasks(ctx, "alice-id", &completed)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "b", filtered[0].Title)

	bad := domain.TaskStatus("archived")
	_, err = svc.ListTasks(ctx, "alice-id", &bad)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestTaskService_Summary(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupTaskService()

	t.Run("empty owner has zero rate", func(t *testing.T) {
		summary, err := svc.Summary(ctx, "alice-id")
		require.NoError(t, err)
		assert.Equal(t, domain.TaskSummary{}, summary)
	})

	_, err := svc.CreateTask(ctx, "alice-id", TaskCreateInput{Title: "a"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, "alice-id", TaskCreateInput{Title: "b", Status: domain.TaskStatusCompleted})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, "alice-id")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalTasks)
	assert.Equal(t, 1, summary.CompletedTasks)
	assert.Equal(t, 1, summary.TodoTasks)
	assert.Equal(t, 0, summary.InProgressTasks)
	assert.InDelta(t, 50.0, summary.CompletionRate, 0.001)
}

func TestTaskService_EventsPublished(t *testing.T) {
	ctx := context.Background()
	svc, _, recorder := setupTaskService()

	task, err := svc.CreateTask(ctx, "alice-id", TaskCreateInput{Title: "T"})
	require.NoError(t, err)

	completed := domain.TaskStatusCompleted
	_, err = svc.UpdateTask(ctx, "alice-id", task.ID, TaskUpdateInput{Status: &completed})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(ctx, "alice-id", task.ID))

	assert.Equal(t, []events.EventType{
		events.EventTaskCreated,
		events.EventTaskStatusChanged,
		events.EventTaskCompleted,
		events.EventTaskDeleted,
	}, recorder.typesSeen())

	for _, event := range recorder.events {
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, task.ID, event.TaskID)
		assert.Equal(t, "alice-id", event.OwnerID)
	}
}
