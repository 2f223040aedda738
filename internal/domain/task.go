package domain

import "time"

// TaskStatus enumerates lifecycle states for tasks.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Valid reports whether the status is one of the known values.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// TaskPriority enumerates urgency levels.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Valid reports whether the priority is one of the known values.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task is a to-do item owned by exactly one user. CompletedAt is non-nil iff
// Status is completed; ApplyStatus maintains that coupling.
type Task struct {
	ID          string
	OwnerID     string
	Title       string
	Description *string
	Status      TaskStatus
	Priority    TaskPriority
	DueDate     *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ApplyStatus sets the status and keeps CompletedAt coupled to it: entering
// completed stamps now, leaving completed clears the stamp. Transitions in
// any direction are allowed.
func (t *Task) ApplyStatus(status TaskStatus, now time.Time) {
	if status == TaskStatusCompleted {
		if t.Status != TaskStatusCompleted || t.CompletedAt == nil {
			completedAt := now
			t.CompletedAt = &completedAt
		}
	} else {
		t.CompletedAt = nil
	}
	t.Status = status
}

// TaskSummary is a derived aggregate over one user's tasks.
type TaskSummary struct {
	TotalTasks      int
	CompletedTasks  int
	InProgressTasks int
	TodoTasks       int
	CompletionRate  float64
}

// Summarize computes per-status counts and the completion rate. The rate is
// zero for an empty task list.
func Summarize(tasks []Task) TaskSummary {
	summary := TaskSummary{TotalTasks: len(tasks)}
	for _, task := range tasks {
		switch task.Status {
		case TaskStatusCompleted:
			summary.CompletedTasks++
		case TaskStatusInProgress:
			summary.InProgressTasks++
		case TaskStatusTodo:
			summary.TodoTasks++
		}
	}
	if summary.TotalTasks > 0 {
		summary.CompletionRate = float64(summary.CompletedTasks) / float64(summary.TotalTasks) * 100
	}
	return summary
}
