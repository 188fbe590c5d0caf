package model

import (
	"strings"
	"time"
)

// MaxDepthLevel is the deepest level a task may sit at. Tasks at this level
// cannot receive children.
const MaxDepthLevel = 2

// Status is the workflow state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// Statuses lists every valid status in workflow order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusReview, StatusDone}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task represents a unit of work inside a project.
type Task struct {
	ID           string     `json:"id" db:"id"`
	ProjectID    string     `json:"project_id" db:"project_id"`
	ParentTaskID *string    `json:"parent_task_id,omitempty" db:"parent_task_id"`
	DepthLevel   int        `json:"depth_level" db:"depth_level"`
	Title        string     `json:"title" db:"title"`
	Description  *string    `json:"description,omitempty" db:"description"`
	Status       Status     `json:"status" db:"status"`
	Priority     Priority   `json:"priority" db:"priority"`
	AssigneeID   *string    `json:"assignee_id,omitempty" db:"assignee_id"`
	DueDate      *time.Time `json:"due_date,omitempty" db:"due_date"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	OrderIndex   int        `json:"order_index" db:"order_index"`
	CreatedBy    string     `json:"created_by" db:"created_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// HasParent reports whether the task declares a parent.
func (t *Task) HasParent() bool {
	return t.ParentTaskID != nil && *t.ParentTaskID != ""
}

// TaskNode is a task annotated with its children for tree rendering.
type TaskNode struct {
	Task
	Children   []*TaskNode `json:"children"`
	ChildCount int         `json:"child_count"`
}

// CreateTaskRequest represents the request body for creating a task.
type CreateTaskRequest struct {
	ProjectID    string     `json:"-"`
	ParentTaskID *string    `json:"parent_task_id,omitempty"`
	DepthLevel   *int       `json:"depth_level,omitempty"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	Status       Status     `json:"status,omitempty"`
	Priority     Priority   `json:"priority,omitempty"`
	AssigneeID   *string    `json:"assignee_id,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	OrderIndex   *int       `json:"order_index,omitempty"`
}

// Validate checks if the CreateTaskRequest is valid.
func (r *CreateTaskRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrTitleRequired
	}
	if r.Status != "" && !r.Status.Valid() {
		return ErrInvalidStatus
	}
	if r.Priority != "" && !r.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

// UpdateTaskRequest represents a partial task update. Nil fields are left
// untouched.
type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	AssigneeID  *string    `json:"assignee_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	OrderIndex  *int       `json:"order_index,omitempty"`
}

// Validate checks if the UpdateTaskRequest is valid.
func (r *UpdateTaskRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return ErrTitleRequired
	}
	if r.Status != nil && !r.Status.Valid() {
		return ErrInvalidStatus
	}
	if r.Priority != nil && !r.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

// ReorderRequest carries the new sibling order of a project's tasks.
type ReorderRequest struct {
	TaskIDs []string `json:"task_ids"`
}

// OrderUpdate assigns an order index to a single task.
type OrderUpdate struct {
	ID         string
	OrderIndex int
}

// ReorderResult reports how a reorder request was applied.
type ReorderResult struct {
	Updated int      `json:"updated"`
	Skipped []string `json:"skipped"`
}

// TaskStats aggregates the tasks of a project.
type TaskStats struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"by_status"`
	Overdue  int            `json:"overdue"`
}
