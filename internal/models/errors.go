package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateName   = errors.New("duplicate name")
	ErrEmptyName       = errors.New("name is required")
	ErrReservedName    = errors.New("name is reserved")
	ErrInvalidDueDate  = errors.New("invalid due date")
	ErrInvalidPriority = errors.New("invalid priority")
)

// ProjectNotFound wraps ErrNotFound for a project lookup miss
func ProjectNotFound(name string) error {
	return fmt.Errorf("project %q: %w", name, ErrNotFound)
}

// TaskNotFound wraps ErrNotFound for a task lookup miss
func TaskNotFound(project, name string) error {
	return fmt.Errorf("task %q in project %q: %w", name, project, ErrNotFound)
}

// DuplicateProject wraps ErrDuplicateName for a project name collision
func DuplicateProject(name string) error {
	return fmt.Errorf("project %q already exists: %w", name, ErrDuplicateName)
}

// DuplicateTask wraps ErrDuplicateName for a task name collision
func DuplicateTask(project, name string) error {
	return fmt.Errorf("task %q already exists in project %q: %w", name, project, ErrDuplicateName)
}

func emptyName(kind string) error {
	return fmt.Errorf("%s: %w", kind, ErrEmptyName)
}

// EmptyProjectName wraps ErrEmptyName for projects
func EmptyProjectName() error {
	return emptyName("project")
}

func invalidDueDate(s string) error {
	return fmt.Errorf("%q is not a YYYY-MM-DD date: %w", s, ErrInvalidDueDate)
}

func invalidPriority(s string) error {
	return fmt.Errorf("%q (want Low, Medium or High): %w", s, ErrInvalidPriority)
}
