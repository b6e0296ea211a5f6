package models

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used for task due dates
const DateLayout = "2006-01-02"

// Priority of a task. The zero value means no priority.
type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists the selectable priorities in display order
var Priorities = []Priority{PriorityNone, PriorityLow, PriorityMedium, PriorityHigh}

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority accepts any casing of a known priority name
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	for _, p := range Priorities {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return PriorityNone, invalidPriority(s)
}

// Status is the completion state of a task
type Status string

const (
	StatusIncomplete Status = "Incomplete"
	StatusComplete   Status = "Complete"
)

// TaskFields holds the user-editable fields of a task
type TaskFields struct {
	Name        string
	Description string
	DueDate     string // YYYY-MM-DD or empty
	Priority    Priority
}

// Normalize trims the free-text fields
func (f TaskFields) Normalize() TaskFields {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	f.DueDate = strings.TrimSpace(f.DueDate)
	return f
}

// Validate checks the name, due date and priority
func (f TaskFields) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return emptyName("task")
	}
	if _, _, err := ParseDueDate(f.DueDate, time.Local); err != nil {
		return err
	}
	if !f.Priority.Valid() {
		return invalidPriority(string(f.Priority))
	}
	return nil
}

// Task represents a single unit of work
type Task struct {
	Name        string
	Description string
	DueDate     string
	Priority    Priority
	Status      Status
}

// NewTask creates an incomplete task. No validation is done here.
func NewTask(name, description, dueDate string, priority Priority) *Task {
	return &Task{
		Name:        name,
		Description: description,
		DueDate:     dueDate,
		Priority:    priority,
		Status:      StatusIncomplete,
	}
}

// NewTaskFrom creates an incomplete task from form fields
func NewTaskFrom(f TaskFields) *Task {
	return NewTask(f.Name, f.Description, f.DueDate, f.Priority)
}

// ToggleStatus flips the task between Incomplete and Complete
func (t *Task) ToggleStatus() {
	if t.Status == StatusComplete {
		t.Status = StatusIncomplete
		return
	}
	t.Status = StatusComplete
}

// Done reports whether the task is complete
func (t *Task) Done() bool {
	return t.Status == StatusComplete
}

// Edit overwrites every field except Status
func (t *Task) Edit(name, description, dueDate string, priority Priority) {
	t.Name = name
	t.Description = description
	t.DueDate = dueDate
	t.Priority = priority
}

// Fields returns the editable fields of the task
func (t *Task) Fields() TaskFields {
	return TaskFields{
		Name:        t.Name,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    t.Priority,
	}
}

// Due parses the due date in loc. ok is false when the task has no usable due date.
func (t *Task) Due(loc *time.Location) (time.Time, bool) {
	d, ok, err := ParseDueDate(t.DueDate, loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, ok
}

// ParseDueDate parses a YYYY-MM-DD date as midnight in loc.
// An empty string yields ok == false and no error.
func ParseDueDate(s string, loc *time.Location) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, nil
	}
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, false, invalidDueDate(s)
	}
	return d, true, nil
}

// Project represents a named, ordered collection of tasks
type Project struct {
	Name  string
	Tasks []*Task
}

// NewProject creates an empty project
func NewProject(name string) *Project {
	return &Project{
		Name:  strings.TrimSpace(name),
		Tasks: []*Task{},
	}
}

// AddTask appends a task, rejecting empty and duplicate names
func (p *Project) AddTask(task *Task) error {
	name := strings.TrimSpace(task.Name)
	if name == "" {
		return emptyName("task")
	}
	if _, ok := p.FindTask(name); ok {
		return DuplicateTask(p.Name, name)
	}
	task.Name = name
	p.Tasks = append(p.Tasks, task)
	return nil
}

// FindTask looks up a task by exact (trimmed) name
func (p *Project) FindTask(name string) (*Task, bool) {
	i := p.indexOf(name)
	if i < 0 {
		return nil, false
	}
	return p.Tasks[i], true
}

// DeleteTask removes the named task. Returns false if there was none.
func (p *Project) DeleteTask(name string) bool {
	i := p.indexOf(name)
	if i < 0 {
		return false
	}
	p.Tasks = append(p.Tasks[:i], p.Tasks[i+1:]...)
	return true
}

// Rename overwrites the project name. Uniqueness is checked by the repository.
func (p *Project) Rename(newName string) {
	p.Name = strings.TrimSpace(newName)
}

// Len returns the number of tasks
func (p *Project) Len() int {
	return len(p.Tasks)
}

// TaskNames returns the task names in display order
func (p *Project) TaskNames() []string {
	names := make([]string, len(p.Tasks))
	for i, t := range p.Tasks {
		names[i] = t.Name
	}
	return names
}

func (p *Project) indexOf(name string) int {
	name = strings.TrimSpace(name)
	for i, t := range p.Tasks {
		if t.Name == name {
			return i
		}
	}
	return -1
}
