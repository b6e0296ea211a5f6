package repository

import (
	"strings"

	"github.com/tgienger/myday/internal/logging"
	"github.com/tgienger/myday/internal/models"
)

// TaskEdit is the new state of a task. An empty Project keeps the task
// where it is.
type TaskEdit struct {
	Project string
	models.TaskFields
}

// EditTask applies edit to the named task, moving it to edit.Project when
// that differs from the current project. Everything is validated before
// anything is changed, so a rejected edit leaves both projects untouched.
func (r *Repository) EditTask(projectName, taskName string, edit TaskEdit) (*models.Task, error) {
	src, task, err := r.lookupTask(projectName, taskName)
	if err != nil {
		return nil, err
	}

	dst := src
	if name := strings.TrimSpace(edit.Project); name != "" {
		p, ok := r.Find(name)
		if !ok {
			return nil, models.ProjectNotFound(name)
		}
		dst = p
	}

	fields := edit.TaskFields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	if existing, ok := dst.FindTask(fields.Name); ok && existing != task {
		return nil, models.DuplicateTask(dst.Name, fields.Name)
	}

	if dst == src {
		task.Edit(fields.Name, fields.Description, fields.DueDate, fields.Priority)
		return task, r.Save()
	}

	moved := models.NewTaskFrom(fields)
	if r.policy == PreserveStatus {
		moved.Status = task.Status
	}
	src.DeleteTask(task.Name)
	dst.Tasks = append(dst.Tasks, moved)
	logging.Debug("repository", "moved task %q from %q to %q", moved.Name, src.Name, dst.Name)
	return moved, r.Save()
}
