package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tgienger/myday/internal/filter"
	"github.com/tgienger/myday/internal/logging"
	"github.com/tgienger/myday/internal/models"
	"github.com/tgienger/myday/internal/storage"
)

// DefaultKey is the store key holding the serialized projects
const DefaultKey = "projects"

// ErrCorrupt means the stored data could not be decoded
var ErrCorrupt = errors.New("stored projects are unreadable")

// MovePolicy decides what happens to a task's status when it changes project
type MovePolicy int

const (
	// PreserveStatus carries the status over to the destination project
	PreserveStatus MovePolicy = iota
	// ResetStatus makes the moved task Incomplete again
	ResetStatus
)

func (p MovePolicy) String() string {
	if p == ResetStatus {
		return "reset"
	}
	return "preserve"
}

// ParseMovePolicy reads "preserve" or "reset"
func ParseMovePolicy(s string) (MovePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "preserve":
		return PreserveStatus, nil
	case "reset":
		return ResetStatus, nil
	}
	return PreserveStatus, fmt.Errorf("unknown move policy %q (want preserve or reset)", s)
}

// Option configures a Repository
type Option func(*Repository)

// WithKey overrides the store key
func WithKey(key string) Option {
	return func(r *Repository) { r.key = key }
}

// WithMovePolicy sets the status policy for cross-project moves
func WithMovePolicy(p MovePolicy) Option {
	return func(r *Repository) { r.policy = p }
}

// Repository owns every project and is the persistence boundary.
// It is not safe for concurrent use.
type Repository struct {
	store    storage.Store
	key      string
	policy   MovePolicy
	projects []*models.Project
}

// New creates an empty repository backed by store
func New(store storage.Store, opts ...Option) *Repository {
	r := &Repository{
		store:    store,
		key:      DefaultKey,
		projects: []*models.Project{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open creates a repository and hydrates it. The repository is always
// usable; a non-nil error reports data that could not be loaded.
func Open(store storage.Store, opts ...Option) (*Repository, error) {
	r := New(store, opts...)
	return r, r.Load()
}

// Load replaces the in-memory collection with the stored one. Missing data
// yields an empty collection. Unreadable data also yields an empty
// collection; the raw bytes are copied to "<key>.bak" first.
func (r *Repository) Load() error {
	r.projects = []*models.Project{}

	data, err := r.store.Get(r.key)
	if err != nil {
		return fmt.Errorf("load projects: %w", err)
	}
	if data == nil {
		logging.Debug("repository", "no stored projects under %q", r.key)
		return nil
	}

	snap, err := UnmarshalSnapshot(data)
	if err != nil {
		if berr := r.store.Set(r.key+".bak", data); berr != nil {
			logging.Warn("repository", "could not back up unreadable data: %v", berr)
		}
		return fmt.Errorf("load projects: %w: %w", ErrCorrupt, err)
	}

	projects, renames := snap.Build()
	for _, rn := range renames {
		logging.Warn("repository", "renamed %s", rn)
	}
	r.projects = projects
	logging.Debug("repository", "loaded %d projects (schema v%d)", len(projects), snap.Version)
	return nil
}

// Save writes the whole collection to the store
func (r *Repository) Save() error {
	data, err := NewSnapshot(r.projects).Marshal()
	if err != nil {
		return fmt.Errorf("save projects: %w", err)
	}
	if err := r.store.Set(r.key, data); err != nil {
		return fmt.Errorf("save projects: %w", err)
	}
	return nil
}

// All returns the live collection. Callers must not modify the slice.
func (r *Repository) All() []*models.Project {
	return r.projects
}

// Names returns the project names in order
func (r *Repository) Names() []string {
	names := make([]string, len(r.projects))
	for i, p := range r.projects {
		names[i] = p.Name
	}
	return names
}

// Find looks up a project by exact name after trimming
func (r *Repository) Find(name string) (*models.Project, bool) {
	i := r.indexOf(name)
	if i < 0 {
		return nil, false
	}
	return r.projects[i], true
}

// Add appends a project, rejecting empty, reserved and duplicate project
// names as well as empty and duplicate task names
func (r *Repository) Add(project *models.Project) error {
	name := strings.TrimSpace(project.Name)
	if err := r.checkProjectName(name, nil); err != nil {
		return err
	}
	taskNames, err := checkTaskNames(name, project.Tasks)
	if err != nil {
		return err
	}
	project.Name = name
	applyTaskNames(project, taskNames)
	if project.Tasks == nil {
		project.Tasks = []*models.Task{}
	}
	r.projects = append(r.projects, project)
	logging.Debug("repository", "added project %q", project.Name)
	return r.Save()
}

// CreateProject builds and adds an empty project
func (r *Repository) CreateProject(name string) (*models.Project, error) {
	p := models.NewProject(name)
	if err := r.Add(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the named project. A missing name is a no-op.
func (r *Repository) Delete(name string) error {
	i := r.indexOf(name)
	if i < 0 {
		return nil
	}
	r.projects = append(r.projects[:i], r.projects[i+1:]...)
	logging.Debug("repository", "deleted project %q", strings.TrimSpace(name))
	return r.Save()
}

// RenameProject renames a project, keeping names unique
func (r *Repository) RenameProject(oldName, newName string) error {
	p, ok := r.Find(oldName)
	if !ok {
		return models.ProjectNotFound(strings.TrimSpace(oldName))
	}
	newName = strings.TrimSpace(newName)
	if err := r.checkProjectName(newName, p); err != nil {
		return err
	}
	p.Rename(newName)
	return r.Save()
}

// AddTask validates the fields and appends a new task to the named project
func (r *Repository) AddTask(projectName string, fields models.TaskFields) (*models.Task, error) {
	p, ok := r.Find(projectName)
	if !ok {
		return nil, models.ProjectNotFound(strings.TrimSpace(projectName))
	}
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	task := models.NewTaskFrom(fields)
	if err := p.AddTask(task); err != nil {
		return nil, err
	}
	return task, r.Save()
}

// ToggleTask flips the status of a task
func (r *Repository) ToggleTask(projectName, taskName string) (*models.Task, error) {
	_, task, err := r.lookupTask(projectName, taskName)
	if err != nil {
		return nil, err
	}
	task.ToggleStatus()
	return task, r.Save()
}

// DeleteTask removes a task. A missing task is a no-op; a missing project is not.
func (r *Repository) DeleteTask(projectName, taskName string) error {
	p, ok := r.Find(projectName)
	if !ok {
		return models.ProjectNotFound(strings.TrimSpace(projectName))
	}
	if !p.DeleteTask(taskName) {
		return nil
	}
	return r.Save()
}

// Replace swaps the whole collection, e.g. on import.
// Nothing is modified unless every project and task name is valid.
func (r *Repository) Replace(projects []*models.Project) error {
	names := make([]string, len(projects))
	taskNames := make([][]string, len(projects))
	seen := make(map[string]bool, len(projects))
	for i, p := range projects {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return models.EmptyProjectName()
		}
		if filter.IsView(name) {
			return fmt.Errorf("project %q: %w", name, models.ErrReservedName)
		}
		if seen[name] {
			return models.DuplicateProject(name)
		}
		seen[name] = true

		tn, err := checkTaskNames(name, p.Tasks)
		if err != nil {
			return err
		}
		names[i], taskNames[i] = name, tn
	}
	for i, p := range projects {
		p.Name = names[i]
		applyTaskNames(p, taskNames[i])
		if p.Tasks == nil {
			p.Tasks = []*models.Task{}
		}
	}
	r.projects = projects
	return r.Save()
}

// checkTaskNames returns the trimmed task names of a project, rejecting
// empty and duplicate names
func checkTaskNames(project string, tasks []*models.Task) ([]string, error) {
	names := make([]string, len(tasks))
	seen := make(map[string]bool, len(tasks))
	for i, t := range tasks {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, fmt.Errorf("task in project %q: %w", project, models.ErrEmptyName)
		}
		if seen[name] {
			return nil, models.DuplicateTask(project, name)
		}
		seen[name] = true
		names[i] = name
	}
	return names, nil
}

func applyTaskNames(p *models.Project, names []string) {
	for i, t := range p.Tasks {
		t.Name = names[i]
	}
}

func (r *Repository) lookupTask(projectName, taskName string) (*models.Project, *models.Task, error) {
	p, ok := r.Find(projectName)
	if !ok {
		return nil, nil, models.ProjectNotFound(strings.TrimSpace(projectName))
	}
	task, ok := p.FindTask(taskName)
	if !ok {
		return nil, nil, models.TaskNotFound(p.Name, strings.TrimSpace(taskName))
	}
	return p, task, nil
}

// checkProjectName validates name for a new project, or for self when renaming
func (r *Repository) checkProjectName(name string, self *models.Project) error {
	if name == "" {
		return models.EmptyProjectName()
	}
	if filter.IsView(name) {
		return fmt.Errorf("project %q: %w", name, models.ErrReservedName)
	}
	if existing, ok := r.Find(name); ok && existing != self {
		return models.DuplicateProject(name)
	}
	return nil
}

func (r *Repository) indexOf(name string) int {
	name = strings.TrimSpace(name)
	for i, p := range r.projects {
		if p.Name == name {
			return i
		}
	}
	return -1
}
