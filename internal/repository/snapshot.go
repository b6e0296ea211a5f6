package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tgienger/myday/internal/filter"
	"github.com/tgienger/myday/internal/models"
)

// SchemaVersion is written to every saved snapshot. Data without a version
// field (a bare project array) is read as version 0.
const SchemaVersion = 1

// Snapshot is the persisted form of the whole collection
type Snapshot struct {
	Version  int             `json:"version" yaml:"version"`
	Projects []ProjectRecord `json:"projects" yaml:"projects"`
}

// ProjectRecord is the persisted form of a project
type ProjectRecord struct {
	Name  string       `json:"name" yaml:"name"`
	Tasks []TaskRecord `json:"tasks" yaml:"tasks"`
}

// TaskRecord is the persisted form of a task
type TaskRecord struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	DueDate     string `json:"dueDate" yaml:"dueDate"`
	Priority    string `json:"priority" yaml:"priority"`
	Status      string `json:"status" yaml:"status"`
}

// NewSnapshot captures the collection
func NewSnapshot(projects []*models.Project) Snapshot {
	s := Snapshot{Version: SchemaVersion, Projects: make([]ProjectRecord, 0, len(projects))}
	for _, p := range projects {
		pr := ProjectRecord{Name: p.Name, Tasks: make([]TaskRecord, 0, len(p.Tasks))}
		for _, t := range p.Tasks {
			pr.Tasks = append(pr.Tasks, TaskRecord{
				Name:        t.Name,
				Description: t.Description,
				DueDate:     t.DueDate,
				Priority:    string(t.Priority),
				Status:      string(t.Status),
			})
		}
		s.Projects = append(s.Projects, pr)
	}
	return s
}

// Build rebuilds full entities from the records. Names are trimmed, and
// duplicates and project names that collide with a smart view are
// disambiguated so the naming invariants hold. The returned renames
// describe what was changed, as "old -> new".
func (s Snapshot) Build() ([]*models.Project, []string) {
	var renames []string
	projects := make([]*models.Project, 0, len(s.Projects))
	seen := make(map[string]bool)
	projectTaken := func(n string) bool { return seen[n] || filter.IsView(n) }

	for _, pr := range s.Projects {
		name := strings.TrimSpace(pr.Name)
		if name == "" {
			name = "Untitled"
		}
		if unique := uniqueName(name, projectTaken); unique != name {
			renames = append(renames, fmt.Sprintf("project %q -> %q", name, unique))
			name = unique
		}
		seen[name] = true

		p := models.NewProject(name)
		taskSeen := make(map[string]bool)
		taskTaken := func(n string) bool { return taskSeen[n] }
		for _, tr := range pr.Tasks {
			tname := strings.TrimSpace(tr.Name)
			if tname == "" {
				tname = "Untitled"
			}
			if unique := uniqueName(tname, taskTaken); unique != tname {
				renames = append(renames, fmt.Sprintf("task %q in %q -> %q", tname, name, unique))
				tname = unique
			}
			taskSeen[tname] = true

			t := models.NewTask(tname, tr.Description, strings.TrimSpace(tr.DueDate), decodePriority(tr.Priority))
			if models.Status(tr.Status) == models.StatusComplete {
				t.Status = models.StatusComplete
			}
			p.Tasks = append(p.Tasks, t)
		}
		projects = append(projects, p)
	}
	return projects, renames
}

// Marshal encodes the snapshot as JSON
func (s Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSnapshot decodes either the versioned object or the legacy bare array
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Snapshot{Version: SchemaVersion}, nil
	}
	if data[0] == '[' {
		var legacy []ProjectRecord
		if err := json.Unmarshal(data, &legacy); err != nil {
			return Snapshot{}, err
		}
		return Snapshot{Version: 0, Projects: legacy}, nil
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, err
	}
	if s.Version > SchemaVersion {
		return Snapshot{}, fmt.Errorf("snapshot version %d is newer than supported version %d", s.Version, SchemaVersion)
	}
	return s, nil
}

func uniqueName(name string, taken func(string) bool) string {
	if !taken(name) {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s (%d)", name, i)
		if !taken(candidate) {
			return candidate
		}
	}
}

// decodePriority keeps known priorities and drops anything else
func decodePriority(s string) models.Priority {
	p, err := models.ParsePriority(s)
	if err != nil {
		return models.PriorityNone
	}
	return p
}
