package repository

import (
	"errors"
	"testing"

	"github.com/tgienger/myday/internal/models"
	"github.com/tgienger/myday/internal/storage"
)

func newTestRepo(t *testing.T, opts ...Option) (*Repository, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	r, err := Open(store, opts...)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return r, store
}

func mustProject(t *testing.T, r *Repository, name string) *models.Project {
	t.Helper()
	p, err := r.CreateProject(name)
	if err != nil {
		t.Fatalf("CreateProject(%q): %v", name, err)
	}
	return p
}

func mustTask(t *testing.T, r *Repository, project string, f models.TaskFields) *models.Task {
	t.Helper()
	task, err := r.AddTask(project, f)
	if err != nil {
		t.Fatalf("AddTask(%q, %q): %v", project, f.Name, err)
	}
	return task
}

func TestOpenEmptyStore(t *testing.T) {
	r, _ := newTestRepo(t)
	if len(r.All()) != 0 {
		t.Errorf("Expected 0 projects, got %d", len(r.All()))
	}
}

func TestAddRejectsDuplicateProject(t *testing.T) {
	r, _ := newTestRepo(t)
	mustProject(t, r, "Work")

	err := r.Add(models.NewProject("  Work  "))
	if !errors.Is(err, models.ErrDuplicateName) {
		t.Fatalf("Expected ErrDuplicateName, got %v", err)
	}
	if len(r.All()) != 1 {
		t.Errorf("Expected collection unchanged, got %d projects", len(r.All()))
	}
}

func TestAddRejectsEmptyAndReservedNames(t *testing.T) {
	r, _ := newTestRepo(t)

	if err := r.Add(models.NewProject("   ")); !errors.Is(err, models.ErrEmptyName) {
		t.Errorf("Expected ErrEmptyName, got %v", err)
	}
	for _, name := range []string{"My Day", "next 7 days", "All My Tasks"} {
		if err := r.Add(models.NewProject(name)); !errors.Is(err, models.ErrReservedName) {
			t.Errorf("Add(%q): expected ErrReservedName, got %v", name, err)
		}
	}
	if len(r.All()) != 0 {
		t.Errorf("Expected no projects, got %d", len(r.All()))
	}
}

func TestAddRejectsBadTaskNames(t *testing.T) {
	tests := map[string]struct {
		tasks []string
		want  error
	}{
		"duplicate": {[]string{"a", " a "}, models.ErrDuplicateName},
		"empty":     {[]string{"a", "  "}, models.ErrEmptyName},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r, store := newTestRepo(t)
			p := &models.Project{Name: " Work "}
			for _, n := range tt.tasks {
				p.Tasks = append(p.Tasks, models.NewTask(n, "", "", models.PriorityNone))
			}

			if err := r.Add(p); !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
			if len(r.All()) != 0 {
				t.Errorf("Expected no projects, got %v", r.Names())
			}
			if v, _ := store.Get(DefaultKey); v != nil {
				t.Errorf("Expected nothing saved, got %s", v)
			}
			if p.Name != " Work " || p.Tasks[1].Name != tt.tasks[1] {
				t.Errorf("Rejected project was modified: %q %v", p.Name, p.TaskNames())
			}
		})
	}
}

func TestAddTrimsTaskNames(t *testing.T) {
	r, _ := newTestRepo(t)
	p := &models.Project{Name: "Work", Tasks: []*models.Task{models.NewTask(" Report ", "", "", models.PriorityNone)}}
	if err := r.Add(p); err != nil {
		t.Fatal(err)
	}
	if _, ok := p.FindTask("Report"); !ok || p.Tasks[0].Name != "Report" {
		t.Errorf("Expected trimmed task name, got %v", p.TaskNames())
	}
}

func TestAddPersists(t *testing.T) {
	r, store := newTestRepo(t)
	mustProject(t, r, "Work")

	data, _ := store.Get(DefaultKey)
	if data == nil {
		t.Fatal("Expected Add to save")
	}
}

func TestFindTrims(t *testing.T) {
	r, _ := newTestRepo(t)
	mustProject(t, r, "Work")

	if p, ok := r.Find("  Work "); !ok || p.Name != "Work" {
		t.Errorf("Expected to find Work, got %v %v", p, ok)
	}
	if _, ok := r.Find("work"); ok {
		t.Error("Expected case-sensitive lookup")
	}
}

func TestDeleteMissingIsNoop(t *testing.T) {
	r, store := newTestRepo(t)
	mustProject(t, r, "Work")
	before, _ := store.Get(DefaultKey)

	if err := r.Delete("Home"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(r.All()) != 1 {
		t.Errorf("Expected collection unchanged")
	}
	after, _ := store.Get(DefaultKey)
	if string(before) != string(after) {
		t.Errorf("Expected stored data unchanged")
	}

	if err := r.Delete(" Work "); err != nil {
		t.Fatal(err)
	}
	if len(r.All()) != 0 {
		t.Errorf("Expected Work to be deleted")
	}
}

func TestRenameProject(t *testing.T) {
	r, _ := newTestRepo(t)
	mustProject(t, r, "Work")
	mustProject(t, r, "Home")

	if err := r.RenameProject("Work", "Home"); !errors.Is(err, models.ErrDuplicateName) {
		t.Errorf("Expected ErrDuplicateName, got %v", err)
	}
	if err := r.RenameProject("Gym", "Fitness"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := r.RenameProject("Work", "Work"); err != nil {
		t.Errorf("Renaming to the same name should be allowed, got %v", err)
	}
	if err := r.RenameProject("Work", " Office "); err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Find("Office"); !ok {
		t.Error("Expected Office to exist after rename")
	}
}

func TestAddTaskValidation(t *testing.T) {
	r, _ := newTestRepo(t)
	mustProject(t, r, "Work")
	mustTask(t, r, "Work", models.TaskFields{Name: "Report"})

	tests := []struct {
		name    string
		project string
		fields  models.TaskFields
		want    error
	}{
		{"missing project", "Home", models.TaskFields{Name: "x"}, models.ErrNotFound},
		{"duplicate", "Work", models.TaskFields{Name: " Report "}, models.ErrDuplicateName},
		{"empty", "Work", models.TaskFields{Name: ""}, models.ErrEmptyName},
		{"bad date", "Work", models.TaskFields{Name: "x", DueDate: "tomorrow"}, models.ErrInvalidDueDate},
		{"bad priority", "Work", models.TaskFields{Name: "x", Priority: "P1"}, models.ErrInvalidPriority},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.AddTask(tt.project, tt.fields); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	p, _ := r.Find("Work")
	if p.Len() != 1 {
		t.Errorf("Expected only the first task, got %v", p.TaskNames())
	}
}

func TestToggleTask(t *testing.T) {
	r, _ := newTestRepo(t)
	mustProject(t, r, "Work")
	mustTask(t, r, "Work", models.TaskFields{Name: "Report"})

	task, err := r.ToggleTask("Work", "Report")
	if err != nil || !task.Done() {
		t.Fatalf("Expected complete task, got %v, %v", task, err)
	}
	if _, err := r.ToggleTask("Work", "Nope"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	r, _ := newTestRepo(t)
	mustProject(t, r, "Work")
	mustTask(t, r, "Work", models.TaskFields{Name: "Report"})

	if err := r.DeleteTask("Work", "Nope"); err != nil {
		t.Errorf("Deleting a missing task should be a no-op, got %v", err)
	}
	if err := r.DeleteTask("Home", "Report"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing project, got %v", err)
	}
	if err := r.DeleteTask("Work", "Report"); err != nil {
		t.Fatal(err)
	}
	p, _ := r.Find("Work")
	if p.Len() != 0 {
		t.Errorf("Expected task to be deleted")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	r, store := newTestRepo(t)
	mustProject(t, r, "Work")
	mustProject(t, r, "Home")
	mustTask(t, r, "Work", models.TaskFields{Name: "Report", Description: "Q2 numbers", DueDate: "2024-06-10", Priority: models.PriorityHigh})
	mustTask(t, r, "Work", models.TaskFields{Name: "Email"})
	mustTask(t, r, "Home", models.TaskFields{Name: "Dishes", Priority: models.PriorityLow})
	if _, err := r.ToggleTask("Work", "Email"); err != nil {
		t.Fatal(err)
	}

	fresh, err := Open(store)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	want := r.All()
	got := fresh.All()
	if len(got) != len(want) {
		t.Fatalf("Expected %d projects, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Name != want[i].Name {
			t.Errorf("Project %d: expected %q, got %q", i, want[i].Name, got[i].Name)
		}
		if len(got[i].Tasks) != len(want[i].Tasks) {
			t.Fatalf("Project %q: expected %d tasks, got %d", want[i].Name, len(want[i].Tasks), len(got[i].Tasks))
		}
		for j := range want[i].Tasks {
			if *got[i].Tasks[j] != *want[i].Tasks[j] {
				t.Errorf("Task %d of %q: expected %+v, got %+v", j, want[i].Name, *want[i].Tasks[j], *got[i].Tasks[j])
			}
		}
	}
}

func TestLoadLegacyArray(t *testing.T) {
	store := storage.NewMemory()
	store.Set(DefaultKey, []byte(`[
		{"name":"Work","tasks":[
			{"name":"Report","description":"","dueDate":"2024-06-10","priority":"High","status":"Complete"},
			{"name":"Email","description":"","dueDate":"","priority":""}
		]}
	]`))

	r, err := Open(store)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	p, ok := r.Find("Work")
	if !ok || p.Len() != 2 {
		t.Fatalf("Expected Work with 2 tasks, got %v", r.Names())
	}
	if !p.Tasks[0].Done() {
		t.Error("Expected status to be restored")
	}
	if p.Tasks[1].Status != models.StatusIncomplete {
		t.Errorf("Expected missing status to load as Incomplete, got %q", p.Tasks[1].Status)
	}
}

func TestLoadCorruptDegradesToEmpty(t *testing.T) {
	store := storage.NewMemory()
	store.Set(DefaultKey, []byte(`{not json`))

	r, err := Open(store)
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Expected ErrCorrupt, got %v", err)
	}
	if r == nil || len(r.All()) != 0 {
		t.Fatal("Expected a usable empty repository")
	}
	backup, _ := store.Get(DefaultKey + ".bak")
	if string(backup) != `{not json` {
		t.Errorf("Expected raw data to be backed up, got %q", backup)
	}

	// still usable
	mustProject(t, r, "Work")
}

func TestLoadDisambiguatesDuplicates(t *testing.T) {
	store := storage.NewMemory()
	store.Set(DefaultKey, []byte(`{"version":1,"projects":[
		{"name":"Work","tasks":[{"name":"A"},{"name":"A"}]},
		{"name":"Work ","tasks":[]}
	]}`))

	r, err := Open(store)
	if err != nil {
		t.Fatal(err)
	}
	names := r.Names()
	if len(names) != 2 || names[0] != "Work" || names[1] != "Work (2)" {
		t.Errorf("Expected [Work, Work (2)], got %v", names)
	}
	p, _ := r.Find("Work")
	if got := p.TaskNames(); got[0] != "A" || got[1] != "A (2)" {
		t.Errorf("Expected [A, A (2)], got %v", got)
	}
}

func TestLoadRenamesReservedProjects(t *testing.T) {
	store := storage.NewMemory()
	store.Set(DefaultKey, []byte(`[{"name":"My Day","tasks":[]},{"name":" next 7 days","tasks":[]}]`))

	r, err := Open(store)
	if err != nil {
		t.Fatal(err)
	}
	names := r.Names()
	if len(names) != 2 || names[0] != "My Day (2)" || names[1] != "next 7 days (2)" {
		t.Fatalf("Expected [My Day (2), next 7 days (2)], got %v", names)
	}

	snap, err := UnmarshalSnapshot([]byte(`[{"name":"My Day","tasks":[]}]`))
	if err != nil {
		t.Fatal(err)
	}
	projects, renames := snap.Build()
	if len(renames) != 1 || renames[0] != `project "My Day" -> "My Day (2)"` {
		t.Errorf("Unexpected renames %v", renames)
	}
	if err := r.Replace(projects); err != nil {
		t.Errorf("Expected rebuilt projects to be accepted, got %v", err)
	}
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	store := storage.NewMemory()
	store.Set(DefaultKey, []byte(`{"version":99,"projects":[]}`))
	if _, err := Open(store); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Expected ErrCorrupt, got %v", err)
	}
}

func TestSaveFailureIsReturned(t *testing.T) {
	r, store := newTestRepo(t)
	boom := errors.New("quota exceeded")
	store.FailWrites = boom

	_, err := r.CreateProject("Work")
	if !errors.Is(err, boom) {
		t.Fatalf("Expected save error to surface, got %v", err)
	}
}

func TestWithKey(t *testing.T) {
	r, store := newTestRepo(t, WithKey("alt"))
	mustProject(t, r, "Work")
	if v, _ := store.Get("alt"); v == nil {
		t.Error("Expected data under the custom key")
	}
	if v, _ := store.Get(DefaultKey); v != nil {
		t.Error("Expected nothing under the default key")
	}
}

func TestReplace(t *testing.T) {
	r, _ := newTestRepo(t)
	mustProject(t, r, "Old")

	dup := []*models.Project{models.NewProject("A"), models.NewProject("A")}
	if err := r.Replace(dup); !errors.Is(err, models.ErrDuplicateName) {
		t.Fatalf("Expected ErrDuplicateName, got %v", err)
	}
	if names := r.Names(); len(names) != 1 || names[0] != "Old" {
		t.Errorf("Expected collection unchanged, got %v", names)
	}

	untrimmed := []*models.Project{{Name: " B "}, {Name: " B"}}
	if err := r.Replace(untrimmed); !errors.Is(err, models.ErrDuplicateName) {
		t.Fatalf("Expected ErrDuplicateName, got %v", err)
	}
	if untrimmed[0].Name != " B " || untrimmed[1].Name != " B" {
		t.Errorf("Rejected projects were modified: %q %q", untrimmed[0].Name, untrimmed[1].Name)
	}

	badTasks := &models.Project{Name: "C", Tasks: []*models.Task{
		models.NewTask("a", "", "", models.PriorityNone),
		models.NewTask("a", "", "", models.PriorityNone),
	}}
	if err := r.Replace([]*models.Project{badTasks}); !errors.Is(err, models.ErrDuplicateName) {
		t.Fatalf("Expected ErrDuplicateName for tasks, got %v", err)
	}
	if names := r.Names(); len(names) != 1 || names[0] != "Old" {
		t.Errorf("Expected collection unchanged, got %v", names)
	}

	if err := r.Replace([]*models.Project{models.NewProject("New")}); err != nil {
		t.Fatal(err)
	}
	if names := r.Names(); len(names) != 1 || names[0] != "New" {
		t.Errorf("Expected [New], got %v", names)
	}
}
