package models

import (
	"errors"
	"testing"
	"time"
)

func TestNewTaskStartsIncomplete(t *testing.T) {
	task := NewTask("Write report", "quarterly", "2024-06-10", PriorityHigh)
	if task.Status != StatusIncomplete {
		t.Fatalf("Expected status %q, got %q", StatusIncomplete, task.Status)
	}
}

func TestToggleStatusInvolution(t *testing.T) {
	task := NewTask("a", "", "", PriorityNone)

	task.ToggleStatus()
	if !task.Done() {
		t.Fatalf("Expected task to be complete after one toggle")
	}
	task.ToggleStatus()
	if task.Status != StatusIncomplete {
		t.Errorf("Expected status %q after two toggles, got %q", StatusIncomplete, task.Status)
	}
}

func TestEditKeepsStatus(t *testing.T) {
	task := NewTask("a", "", "", PriorityNone)
	task.ToggleStatus()

	task.Edit("b", "desc", "2024-01-02", PriorityLow)

	if task.Name != "b" || task.Description != "desc" || task.DueDate != "2024-01-02" || task.Priority != PriorityLow {
		t.Errorf("Fields not updated: %+v", task)
	}
	if task.Status != StatusComplete {
		t.Errorf("Edit must not change status, got %q", task.Status)
	}
}

func TestProjectAddTaskPreservesOrder(t *testing.T) {
	p := NewProject("Home")
	for _, name := range []string{"c", "a", "b"} {
		if err := p.AddTask(NewTask(name, "", "", PriorityNone)); err != nil {
			t.Fatalf("AddTask(%q): %v", name, err)
		}
	}

	got := p.TaskNames()
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected order %v, got %v", want, got)
		}
	}
}

func TestProjectAddTaskRejectsDuplicates(t *testing.T) {
	p := NewProject("Home")
	if err := p.AddTask(NewTask("Dishes", "", "", PriorityNone)); err != nil {
		t.Fatal(err)
	}

	rejected := NewTask("  Dishes ", "", "", PriorityNone)
	err := p.AddTask(rejected)
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("Expected ErrDuplicateName, got %v", err)
	}
	if p.Len() != 1 {
		t.Errorf("Expected 1 task, got %d", p.Len())
	}
	if rejected.Name != "  Dishes " {
		t.Errorf("Rejected task was modified, got name %q", rejected.Name)
	}

	// case-sensitive
	if err := p.AddTask(NewTask("dishes", "", "", PriorityNone)); err != nil {
		t.Errorf("Expected differently cased name to be accepted, got %v", err)
	}
}

func TestProjectAddTaskRejectsEmptyName(t *testing.T) {
	p := NewProject("Home")
	if err := p.AddTask(NewTask("   ", "", "", PriorityNone)); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("Expected ErrEmptyName, got %v", err)
	}
}

func TestProjectAddTaskTrimsAcceptedName(t *testing.T) {
	p := NewProject("Home")
	task := NewTask(" Dishes  ", "", "", PriorityNone)
	if err := p.AddTask(task); err != nil {
		t.Fatal(err)
	}
	if task.Name != "Dishes" {
		t.Errorf("Expected trimmed name, got %q", task.Name)
	}
}

func TestProjectFindTask(t *testing.T) {
	p := NewProject("Home")
	p.AddTask(NewTask("Dishes", "", "", PriorityNone))

	if task, ok := p.FindTask(" Dishes"); !ok || task.Name != "Dishes" {
		t.Errorf("Expected to find Dishes, got %v %v", task, ok)
	}
	if task, ok := p.FindTask("Laundry"); ok || task != nil {
		t.Errorf("Expected not found, got %v", task)
	}
}

func TestProjectDeleteTaskMissingIsNoop(t *testing.T) {
	p := NewProject("Home")
	p.AddTask(NewTask("Dishes", "", "", PriorityNone))

	if p.DeleteTask("Laundry") {
		t.Error("Expected DeleteTask to report false for a missing task")
	}
	if p.Len() != 1 {
		t.Errorf("Expected collection unchanged, got %d tasks", p.Len())
	}
	if !p.DeleteTask("Dishes") || p.Len() != 0 {
		t.Errorf("Expected Dishes to be removed")
	}
}

func TestProjectRenameTrims(t *testing.T) {
	p := NewProject("Home")
	p.Rename("  House ")
	if p.Name != "House" {
		t.Errorf("Expected trimmed name, got %q", p.Name)
	}
}

func TestTaskFieldsValidate(t *testing.T) {
	tests := []struct {
		name   string
		fields TaskFields
		want   error
	}{
		{"ok", TaskFields{Name: "a", DueDate: "2024-06-10", Priority: PriorityHigh}, nil},
		{"no due date", TaskFields{Name: "a"}, nil},
		{"empty name", TaskFields{Name: " "}, ErrEmptyName},
		{"bad date", TaskFields{Name: "a", DueDate: "06/10/2024"}, ErrInvalidDueDate},
		{"impossible date", TaskFields{Name: "a", DueDate: "2024-02-30"}, ErrInvalidDueDate},
		{"bad priority", TaskFields{Name: "a", Priority: "Urgent"}, ErrInvalidPriority},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fields.Validate()
			if tt.want == nil && err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParsePriority(t *testing.T) {
	for in, want := range map[string]Priority{"high": PriorityHigh, " Low": PriorityLow, "": PriorityNone} {
		got, err := ParsePriority(in)
		if err != nil || got != want {
			t.Errorf("ParsePriority(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParsePriority("asap"); !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("Expected ErrInvalidPriority, got %v", err)
	}
}

func TestTaskDueUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	task := NewTask("a", "", "2024-06-10", PriorityNone)

	due, ok := task.Due(loc)
	if !ok {
		t.Fatal("Expected a due date")
	}
	if due.Location() != loc || due.Day() != 10 || due.Hour() != 0 {
		t.Errorf("Expected midnight 2024-06-10 in %s, got %s", loc, due)
	}

	if _, ok := NewTask("a", "", "", PriorityNone).Due(loc); ok {
		t.Error("Expected empty due date to report ok == false")
	}
}
