package transfer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tgienger/myday/internal/models"
)

func sample() []*models.Project {
	work := models.NewProject("Work")
	work.AddTask(models.NewTask("Report", "Q2", "2024-06-10", models.PriorityHigh))
	email := models.NewTask("Email", "", "", models.PriorityNone)
	email.ToggleStatus()
	work.AddTask(email)
	return []*models.Project{work, models.NewProject("Home")}
}

func TestExportImport(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Export(&buf, sample(), format); err != nil {
				t.Fatalf("Export failed: %v", err)
			}

			projects, renames, err := Import(&buf, format)
			if err != nil {
				t.Fatalf("Import failed: %v", err)
			}
			if len(renames) != 0 {
				t.Errorf("Unexpected renames %v", renames)
			}
			if len(projects) != 2 || projects[0].Name != "Work" || projects[1].Name != "Home" {
				t.Fatalf("Unexpected projects %v", projects)
			}
			want := sample()[0].Tasks
			for i, task := range projects[0].Tasks {
				if *task != *want[i] {
					t.Errorf("Task %d: expected %+v, got %+v", i, *want[i], *task)
				}
			}
		})
	}
}

func TestExportYAMLShape(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, sample(), FormatYAML); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"version: 1", "- name: Work", "2024-06-10", "status: Complete"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestImportLegacyJSON(t *testing.T) {
	projects, _, err := Import(strings.NewReader(`[{"name":"Work","tasks":[{"name":"A","priority":"Medium"}]}]`), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 || projects[0].Tasks[0].Priority != models.PriorityMedium {
		t.Errorf("Unexpected import %+v", projects)
	}
}

func TestImportInvalid(t *testing.T) {
	if _, _, err := Import(strings.NewReader("{"), FormatJSON); err == nil {
		t.Error("Expected JSON error")
	}
	if _, _, err := Import(strings.NewReader("projects: [\n"), FormatYAML); err == nil {
		t.Error("Expected YAML error")
	}
}

func TestFormats(t *testing.T) {
	if f, err := ParseFormat("YML"); err != nil || f != FormatYAML {
		t.Errorf("ParseFormat(YML) = %q, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("Expected error for xml")
	}
	if FormatFromPath("backup.yaml") != FormatYAML || FormatFromPath("backup.json") != FormatJSON {
		t.Error("FormatFromPath guessed wrong")
	}
}
