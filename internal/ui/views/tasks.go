package views

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/myday/internal/filter"
	"github.com/tgienger/myday/internal/models"
	"github.com/tgienger/myday/internal/repository"
	"github.com/tgienger/myday/internal/ui/keys"
	"github.com/tgienger/myday/internal/ui/styles"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// Edit form fields, in tab order
const (
	fieldName = iota
	fieldDesc
	fieldDue
	fieldPriority
	fieldProject
	fieldSave
	fieldCount
)

// taskRow is one selectable line of the list
type taskRow struct {
	project string
	task    *models.Task
	line    int // index into the rendered lines
}

// TaskListView shows the tasks of one smart view or one project
type TaskListView struct {
	repo      *repository.Repository
	selection string
	smart     bool
	now       func() time.Time
	styles    *styles.Styles
	keys      keys.KeyMap

	width  int
	height int

	groups  []filter.Group
	rows    []taskRow
	cursor  int
	scrollY int

	showCompleted bool
	statusLine    string

	// Task creation/editing
	editing       bool
	editingNew    bool
	editOrigin    taskRow
	editName      textinput.Model
	editDesc      textarea.Model
	editDue       textinput.Model
	editPriority  int // index into models.Priorities
	editProject   int // index into repo.Names()
	editFocusIdx  int
	editErr       string
	projectChoice []string

	// Delete confirmation
	confirmingDelete bool
	deleteTarget     taskRow

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewTaskListView creates a view over the named smart view or project
func NewTaskListView(repo *repository.Repository, selection string, showCompleted bool) *TaskListView {
	s := styles.NewStyles()

	editName := textinput.New()
	editName.Placeholder = "Task name"
	editName.CharLimit = 200

	editDesc := textarea.New()
	editDesc.Placeholder = "Description"
	editDesc.CharLimit = 1000
	editDesc.SetWidth(50)
	editDesc.SetHeight(3)
	editDesc.ShowLineNumbers = false

	editDue := textinput.New()
	editDue.Placeholder = "YYYY-MM-DD"
	editDue.CharLimit = 10

	return &TaskListView{
		repo:          repo,
		selection:     selection,
		smart:         filter.IsView(selection),
		now:           time.Now,
		styles:        s,
		keys:          keys.DefaultKeyMap(),
		showCompleted: showCompleted,
		editName:      editName,
		editDesc:      editDesc,
		editDue:       editDue,
	}
}

// SetClock replaces the time source used by the smart views
func (v *TaskListView) SetClock(now func() time.Time) {
	v.now = now
}

// Selection returns the smart view or project name shown
func (v *TaskListView) Selection() string {
	return v.selection
}

// BackToProjects signals to go back to the sidebar
type BackToProjects struct{}

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	return v.loadTasks
}

type tasksLoadedMsg struct {
	groups []filter.Group
}

func (v *TaskListView) loadTasks() tea.Msg {
	projects := v.repo.All()
	if v.smart {
		view, _ := filter.Parse(v.selection)
		return tasksLoadedMsg{groups: filter.Apply(view, projects, v.now())}
	}
	p, ok := v.repo.Find(v.selection)
	if !ok {
		return tasksLoadedMsg{}
	}
	tasks := make([]*models.Task, len(p.Tasks))
	copy(tasks, p.Tasks)
	return tasksLoadedMsg{groups: []filter.Group{{Project: p, Tasks: tasks}}}
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		v.editDesc.SetWidth(clamp(contentWidth-10, 20, 50))
		return v, nil

	case tasksLoadedMsg:
		v.groups = msg.groups
		v.buildRows()
		if v.cursor >= len(v.rows) {
			v.cursor = max(0, len(v.rows)-1)
		}
		return v, nil

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.editing {
			return v.updateEditing(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

// buildRows flattens the groups into selectable rows. Line numbers count
// the group headers shown in smart views.
func (v *TaskListView) buildRows() {
	v.rows = v.rows[:0]
	line := 0
	for _, g := range v.groups {
		if v.smart {
			line++ // header
		}
		shown := 0
		for _, t := range g.Tasks {
			if !v.showCompleted && t.Done() {
				continue
			}
			v.rows = append(v.rows, taskRow{project: g.Project.Name, task: t, line: line})
			line++
			shown++
		}
		if v.smart && shown == 0 {
			line++ // "no tasks" placeholder
		}
	}
}

func (v *TaskListView) selected() (taskRow, bool) {
	if v.cursor < 0 || v.cursor >= len(v.rows) {
		return taskRow{}, false
	}
	return v.rows[v.cursor], true
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v.statusLine = ""

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToProjects{} }

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.rows)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Toggle):
		if row, ok := v.selected(); ok {
			if _, err := v.repo.ToggleTask(row.project, row.task.Name); err != nil {
				v.statusLine = taskErrorText(err)
			}
			return v, v.loadTasks
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Edit):
		if row, ok := v.selected(); ok {
			v.startEditTask(row)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		if len(v.repo.All()) == 0 {
			v.statusLine = "You must create a project first"
			return v, nil
		}
		v.startNewTask()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Delete):
		if row, ok := v.selected(); ok {
			v.confirmingDelete = true
			v.deleteTarget = row
		}
		return v, nil

	case key.Matches(msg, v.keys.ShowCompleted):
		v.showCompleted = !v.showCompleted
		v.cursor = 0
		v.scrollY = 0
		v.buildRows()
		return v, nil

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil
	}

	return v, nil
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		if err := v.repo.DeleteTask(v.deleteTarget.project, v.deleteTarget.task.Name); err != nil {
			v.statusLine = taskErrorText(err)
		}
		return v, v.loadTasks
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.saveTask()

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % fieldCount
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.ShiftTab):
		v.editFocusIdx = (v.editFocusIdx + fieldCount - 1) % fieldCount
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		switch v.editFocusIdx {
		case fieldSave:
			return v, v.saveTask()
		case fieldDesc:
			// newlines in the description
		default:
			v.editFocusIdx++
			v.updateEditFocus()
			return v, nil
		}
	}

	// Choice fields cycle with left/right
	if v.editFocusIdx == fieldPriority || v.editFocusIdx == fieldProject {
		step := 0
		switch msg.String() {
		case "right", "l", " ":
			step = 1
		case "left", "h":
			step = -1
		}
		if step != 0 {
			if v.editFocusIdx == fieldPriority {
				n := len(models.Priorities)
				v.editPriority = (v.editPriority + step + n) % n
			} else if n := len(v.projectChoice); n > 0 {
				v.editProject = (v.editProject + step + n) % n
			}
		}
		return v, nil
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case fieldName:
		v.editName, cmd = v.editName.Update(msg)
	case fieldDesc:
		v.editDesc, cmd = v.editDesc.Update(msg)
	case fieldDue:
		v.editDue, cmd = v.editDue.Update(msg)
	}
	return v, cmd
}

func (v *TaskListView) ensureVisible() {
	row, ok := v.selected()
	if !ok {
		return
	}
	visible := v.visibleLines()
	if row.line < v.scrollY {
		v.scrollY = row.line
	} else if row.line >= v.scrollY+visible {
		v.scrollY = row.line - visible + 1
	}
	// keep the group header above the first task of a group in view
	if v.smart && v.scrollY > 0 && v.scrollY == row.line {
		v.scrollY--
	}
}

func (v *TaskListView) visibleLines() int {
	return max(v.height-10, 3)
}

func (v *TaskListView) resetForm() {
	v.editing = true
	v.editFocusIdx = fieldName
	v.editErr = ""
	v.projectChoice = v.repo.Names()
	v.editName.Reset()
	v.editDesc.Reset()
	v.editDue.Reset()
	v.editPriority = 0
	v.editProject = 0
}

func (v *TaskListView) startNewTask() {
	v.resetForm()
	v.editingNew = true

	// default to the project in focus
	target := v.selection
	if v.smart {
		target = ""
		if row, ok := v.selected(); ok {
			target = row.project
		}
		// a new task created from My Day is due today so it stays in the view
		if v.selection == string(filter.ViewMyDay) {
			v.editDue.SetValue(v.now().Format(models.DateLayout))
		}
	}
	v.editProject = indexOf(v.projectChoice, target)
	v.updateEditFocus()
}

func (v *TaskListView) startEditTask(row taskRow) {
	v.resetForm()
	v.editingNew = false
	v.editOrigin = row

	v.editName.SetValue(row.task.Name)
	v.editDesc.SetValue(row.task.Description)
	v.editDue.SetValue(row.task.DueDate)
	v.editPriority = indexOf(priorityNames(), string(row.task.Priority))
	v.editProject = indexOf(v.projectChoice, row.project)
	v.updateEditFocus()
}

func (v *TaskListView) updateEditFocus() {
	v.editName.Blur()
	v.editDesc.Blur()
	v.editDue.Blur()

	switch v.editFocusIdx {
	case fieldName:
		v.editName.Focus()
	case fieldDesc:
		v.editDesc.Focus()
	case fieldDue:
		v.editDue.Focus()
	}
}

func (v *TaskListView) formFields() models.TaskFields {
	return models.TaskFields{
		Name:        v.editName.Value(),
		Description: v.editDesc.Value(),
		DueDate:     v.editDue.Value(),
		Priority:    models.Priorities[v.editPriority],
	}
}

func (v *TaskListView) formProject() string {
	if v.editProject < 0 || v.editProject >= len(v.projectChoice) {
		return ""
	}
	return v.projectChoice[v.editProject]
}

// saveTask submits the form. Rejected input keeps the form open with a
// message; a storage failure closes it since the change was already applied.
func (v *TaskListView) saveTask() tea.Cmd {
	project := v.formProject()
	if project == "" {
		v.editErr = "You must create a project first"
		return nil
	}

	var err error
	if v.editingNew {
		_, err = v.repo.AddTask(project, v.formFields())
	} else {
		_, err = v.repo.EditTask(v.editOrigin.project, v.editOrigin.task.Name, repository.TaskEdit{
			Project:    project,
			TaskFields: v.formFields(),
		})
	}

	if err != nil && isValidationError(err) {
		v.editErr = taskErrorText(err)
		return nil
	}

	v.editing = false
	if err != nil {
		v.statusLine = "Could not save: " + err.Error()
	}
	return v.loadTasks
}

func taskErrorText(err error) string {
	switch {
	case errors.Is(err, models.ErrDuplicateName):
		return "Task already exists"
	case errors.Is(err, models.ErrEmptyName):
		return "Task name is required"
	case errors.Is(err, models.ErrInvalidDueDate):
		return "Due date must be YYYY-MM-DD"
	case errors.Is(err, models.ErrInvalidPriority):
		return "Unknown priority"
	case errors.Is(err, models.ErrNotFound):
		return "Task or project no longer exists"
	}
	return err.Error()
}

func priorityNames() []string {
	names := make([]string, len(models.Priorities))
	for i, p := range models.Priorities {
		names[i] = string(p)
	}
	return names
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return 0
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.editing {
		return v.renderEditForm()
	}

	var b strings.Builder

	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")

	b.WriteString(v.renderTaskList())

	if v.statusLine != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Error.Render(v.statusLine))
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles

	titleText := v.selection
	if !v.showCompleted {
		titleText += " (Open)"
	}

	open := 0
	for _, g := range v.groups {
		for _, t := range g.Tasks {
			if !t.Done() {
				open++
			}
		}
	}

	sub := fmt.Sprintf("%d open", open)
	switch v.selection {
	case string(filter.ViewMyDay):
		sub = v.now().Format("Monday, January 2") + " • " + sub
	case string(filter.ViewNext7Days):
		w := filter.WeekWindow(v.now())
		sub = w.Start.Format("Jan 2") + " – " + w.End.Format("Jan 2") + " • " + sub
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(titleText),
		s.TitleMuted.Render(sub),
	)
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if len(v.groups) == 0 {
		if v.smart {
			return s.TitleMuted.Render("No projects yet. Go back and press 'n' to create one.")
		}
		return s.TitleMuted.Render("Project not found.")
	}

	var lines []string
	row := 0
	for _, g := range v.groups {
		if v.smart {
			lines = append(lines, s.GroupHeader.Render(g.Project.Name))
		}
		shown := 0
		for _, t := range g.Tasks {
			if !v.showCompleted && t.Done() {
				continue
			}
			lines = append(lines, v.renderTaskItem(t, row == v.cursor))
			row++
			shown++
		}
		if v.smart && shown == 0 {
			lines = append(lines, s.TitleMuted.Render("   no tasks"))
		}
	}

	if len(v.rows) == 0 && !v.smart {
		return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
	}

	start := min(v.scrollY, len(lines))
	end := min(start+v.visibleLines(), len(lines))
	return lipgloss.JoinVertical(lipgloss.Left, lines[start:end]...)
}

func (v *TaskListView) renderTaskItem(task *models.Task, selected bool) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	width := max(contentWidth-4, 20)

	check := "[ ]"
	nameStyle := s.TaskTitle
	if task.Done() {
		check = "[x]"
		nameStyle = s.TaskDone
	}

	marker := " "
	if task.Priority != models.PriorityNone {
		marker = lipgloss.NewStyle().Foreground(styles.PriorityColor(task.Priority)).Render("●")
	}

	line := fmt.Sprintf("%s %s %s", check, marker, nameStyle.Render(task.Name))

	now := v.now()
	if due, ok := task.Due(now.Location()); ok {
		dueStyle := s.TaskDue
		if !task.Done() && due.Before(filter.StartOfDay(now)) {
			dueStyle = s.TaskOverdue
		}
		line += "  " + dueStyle.Render(formatDue(due, now))
	}

	itemStyle := s.ListItem
	if selected {
		itemStyle = s.ListSelected
	}
	return itemStyle.Width(width).MaxHeight(1).Render(line)
}

// formatDue renders a due date relative to now
func formatDue(due, now time.Time) string {
	today := filter.StartOfDay(now)
	switch {
	case due.Equal(today):
		return "today"
	case due.Equal(today.AddDate(0, 0, 1)):
		return "tomorrow"
	case due.Before(today):
		return "overdue " + due.Format("Jan 2")
	case due.Before(today.AddDate(0, 0, filter.WeekDays)):
		return due.Format("Mon")
	}
	return due.Format("Jan 2 2006")
}

func (v *TaskListView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	formTitle := "New Task"
	if !v.editingNew {
		formTitle = "Edit Task"
	}

	fieldStyle := func(idx int) lipgloss.Style {
		if v.editFocusIdx == idx {
			return s.InputFocused
		}
		return s.Input
	}
	btnStyle := s.Button
	if v.editFocusIdx == fieldSave {
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	priority := models.Priorities[v.editPriority]
	priorityLabel := string(priority)
	if priority == models.PriorityNone {
		priorityLabel = "None"
	}
	priorityText := lipgloss.NewStyle().Foreground(styles.PriorityColor(priority)).Render("● ") + priorityLabel

	projectText := v.formProject()
	if projectText == "" {
		projectText = s.TitleMuted.Render("no projects")
	}

	errLine := ""
	if v.editErr != "" {
		errLine = s.Error.Render(v.editErr)
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(formTitle),
		"",
		"Name:",
		fieldStyle(fieldName).Width(inputWidth).Render(v.editName.View()),
		"Description:",
		fieldStyle(fieldDesc).Width(inputWidth).Render(v.editDesc.View()),
		"Due date:",
		fieldStyle(fieldDue).Width(inputWidth).Render(v.editDue.View()),
		"Priority:",
		fieldStyle(fieldPriority).Width(inputWidth).Render("◀ "+priorityText+" ▶"),
		"Project:",
		fieldStyle(fieldProject).Width(inputWidth).Render("◀ "+projectText+" ▶"),
		errLine,
		btnStyle.Render(" Save "),
		"",
		s.TitleMuted.Render("Tab: next • ←/→: choose • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}

	completedLabel := "hide done"
	if !v.showCompleted {
		completedLabel = "show done"
	}

	return v.styles.Help.Render(
		fmt.Sprintf("%s done • %s edit • %s new • %s del • %s %s • %s back • %s quit",
			v.styles.HelpKey.Render("space"),
			v.styles.HelpKey.Render("e"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("c"),
			completedLabel,
			v.styles.HelpKey.Render("esc"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	completedLabel := "hide completed"
	if !v.showCompleted {
		completedLabel = "show completed"
	}

	helpItems := []string{
		s.HelpKey.Render("space") + "  toggle done",
		s.HelpKey.Render("e") + "      edit or move task",
		s.HelpKey.Render("n") + "      new task",
		s.HelpKey.Render("d") + "      delete task",
		s.HelpKey.Render("c") + "      " + completedLabel,
		s.HelpKey.Render("esc") + "    back",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q in %s", v.deleteTarget.task.Name, v.deleteTarget.project)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
