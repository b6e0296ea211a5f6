package views

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/myday/internal/filter"
	"github.com/tgienger/myday/internal/models"
	"github.com/tgienger/myday/internal/repository"
	"github.com/tgienger/myday/internal/ui/keys"
	"github.com/tgienger/myday/internal/ui/styles"
)

type sidebarItem struct {
	name  string
	smart bool
	count int
}

func (i sidebarItem) Title() string { return i.name }
func (i sidebarItem) Description() string {
	if i.count == 1 {
		return "1 task"
	}
	return fmt.Sprintf("%d tasks", i.count)
}
func (i sidebarItem) FilterValue() string { return i.name }

type sidebarDelegate struct {
	styles *styles.Styles
	width  int
}

func (d sidebarDelegate) Height() int                               { return 2 }
func (d sidebarDelegate) Spacing() int                              { return 1 }
func (d sidebarDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d sidebarDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(sidebarItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := max(d.width-4, 20)

	var titleStyle, descStyle lipgloss.Style
	if selected {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = d.styles.ListItem.Width(width)
		descStyle = d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}
	if it.smart && !selected {
		titleStyle = titleStyle.Foreground(styles.Current.Secondary)
	}

	marker := "  "
	if it.smart {
		marker = "★ "
	}

	fmt.Fprintf(w, "%s\n%s", titleStyle.Render(marker+it.Title()), descStyle.Render("  "+it.Description()))
}

// ProjectListView is the sidebar: the smart views followed by every project
type ProjectListView struct {
	repo     *repository.Repository
	now      func() time.Time
	list     list.Model
	delegate *sidebarDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	loaded   bool

	// Create / rename form
	creating   bool
	renaming   string // project being renamed, empty when creating
	newName    textinput.Model
	focusIdx   int // 0=name, 1=confirm
	formErr    string
	statusLine string

	confirmingDelete bool
	deleteTargetName string

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewProjectListView creates the sidebar over repo
func NewProjectListView(repo *repository.Repository) *ProjectListView {
	s := styles.NewStyles()

	newName := textinput.New()
	newName.Placeholder = "Project name"
	newName.CharLimit = 100

	delegate := &sidebarDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "My Day"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	return &ProjectListView{
		repo:     repo,
		now:      time.Now,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		newName:  newName,
	}
}

// SetClock replaces the time source used for smart view counts
func (v *ProjectListView) SetClock(now func() time.Time) {
	v.now = now
}

func (v *ProjectListView) Init() tea.Cmd {
	return v.loadProjects
}

func (v *ProjectListView) loadProjects() tea.Msg {
	projects := v.repo.All()
	now := v.now()

	items := make([]sidebarItem, 0, len(filter.Views)+len(projects))
	for _, view := range filter.Views {
		items = append(items, sidebarItem{
			name:  string(view),
			smart: true,
			count: filter.Count(filter.Apply(view, projects, now)),
		})
	}
	for _, p := range projects {
		items = append(items, sidebarItem{name: p.Name, count: p.Len()})
	}
	return projectsLoadedMsg{items: items}
}

type projectsLoadedMsg struct {
	items []sidebarItem
}

// Selected asks the app to open a smart view or project by name
type Selected struct {
	Name string
}

// ProjectDeleted reports a project removed from the sidebar
type ProjectDeleted struct {
	Name string
}

// ProjectRenamed reports a project rename from the sidebar
type ProjectRenamed struct {
	OldName string
	NewName string
}

func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		// Use content width (capped at MaxWidth) for internal layout
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-6)
		return v, nil

	case projectsLoadedMsg:
		items := make([]list.Item, len(msg.items))
		for i, it := range msg.items {
			items[i] = it
		}
		v.list.SetItems(items)
		v.loaded = true
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

		if v.creating {
			return v.updateCreating(msg)
		}

		// Let the list own keys while the user types a filter
		if v.list.FilterState() == list.Filtering {
			break
		}

		v.statusLine = ""
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, nil
		case key.Matches(msg, v.keys.New):
			v.startForm("")
			return v, textinput.Blink
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(sidebarItem); ok {
				return v, func() tea.Msg {
					return Selected{Name: item.name}
				}
			}
		case key.Matches(msg, v.keys.Rename):
			if item, ok := v.list.SelectedItem().(sidebarItem); ok {
				if item.smart {
					v.statusLine = "Smart views cannot be renamed"
					return v, nil
				}
				v.startForm(item.name)
				return v, textinput.Blink
			}
		case key.Matches(msg, v.keys.Delete):
			if item, ok := v.list.SelectedItem().(sidebarItem); ok {
				if item.smart {
					v.statusLine = "Smart views cannot be deleted"
					return v, nil
				}
				v.confirmingDelete = true
				v.deleteTargetName = item.name
				return v, nil
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *ProjectListView) startForm(renaming string) {
	v.creating = true
	v.renaming = renaming
	v.focusIdx = 0
	v.formErr = ""
	v.newName.Reset()
	v.newName.SetValue(renaming)
	v.newName.Focus()
}

func (v *ProjectListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		name := v.deleteTargetName
		if err := v.repo.Delete(name); err != nil {
			v.statusLine = "Could not save: " + err.Error()
		}
		return v, tea.Batch(v.loadProjects, func() tea.Msg {
			return ProjectDeleted{Name: name}
		})
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *ProjectListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.submit()

	case key.Matches(msg, v.keys.Tab), key.Matches(msg, v.keys.ShiftTab):
		v.focusIdx = 1 - v.focusIdx
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.focusIdx == 0 {
			v.focusIdx = 1
			v.updateFocus()
			return v, nil
		}
		return v, v.submit()
	}

	var cmd tea.Cmd
	if v.focusIdx == 0 {
		v.newName, cmd = v.newName.Update(msg)
	}
	return v, cmd
}

// submit creates or renames a project. Validation errors keep the form open.
func (v *ProjectListView) submit() tea.Cmd {
	name := v.newName.Value()

	var err error
	if v.renaming == "" {
		_, err = v.repo.CreateProject(name)
	} else {
		err = v.repo.RenameProject(v.renaming, name)
	}
	if err != nil && isValidationError(err) {
		v.formErr = projectErrorText(err)
		v.focusIdx = 0
		v.updateFocus()
		return nil
	}

	v.creating = false
	if err != nil {
		v.statusLine = "Could not save: " + err.Error()
	}

	name = v.newName.Value()
	if p, ok := v.repo.Find(name); ok {
		name = p.Name
	}
	if v.renaming != "" {
		oldName := v.renaming
		return tea.Batch(v.loadProjects, func() tea.Msg {
			return ProjectRenamed{OldName: oldName, NewName: name}
		})
	}
	return func() tea.Msg {
		return Selected{Name: name}
	}
}

func (v *ProjectListView) updateFocus() {
	v.newName.Blur()
	if v.focusIdx == 0 {
		v.newName.Focus()
	}
}

// isValidationError reports whether err was a rejected input rather than a
// storage failure. Storage failures happen after the change was applied.
func isValidationError(err error) bool {
	for _, target := range []error{
		models.ErrDuplicateName,
		models.ErrEmptyName,
		models.ErrReservedName,
		models.ErrNotFound,
		models.ErrInvalidDueDate,
		models.ErrInvalidPriority,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func projectErrorText(err error) string {
	switch {
	case errors.Is(err, models.ErrDuplicateName):
		return "Project already exists"
	case errors.Is(err, models.ErrEmptyName):
		return "Project name is required"
	case errors.Is(err, models.ErrReservedName):
		return "That name is used by a smart view"
	case errors.Is(err, models.ErrNotFound):
		return "Project no longer exists"
	}
	return err.Error()
}

// View renders the view
func (v *ProjectListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.creating {
		return v.renderCreateForm()
	}

	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}

	content := v.list.View()
	if len(v.repo.All()) == 0 {
		content += "\n" + v.styles.TitleMuted.Render("  No projects yet. Press 'n' to create one.")
	}
	if v.statusLine != "" {
		content += "\n" + v.styles.Error.Render("  "+v.statusLine)
	}
	content += "\n" + v.renderHelp()
	return styles.CenterView(content, v.width, v.height)
}

func (v *ProjectListView) renderCreateForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	nameStyle := s.Input
	btnStyle := s.Button
	if v.focusIdx == 0 {
		nameStyle = s.InputFocused
	} else {
		btnStyle = s.ButtonFocused
	}

	title, button := "New Project", " Create "
	if v.renaming != "" {
		title, button = "Rename "+v.renaming, " Rename "
	}

	// Dynamic input width based on content width
	inputWidth := clamp(contentWidth-6, 20, 50)

	errLine := ""
	if v.formErr != "" {
		errLine = s.Error.Render(v.formErr)
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(title),
		"",
		"Name:",
		nameStyle.Width(inputWidth).Render(v.newName.View()),
		errLine,
		"",
		btnStyle.Render(button),
		"",
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)

	// Center within content width, then center that in terminal
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s open • %s new • %s rename • %s del • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("r"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *ProjectListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      open view or project",
		s.HelpKey.Render("n") + "      new project",
		s.HelpKey.Render("r") + "      rename project",
		s.HelpKey.Render("d") + "      delete project",
		s.HelpKey.Render("/") + "      filter",
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

func (v *ProjectListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Project?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q and all of its tasks will be removed.", v.deleteTargetName)),
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
