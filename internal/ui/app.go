package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/myday/internal/filter"
	"github.com/tgienger/myday/internal/logging"
	"github.com/tgienger/myday/internal/repository"
	"github.com/tgienger/myday/internal/storage"
	"github.com/tgienger/myday/internal/ui/views"
)

// LastViewKey is the store key remembering the last opened view or project
const LastViewKey = "last_view"

// Currently active view
type View int

const (
	ViewProjects View = iota
	ViewTasks
)

// Options carries the UI preferences from the config file
type Options struct {
	DefaultView   string
	ShowCompleted bool
	Now           func() time.Time
}

type App struct {
	repo        *repository.Repository
	settings    storage.Store
	opts        Options
	currentView View
	projectList *views.ProjectListView
	taskList    *views.TaskListView
	width       int
	height      int
}

// Creates a new application
func NewApp(repo *repository.Repository, settings storage.Store, opts Options) *App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	projectList := views.NewProjectListView(repo)
	projectList.SetClock(opts.Now)
	return &App{
		repo:        repo,
		settings:    settings,
		opts:        opts,
		currentView: ViewProjects,
		projectList: projectList,
	}
}

func (a *App) Init() tea.Cmd {
	// Reopen the last view, falling back to the configured default
	name := a.opts.DefaultView
	if last, err := a.settings.Get(LastViewKey); err == nil && len(last) > 0 {
		name = string(last)
	}
	if a.exists(name) {
		return a.open(name)
	}

	return a.projectList.Init()
}

// CurrentSelection returns the open smart view or project, or "" on the sidebar
func (a *App) CurrentSelection() string {
	if a.currentView == ViewTasks && a.taskList != nil {
		return a.taskList.Selection()
	}
	return ""
}

func (a *App) exists(name string) bool {
	if name == "" {
		return false
	}
	if filter.IsView(name) {
		return true
	}
	_, ok := a.repo.Find(name)
	return ok
}

func (a *App) open(name string) tea.Cmd {
	// canonical casing for smart views
	if filter.IsView(name) {
		v, _ := filter.Parse(name)
		name = string(v)
	}
	a.currentView = ViewTasks
	a.taskList = views.NewTaskListView(a.repo, name, a.opts.ShowCompleted)
	a.taskList.SetClock(a.opts.Now)
	a.remember(name)

	// Initialize task list with window size
	return tea.Batch(
		a.taskList.Init(),
		func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		},
	)
}

func (a *App) remember(name string) {
	if err := a.settings.Set(LastViewKey, []byte(name)); err != nil {
		logging.Warn("ui", "remember last view: %v", err)
	}
}

func (a *App) showProjects() tea.Cmd {
	a.currentView = ViewProjects
	return tea.Batch(
		a.projectList.Init(),
		func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		},
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Always update project list size since it persists
		a.projectList.Update(msg)

	case views.Selected:
		return a, a.open(msg.Name)

	case views.BackToProjects:
		return a, a.showProjects()

	case views.ProjectDeleted:
		// the remembered project is gone; fall back to My Day
		if last, _ := a.settings.Get(LastViewKey); string(last) == msg.Name {
			return a, a.open(string(filter.ViewMyDay))
		}
		return a, nil

	case views.ProjectRenamed:
		if last, _ := a.settings.Get(LastViewKey); string(last) == msg.OldName {
			a.remember(msg.NewName)
		}
		return a, nil
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewProjects:
		_, cmd = a.projectList.Update(msg)
	case ViewTasks:
		_, cmd = a.taskList.Update(msg)
	}

	return a, cmd
}

func (a *App) View() string {
	switch a.currentView {
	case ViewTasks:
		if a.taskList != nil {
			return a.taskList.View()
		}
	}
	return a.projectList.View()
}
