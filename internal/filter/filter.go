// Package filter computes the smart views over the project collection.
//
// Due dates are calendar dates. They are parsed in the location of the
// reference time passed by the caller (normally time.Now(), i.e. local time)
// and compared against start-of-day/end-of-day bounds, never as strings.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/tgienger/myday/internal/models"
)

// View names a smart view
type View string

const (
	ViewAll       View = "All My Tasks"
	ViewMyDay     View = "My Day"
	ViewNext7Days View = "Next 7 Days"
)

// Views lists the smart views in sidebar order
var Views = []View{ViewAll, ViewMyDay, ViewNext7Days}

// WeekDays is the length of the Next 7 Days window, today included
const WeekDays = 7

// Parse resolves a display name or short alias to a View
func Parse(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "all my tasks":
		return ViewAll, nil
	case "today", "day", "my day", "myday":
		return ViewMyDay, nil
	case "week", "next7", "next 7 days":
		return ViewNext7Days, nil
	}
	return "", fmt.Errorf("unknown view %q (want all, today or week)", s)
}

// IsView reports whether name is one of the smart view names
func IsView(name string) bool {
	name = strings.TrimSpace(name)
	for _, v := range Views {
		if strings.EqualFold(name, string(v)) {
			return true
		}
	}
	return false
}

// Group is one project and the tasks of it selected by a view
type Group struct {
	Project *models.Project
	Tasks   []*models.Task
}

// Window is a closed time interval
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t is inside the window, bounds included
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// StartOfDay returns midnight of t's calendar day in t's location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of t's calendar day in t's location
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// DayWindow covers the calendar day of now
func DayWindow(now time.Time) Window {
	return Window{Start: StartOfDay(now), End: EndOfDay(now)}
}

// WeekWindow covers today and the following six days
func WeekWindow(now time.Time) Window {
	return Window{Start: StartOfDay(now), End: EndOfDay(now.AddDate(0, 0, WeekDays-1))}
}

// All returns every task of every project
func All(projects []*models.Project) []Group {
	return selectTasks(projects, func(*models.Task) bool { return true })
}

// MyDay returns the tasks due on now's calendar day
func MyDay(projects []*models.Project, now time.Time) []Group {
	return dueWithin(projects, DayWindow(now), now.Location())
}

// Next7Days returns the tasks due from today through today+6
func Next7Days(projects []*models.Project, now time.Time) []Group {
	return dueWithin(projects, WeekWindow(now), now.Location())
}

// Apply runs the named view
func Apply(v View, projects []*models.Project, now time.Time) []Group {
	switch v {
	case ViewMyDay:
		return MyDay(projects, now)
	case ViewNext7Days:
		return Next7Days(projects, now)
	default:
		return All(projects)
	}
}

// Count returns the number of tasks across all groups
func Count(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += len(g.Tasks)
	}
	return n
}

func dueWithin(projects []*models.Project, w Window, loc *time.Location) []Group {
	return selectTasks(projects, func(t *models.Task) bool {
		due, ok := t.Due(loc)
		return ok && w.Contains(due)
	})
}

func selectTasks(projects []*models.Project, keep func(*models.Task) bool) []Group {
	groups := make([]Group, 0, len(projects))
	for _, p := range projects {
		g := Group{Project: p, Tasks: []*models.Task{}}
		for _, t := range p.Tasks {
			if keep(t) {
				g.Tasks = append(g.Tasks, t)
			}
		}
		groups = append(groups, g)
	}
	return groups
}
