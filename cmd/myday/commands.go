package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tgienger/myday/internal/config"
	"github.com/tgienger/myday/internal/filter"
	"github.com/tgienger/myday/internal/logging"
	"github.com/tgienger/myday/internal/models"
	"github.com/tgienger/myday/internal/repository"
	"github.com/tgienger/myday/internal/storage"
	"github.com/tgienger/myday/internal/transfer"
)

// now is the clock used by the smart views
var now = time.Now

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectAddCmd())
	prj.AddCommand(projectRenameCmd())
	prj.AddCommand(projectDeleteCmd())
	return prj
}

func projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(func(_ *config.Config, _ storage.Store, r *repository.Repository) error {
				out := cmd.OutOrStdout()
				if viper.GetBool("json") {
					return printJSON(out, repository.NewSnapshot(r.All()).Projects)
				}
				tw := newTable(out)
				tw.AppendHeader(table.Row{"Project", "Tasks", "Open"})
				for _, p := range r.All() {
					open := 0
					for _, t := range p.Tasks {
						if !t.Done() {
							open++
						}
					}
					tw.AppendRow(table.Row{p.Name, p.Len(), open})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func projectAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(func(_ *config.Config, _ storage.Store, r *repository.Repository) error {
				p, err := r.CreateProject(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created project %q\n", p.Name)
				return nil
			})
		},
	}
}

func projectRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename OLD NEW",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(func(_ *config.Config, _ storage.Store, r *repository.Repository) error {
				if err := r.RenameProject(args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed project %q to %q\n", strings.TrimSpace(args[0]), strings.TrimSpace(args[1]))
				return nil
			})
		},
	}
}

func projectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm NAME",
		Aliases: []string{"delete"},
		Short:   "Delete a project and all of its tasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(func(_ *config.Config, _ storage.Store, r *repository.Repository) error {
				if _, ok := r.Find(args[0]); !ok {
					logging.Debug("cli", "project %q not found, nothing to delete", args[0])
					return nil
				}
				if err := r.Delete(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %q\n", strings.TrimSpace(args[0]))
				return nil
			})
		},
	}
}

func taskCmd() *cobra.Command {
	tsk := &cobra.Command{Use: "task", Short: "Manage tasks"}
	tsk.AddCommand(taskListCmd())
	tsk.AddCommand(taskAddCmd())
	tsk.AddCommand(taskEditCmd())
	tsk.AddCommand(taskToggleCmd())
	tsk.AddCommand(taskDeleteCmd())
	return tsk
}

func taskListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list PROJECT",
		Aliases: []string{"ls"},
		Short:   "List the tasks of a project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(func(_ *config.Config, _ storage.Store, r *repository.Repository) error {
				p, ok := r.Find(args[0])
				if !ok {
					return models.ProjectNotFound(strings.TrimSpace(args[0]))
				}
				return printGroups(cmd.OutOrStdout(), []filter.Group{{Project: p, Tasks: p.Tasks}})
			})
		},
	}
}

// taskFlags are the editable task fields shared by add and edit
type taskFlags struct {
	description string
	due         string
	priority    string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "description")
	cmd.Flags().StringVar(&f.due, "due", "", "due date (YYYY-MM-DD, today or tomorrow)")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "priority: Low, Medium or High")
}

// resolveDue accepts the shorthands today and tomorrow
func resolveDue(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return now().Format(models.DateLayout)
	case "tomorrow":
		return now().AddDate(0, 0, 1).Format(models.DateLayout)
	}
	return s
}

func taskAddCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add PROJECT NAME",
		Short: "Add a task to a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			priority, err := models.ParsePriority(f.priority)
			if err != nil {
				return err
			}
			return withRepo(func(_ *config.Config, _ storage.Store, r *repository.Repository) error {
				t, err := r.AddTask(args[0], models.TaskFields{
					Name:        args[1],
					Description: f.description,
					DueDate:     resolveDue(f.due),
					Priority:    priority,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added task %q to %q\n", t.Name, strings.TrimSpace(args[0]))
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func taskEditCmd() *cobra.Command {
	var f taskFlags
	var name, moveTo string
	cmd := &cobra.Command{
		Use:   "edit PROJECT NAME",
		Short: "Edit a task, optionally moving it to another project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(func(_ *config.Config, _ storage.Store, r *repository.Repository) error {
				p, ok := r.Find(args[0])
				if !ok {
					return models.ProjectNotFound(strings.TrimSpace(args[0]))
				}
				task, ok := p.FindTask(args[1])
				if !ok {
					return models.TaskNotFound(p.Name, strings.TrimSpace(args[1]))
				}

				// Unset flags keep the current values
				fields := task.Fields()
				if cmd.Flags().Changed("name") {
					fields.Name = name
				}
				if cmd.Flags().Changed("description") {
					fields.Description = f.description
				}
				if cmd.Flags().Changed("due") {
					fields.DueDate = resolveDue(f.due)
				}
				if cmd.Flags().Changed("priority") {
					priority, err := models.ParsePriority(f.priority)
					if err != nil {
						return err
					}
					fields.Priority = priority
				}

				edited, err := r.EditTask(p.Name, task.Name, repository.TaskEdit{Project: moveTo, TaskFields: fields})
				if err != nil {
					return err
				}
				dst := p.Name
				if strings.TrimSpace(moveTo) != "" {
					dst = strings.TrimSpace(moveTo)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved task %q in %q (%s)\n", edited.Name, dst, edited.Status)
				return nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&name, "name", "n", "", "new task name")
	cmd.Flags().StringVarP(&moveTo, "move-to", "m", "", "move the task to this project")
	return cmd
}

func taskToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "toggle PROJECT NAME",
		Aliases: []string{"done"},
		Short:   "Flip a task between Incomplete and Complete",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(func(_ *config.Config, _ storage.Store, r *repository.Repository) error {
				t, err := r.ToggleTask(args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%q is now %s\n", t.Name, t.Status)
				return nil
			})
		},
	}
}

func taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm PROJECT NAME",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(func(_ *config.Config, _ storage.Store, r *repository.Repository) error {
				return r.DeleteTask(args[0], args[1])
			})
		},
	}
}

func viewCmd() *cobra.Command {
	var hideDone bool
	cmd := &cobra.Command{
		Use:   "view [all|today|week]",
		Short: "Show a smart view (defaults to ui.default_view)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(func(cfg *config.Config, _ storage.Store, r *repository.Repository) error {
				name := cfg.UI.DefaultView
				if len(args) == 1 {
					name = args[0]
				}
				v, err := filter.Parse(name)
				if err != nil {
					return err
				}
				groups := filter.Apply(v, r.All(), now())
				if hideDone {
					groups = openOnly(groups)
				}
				if !viper.GetBool("json") {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (%d)\n", v, filter.Count(groups))
				}
				return printGroups(cmd.OutOrStdout(), groups)
			})
		},
	}
	cmd.Flags().BoolVar(&hideDone, "open", false, "hide completed tasks")
	return cmd
}

func openOnly(groups []filter.Group) []filter.Group {
	out := make([]filter.Group, len(groups))
	for i, g := range groups {
		out[i] = filter.Group{Project: g.Project, Tasks: []*models.Task{}}
		for _, t := range g.Tasks {
			if !t.Done() {
				out[i].Tasks = append(out[i].Tasks, t)
			}
		}
	}
	return out
}

// printGroups renders groups as a table, or as project records with --json
func printGroups(w io.Writer, groups []filter.Group) error {
	if viper.GetBool("json") {
		projects := make([]*models.Project, len(groups))
		for i, g := range groups {
			projects[i] = &models.Project{Name: g.Project.Name, Tasks: g.Tasks}
		}
		return printJSON(w, repository.NewSnapshot(projects).Projects)
	}

	tw := newTable(w)
	tw.AppendHeader(table.Row{"Project", "Task", "Due", "Priority", "Status", "Description"})
	for _, g := range groups {
		if len(g.Tasks) == 0 {
			tw.AppendRow(table.Row{g.Project.Name, text.FgHiBlack.Sprint("(no tasks)"), "", "", "", ""})
			continue
		}
		for _, t := range g.Tasks {
			tw.AppendRow(table.Row{
				g.Project.Name,
				t.Name,
				t.DueDate,
				string(t.Priority),
				statusCell(t),
				descriptionCell(t.Description),
			})
		}
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 1, AutoMerge: true}})
	tw.Render()
	return nil
}

// descriptionCell flattens a description onto one line and snips it by display width
func descriptionCell(desc string) string {
	return text.Snip(strings.Join(strings.Fields(desc), " "), 40, "...")
}

func statusCell(t *models.Task) string {
	if t.Done() {
		return text.FgGreen.Sprint(string(t.Status))
	}
	return string(t.Status)
}

func exportCmd() *cobra.Command {
	var formatName, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every project and task as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := transfer.FormatJSON
			if output != "" {
				format = transfer.FormatFromPath(output)
			}
			if cmd.Flags().Changed("format") {
				f, err := transfer.ParseFormat(formatName)
				if err != nil {
					return err
				}
				format = f
			}
			return withRepo(func(_ *config.Config, _ storage.Store, r *repository.Repository) error {
				if output == "" {
					return transfer.Export(cmd.OutOrStdout(), r.All(), format)
				}
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				if err := transfer.Export(f, r.All(), format); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("export %s: %w", output, err)
				}
				logging.Info("cli", "exported %d projects to %s", len(r.All()), output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", "json", "json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

func importCmd() *cobra.Command {
	var formatName string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace every project and task with the contents of an export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := transfer.FormatFromPath(args[0])
			if cmd.Flags().Changed("format") {
				f, err := transfer.ParseFormat(formatName)
				if err != nil {
					return err
				}
				format = f
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			projects, renames, err := transfer.Import(f, format)
			if err != nil {
				return err
			}
			for _, rn := range renames {
				logging.Warn("import", "renamed %s", rn)
			}
			return withRepo(func(_ *config.Config, _ storage.Store, r *repository.Repository) error {
				if err := r.Replace(projects); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d projects\n", len(projects))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", "", "json or yaml (default from the file extension)")
	return cmd
}

func configCmd() *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Inspect or create the config file"}
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(cmd.OutOrStdout(), cfg)
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	})
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default config file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("config")
			if path == "" {
				p, err := config.Path()
				if err != nil {
					return err
				}
				path = p
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.Default().SaveTo(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	})
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List the keys held by the sqlite store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(func(cfg *config.Config, store storage.Store, _ *repository.Repository) error {
				lister, ok := store.(interface{ Keys() ([]string, error) })
				if !ok {
					return fmt.Errorf("the %s backend cannot list keys", cfg.Storage.Backend)
				}
				keys, err := lister.Keys()
				if err != nil {
					return err
				}
				for _, k := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			})
		},
	})
	return cfgCmd
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	return tw
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
