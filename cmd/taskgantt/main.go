package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/kazz187/taskgantt/internal/config"
	"github.com/kazz187/taskgantt/internal/eventbus"
	projectrepo "github.com/kazz187/taskgantt/internal/project/repositoryimpl"
	"github.com/kazz187/taskgantt/internal/store"
	"github.com/kazz187/taskgantt/internal/timeline"
	"github.com/kazz187/taskgantt/pkg/clog"
	"github.com/kazz187/taskgantt/pkg/storage"
)

var (
	app = kingpin.New("taskgantt", "Plan tasks on a Gantt timeline")

	// Task commands
	addCmd         = app.Command("add", "Add a task")
	addTitle       = addCmd.Arg("title", "Task title").Required().String()
	addDescription = addCmd.Flag("description", "Task description").Short('d').String()
	addStart       = addCmd.Flag("start", "Start date (YYYY-MM-DD), today when omitted").String()
	addEnd         = addCmd.Flag("end", "End date (YYYY-MM-DD), start + 7 days when omitted").String()
	addProgress    = addCmd.Flag("progress", "Progress in percent").Short('p').Default("0").Int()
	addColor       = addCmd.Flag("color", "Bar color").String()
	addDeps        = addCmd.Flag("depends-on", "ID of a task this one depends on").Strings()

	updateCmd         = app.Command("update", "Update fields of a task")
	updateID          = updateCmd.Arg("id", "Task ID").Required().String()
	updateTitle       = updateCmd.Flag("title", "Task title").IsSetByUser(&updateSet.title).String()
	updateDescription = updateCmd.Flag("description", "Task description").Short('d').IsSetByUser(&updateSet.description).String()
	updateStart       = updateCmd.Flag("start", "Start date (YYYY-MM-DD)").IsSetByUser(&updateSet.start).String()
	updateEnd         = updateCmd.Flag("end", "End date (YYYY-MM-DD)").IsSetByUser(&updateSet.end).String()
	updateProgress    = updateCmd.Flag("progress", "Progress in percent").Short('p').IsSetByUser(&updateSet.progress).Int()
	updateColor       = updateCmd.Flag("color", "Bar color, empty to reset").IsSetByUser(&updateSet.color).String()
	updateDeps        = updateCmd.Flag("depends-on", "Replace dependencies").IsSetByUser(&updateSet.deps).Strings()

	deleteCmd = app.Command("delete", "Delete a task")
	deleteID  = deleteCmd.Arg("id", "Task ID").Required().String()

	moveCmd  = app.Command("move", "Shift a task by whole days")
	moveID   = moveCmd.Arg("id", "Task ID").Required().String()
	moveDays = moveCmd.Flag("days", "Days to shift, negative moves earlier").Required().Int()

	listCmd = app.Command("list", "List tasks")

	// Timeline commands
	chartCmd   = app.Command("chart", "Draw the timeline")
	chartMode  = chartCmd.Flag("mode", "View mode, the project's when omitted").Enum(viewModeNames()...)
	chartWidth = chartCmd.Flag("width", "Clip to this many columns, 0 for no limit").Default("0").Int()
	chartWatch = chartCmd.Flag("watch", "Redraw when the saved project changes").Bool()

	viewModeCmd  = app.Command("view-mode", "Set the project's view mode")
	viewModeName = viewModeCmd.Arg("mode", "day, week or month").Required().Enum(viewModeNames()...)

	// Project commands
	exportCmd    = app.Command("export", "Write the project as JSON")
	exportOutput = exportCmd.Flag("output", "Output file, stdout when omitted").Short('o').String()

	importCmd    = app.Command("import", "Replace the project with an exported JSON file")
	importFile   = importCmd.Arg("file", "Exported project").Required().ExistingFile()
	importDryRun = importCmd.Flag("dry-run", "Show the changes without importing").Bool()

	clearCmd = app.Command("clear", "Delete the saved project")

	// Long running
	serveCmd = app.Command("serve", "Serve the HTTP API")
	tuiCmd   = app.Command("tui", "Open the interactive timeline")
)

type updateFlagsSet struct {
	title, description, start, end, progress, color, deps bool
}

var updateSet updateFlagsSet

func viewModeNames() []string {
	names := make([]string, len(timeline.ViewModes))
	for i, m := range timeline.ViewModes {
		names[i] = m.String()
	}
	return names
}

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}
	setupLogger(env, command)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, command, env)
	stop()
	app.FatalIfError(err, "%s", command)
}

func setupLogger(env *config.Env, command string) {
	level := env.SlogLevel()
	var w io.Writer = os.Stderr
	if command == tuiCmd.FullCommand() {
		// The terminal belongs to the TUI.
		w = io.Discard
	}
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(w, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))
}

type cli struct {
	env       *config.Env
	storage   storage.Storage
	store     *store.Store
	weekStart time.Weekday
	out       io.Writer
}

func run(ctx context.Context, command string, env *config.Env) (err error) {
	weekStart, err := env.WeekStartDay()
	if err != nil {
		return err
	}

	backend, closeStorage, err := openStorage(ctx, &env.StorageEnv)
	if err != nil {
		return err
	}
	defer closeStorage()

	bus := eventbus.New()
	defer bus.Close()

	st := store.New(
		projectrepo.NewJSONRepository(backend, env.StorageEnv.Key),
		bus,
		store.WithProjectName(env.ProjectEnv.Name),
		store.WithSaveDelay(env.ProjectEnv.SaveDelay),
	)
	st.Load(ctx)
	defer func() {
		// Flush even after a signal cancelled ctx.
		err = errors.Join(err, st.Close(context.WithoutCancel(ctx)))
	}()

	c := &cli{
		env:       env,
		storage:   backend,
		store:     st,
		weekStart: weekStart,
		out:       os.Stdout,
	}

	switch command {
	case addCmd.FullCommand():
		return c.add(ctx)
	case updateCmd.FullCommand():
		return c.update(ctx)
	case deleteCmd.FullCommand():
		return c.delete(ctx)
	case moveCmd.FullCommand():
		return c.move(ctx)
	case listCmd.FullCommand():
		return c.list()
	case chartCmd.FullCommand():
		return c.chart(ctx)
	case viewModeCmd.FullCommand():
		return c.setViewMode(ctx)
	case exportCmd.FullCommand():
		return c.export(ctx)
	case importCmd.FullCommand():
		return c.importProject(ctx)
	case clearCmd.FullCommand():
		return c.clear(ctx)
	case serveCmd.FullCommand():
		return c.serve(ctx)
	case tuiCmd.FullCommand():
		return c.tui(ctx)
	}
	return nil
}
