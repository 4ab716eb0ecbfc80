package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kazz187/taskgantt/internal/chart"
	"github.com/kazz187/taskgantt/internal/project"
	"github.com/kazz187/taskgantt/internal/store"
	"github.com/kazz187/taskgantt/internal/task"
	"github.com/kazz187/taskgantt/internal/timeline"
	"github.com/kazz187/taskgantt/pkg/cerr"
	"github.com/kazz187/taskgantt/pkg/color"
)

func (c *cli) add(ctx context.Context) error {
	req := task.DefaultCreateRequest(c.store.Now())
	req.Title = *addTitle
	req.Description = *addDescription
	req.Progress = *addProgress
	req.Color = *addColor
	req.Dependencies = *addDeps
	if *addStart != "" {
		start, err := task.ParseDate(*addStart)
		if err != nil {
			return err
		}
		req.StartDate = start
		req.EndDate = timeline.AddDays(start, 7)
	}
	if *addEnd != "" {
		end, err := task.ParseDate(*addEnd)
		if err != nil {
			return err
		}
		req.EndDate = end
	}
	if err := task.ValidateCreate(req); err != nil {
		return describe(err)
	}

	t, err := c.store.CreateTask(ctx, req)
	if err != nil {
		return describe(err)
	}
	c.printTask(t)
	return nil
}

func (c *cli) update(ctx context.Context) error {
	var req task.UpdateRequest
	if updateSet.title {
		req.Title = updateTitle
	}
	if updateSet.description {
		req.Description = updateDescription
	}
	if updateSet.start {
		start, err := task.ParseDate(*updateStart)
		if err != nil {
			return err
		}
		req.StartDate = &start
	}
	if updateSet.end {
		end, err := task.ParseDate(*updateEnd)
		if err != nil {
			return err
		}
		req.EndDate = &end
	}
	if updateSet.progress {
		req.Progress = updateProgress
	}
	if updateSet.color {
		req.Color = updateColor
	}
	if updateSet.deps {
		req.Dependencies = updateDeps
	}
	if req.Empty() {
		return errors.New("nothing to update")
	}

	current, err := c.store.Task(*updateID)
	if err != nil {
		return describe(err)
	}
	if err := task.ValidateUpdate(current, req); err != nil {
		return describe(err)
	}
	t, err := c.store.UpdateTask(ctx, *updateID, req)
	if err != nil {
		return describe(err)
	}
	c.printTask(t)
	return nil
}

func (c *cli) delete(ctx context.Context) error {
	if err := c.store.DeleteTask(ctx, *deleteID); err != nil {
		return describe(err)
	}
	fmt.Fprintf(c.out, "deleted %s\n", *deleteID)
	return nil
}

func (c *cli) move(ctx context.Context) error {
	t, err := c.store.MoveTask(ctx, *moveID, *moveDays)
	if err != nil {
		return describe(err)
	}
	c.printTask(t)
	return nil
}

func (c *cli) list() error {
	st := c.store.Snapshot()
	if len(st.Project.Tasks) == 0 {
		fmt.Fprintln(c.out, "no tasks")
		return nil
	}
	for _, t := range st.Project.Tasks {
		c.printTask(t)
	}
	return nil
}

func (c *cli) printTask(t *task.Task) {
	fmt.Fprintf(c.out, "%s %s %3d%%  %-24s %s\n",
		t.ID,
		color.StatusLabel(string(t.Status())),
		t.Progress,
		task.FormatDateRange(t.StartDate, t.EndDate),
		t.Title,
	)
}

func (c *cli) chart(ctx context.Context) error {
	if err := c.drawChart(); err != nil {
		return err
	}
	if !*chartWatch {
		return nil
	}
	path := slotFile(c.storage, c.env.StorageEnv.Key)
	if path == "" {
		return fmt.Errorf("--watch needs file based storage, STORAGE_TYPE is %q", c.env.StorageEnv.Type)
	}
	return c.watchSlot(ctx, path, func() {
		fmt.Fprintln(c.out)
		if err := c.drawChart(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	})
}

func (c *cli) drawChart() error {
	st := c.store.Snapshot()
	l, err := chart.Build(st.Project, timeline.ViewMode(*chartMode), c.store.Now(), c.weekStart)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, chart.Render(l, chart.WithWidth(*chartWidth)))
	return nil
}

func (c *cli) setViewMode(ctx context.Context) error {
	mode, err := timeline.ParseViewMode(*viewModeName)
	if err != nil {
		return err
	}
	if err := c.store.SetViewMode(ctx, mode); err != nil {
		return describe(err)
	}
	fmt.Fprintf(c.out, "view mode set to %s\n", mode)
	return nil
}

func (c *cli) export(ctx context.Context) error {
	data, err := c.store.Export(ctx)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if *exportOutput == "" {
		_, err := c.out.Write(data)
		return err
	}
	return os.WriteFile(*exportOutput, data, 0o644)
}

func (c *cli) importProject(ctx context.Context) error {
	f, err := os.Open(*importFile)
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, store.MaxImportSize+1))
	if err != nil {
		return err
	}
	if len(data) > store.MaxImportSize {
		return fmt.Errorf("%s is larger than %d bytes", *importFile, store.MaxImportSize)
	}

	if *importDryRun {
		next, err := project.Decode(data, c.store.Now())
		if err != nil {
			return describe(err)
		}
		diff, err := project.Diff(c.store.Snapshot().Project, next)
		if err != nil {
			return err
		}
		if diff == "" {
			fmt.Fprintln(c.out, "no changes")
			return nil
		}
		fmt.Fprint(c.out, diff)
		return nil
	}

	p, err := c.store.Import(ctx, data)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(c.out, "imported %q with %d tasks\n", p.Name, len(p.Tasks))
	return nil
}

func (c *cli) clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return describe(err)
	}
	fmt.Fprintln(c.out, "project cleared")
	return nil
}

// describe turns a coded error into a message for the terminal, listing
// validation violations one per line.
func describe(err error) error {
	var ce *cerr.Error
	if !errors.As(err, &ce) {
		return err
	}
	var b strings.Builder
	b.WriteString(ce.Msg)
	for _, v := range ce.Violations() {
		fmt.Fprintf(&b, "\n  %s: %s", v.GetRuleId(), v.GetMessage())
	}
	if len(ce.Violations()) == 0 && ce.Err != nil {
		fmt.Fprintf(&b, ": %s", ce.Err)
	}
	return errors.New(b.String())
}
