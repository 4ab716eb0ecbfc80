package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sourcegraph/conc/pool"

	server "github.com/kazz187/taskgantt/internal"
	"github.com/kazz187/taskgantt/internal/event"
	"github.com/kazz187/taskgantt/internal/pushnotification"
	pushsubrepo "github.com/kazz187/taskgantt/internal/pushsubscription/repositoryimpl"
	"github.com/kazz187/taskgantt/internal/store"
	"github.com/kazz187/taskgantt/internal/tui"
	"github.com/kazz187/taskgantt/pkg/filewatch"
	"github.com/kazz187/taskgantt/pkg/panicerr"
)

const shutdownTimeout = 10 * time.Second

func (c *cli) serve(ctx context.Context) error {
	vapidEnv := &c.env.VAPIDEnv
	pushSubRepo := pushsubrepo.NewYAMLRepository(c.storage)
	pushSender := pushnotification.NewSender(vapidEnv, pushSubRepo)
	pushNotificationServer := pushnotification.NewServer(vapidEnv, pushSubRepo, pushSender)
	pushDispatcher := pushnotification.NewDispatcher(c.store, pushSender, vapidEnv.NotifyInterval)
	if !vapidEnv.Configured() {
		slog.InfoContext(ctx, "VAPID keys not set, push notifications are disabled")
	}

	var eventLogger *event.Logger
	if dir := c.env.ProjectEnv.EventLogDir; dir != "" {
		var err error
		if eventLogger, err = event.NewLogger(dir); err != nil {
			return fmt.Errorf("failed to open event log: %w", err)
		}
	}

	srv := server.NewServer(
		&c.env.BaseEnv,
		store.NewServer(c.store, c.weekStart),
		event.NewServer(c.store),
		pushNotificationServer,
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(panicerr.SafeContext(func(ctx context.Context) error {
		return runServer(ctx, srv)
	}))
	p.Go(panicerr.SafeContext(pushDispatcher.Start))
	if eventLogger != nil {
		p.Go(panicerr.SafeContext(func(ctx context.Context) error {
			return eventLogger.Run(ctx, c.store)
		}))
	}
	if path := slotFile(c.storage, c.env.StorageEnv.Key); path != "" {
		p.Go(panicerr.SafeContext(func(ctx context.Context) error {
			return c.watchSlot(ctx, path, nil)
		}))
	}
	return p.Wait()
}

// runServer serves until ctx is done, then shuts down gracefully.
func runServer(ctx context.Context, srv *server.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	// Request contexts are already cancelled, so open event streams end now.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (c *cli) tui(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if path := slotFile(c.storage, c.env.StorageEnv.Key); path != "" {
		panicerr.Go(func() {
			if err := c.watchSlot(ctx, path, nil); err != nil {
				slog.ErrorContext(ctx, "file watcher stopped", "error", err)
			}
		}, func(err error) {
			slog.ErrorContext(ctx, "file watcher panicked", "error", err)
		})
	}

	prog := tea.NewProgram(tui.New(ctx, c.store, c.weekStart), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := prog.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

// watchSlot reloads the store whenever another process rewrites the slot
// file. onReload runs after each reload that changed the store.
func (c *cli) watchSlot(ctx context.Context, path string, onReload func()) error {
	return filewatch.New(path).Run(ctx, func() {
		if !c.store.Reload(ctx) {
			return
		}
		slog.InfoContext(ctx, "reloaded project", "path", path)
		if onReload != nil {
			onReload()
		}
	})
}
