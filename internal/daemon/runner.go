// Package daemon hosts the main controller activity under go-supervisor.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/atlanticdynamic/coffeemaker/internal/activity"
	"github.com/atlanticdynamic/coffeemaker/internal/channel"
	"github.com/atlanticdynamic/coffeemaker/internal/finitestate"
	"github.com/atlanticdynamic/coffeemaker/internal/subsystems/maincontroller"
	"github.com/robbyt/go-supervisor/supervisor"
)

var (
	_ supervisor.Runnable   = (*Runner)(nil)
	_ supervisor.Reloadable = (*Runner)(nil)
	_ supervisor.Stateable  = (*Runner)(nil)
)

// ErrControllerStopped is returned by Run when the main controller ends on its
// own.
var ErrControllerStopped = errors.New("main controller stopped unexpectedly")

// Loader returns the main controller configuration. It is called on Run and
// again on every Reload.
type Loader func() (maincontroller.Config, error)

// Runner boots the main controller, which in turn starts every subsystem, and
// tears it down when stopped.
type Runner struct {
	load            Loader
	ns              *channel.Namespace
	lockMemory      func() error
	activityHandler slog.Handler

	logger *slog.Logger
	fsm    finitestate.Machine

	mu         sync.Mutex
	controller *activity.Activity

	runCtx    context.Context
	runCancel context.CancelFunc
	parentCtx context.Context
}

// NewRunner creates a Runner that configures the main controller with load.
func NewRunner(load Loader, opts ...Option) (*Runner, error) {
	if load == nil {
		return nil, errors.New("loader is required")
	}
	r := &Runner{
		load:            load,
		ns:              channel.Default(),
		activityHandler: slog.Default().Handler(),
		logger:          slog.Default().WithGroup("daemon.Runner"),
		parentCtx:       context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}

	fsm, err := finitestate.New(r.logger.WithGroup("fsm").Handler())
	if err != nil {
		return nil, fmt.Errorf("failed to create state machine: %w", err)
	}
	r.fsm = fsm
	r.runCtx, r.runCancel = context.WithCancel(r.parentCtx)
	return r, nil
}

// String implements the supervisor.Runnable interface
func (r *Runner) String() string {
	return "daemon.Runner"
}

// Run implements the supervisor.Runnable interface. It blocks until ctx is
// cancelled or Stop is called.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Debug("Starting Runner")
	if err := r.fsm.Transition(finitestate.StatusBooting); err != nil {
		return fmt.Errorf("failed to transition to booting state: %w", err)
	}

	if r.lockMemory != nil {
		if err := r.lockMemory(); err != nil {
			r.logger.Warn("Failed to lock memory", "error", err)
		}
	}

	if err := r.boot(); err != nil {
		r.setError()
		return err
	}

	if err := r.fsm.Transition(finitestate.StatusRunning); err != nil {
		r.shutdown()
		return fmt.Errorf("failed to transition to running state: %w", err)
	}

	err := r.wait(ctx)
	r.logger.Info("Runner shutting down")
	r.shutdown()
	if err != nil {
		r.setError()
		return err
	}
	if err := r.fsm.Transition(finitestate.StatusStopped); err != nil {
		return fmt.Errorf("failed to transition to stopped state: %w", err)
	}
	return nil
}

// wait blocks until the runner is told to stop or the controller dies.
// Controllers replaced by Reload are not failures.
func (r *Runner) wait(ctx context.Context) error {
	for {
		controller := r.Controller()
		select {
		case <-ctx.Done():
			r.logger.Debug("Context canceled")
			return nil
		case <-r.runCtx.Done():
			r.logger.Debug("Run context canceled")
			return nil
		case <-controller.Done():
			if r.Controller() != controller {
				continue
			}
			err := controller.Err()
			r.logger.Error("Main controller terminated", "error", err)
			if err == nil {
				return ErrControllerStopped
			}
			return fmt.Errorf("%w: %w", ErrControllerStopped, err)
		}
	}
}

func (r *Runner) boot() error {
	cfg, err := r.load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	controller, err := r.start(cfg)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.controller = controller
	r.mu.Unlock()
	return nil
}

func (r *Runner) start(cfg maincontroller.Config) (*activity.Activity, error) {
	controller, err := activity.Create(
		maincontroller.Descriptor(cfg),
		channel.Blocking,
		activity.WithNamespace(r.ns),
		activity.WithLogHandler(r.activityHandler),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start main controller: %w", err)
	}
	return controller, nil
}

func (r *Runner) shutdown() {
	if r.fsm.GetState() != finitestate.StatusStopping {
		if err := r.fsm.Transition(finitestate.StatusStopping); err != nil {
			r.logger.Error("Failed to transition to stopping state", "error", err)
		}
	}
	r.mu.Lock()
	controller := r.controller
	r.controller = nil
	r.mu.Unlock()
	if controller == nil {
		return
	}
	if err := controller.Destroy(); err != nil {
		r.logger.Warn("Main controller failed", "error", err)
	}
}

func (r *Runner) setError() {
	if err := r.fsm.Transition(finitestate.StatusError); err != nil {
		r.logger.Error("Failed to transition to error state", "error", err)
	}
}

// Stop implements the supervisor.Runnable interface
func (r *Runner) Stop() {
	r.logger.Debug("Stopping Runner")
	if err := r.fsm.Transition(finitestate.StatusStopping); err != nil {
		r.logger.Debug("Failed to transition to stopping state", "error", err)
	}
	r.runCancel()
}

// Reload implements the supervisor.Reloadable interface. The configuration is
// loaded again and the main controller restarted with it; the old controller
// keeps running if the new configuration cannot be loaded.
func (r *Runner) Reload(ctx context.Context) error {
	r.logger.Debug("Starting Reload...")
	if !r.IsRunning() {
		r.logger.Warn("Not running, skipping reload")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg, err := r.load()
	if err != nil {
		r.logger.Error("Failed to reload configuration", "error", err)
		return fmt.Errorf("failed to reload configuration: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.controller == nil {
		return nil
	}
	if err := r.controller.Destroy(); err != nil {
		r.logger.Warn("Main controller failed", "error", err)
	}
	controller, err := r.start(cfg)
	if err != nil {
		r.logger.Error("Failed to restart main controller", "error", err)
		r.runCancel()
		return err
	}
	r.controller = controller
	r.logger.Debug("Reload completed", "instance", controller.InstanceID())
	return nil
}

// Controller returns the running main controller, or nil.
func (r *Runner) Controller() *activity.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.controller
}
