package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/atlanticdynamic/coffeemaker/internal/channel"
	"github.com/atlanticdynamic/coffeemaker/internal/envelope"
	"github.com/atlanticdynamic/coffeemaker/internal/finitestate"
	"github.com/gofrs/uuid/v5"
	"github.com/robbyt/go-loglater"
)

// Activity is a running instance of a Descriptor: one goroutine plus, unless
// the descriptor says otherwise, one inbox channel named after it.
type Activity struct {
	descriptor Descriptor
	instanceID uuid.UUID
	mode       channel.Mode

	ns           *channel.Namespace
	receiver     *channel.Receiver
	logHandler   slog.Handler
	logCollector *loglater.LogCollector
	logger       *slog.Logger
	fsm          finitestate.Machine

	parentCtx context.Context
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}

	// owned by the activity goroutine until done is closed
	mux *Multiplexor
	err error

	destroyOnce sync.Once
	destroyErr  error
}

// Create allocates the activity's inbox, starts its goroutine and returns
// without waiting for SetUp. Any failure before the goroutine starts is
// reported as a *StartupError and leaves nothing behind.
func Create(desc Descriptor, mode channel.Mode, opts ...Option) (*Activity, error) {
	if desc.Behavior == nil {
		return nil, &StartupError{Activity: desc.Name, Err: ErrNoBehavior}
	}
	if err := envelope.ValidateName(desc.Name); err != nil {
		return nil, &StartupError{Activity: desc.Name, Err: err}
	}

	a := &Activity{
		descriptor: desc,
		instanceID: uuid.Must(uuid.NewV6()),
		mode:       mode,
		ns:         channel.Default(),
		logHandler: slog.Default().Handler(),
		parentCtx:  context.Background(),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.logCollector = loglater.NewLogCollector(a.logHandler)
	a.logger = slog.New(a.logCollector).With(
		"activity", desc.Name,
		"instance", a.instanceID.String(),
	)

	machine, err := finitestate.New(a.logHandler)
	if err != nil {
		return nil, &StartupError{Activity: desc.Name, Err: err}
	}
	a.fsm = machine

	if !desc.NoInbox {
		r, err := a.ns.OpenReceiver(desc.Name, mode)
		if err != nil {
			return nil, &StartupError{Activity: desc.Name, Err: err}
		}
		a.receiver = r
	}

	a.ctx, a.cancel = context.WithCancel(a.parentCtx)
	go a.loop()
	return a, nil
}

func (a *Activity) loop() {
	defer close(a.done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	a.logger.Info("Launching...")
	a.transition(finitestate.StatusBooting)

	defer a.tearDown()
	defer func() {
		if r := recover(); r != nil {
			a.fail(fmt.Errorf("panic: %v", r))
		}
	}()

	if err := a.descriptor.Behavior.SetUp(a); err != nil {
		a.fail(fmt.Errorf("set up: %w", err))
		return
	}
	if a.ctx.Err() != nil {
		return
	}

	a.transition(finitestate.StatusRunning)
	if err := a.descriptor.Behavior.Run(a); err != nil && !errors.Is(err, a.ctx.Err()) {
		a.fail(err)
	}
}

func (a *Activity) tearDown() {
	defer func() {
		if r := recover(); r != nil {
			a.fail(fmt.Errorf("panic in tear down: %v", r))
		}
		if a.fsm.GetState() != finitestate.StatusError {
			a.transition(finitestate.StatusStopping)
			a.transition(finitestate.StatusStopped)
		}
		a.logger.Info("Terminated.")
	}()
	a.descriptor.Behavior.TearDown(a)
}

func (a *Activity) fail(err error) {
	if a.err == nil {
		a.err = err
	}
	a.logger.Error("Activity failed", "error", err)
	a.transition(finitestate.StatusError)
}

func (a *Activity) transition(status string) {
	if err := a.fsm.Transition(status); err != nil {
		a.logger.Debug("Lifecycle transition rejected", "to", status, "error", err)
	}
}

// Destroy cancels the activity, waits for its goroutine to finish TearDown and
// then releases the multiplexor and the inbox channel. Destroying an already
// destroyed activity is a no-op. Destroy must not be called by the activity on
// itself.
func (a *Activity) Destroy() error {
	a.destroyOnce.Do(func() {
		a.cancel()
		<-a.done

		var errs []error
		if a.mux != nil {
			errs = append(errs, a.mux.Close())
		}
		if a.receiver != nil {
			errs = append(errs, a.receiver.Close())
			// a successor owns the name now; it is not ours to unlink
			if err := a.receiver.Unlink(); !errors.Is(err, channel.ErrReplaced) {
				errs = append(errs, err)
			}
		}
		a.destroyErr = errors.Join(errs...)
	})
	return a.destroyErr
}

// Spawn creates a child activity that shares this activity's namespace and
// log handler. The child is cancelled together with its parent but must still
// be destroyed, usually from the parent's TearDown.
func (a *Activity) Spawn(desc Descriptor, mode channel.Mode) (*Activity, error) {
	return Create(desc, mode,
		WithNamespace(a.ns),
		WithLogHandler(a.logHandler),
		WithContext(a.ctx),
	)
}

// Context is cancelled when the activity is asked to stop.
func (a *Activity) Context() context.Context { return a.ctx }

// Done is closed once the activity's goroutine has returned.
func (a *Activity) Done() <-chan struct{} { return a.done }

// Err returns the error the activity failed with, if any. It is only
// meaningful after Done is closed.
func (a *Activity) Err() error {
	select {
	case <-a.done:
		return a.err
	default:
		return nil
	}
}

func (a *Activity) Descriptor() Descriptor        { return a.descriptor }
func (a *Activity) Name() string                  { return a.descriptor.Name }
func (a *Activity) InstanceID() uuid.UUID         { return a.instanceID }
func (a *Activity) Logger() *slog.Logger          { return a.logger }
func (a *Activity) Namespace() *channel.Namespace { return a.ns }

func (a *Activity) String() string {
	return fmt.Sprintf("Activity{name: %s, instance: %s}", a.descriptor.Name, a.instanceID)
}

// State returns the lifecycle status, one of the finitestate.Status values.
func (a *Activity) State() string {
	return a.fsm.GetState()
}

// StateChan streams lifecycle status changes until ctx is done.
func (a *Activity) StateChan(ctx context.Context) <-chan string {
	return a.fsm.GetStateChan(ctx)
}

// IsRunning reports whether the activity has finished SetUp and is in Run.
func (a *Activity) IsRunning() bool {
	return a.fsm.GetState() == finitestate.StatusRunning
}

// PlaybackLogs replays everything this activity has logged to handler.
func (a *Activity) PlaybackLogs(handler slog.Handler) error {
	return a.logCollector.PlayLogs(handler)
}

// LogCount returns how many records the activity has logged so far.
func (a *Activity) LogCount() int {
	return len(a.logCollector.GetLogs())
}
