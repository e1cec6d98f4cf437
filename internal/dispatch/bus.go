// Package dispatch routes named UI commands to panel controllers.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/newthinker/stockboard/internal/core"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// Command status labels recorded in metrics.
const (
	StatusAccepted = "accepted"
	StatusOK       = "ok"
	StatusError    = "error"
	StatusInvalid  = "invalid"
	StatusBusy     = "busy"
	StatusUnknown  = "unknown"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Recorder receives per-command metrics.
type Recorder interface {
	RecordCommand(command, status string)
}

// Guard rejects a command before it runs, for example while busy.
type Guard func() error

type command struct {
	name    string
	prepare func(raw json.RawMessage) (func(context.Context) error, error)
	guards  []Guard
	inline  bool
}

// Option configures a registered command.
type Option func(*command)

// WithGuard adds a check run before the command is accepted.
func WithGuard(g Guard) Option {
	return func(c *command) { c.guards = append(c.guards, g) }
}

// Inline makes Submit run the command synchronously and return its error.
// Use it for commands that only touch local state.
func Inline() Option {
	return func(c *command) { c.inline = true }
}

// Bus is a registry of named commands.
type Bus struct {
	mu       sync.RWMutex
	commands map[string]*command
	logger   *zap.Logger
	recorder Recorder

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup
}

// NewBus creates an empty command bus.
func NewBus(logger *zap.Logger, recorder Recorder) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		commands: make(map[string]*command),
		logger:   logger,
		recorder: recorder,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Handle registers fn under name. Arguments are decoded from JSON into A,
// defaults are applied, and A is validated before fn runs. A must be a
// struct type.
func Handle[A any](b *Bus, name string, fn func(context.Context, A) error, opts ...Option) {
	cmd := &command{
		name: name,
		prepare: func(raw json.RawMessage) (func(context.Context) error, error) {
			var args A
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			return func(ctx context.Context) error { return fn(ctx, args) }, nil
		},
	}
	for _, opt := range opts {
		opt(cmd)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands[name] = cmd
}

func decodeArgs(raw json.RawMessage, dst any) error {
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, dst); err != nil {
			return core.WrapError(core.ErrValidation, err)
		}
	}
	if err := defaults.Set(dst); err != nil {
		return core.WrapError(core.ErrValidation, err)
	}
	if err := validate.Struct(dst); err != nil {
		return core.WrapError(core.ErrValidation, err)
	}
	return nil
}

// Names returns the registered command names, sorted.
func (b *Bus) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.commands))
	for n := range b.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// prepare resolves, decodes and guards a command without running it.
func (b *Bus) prepare(name string, raw json.RawMessage) (*command, func(context.Context) error, error) {
	b.mu.RLock()
	cmd, ok := b.commands[name]
	b.mu.RUnlock()
	if !ok {
		// Unknown names share one label
		b.record("unknown", StatusUnknown)
		return nil, nil, core.WithMessage(core.ErrUnknownCommand, "unknown command: "+name)
	}

	run, err := cmd.prepare(raw)
	if err != nil {
		b.record(name, StatusInvalid)
		return nil, nil, err
	}
	for _, g := range cmd.guards {
		if err := g(); err != nil {
			b.record(name, statusFor(err))
			return nil, nil, err
		}
	}
	return cmd, run, nil
}

// Dispatch runs a command and waits for it.
func (b *Bus) Dispatch(ctx context.Context, name string, raw json.RawMessage) error {
	_, run, err := b.prepare(name, raw)
	if err != nil {
		return err
	}
	err = run(ctx)
	b.finish(name, err)
	return err
}

// Submit validates a command and runs it in the background. Only decode,
// validation and guard errors are returned; the outcome of the run itself is
// reported through the view. Inline commands run before Submit returns.
func (b *Bus) Submit(name string, raw json.RawMessage) error {
	return b.Go(name, raw, nil)
}

// Go is Submit with a completion callback. done is called with the run's
// error once the command finishes, and is not called when Go itself returns
// an error.
func (b *Bus) Go(name string, raw json.RawMessage, done func(error)) error {
	if err := b.ctx.Err(); err != nil {
		return err
	}
	cmd, run, err := b.prepare(name, raw)
	if err != nil {
		return err
	}
	if cmd.inline {
		err := run(b.ctx)
		b.finish(name, err)
		if err != nil {
			return err
		}
		if done != nil {
			done(nil)
		}
		return nil
	}
	b.record(name, StatusAccepted)
	b.wg.Go(func() {
		err := run(b.ctx)
		b.finish(name, err)
		if done != nil {
			done(err)
		}
	})
	return nil
}

func (b *Bus) finish(name string, err error) {
	if err != nil {
		b.logger.Debug("command failed", zap.String("command", name), zap.Error(err))
	}
	b.record(name, statusFor(err))
}

// Wait blocks until every submitted command has finished.
func (b *Bus) Wait() {
	b.wg.Wait()
}

// Close cancels running commands and waits for them.
func (b *Bus) Close() {
	b.cancel()
	b.wg.Wait()
}

func (b *Bus) record(name, status string) {
	if b.recorder != nil {
		b.recorder.RecordCommand(name, status)
	}
}

func statusFor(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, core.ErrBusy):
		return StatusBusy
	case errors.Is(err, core.ErrUnknownCommand):
		return StatusUnknown
	case IsInvalid(err):
		return StatusInvalid
	default:
		return StatusError
	}
}

// IsInvalid reports whether err was caused by the caller's input.
func IsInvalid(err error) bool {
	return errors.Is(err, core.ErrValidation) ||
		errors.Is(err, core.ErrSymbolRequired) ||
		errors.Is(err, core.ErrUnknownCommand) ||
		errors.Is(err, core.ErrUnknownTab) ||
		errors.Is(err, core.ErrUnknownField)
}
