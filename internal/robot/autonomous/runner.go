package autonomous

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jcweaver997/Kiwi/internal/pkg/metrics"
	"github.com/jcweaver997/Kiwi/internal/robot/message"
)

const (
	kindScript    = "script"
	kindChecklist = "checklist"
)

// StartScript runs the named script on its own goroutine.
func (a *Autonomous) StartScript(name string) error {
	return a.start(kindScript, name, func(ctx context.Context) (string, error) {
		return a.runScript(ctx, name)
	})
}

// StartChecklist sends COMPONENT_TEST to every checklist channel and waits
// for all of them to answer.
func (a *Autonomous) StartChecklist() error {
	return a.start(kindChecklist, "", a.runChecklist)
}

func (a *Autonomous) start(kind, name string, run func(ctx context.Context) (string, error)) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.base == nil {
		return errors.New("autonomous: not set up")
	}
	if a.cancel != nil {
		return ErrRunInProgress
	}

	ctx, cancel := context.WithCancel(a.base)
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done
	a.status = RunStatus{
		ID:      uuid.NewString(),
		Kind:    kind,
		Running: true,
		Script:  name,
		Started: time.Now(),
	}
	logger := a.logger.WithValues("run", a.status.ID, "kind", kind)
	logger.Info("Autonomous run started", "script", name)

	go func() {
		defer close(done)
		last, err := run(ctx)

		a.mu.Lock()
		a.status.Running = false
		a.status.Last = last
		a.status.Duration = time.Since(a.status.Started)
		if err != nil {
			a.status.Error = err.Error()
		}
		if a.done == done {
			a.cancel = nil
			a.done = nil
		}
		a.mu.Unlock()
		cancel()

		if err != nil {
			logger.Warn("Autonomous run ended with error", "last", last, "error", err)
			return
		}
		logger.Info("Autonomous run finished", "last", last)
	}()
	return nil
}

// Stop cancels the active run and waits for it to return. Any reply wait it
// was blocked in is disarmed so the next run starts from a zero count.
func (a *Autonomous) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	a.state.Disarm()
	<-done
}

// Wait blocks until the active run, if any, returns.
func (a *Autonomous) Wait(ctx context.Context) error {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status reports the current or most recent run.
func (a *Autonomous) Status() RunStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.status
	if s.Running {
		s.Duration = time.Since(s.Started)
	}
	return s
}

// runScript feeds lines to the interpreter until it halts, the script ends
// or ctx is done.
func (a *Autonomous) runScript(ctx context.Context, name string) (string, error) {
	src, err := a.lib.Open(name)
	if err != nil {
		metrics.ScriptHalts.WithLabelValues("load").Inc()
		return "", fmt.Errorf("load script %q: %w", name, err)
	}
	if err := a.interp.Restart(ctx); err != nil {
		return "", err
	}

	var last string
	for {
		line, _, ok := src.Next()
		if !ok {
			a.logger.Warn("Script ended without END", "script", name, "lines", src.Len())
			return last, nil
		}

		res := a.interp.Evaluate(ctx, line)
		if res.Status != "" {
			last = string(res.Status)
		}
		if res.Halt {
			if errors.Is(res.Err, context.Canceled) {
				return last, nil
			}
			return last, res.Err
		}
	}
}

func (a *Autonomous) runChecklist(ctx context.Context) (string, error) {
	targets := a.cfg.Checklist
	if len(targets) == 0 {
		targets = []message.ChannelID{message.DrivetrainChannel}
	}
	commands := make([]message.CommandTag, len(targets))
	for i := range commands {
		commands[i] = message.CommandComponentTest
	}

	if err := a.coord.MultiCommandResponse(ctx, targets, commands); err != nil {
		return "checklist failed", err
	}
	return "checklist ok", nil
}
