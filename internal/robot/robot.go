// Package robot assembles the components, their transport and the operator
// HTTP surface into one process and drives the robot lifecycle.
package robot

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/looplab/fsm"
	"golang.org/x/sync/errgroup"

	"github.com/jcweaver997/Kiwi/internal/pkg/metrics"
	"github.com/jcweaver997/Kiwi/internal/robot/autonomous"
	"github.com/jcweaver997/Kiwi/internal/robot/channel"
	"github.com/jcweaver997/Kiwi/internal/robot/component"
	"github.com/jcweaver997/Kiwi/internal/robot/execstate"
	"github.com/jcweaver997/Kiwi/internal/robot/scripts"
	"github.com/jcweaver997/Kiwi/internal/robot/server"
	"github.com/jcweaver997/Kiwi/internal/robot/telemetry"
	"github.com/jcweaver997/Kiwi/pkg/log"
	"github.com/jcweaver997/Kiwi/pkg/mqtt"
)

// Transport is a channel transport the robot owns and shuts down on exit.
type Transport interface {
	channel.Transport
	Shutdown()
}

// Robot runs every component on one transport.
type Robot struct {
	logger log.Logger

	transport  Transport
	components []component.Component
	auto       *autonomous.Autonomous
	state      *execstate.Controller
	dash       *telemetry.Dashboard
	library    *scripts.Library
	watch      bool

	// Optional.
	http *server.Server
	mqtt mqtt.Client

	lifecycle *lifecycle
	ready     atomic.Bool
}

// Status is the operator view of the robot.
type Status struct {
	Mode      string               `json:"mode"`
	Ready     bool                 `json:"ready"`
	Execution execstate.Snapshot   `json:"execution"`
	Run       autonomous.RunStatus `json:"run"`
	Dashboard telemetry.Snapshot   `json:"dashboard"`
}

var _ server.Robot = (*Robot)(nil)

// Run opens every component, then serves them until ctx is done. The
// robot enters disabled once all channels are open.
func (r *Robot) Run(ctx context.Context) error {
	r.logger.Info("Starting robot", "components", len(r.components))
	defer r.shutdown()

	if r.mqtt != nil {
		if err := r.mqtt.Start(ctx); err != nil {
			return fmt.Errorf("start mqtt client: %w", err)
		}
		if err := r.mqtt.AwaitConnection(ctx); err != nil {
			return fmt.Errorf("await mqtt connection: %w", err)
		}
	}

	for _, c := range r.components {
		if err := component.Open(ctx, r.transport, c); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range r.components {
		g.Go(func() error {
			return component.Serve(gctx, r.transport, c)
		})
	}
	if r.watch {
		g.Go(func() error {
			return r.library.Watch(gctx)
		})
	}
	if r.http != nil {
		g.Go(func() error {
			return r.http.Start(gctx)
		})
	}
	if r.mqtt != nil {
		g.Go(func() error {
			r.trackConnection(gctx)
			return nil
		})
	}

	if err := r.SetMode(gctx, ModeDisabled); err != nil {
		r.logger.Error(err, "Failed to enter disabled mode")
	}
	r.ready.Store(true)

	<-gctx.Done()
	r.ready.Store(false)
	r.logger.Info("Robot shutting down...")
	r.auto.Stop()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (r *Robot) shutdown() {
	r.transport.Shutdown()
	if r.mqtt != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		r.mqtt.Disconnect(ctx)
		metrics.TransportConnected.Set(0)
	}
}

// trackConnection mirrors the broker connection into a gauge.
func (r *Robot) trackConnection(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		v := 0.0
		if r.mqtt.IsConnected() {
			v = 1
		}
		metrics.TransportConnected.Set(v)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Robot) Ready() bool { return r.ready.Load() }

func (r *Robot) Mode() string { return r.lifecycle.Current() }

// SetMode moves the robot to mode and broadcasts the change. Entering the
// current mode again is a no-op.
func (r *Robot) SetMode(ctx context.Context, mode string) error {
	if err := validMode(mode); err != nil {
		return err
	}
	err := r.lifecycle.Event(context.WithoutCancel(ctx), eventFor(mode))
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	return err
}

func (r *Robot) Pause() {
	r.logger.Info("Script paused", "line", r.state.Line())
	r.state.Pause()
}

func (r *Robot) Resume() {
	r.logger.Info("Script resumed", "line", r.state.Line())
	r.state.Resume()
}

// RunChecklist asks every checklist component for a self-test.
func (r *Robot) RunChecklist() error {
	return r.auto.StartChecklist()
}

func (r *Robot) Status() any {
	return Status{
		Mode:      r.Mode(),
		Ready:     r.Ready(),
		Execution: r.state.Snapshot(),
		Run:       r.auto.Status(),
		Dashboard: r.dash.Snapshot(),
	}
}
