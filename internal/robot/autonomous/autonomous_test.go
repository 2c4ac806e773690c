package autonomous

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcweaver997/Kiwi/internal/robot/channel"
	"github.com/jcweaver997/Kiwi/internal/robot/component"
	"github.com/jcweaver997/Kiwi/internal/robot/coordinator"
	"github.com/jcweaver997/Kiwi/internal/robot/drivetrain"
	"github.com/jcweaver997/Kiwi/internal/robot/execstate"
	"github.com/jcweaver997/Kiwi/internal/robot/message"
	"github.com/jcweaver997/Kiwi/internal/robot/scripts"
	"github.com/jcweaver997/Kiwi/internal/robot/telemetry"
)

type rig struct {
	transport *channel.Local
	state     *execstate.Controller
	dash      *telemetry.Dashboard
	hal       *drivetrain.MockHAL
	auto      *Autonomous
}

func newRig(t *testing.T, body string) *rig {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.auto"), []byte(body), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r := &rig{
		transport: channel.NewLocal(16),
		state:     execstate.New(time.Millisecond),
		dash:      telemetry.NewDashboard(),
		hal:       drivetrain.NewMockHAL(),
	}
	r.auto = New(scripts.NewLibrary(dir), r.state, r.dash, Config{
		Script:      "test",
		Coordinator: coordinator.Config{Timeout: time.Second},
		Granularity: time.Millisecond,
	})
	drive := drivetrain.New(r.hal, r.dash)

	for _, c := range []component.Component{r.auto, drive} {
		require.NoError(t, component.Open(ctx, r.transport, c))
	}
	for _, c := range []component.Component{r.auto, drive} {
		go func(c component.Component) { _ = component.Serve(ctx, r.transport, c) }(c)
	}
	t.Cleanup(r.auto.Stop)
	return r
}

func (r *rig) send(t *testing.T, tag message.CommandTag) {
	t.Helper()
	require.NoError(t, r.transport.Send(context.Background(), message.AutonomousChannel, message.New(tag)))
}

func (r *rig) waitIdle(t *testing.T) RunStatus {
	t.Helper()
	require.Eventually(t, func() bool {
		s := r.auto.Status()
		return s.ID != "" && !s.Running
	}, 3*time.Second, 5*time.Millisecond)
	return r.auto.Status()
}

func TestScriptRunsOnAutonomous(t *testing.T) {
	r := newRig(t, "# square\nDEBUG 1\nBEGIN\nDRIVE 0 0.5 0\nDELAY 0.01\nSTOP\nEND\nNOP\n")
	r.send(t, message.CommandRobotStateAutonomous)

	s := r.waitIdle(t)
	assert.Empty(t, s.Error)
	assert.Equal(t, "done", s.Last)
	assert.Equal(t, kindScript, s.Kind)

	assert.False(t, r.state.ReplyArmed())
	assert.Zero(t, r.state.ReplyCount())
	assert.Equal(t, execstate.DriveTarget{Rotation: 0, Step: 1}, r.state.Target())
	status, _ := r.dash.GetString(coordinator.StatusKey)
	assert.Equal(t, coordinator.StatusOK, status)

	// STOP and END are fire-and-forget, so the drive base may still be catching up.
	require.Eventually(t, func() bool {
		out, ok := r.hal.Last()
		return ok && out == drivetrain.Outputs{} && r.hal.Writes() >= 3
	}, time.Second, time.Millisecond)
}

func TestPeerFailureHaltsScript(t *testing.T) {
	r := newRig(t, "BEGIN\nDRIVE 5 0 0\nEND\n")
	r.send(t, message.CommandAutonomousRun)

	s := r.waitIdle(t)
	assert.Equal(t, "drive failed", s.Last)
	assert.Contains(t, s.Error, coordinator.ErrPeerResponse.Error())
	status, _ := r.dash.GetString(coordinator.StatusKey)
	assert.Equal(t, coordinator.StatusPeerFailure, status)
}

func TestLeavingAutonomousCancelsRun(t *testing.T) {
	r := newRig(t, "BEGIN\nDELAY 30\nEND\n")
	r.send(t, message.CommandRobotStateAutonomous)
	require.Eventually(t, func() bool { return r.auto.Status().Running }, time.Second, time.Millisecond)

	start := time.Now()
	r.send(t, message.CommandRobotStateDisabled)
	s := r.waitIdle(t)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Empty(t, s.Error)
	assert.Equal(t, "canceled", s.Last)
	assert.False(t, r.state.ReplyArmed())
}

func TestOneRunAtATime(t *testing.T) {
	r := newRig(t, "DELAY 30\n")
	require.NoError(t, r.auto.StartScript("test"))
	assert.ErrorIs(t, r.auto.StartScript("test"), ErrRunInProgress)
	assert.ErrorIs(t, r.auto.StartChecklist(), ErrRunInProgress)

	r.auto.Stop()
	assert.False(t, r.auto.Status().Running)
	require.NoError(t, r.auto.StartChecklist())
	require.NoError(t, r.auto.Wait(context.Background()))
}

func TestChecklist(t *testing.T) {
	r := newRig(t, "END\n")
	r.send(t, message.CommandChecklistRun)

	s := r.waitIdle(t)
	assert.Equal(t, kindChecklist, s.Kind)
	assert.Equal(t, "checklist ok", s.Last)
	assert.Empty(t, s.Error)
}

func TestMissingScript(t *testing.T) {
	r := newRig(t, "END\n")
	require.NoError(t, r.auto.StartScript("nope"))
	s := r.waitIdle(t)
	assert.Contains(t, s.Error, scripts.ErrNotFound.Error())
}

func TestStrayReplyDropped(t *testing.T) {
	r := newRig(t, "END\n")
	r.send(t, message.CommandAutonomousResponseOK)
	time.Sleep(10 * time.Millisecond)
	assert.False(t, r.state.ReplyArmed())
	assert.Zero(t, r.state.ReplyCount())
}
