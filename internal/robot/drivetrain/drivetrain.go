// Package drivetrain is the drive base component. It accepts autonomous
// lifecycle commands and kiwi drive input, and answers RESPONSE_OK or
// RESPONSE_ERROR when the sender asked for a reply.
package drivetrain

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/jcweaver997/Kiwi/internal/robot/component"
	"github.com/jcweaver997/Kiwi/internal/robot/message"
	"github.com/jcweaver997/Kiwi/pkg/log"
)

// Name is the component name used in the channel map.
const Name = "drivetrain"

// GyroKey is the dashboard key the heading is published under.
const GyroKey = "Gyro Angle"

// Dashboard receives drive telemetry.
type Dashboard interface {
	PutNumber(key string, value float64)
}

type Drivetrain struct {
	hal    HAL
	dash   Dashboard
	sender component.Sender
	logger log.Logger

	mu sync.Mutex
	// outputs is restored when autonomous starts.
	outputs Outputs
}

var _ component.Component = (*Drivetrain)(nil)

func New(hal HAL, dash Dashboard) *Drivetrain {
	return &Drivetrain{
		hal:    hal,
		dash:   dash,
		logger: log.WithName(Name),
	}
}

func (d *Drivetrain) Name() string               { return Name }
func (d *Drivetrain) Channel() message.ChannelID { return message.DrivetrainChannel }

func (d *Drivetrain) Setup(_ context.Context, sender component.Sender) error {
	d.sender = sender
	return nil
}

func (d *Drivetrain) Routes() map[message.CommandTag]component.HandlerFunc {
	routes := map[message.CommandTag]component.HandlerFunc{
		message.CommandAutonomousRun:       d.handleRun,
		message.CommandAutonomousComplete:  d.handleHalt,
		message.CommandDrivetrainStop:      d.handleHalt,
		message.CommandDrivetrainDriveKiwi: d.handleKiwi,
		message.CommandComponentTest:       d.handleTest,
		message.CommandSystemMsgTimeout:    d.ignore,
	}
	for _, tag := range []message.CommandTag{
		message.CommandRobotStateDisabled,
		message.CommandRobotStateAutonomous,
		message.CommandRobotStateTeleoperated,
		message.CommandRobotStateTest,
		message.CommandRobotStateUnknown,
	} {
		routes[tag] = d.handleStateChange
	}
	return routes
}

func (d *Drivetrain) handleRun(ctx context.Context, msg message.Message) error {
	d.mu.Lock()
	d.outputs = Outputs{}
	d.mu.Unlock()
	d.hal.ZeroGyro()
	return d.reply(ctx, msg, nil)
}

// handleHalt zeroes the wheels for COMPLETE and STOP.
func (d *Drivetrain) handleHalt(ctx context.Context, msg message.Message) error {
	err := d.write(Outputs{})
	d.hal.ZeroGyro()
	return d.reply(ctx, msg, err)
}

func (d *Drivetrain) handleKiwi(ctx context.Context, msg message.Message) error {
	p := msg.Params.KiwiDrive
	out, err := Mix(p.X, p.Y, p.R)
	if err == nil {
		err = d.write(out)
	}
	d.publish()
	return d.reply(ctx, msg, err)
}

func (d *Drivetrain) handleTest(ctx context.Context, msg message.Message) error {
	return d.reply(ctx, msg, nil)
}

func (d *Drivetrain) ignore(context.Context, message.Message) error { return nil }

func (d *Drivetrain) handleStateChange(_ context.Context, msg message.Message) error {
	if msg.Command == message.CommandRobotStateAutonomous {
		d.mu.Lock()
		restore := d.outputs
		d.mu.Unlock()
		d.hal.ZeroGyro()
		return d.write(restore)
	}
	d.hal.ZeroGyro()
	return d.write(Outputs{})
}

func (d *Drivetrain) write(out Outputs) error {
	if err := d.hal.SetOutputs(out.Left, out.Right, out.Bottom); err != nil {
		return err
	}
	d.mu.Lock()
	d.outputs = out
	d.mu.Unlock()
	return nil
}

func (d *Drivetrain) publish() {
	if d.dash != nil {
		d.dash.PutNumber(GyroKey, math.Trunc(d.hal.GyroAngle()*1000)/1000)
	}
}

// reply answers with RESPONSE_ERROR when cause is non-nil. cause is returned
// so the receive loop logs it.
func (d *Drivetrain) reply(ctx context.Context, msg message.Message, cause error) error {
	tag := message.CommandAutonomousResponseOK
	if cause != nil {
		tag = message.CommandAutonomousResponseError
	}
	if err := component.Reply(ctx, d.sender, msg, tag); err != nil {
		return fmt.Errorf("reply to %q: %w", msg.ReplyTo, err)
	}
	return cause
}

// Mix converts field-relative drive input into wheel outputs for three
// omni wheels spaced 120 degrees apart. Inputs must lie in [-1, 1]; the
// result is scaled down so no wheel exceeds 1.
func Mix(x, y, r float64) (Outputs, error) {
	for _, v := range []float64{x, y, r} {
		if math.IsNaN(v) || v < -1 || v > 1 {
			return Outputs{}, fmt.Errorf("kiwi drive input %v out of range [-1, 1]", v)
		}
	}

	const half = 0.5
	s := math.Sqrt(3) / 2
	out := Outputs{
		Left:   -half*x + s*y + r,
		Right:  -half*x - s*y + r,
		Bottom: x + r,
	}
	peak := math.Max(math.Abs(out.Left), math.Max(math.Abs(out.Right), math.Abs(out.Bottom)))
	if peak > 1 {
		out.Left /= peak
		out.Right /= peak
		out.Bottom /= peak
	}
	return out, nil
}
