package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/jcweaver997/Kiwi/internal/robot/coordinator"
	"github.com/jcweaver997/Kiwi/internal/robot/message"
)

// Transports a robot process can use for its component channels.
const (
	TransportLocal = "local"
	TransportMQTT  = "mqtt"
)

var (
	_ IOptions = (*CoordinatorOptions)(nil)
	_ IOptions = (*ScriptOptions)(nil)
)

// CoordinatorOptions configures command/response waits.
type CoordinatorOptions struct {
	// Timeout bounds every wait for replies. Zero disables the bound.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// FanIn selects how multi-command replies collapse into one verdict.
	FanIn string `json:"fan-in" mapstructure:"fan-in"`

	// Transport is "local" (in-process mailboxes) or "mqtt".
	Transport string `json:"transport" mapstructure:"transport"`

	// MailboxSize is the per-channel buffer of the local transport.
	MailboxSize int `json:"mailbox-size" mapstructure:"mailbox-size"`
}

// NewCoordinatorOptions returns the defaults.
func NewCoordinatorOptions() *CoordinatorOptions {
	return &CoordinatorOptions{
		Timeout:     5 * time.Second,
		FanIn:       string(coordinator.FanInAggregate),
		Transport:   TransportLocal,
		MailboxSize: 64,
	}
}

func (o *CoordinatorOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Timeout < 0 {
		errs = append(errs, fmt.Errorf("coordinator.timeout must not be negative, got %s", o.Timeout))
	}
	if _, err := coordinator.ParseFanInPolicy(o.FanIn); err != nil {
		errs = append(errs, fmt.Errorf("coordinator.fan-in: %w", err))
	}
	switch o.Transport {
	case TransportLocal, TransportMQTT:
	default:
		errs = append(errs, fmt.Errorf("coordinator.transport must be %q or %q, got %q", TransportLocal, TransportMQTT, o.Transport))
	}
	if o.MailboxSize <= 0 {
		errs = append(errs, fmt.Errorf("coordinator.mailbox-size must be positive, got %d", o.MailboxSize))
	}
	return errs
}

func (o *CoordinatorOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.DurationVar(&o.Timeout, "coordinator.timeout", o.Timeout, "Maximum time to wait for component replies (0 waits forever).")
	fs.StringVar(&o.FanIn, "coordinator.fan-in", o.FanIn, "Verdict policy for multi-command replies: 'aggregate' or 'last-reply'.")
	fs.StringVar(&o.Transport, "coordinator.transport", o.Transport, "Channel transport: 'local' or 'mqtt'.")
	fs.IntVar(&o.MailboxSize, "coordinator.mailbox-size", o.MailboxSize, "Buffered messages per channel for the local transport.")
}

// ScriptOptions configures where autonomous scripts come from and how the
// interpreter paces itself.
type ScriptOptions struct {
	// Dir holds *.auto script files.
	Dir string `json:"dir" mapstructure:"dir"`

	// Name is the script run when autonomous starts.
	Name string `json:"name" mapstructure:"name"`

	// Watch reloads scripts when files in Dir change.
	Watch bool `json:"watch" mapstructure:"watch"`

	// Granularity is the delay sub-tick; pause requests take effect within one tick.
	Granularity time.Duration `json:"granularity" mapstructure:"granularity"`

	// PausePoll is the interval at which a paused interpreter re-checks the pause flag.
	PausePoll time.Duration `json:"pause-poll" mapstructure:"pause-poll"`

	// Checklist names the components asked for a self-test by a checklist run.
	Checklist []string `json:"checklist" mapstructure:"checklist"`
}

// NewScriptOptions returns the defaults.
func NewScriptOptions() *ScriptOptions {
	return &ScriptOptions{
		Dir:         "scripts",
		Name:        "default.auto",
		Watch:       true,
		Granularity: 10 * time.Millisecond,
		PausePoll:   20 * time.Millisecond,
		Checklist:   []string{"drivetrain"},
	}
}

func (o *ScriptOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Dir == "" {
		errs = append(errs, fmt.Errorf("script.dir must not be empty"))
	}
	if o.Granularity <= 0 {
		errs = append(errs, fmt.Errorf("script.granularity must be positive, got %s", o.Granularity))
	}
	if o.PausePoll <= 0 {
		errs = append(errs, fmt.Errorf("script.pause-poll must be positive, got %s", o.PausePoll))
	}
	if _, err := o.ChecklistChannels(); err != nil {
		errs = append(errs, fmt.Errorf("script.checklist: %w", err))
	}
	return errs
}

func (o *ScriptOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Dir, "script.dir", o.Dir, "Directory containing autonomous scripts.")
	fs.StringVar(&o.Name, "script.name", o.Name, "Script file to run when autonomous mode starts.")
	fs.BoolVar(&o.Watch, "script.watch", o.Watch, "Reload scripts when the directory changes.")
	fs.DurationVar(&o.Granularity, "script.granularity", o.Granularity, "Delay sub-tick; bounds pause latency.")
	fs.DurationVar(&o.PausePoll, "script.pause-poll", o.PausePoll, "Interval at which a paused script re-checks the pause flag.")
	fs.StringSliceVar(&o.Checklist, "script.checklist", o.Checklist, "Components asked for a self-test by a checklist run.")
}

// ChecklistChannels resolves the checklist component names to their channels.
func (o *ScriptOptions) ChecklistChannels() ([]message.ChannelID, error) {
	ids := make([]message.ChannelID, 0, len(o.Checklist))
	for _, name := range o.Checklist {
		id, err := message.Resolve(name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
