package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/jcweaver997/Kiwi/internal/robot"
	"github.com/jcweaver997/Kiwi/pkg/app"
	"github.com/jcweaver997/Kiwi/pkg/log"
	"github.com/jcweaver997/Kiwi/pkg/options"
)

type RobotOptions struct {
	MqttOptions        *options.MqttOptions        `json:"mqtt" mapstructure:"mqtt"`
	HttpOptions        *options.HttpOptions        `json:"http" mapstructure:"http"`
	CoordinatorOptions *options.CoordinatorOptions `json:"coordinator" mapstructure:"coordinator"`
	ScriptOptions      *options.ScriptOptions      `json:"script" mapstructure:"script"`
	Log                *log.Options                `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*RobotOptions)(nil)

func NewRobotOptions() *RobotOptions {
	o := &RobotOptions{
		MqttOptions:        options.NewMqttOptions(),
		HttpOptions:        options.NewHttpOptions(),
		CoordinatorOptions: options.NewCoordinatorOptions(),
		ScriptOptions:      options.NewScriptOptions(),
		Log:                log.NewOptions(),
	}
	o.Log.Name = "kiwibot"

	return o
}

func (o *RobotOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.CoordinatorOptions.AddFlags(fss.FlagSet("coordinator"))
	o.ScriptOptions.AddFlags(fss.FlagSet("script"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.Log.AddFlags(fss.FlagSet("Log"))
	return fss
}

func (o *RobotOptions) Complete() error {
	return nil
}

func (o *RobotOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.CoordinatorOptions.Validate()...)
	errs = append(errs, o.ScriptOptions.Validate()...)
	if o.CoordinatorOptions.Transport == options.TransportMQTT {
		errs = append(errs, o.MqttOptions.Validate()...)
	}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *RobotOptions) Config() (*robot.Config, error) {
	return &robot.Config{
		MqttOptions:        o.MqttOptions,
		HttpOptions:        o.HttpOptions,
		CoordinatorOptions: o.CoordinatorOptions,
		ScriptOptions:      o.ScriptOptions,
	}, nil
}
