package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcweaver997/Kiwi/pkg/options"
)

func TestDefaultsValidate(t *testing.T) {
	o := NewRobotOptions()
	require.NoError(t, o.Complete())
	assert.NoError(t, o.Validate())
}

func TestMqttOnlyValidatedWhenSelected(t *testing.T) {
	o := NewRobotOptions()
	o.MqttOptions.Broker = ""
	assert.NoError(t, o.Validate())

	o.CoordinatorOptions.Transport = options.TransportMQTT
	assert.ErrorContains(t, o.Validate(), "mqtt.broker")
}

func TestValidateAggregates(t *testing.T) {
	o := NewRobotOptions()
	o.CoordinatorOptions.FanIn = "majority"
	o.ScriptOptions.Dir = ""

	err := o.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coordinator.fan-in")
	assert.Contains(t, err.Error(), "script.dir")
}

func TestFlagsRegistered(t *testing.T) {
	fss := NewRobotOptions().Flags()
	for _, name := range []string{"coordinator.timeout", "script.dir", "mqtt.broker", "http.addr", "log.level"} {
		found := false
		for _, fs := range fss.FlagSets {
			if fs.Lookup(name) != nil {
				found = true
			}
		}
		assert.True(t, found, name)
	}
}

func TestConfig(t *testing.T) {
	o := NewRobotOptions()
	cfg, err := o.Config()
	require.NoError(t, err)
	assert.Same(t, o.ScriptOptions, cfg.ScriptOptions)
	assert.Same(t, o.CoordinatorOptions, cfg.CoordinatorOptions)
}
