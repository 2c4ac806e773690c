package robot

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jcweaver997/Kiwi/internal/robot/autonomous"
	"github.com/jcweaver997/Kiwi/internal/robot/channel"
	"github.com/jcweaver997/Kiwi/internal/robot/component"
	"github.com/jcweaver997/Kiwi/internal/robot/coordinator"
	"github.com/jcweaver997/Kiwi/internal/robot/drivetrain"
	"github.com/jcweaver997/Kiwi/internal/robot/execstate"
	"github.com/jcweaver997/Kiwi/internal/robot/scripts"
	"github.com/jcweaver997/Kiwi/internal/robot/server"
	"github.com/jcweaver997/Kiwi/internal/robot/telemetry"
	"github.com/jcweaver997/Kiwi/pkg/log"
	"github.com/jcweaver997/Kiwi/pkg/mqtt"
	mqtttopic "github.com/jcweaver997/Kiwi/pkg/mqtt/topic"
	"github.com/jcweaver997/Kiwi/pkg/options"
)

type Config struct {
	MqttOptions        *options.MqttOptions
	HttpOptions        *options.HttpOptions
	CoordinatorOptions *options.CoordinatorOptions
	ScriptOptions      *options.ScriptOptions

	// HAL drives the motors. A simulated HAL is used when nil.
	HAL drivetrain.HAL
}

type onlineStatus struct {
	ClientID string `json:"clientId"`
	Online   bool   `json:"online"`
	Reason   string `json:"reason,omitempty"`
}

func (cfg *Config) NewRobot() (*Robot, error) {
	fanIn, err := coordinator.ParseFanInPolicy(cfg.CoordinatorOptions.FanIn)
	if err != nil {
		return nil, err
	}
	checklist, err := cfg.ScriptOptions.ChecklistChannels()
	if err != nil {
		return nil, err
	}
	timeout := cfg.CoordinatorOptions.Timeout
	if timeout == 0 {
		timeout = coordinator.NoTimeout
	}

	r := &Robot{
		logger:  log.WithName("robot"),
		state:   execstate.New(cfg.ScriptOptions.PausePoll),
		dash:    telemetry.NewDashboard(),
		library: scripts.NewLibrary(cfg.ScriptOptions.Dir),
		watch:   cfg.ScriptOptions.Watch,
	}

	switch cfg.CoordinatorOptions.Transport {
	case options.TransportMQTT:
		client, topics, err := cfg.initMqttClientAndTopicBuilder()
		if err != nil {
			return nil, fmt.Errorf("failed to init mqtt client: %w", err)
		}
		r.mqtt = client
		r.transport = channel.NewMQTT(client, topics, cfg.MqttOptions.QoS, cfg.CoordinatorOptions.MailboxSize)
	default:
		r.transport = channel.NewLocal(cfg.CoordinatorOptions.MailboxSize)
	}

	hal := cfg.HAL
	if hal == nil {
		r.logger.Warn("No drivetrain HAL configured, using simulated outputs")
		hal = drivetrain.NewMockHAL()
	}

	r.auto = autonomous.New(r.library, r.state, r.dash, autonomous.Config{
		Script: cfg.ScriptOptions.Name,
		Coordinator: coordinator.Config{
			Timeout: timeout,
			FanIn:   fanIn,
		},
		Granularity: cfg.ScriptOptions.Granularity,
		Checklist:   checklist,
	})
	r.components = []component.Component{
		r.auto,
		drivetrain.New(hal, r.dash),
	}

	if cfg.HttpOptions != nil && cfg.HttpOptions.Enabled {
		r.http = server.NewServer(cfg.HttpOptions, r)
	}

	r.lifecycle = newLifecycle(r)
	return r, nil
}

func (cfg *Config) initMqttClientAndTopicBuilder() (mqtt.Client, *mqtttopic.Builder, error) {
	topicBuilder := mqtttopic.NewBuilder(cfg.MqttOptions.TopicRoot)

	mqttConfig := cfg.MqttOptions.ToClientConfig()
	if mqttConfig.ClientID == "" {
		mqttConfig.ClientID = fmt.Sprintf("kiwibot-%s", uuid.NewString())
	}

	offlinePayload, _ := json.Marshal(onlineStatus{
		ClientID: mqttConfig.ClientID,
		Online:   false,
		Reason:   "UnexpectedDisconnect",
	})

	mqttConfig.WillTopic = topicBuilder.Status(mqttConfig.ClientID)
	mqttConfig.WillPayload = offlinePayload
	mqttConfig.WillQoS = 1
	mqttConfig.WillRetain = true

	mqttClient, err := mqtt.NewClient(mqttConfig)
	if err != nil {
		return nil, nil, err
	}

	return mqttClient, topicBuilder, nil
}
