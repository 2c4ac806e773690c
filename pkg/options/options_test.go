package options

import (
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/jcweaver997/Kiwi/internal/robot/message"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"127.0.0.1:8443", false},
		{":8443", false},
		{"localhost:80", false},
		{"0.0.0.0:70000", true},
		{"no-port", true},
		{"not_an_ip:80", true},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			err := ValidateAddress(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAddress(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			}
		})
	}
}

func TestCoordinatorOptionsValidate(t *testing.T) {
	o := NewCoordinatorOptions()
	if errs := o.Validate(); len(errs) != 0 {
		t.Fatalf("defaults should validate: %v", errs)
	}

	o.FanIn = ""
	if errs := o.Validate(); len(errs) != 0 {
		t.Fatalf("empty fan-in falls back to aggregate: %v", errs)
	}

	o.FanIn = "majority"
	o.Transport = "carrier-pigeon"
	o.Timeout = -time.Second
	o.MailboxSize = 0
	if errs := o.Validate(); len(errs) != 4 {
		t.Fatalf("expected 4 errors, got %v", errs)
	}
}

func TestScriptOptionsFlags(t *testing.T) {
	o := NewScriptOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	if err := fs.Parse([]string{"--script.name=left.auto", "--script.granularity=5ms"}); err != nil {
		t.Fatal(err)
	}
	if o.Name != "left.auto" || o.Granularity != 5*time.Millisecond {
		t.Fatalf("flags not bound: %+v", o)
	}

	o.Granularity = 0
	if errs := o.Validate(); len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
}

func TestScriptOptionsChecklist(t *testing.T) {
	o := NewScriptOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	if err := fs.Parse([]string{"--script.checklist=drivetrain,component"}); err != nil {
		t.Fatal(err)
	}
	ids, err := o.ChecklistChannels()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != message.DrivetrainChannel || ids[1] != message.ComponentChannel {
		t.Fatalf("unexpected channels: %v", ids)
	}

	o.Checklist = []string{"conveyor"}
	if errs := o.Validate(); len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
}

func TestMqttOptionsToClientConfig(t *testing.T) {
	o := NewMqttOptions()
	o.ClientID = "kiwibot-auto"
	cfg := o.ToClientConfig()
	if cfg.KeepAlive != 30 || cfg.ClientID != "kiwibot-auto" || cfg.BrokerURL != o.Broker {
		t.Fatalf("unexpected client config: %+v", cfg)
	}

	o.QoS = 3
	if errs := o.Validate(); len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
}
