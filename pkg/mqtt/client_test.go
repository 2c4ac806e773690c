package mqtt

import "testing"

func TestTopicsMatch(t *testing.T) {
	tests := []struct {
		filter, topic string
		want          bool
	}{
		{"kiwi/v1/channel/drive", "kiwi/v1/channel/drive", true},
		{"kiwi/v1/channel/+", "kiwi/v1/channel/auto", true},
		{"kiwi/v1/channel/+", "kiwi/v1/channel/auto/extra", false},
		{"kiwi/v1/#", "kiwi/v1/status/kiwibot", true},
		{"kiwi/v1/channel/drive", "kiwi/v1/channel/auto", false},
		{"kiwi/+/channel/drive", "kiwi/v2/channel/drive", true},
	}

	for _, tt := range tests {
		if got := topicsMatch(tt.filter, tt.topic); got != tt.want {
			t.Errorf("topicsMatch(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.want)
		}
	}
}

func TestTopicFilterStripsSharedPrefix(t *testing.T) {
	if got := topicFilter("$share/robots/kiwi/v1/channel/+"); got != "kiwi/v1/channel/+" {
		t.Errorf("got %q", got)
	}
	if got := topicFilter("kiwi/v1/channel/+"); got != "kiwi/v1/channel/+" {
		t.Errorf("got %q", got)
	}
}

func TestNewClientValidates(t *testing.T) {
	if _, err := NewClient(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := NewClient(&ClientConfig{BrokerURL: "tcp://localhost:1883"}); err == nil {
		t.Fatal("expected error for missing client id")
	}

	cfg := &ClientConfig{BrokerURL: "tcp://localhost:1883", ClientID: "kiwibot"}
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.KeepAlive != 60 {
		t.Errorf("keepalive default not applied: %d", cfg.KeepAlive)
	}
	if c.IsConnected() {
		t.Error("client should not report connected before Start")
	}
}
