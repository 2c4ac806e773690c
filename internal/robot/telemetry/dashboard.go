// Package telemetry is the robot's dashboard: a keyed store of the latest
// string, boolean and numeric values reported by components. Numbers and
// booleans are exported as Prometheus gauges; string changes are logged.
package telemetry

import (
	"maps"
	"sync"

	"github.com/jcweaver997/Kiwi/internal/pkg/metrics"
	"github.com/jcweaver997/Kiwi/pkg/log"
)

// Dashboard is safe for concurrent use.
type Dashboard struct {
	logger log.Logger

	mu      sync.RWMutex
	strings map[string]string
	bools   map[string]bool
	numbers map[string]float64
}

// Snapshot is a copy of every dashboard entry.
type Snapshot struct {
	Strings map[string]string  `json:"strings"`
	Bools   map[string]bool    `json:"bools"`
	Numbers map[string]float64 `json:"numbers"`
}

func NewDashboard() *Dashboard {
	return &Dashboard{
		logger:  log.WithName("dashboard"),
		strings: make(map[string]string),
		bools:   make(map[string]bool),
		numbers: make(map[string]float64),
	}
}

func (d *Dashboard) PutString(key, value string) {
	d.mu.Lock()
	old, ok := d.strings[key]
	d.strings[key] = value
	d.mu.Unlock()

	if !ok || old != value {
		d.logger.Info("Dashboard update", "key", key, "value", value)
	}
}

func (d *Dashboard) PutBoolean(key string, value bool) {
	d.mu.Lock()
	d.bools[key] = value
	d.mu.Unlock()

	v := 0.0
	if value {
		v = 1
	}
	metrics.DashboardValues.WithLabelValues(key).Set(v)
}

func (d *Dashboard) PutNumber(key string, value float64) {
	d.mu.Lock()
	d.numbers[key] = value
	d.mu.Unlock()

	metrics.DashboardValues.WithLabelValues(key).Set(value)
}

func (d *Dashboard) GetString(key string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.strings[key]
	return v, ok
}

func (d *Dashboard) GetBoolean(key string) (bool, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.bools[key]
	return v, ok
}

func (d *Dashboard) GetNumber(key string) (float64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.numbers[key]
	return v, ok
}

func (d *Dashboard) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Snapshot{
		Strings: maps.Clone(d.strings),
		Bools:   maps.Clone(d.bools),
		Numbers: maps.Clone(d.numbers),
	}
}
