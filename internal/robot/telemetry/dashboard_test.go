package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jcweaver997/Kiwi/internal/pkg/metrics"
)

func TestDashboardStoresLatest(t *testing.T) {
	d := NewDashboard()
	d.PutString("Auto Status", "auto ok")
	d.PutString("Auto Status", "EARLY DEATH!")
	d.PutBoolean("test.halted", true)
	d.PutNumber("test.gyro", 12.5)

	s, ok := d.GetString("Auto Status")
	assert.True(t, ok)
	assert.Equal(t, "EARLY DEATH!", s)

	b, ok := d.GetBoolean("test.halted")
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = d.GetNumber("missing")
	assert.False(t, ok)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DashboardValues.WithLabelValues("test.halted")))
	assert.Equal(t, 12.5, testutil.ToFloat64(metrics.DashboardValues.WithLabelValues("test.gyro")))
}

func TestSnapshotIsACopy(t *testing.T) {
	d := NewDashboard()
	d.PutNumber("n", 1)
	snap := d.Snapshot()
	snap.Numbers["n"] = 2

	v, _ := d.GetNumber("n")
	assert.Equal(t, 1.0, v)
}
