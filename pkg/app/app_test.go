package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cliflag "k8s.io/component-base/cli/flag"
)

type demoOptions struct {
	Server struct {
		Addr    string        `mapstructure:"addr"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"server"`

	completed bool
}

func (o *demoOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	fs := fss.FlagSet("server")
	fs.StringVar(&o.Server.Addr, "server.addr", "127.0.0.1:80", "Bind address.")
	fs.DurationVar(&o.Server.Timeout, "server.timeout", time.Second, "Request timeout.")
	return fss
}

func (o *demoOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *demoOptions) Validate() error {
	if o.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	return nil
}

var _ NamedFlagSetOptions = (*demoOptions)(nil)

func TestRunWithFlags(t *testing.T) {
	opts := &demoOptions{}
	var ran bool
	a := NewApp("demo", "Demo app",
		WithOptions(opts),
		WithNoConfig(),
		WithSilence(),
		WithDefaultValidArgs(),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)

	a.Command().SetArgs([]string{"--server.addr", "0.0.0.0:9000", "--server.timeout", "3s"})
	require.NoError(t, a.Command().Execute())
	assert.True(t, ran)
	assert.True(t, opts.completed)
	assert.Equal(t, "0.0.0.0:9000", opts.Server.Addr)
	assert.Equal(t, 3*time.Second, opts.Server.Timeout)
}

func TestValidationStopsRun(t *testing.T) {
	opts := &demoOptions{}
	a := NewApp("demo", "Demo app",
		WithOptions(opts),
		WithNoConfig(),
		WithSilence(),
		WithRunFunc(func() error {
			t.Fatal("run must not be called")
			return nil
		}),
	)

	a.Command().SetArgs([]string{"--server.addr", ""})
	assert.ErrorContains(t, a.Command().Execute(), "server.addr")
}

func TestPositionalArgsRejected(t *testing.T) {
	a := NewApp("demo", "Demo app", WithNoConfig(), WithSilence(), WithDefaultValidArgs(),
		WithRunFunc(func() error { return nil }))
	a.Command().SetArgs([]string{"extra"})
	assert.Error(t, a.Command().Execute())
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: 10.0.0.1:8080\n  timeout: 7s\n"), 0o644))

	opts := &demoOptions{}
	a := NewApp("demo", "Demo app", WithOptions(opts), WithSilence(),
		WithRunFunc(func() error { return nil }))

	a.Command().SetArgs([]string{"--config", path})
	require.NoError(t, a.Command().Execute())
	assert.Equal(t, "10.0.0.1:8080", opts.Server.Addr)
	assert.Equal(t, 7*time.Second, opts.Server.Timeout)
}
