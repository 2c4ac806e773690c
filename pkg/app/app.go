// Package app builds cobra commands whose flags, config file and environment
// are merged through viper into one options struct.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/jcweaver997/Kiwi/pkg/log"
)

// RunFunc is the application's entry point once options are ready.
type RunFunc func() error

// App is the main structure of a cli application.
type App struct {
	basename    string
	name        string
	description string
	options     CliOptions
	runFunc     RunFunc
	silence     bool
	noConfig    bool
	args        cobra.PositionalArgs
	commands    []*cobra.Command
	cmd         *cobra.Command
}

// Option defines optional parameters for initializing the application structure.
type Option func(*App)

// WithOptions opens the application's function to read from the command line
// or read parameters from the configuration file.
func WithOptions(opt CliOptions) Option {
	return func(a *App) {
		a.options = opt
	}
}

// WithRunFunc is used to set the application startup callback function option.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) {
		a.runFunc = run
	}
}

// WithDescription is used to set the description of the application.
func WithDescription(desc string) Option {
	return func(a *App) {
		a.description = desc
	}
}

// WithSilence sets the application to silent mode, in which the program
// startup information, configuration information, and version information
// are not printed in the console.
func WithSilence() Option {
	return func(a *App) {
		a.silence = true
	}
}

// WithNoConfig drops the --config flag.
func WithNoConfig() Option {
	return func(a *App) {
		a.noConfig = true
	}
}

// WithValidArgs sets the positional argument validator.
func WithValidArgs(args cobra.PositionalArgs) Option {
	return func(a *App) {
		a.args = args
	}
}

// WithDefaultValidArgs rejects positional arguments.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// WithCommands adds subcommands.
func WithCommands(cmds ...*cobra.Command) Option {
	return func(a *App) {
		a.commands = append(a.commands, cmds...)
	}
}

// NewApp creates a new application instance based on the given application
// name, short description, and other options.
func NewApp(basename string, name string, opts ...Option) *App {
	a := &App{
		name:     name,
		basename: basename,
	}

	for _, o := range opts {
		o(a)
	}

	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:   a.basename,
		Short: a.name,
		Long:  a.description,
		// stop printing usage when the command errors
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          a.args,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	var namedFlagSets cliflag.NamedFlagSets
	if a.options != nil {
		namedFlagSets = a.options.Flags()
		fs := cmd.Flags()
		for _, f := range namedFlagSets.FlagSets {
			fs.AddFlagSet(f)
		}
	}

	if !a.noConfig {
		addConfigFlag(a.basename, namedFlagSets.FlagSet("global"))
	}
	cmd.Flags().AddFlagSet(namedFlagSets.FlagSet("global"))

	if a.runFunc != nil {
		cmd.RunE = a.runCommand
	}
	for _, c := range a.commands {
		cmd.AddCommand(c)
	}

	cliflag.SetUsageAndHelpFunc(cmd, namedFlagSets, 0)

	a.cmd = cmd
}

// Run is used to launch the application.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// Command returns the root cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

func (a *App) runCommand(cmd *cobra.Command, args []string) error {
	if a.options != nil {
		if err := a.applyOptionRules(); err != nil {
			return err
		}
	}

	if !a.silence {
		log.Info("Starting application", "name", a.name)
		if !a.noConfig {
			if used := viper.ConfigFileUsed(); used != "" {
				log.Info("Config file used", "file", used)
			}
		}
	}

	if a.runFunc != nil {
		return a.runFunc()
	}
	return nil
}

// applyOptionRules merges viper state into the options, then completes and
// validates them.
func (a *App) applyOptionRules() error {
	if !a.noConfig {
		if err := viper.BindPFlags(a.cmd.Flags()); err != nil {
			return err
		}
		if err := viper.Unmarshal(a.options); err != nil {
			return err
		}
	}

	if c, ok := a.options.(CompleteableOptions); ok {
		if err := c.Complete(); err != nil {
			return err
		}
	}

	return a.options.Validate()
}
