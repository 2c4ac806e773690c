package app

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/jcweaver997/Kiwi/cmd/kiwibot/app/options"
	"github.com/jcweaver997/Kiwi/internal/robot/script"
	"github.com/jcweaver997/Kiwi/internal/robot/scripts"
	"github.com/jcweaver997/Kiwi/pkg/app"
	"github.com/jcweaver997/Kiwi/pkg/log"
)

const (
	commandName = "kiwibot"
	commandDesc = `kiwibot runs the robot's components on a shared message transport.
In autonomous mode it executes a line-oriented script, sending commands to
the drive base and waiting for their replies before moving on.`
)

func NewApp() *app.App {
	opts := options.NewRobotOptions()
	application := app.NewApp(
		commandName,
		"Launch the kiwi drive robot",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithCommands(newCheckCommand()),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.RobotOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer func() { _ = log.Sync() }()

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		robot, err := cfg.NewRobot()
		if err != nil {
			return fmt.Errorf("failed to create robot: %w", err)
		}

		return robot.Run(ctx)
	}
}

var errUnknownTokens = errors.New("script has unrecognized statements")

// newCheckCommand prints how each statement of a script resolves against the
// token table without running it.
func newCheckCommand() *cobra.Command {
	dir := "scripts"
	cmd := &cobra.Command{
		Use:   "check SCRIPT...",
		Short: "Show how script statements resolve to tokens",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib := scripts.NewLibrary(dir)
			var unknown int
			for _, name := range args {
				lines, err := lib.Load(name)
				if err != nil {
					return err
				}

				table := uitable.New()
				table.MaxColWidth = 60
				table.AddRow("LINE", "TOKEN", "RUNS", "ARGS")
				for i, line := range lines {
					if script.IsBlank(line) {
						continue
					}
					tok, rest, found := script.Tokenize(line)
					runs, ok := script.Match(tok)
					switch {
					case !found:
						runs = "missing token"
						unknown++
					case !ok:
						runs = "?"
						unknown++
					}
					table.AddRow(strconv.Itoa(i+1), tok, runs, rest)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", name, table)
			}
			if unknown > 0 {
				return fmt.Errorf("%w: %d", errUnknownTokens, unknown)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "script.dir", dir, "Directory containing autonomous scripts.")
	return cmd
}
