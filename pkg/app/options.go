package app

import (
	cliflag "k8s.io/component-base/cli/flag"
)

// CliOptions abstracts configuration options for reading parameters from the
// command line.
type CliOptions interface {
	// Flags returns the named flag sets, grouped for help output.
	Flags() cliflag.NamedFlagSets

	// Validate checks the options after flags and config have been applied.
	Validate() error
}

// NamedFlagSetOptions is implemented by options that also need a completion
// step before validation.
type NamedFlagSetOptions interface {
	CliOptions

	// Complete fills in defaults that depend on other options.
	Complete() error
}

// CompleteableOptions is satisfied by options with a Complete step.
type CompleteableOptions interface {
	Complete() error
}
