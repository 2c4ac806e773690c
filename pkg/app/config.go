package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFlagName = "config"

	// EnvPrefix prefixes every environment override, e.g. KIWI_MQTT_BROKER.
	EnvPrefix = "KIWI"
)

var cfgFile string

// addConfigFlag registers --config and arranges for viper to read it, and the
// environment, before the command runs.
func addConfigFlag(basename string, fs *pflag.FlagSet) {
	fs.StringVarP(&cfgFile, configFlagName, "c", cfgFile, "Read configuration from specified `FILE`, "+
		"support JSON, TOML, YAML, HCL, or Java properties formats.")

	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	cobra.OnInitialize(func() {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath(".")
			if home, err := os.UserHomeDir(); err == nil {
				viper.AddConfigPath(filepath.Join(home, "."+basename))
			}
			viper.AddConfigPath(filepath.Join("/etc", basename))
			viper.SetConfigName(basename)
		}

		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
				return
			}
			_, _ = fmt.Fprintf(os.Stderr, "Error: failed to read configuration file(%s): %v\n", cfgFile, err)
			os.Exit(1)
		}
	})
}
