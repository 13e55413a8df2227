// Package config fills unset command flags from PLF_* environment variables
// and an optional YAML config file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "PLF"

// Apply sets every flag of cmd that was not given on the command line from,
// in order of precedence, the environment (PLF_LOG_LEVEL for --log-level) and
// the config file (key log_level or log-level). configFile may be empty.
func Apply(cmd *cobra.Command, configFile string) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	var errs []string
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		key := f.Name
		if !v.IsSet(key) {
			key = strings.ReplaceAll(f.Name, "-", "_")
			if !v.IsSet(key) {
				return
			}
		}
		if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(key))); err != nil {
			errs = append(errs, err.Error())
		}
	})

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("error mapping configuration to command flags: %s", strings.Join(errs, "; "))
}
