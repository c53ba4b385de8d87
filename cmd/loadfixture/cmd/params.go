package cmd

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/G-Research/loadfixture/internal/common"
	"github.com/G-Research/loadfixture/pkg/loadfixture"
)

func addConfigFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Config file.")
	flags.StringArray("set", nil, "Override a setting, e.g., --set reports.enabled=false.")
}

// loadConfigValues merges the config file, LOADFIXTURE_ environment variables and --set flags, in increasing order
// of precedence, into the key/value form understood by loadfixture.ParseConfig.
func loadConfigValues(cmd *cobra.Command) (map[string]string, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	v := viper.New()
	if err := common.LoadConfig(v, configPath); err != nil {
		return nil, err
	}

	values := make(map[string]string)
	for _, key := range loadfixture.Keys {
		if v.IsSet(key) {
			values[key] = stringValue(v.Get(key))
		}
	}

	overrides, err := cmd.Flags().GetStringArray("set")
	if err != nil {
		return nil, err
	}
	for _, override := range overrides {
		key, value, ok := strings.Cut(override, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, errors.Errorf("invalid --set %q: expected key=value", override)
		}
		values[strings.ToLower(strings.TrimSpace(key))] = value
	}
	return values, nil
}

// stringValue renders lists from a config file, e.g. [1, 2], as comma-separated values.
func stringValue(value interface{}) string {
	switch v := value.(type) {
	case []interface{}:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = fmt.Sprint(e)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(v, ",")
	default:
		return cast.ToString(v)
	}
}
