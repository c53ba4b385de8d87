package common

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/G-Research/loadfixture/internal/common/logging"
)

// LoadConfig reads the config file at path (if any) into v.
// Environment variables prefixed with LOADFIXTURE_ override file values, e.g. LOADFIXTURE_REPORTS_ENABLED.
func LoadConfig(v *viper.Viper, path string) error {
	v.SetEnvPrefix("loadfixture")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errors.WithMessagef(err, "error reading config file %s", path)
	}
	return nil
}

func ConfigureCommandLineLogging() {
	log.SetFormatter(&logging.CommandLineFormatter{})
	log.SetOutput(os.Stdout)
}
