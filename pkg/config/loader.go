package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/oraexport/pkg/errors"
)

// EnvPrefix prefixes every environment override, e.g. ORAEXPORT_ORACLE_PASSWORD
const EnvPrefix = "ORAEXPORT"

// Loader layers configuration sources. Highest priority first: changed
// command line flags, ORAEXPORT_* environment variables, the YAML file,
// then Default().
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader seeded with the defaults
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// BindFlag makes flag override key ("export.output") when set on the command line
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return errors.Newf(errors.ErrorTypeConfig, "no flag to bind to %s", key)
	}
	if err := l.v.BindPFlag(key, flag); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to bind flag").WithDetail("key", key)
	}
	return nil
}

// Load reads the YAML file at path, if any, and returns the merged result.
// ${VAR} references in the file are replaced from the environment first.
func (l *Loader) Load(path string) (*Config, error) {
	// the defaults go in as a config layer so every key is known to viper,
	// which AutomaticEnv needs for Unmarshal to see overrides
	base, err := yaml.Marshal(Default())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to encode defaults")
	}
	if err := l.v.ReadConfig(bytes.NewReader(base)); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load defaults")
	}

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file").
				WithDetail("path", path)
		}
		content := substituteEnvVars(string(data))
		if err := l.v.MergeConfig(strings.NewReader(content)); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse config file").
				WithDetail("path", path)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to decode configuration")
	}
	return &cfg, nil
}

// Load is NewLoader().Load(path)
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Dump writes the configuration as YAML with secrets masked
func Dump(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg.Redacted()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to encode configuration")
	}
	return enc.Close()
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		content = content[:start] + os.Getenv(varName) + content[end+1:]
	}
	return content
}
