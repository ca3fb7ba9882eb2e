package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Settings of the frametree tools. Every key can be overridden with a
// FRAMETREE_ prefixed environment variable, e.g. FRAMETREE_LISTEN.
type Settings struct {
	Listen     string `mapstructure:"listen"`
	TreeFile   string `mapstructure:"tree_file"`
	ScriptFile string `mapstructure:"script_file"`
	Precision  int    `mapstructure:"precision"`
	Angles     string `mapstructure:"angles"`
}

func LoadSettings(path string) (Settings, error) {
	v := viper.New()

	v.SetDefault("listen", ":8000")
	v.SetDefault("tree_file", "")
	v.SetDefault("script_file", "")
	v.SetDefault("precision", 0)
	v.SetDefault("angles", "quaternion")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("frametree")
	}

	v.SetEnvPrefix("FRAMETREE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Settings{}, errors.Wrapf(err, "Failed to read settings")
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, errors.Wrapf(err, "Failed to decode settings")
	}
	return s, nil
}

func (s Settings) EncodeOptions() (EncodeOptions, error) {
	angles, err := ParseAngleFormat(s.Angles)
	if err != nil {
		return EncodeOptions{}, err
	}
	return EncodeOptions{Angles: angles, Precision: s.Precision, Pretty: true}, nil
}
