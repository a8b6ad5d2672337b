package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	TMDB    TMDB    `json:"tmdb" yaml:"tmdb" mapstructure:"tmdb"`
	Library Library `json:"library" yaml:"library" mapstructure:"library"`
	Server  Server  `json:"server" yaml:"server" mapstructure:"server"`
	Index   Index   `json:"index" yaml:"index" mapstructure:"index"`
}

type TMDB struct {
	Scheme      string        `json:"scheme" yaml:"scheme" mapstructure:"scheme" validate:"oneof=http https"`
	Host        string        `json:"host" yaml:"host" mapstructure:"host" validate:"required"`
	ImageHost   string        `json:"imageHost" yaml:"imageHost" mapstructure:"imageHost" validate:"required"`
	APIKey      string        `json:"apiKey" yaml:"apiKey" mapstructure:"apiKey"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	BaseBackoff time.Duration `json:"backoff" yaml:"backoff" mapstructure:"backoff"`
	MaxRetries  int           `json:"maxRetries" yaml:"maxRetries" mapstructure:"maxRetries" validate:"gte=0"`
}

type Server struct {
	Port int `json:"port" yaml:"port" mapstructure:"port" validate:"gt=0,lte=65535"`
}

// Library holds the on-disk layout. Root is the media root that the file
// manager operations are confined to; the three category directories
// default to subdirectories of it.
type Library struct {
	Root              string   `json:"root" yaml:"root" mapstructure:"root" validate:"required"`
	MovieDir          string   `json:"movie" yaml:"movie" mapstructure:"movie"`
	ShowDir           string   `json:"show" yaml:"show" mapstructure:"show"`
	UnmatchedDir      string   `json:"unmatched" yaml:"unmatched" mapstructure:"unmatched"`
	PhotoDir          string   `json:"photo" yaml:"photo" mapstructure:"photo"`
	SidecarExtensions []string `json:"sidecarExtensions" yaml:"sidecarExtensions" mapstructure:"sidecarExtensions"`
}

// Index controls the derived library index.
type Index struct {
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl" validate:"gte=0"`
}

type ConfigUnmarshaler interface {
	ReadInConfig() error
	Unmarshal(any, ...viper.DecoderConfigOption) error
	ConfigFileUsed() string
}

// New reads a new configuration
func New(cu ConfigUnmarshaler) (Config, error) {
	var c Config

	if cu.ConfigFileUsed() != "" {
		err := cu.ReadInConfig()
		if err != nil {
			return c, err
		}
	}

	if err := cu.Unmarshal(&c); err != nil {
		return c, err
	}

	if err := validator.New().Struct(c); err != nil {
		return c, fmt.Errorf("invalid configuration: %w", err)
	}

	return c, nil
}
