package config

import (
	"errors"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// App holds application configuration.
type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

// Logger holds logger configuration.
type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// Database holds database configuration.
type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

// Redis holds Redis configuration. StreamMaxLen caps streams written with XADD MAXLEN ~.
type Redis struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	StreamMaxLen int64  `mapstructure:"stream_max_len"`
}

// API holds API server configuration.
type API struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Loader layers configuration sources. Later sources win:
// registered defaults, the YAML file, then the process environment
// (optionally seeded from a .env file). Env keys use "_" for ".".
type Loader struct {
	v       *viper.Viper
	envFile string
}

// NewLoader returns a Loader that reads .env from the working directory.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v, envFile: ".env"}
}

// WithEnvFile overrides the .env path. An empty path disables .env loading.
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFile = path
	return l
}

// SetDefault registers a default for key. Defaults also make env-only keys visible to Unmarshal.
func (l *Loader) SetDefault(key string, value interface{}) {
	l.v.SetDefault(key, value)
}

// Load reads the file at path and unmarshals the merged result into out.
// A missing file is not an error; defaults and the environment still apply.
func (l *Loader) Load(path string, out interface{}) error {
	if l.envFile != "" {
		if err := godotenv.Load(l.envFile); err != nil {
			log.Println("No .env file found, using process environment")
		}
	}

	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			log.Println("Config file not found, falling back to defaults and environment variables")
		}
	}

	return l.v.Unmarshal(out)
}
