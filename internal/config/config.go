package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	// AllowedOrigins are the browser origins besides the server's own host
	// that may open a websocket.
	AllowedOrigins []string `yaml:"allowed-origins" env:"ALLOWED_ORIGINS" env-separator:","`
	Redis          Redis    `yaml:"redis"`
	Bot            Bot      `yaml:"bot"`
	Session        Session  `yaml:"session"`
	ValueTablePath string   `yaml:"value-table-path" env:"VALUE_TABLE_PATH"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Bot struct {
	ThinkDelay        time.Duration `yaml:"think-delay" env-default:"500ms"`
	DefaultDifficulty string        `yaml:"default-difficulty" env-default:"easy"`
	// StrictSnapshots makes malformed engine input panic instead of yielding no move.
	StrictSnapshots bool `yaml:"strict-snapshots" env-default:"false"`
}

type Session struct {
	TTL           time.Duration `yaml:"ttl" env-default:"24h"`
	SweepInterval time.Duration `yaml:"sweep-interval" env-default:"1m"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
