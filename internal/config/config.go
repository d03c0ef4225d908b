package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
)

var (
	ErrUnknownDriver = errors.New("unknown snapshot driver")
	ErrInvalidGame   = errors.New("invalid game settings")
)

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"BINGO_LOG_LEVEL" env-default:"info"`
	HTTPPort  string    `yaml:"http-port" env:"BINGO_HTTP_PORT" env-default:"9090"`
	Redis     Redis     `yaml:"redis"`
	Snapshot  Snapshot  `yaml:"snapshot"`
	Game      Game      `yaml:"game"`
	Audio     Audio     `yaml:"audio"`
	WebSocket WebSocket `yaml:"websocket"`
}

type Redis struct {
	Host string `yaml:"host" env:"BINGO_REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"BINGO_REDIS_PORT" env-default:"6379"`
}

type Snapshot struct {
	Driver     string `yaml:"driver" env:"BINGO_SNAPSHOT_DRIVER" env-default:"sqlite"`
	Key        string `yaml:"key" env-default:"bingo:snapshot"`
	SQLitePath string `yaml:"sqlite-path" env-default:"./data/bingo.db"`
	FilePath   string `yaml:"file-path" env-default:"./data/snapshot.json"`
}

type Game struct {
	TotalBalls   int           `yaml:"total-balls" env-default:"90"`
	DefaultSpeed int           `yaml:"default-speed" env-default:"3"`
	FinishDelay  time.Duration `yaml:"finish-delay" env-default:"900ms"`
}

type Audio struct {
	Dir       string `yaml:"dir" env:"BINGO_AUDIO_DIR" env-default:"./audio"`
	Ext       string `yaml:"ext" env-default:"mp3"`
	URLPrefix string `yaml:"url-prefix" env-default:"/audio"`
}

type WebSocket struct {
	RateLimit      float64 `yaml:"rate-limit" env-default:"10"`
	RateBurst      int     `yaml:"rate-burst" env-default:"20"`
	MaxConnections int     `yaml:"max-connections" env-default:"1000"`
}

// Load reads the yml file at path, applies env overrides and validates the result.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Config) Validate() error {
	switch that.Snapshot.Driver {
	case DriverRedis, DriverSQLite, DriverFile, DriverMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, that.Snapshot.Driver)
	}

	if that.Game.TotalBalls < 1 {
		return fmt.Errorf("%w: total-balls must be positive, got %d", ErrInvalidGame, that.Game.TotalBalls)
	}

	if that.Game.DefaultSpeed < 1 || that.Game.DefaultSpeed > 10 {
		return fmt.Errorf("%w: default-speed must be between 1 and 10, got %d", ErrInvalidGame, that.Game.DefaultSpeed)
	}

	if that.Game.FinishDelay < 0 {
		return fmt.Errorf("%w: finish-delay must not be negative", ErrInvalidGame)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
