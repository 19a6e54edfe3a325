package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPAddress    string        `mapstructure:"http_address"`
	RPCAddress     string        `mapstructure:"rpc_address"`
	MetricsAddress string        `mapstructure:"metrics_address"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// GameConfig 房间创建时的默认设置
type GameConfig struct {
	MinPlayers         int           `mapstructure:"min_players"`
	MaxPlayers         int           `mapstructure:"max_players"`
	DefaultSpyCount    int           `mapstructure:"default_spy_count"`
	ShowSpyCount       bool          `mapstructure:"show_spy_count"`
	AllowSpyDiscussion bool          `mapstructure:"allow_spy_discussion"`
	SpyHints           bool          `mapstructure:"spy_hints"`
	HeartbeatInterval  time.Duration `mapstructure:"heartbeat_interval"`
	SendBuffer         int           `mapstructure:"send_buffer"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Driver   string         `mapstructure:"driver"` // "gorm" or "sql"
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":8081")
	v.SetDefault("server.metrics_address", ":9090")
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("game.min_players", 3)
	v.SetDefault("game.max_players", 8)
	v.SetDefault("game.default_spy_count", 1)
	v.SetDefault("game.show_spy_count", false)
	v.SetDefault("game.allow_spy_discussion", true)
	v.SetDefault("game.spy_hints", true)
	v.SetDefault("game.heartbeat_interval", 30*time.Second)
	v.SetDefault("game.send_buffer", 256)

	v.SetDefault("log.level", "info")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.driver", "gorm")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "spyserver")
}

// LoadConfig reads config.yaml from path. A missing file is fine: defaults
// and environment variables (SERVER_HTTP_ADDRESS, GAME_MAX_PLAYERS, ...)
// still apply.
func LoadConfig(path string) (config *Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	config = &Config{}
	err = v.Unmarshal(config)
	return
}
