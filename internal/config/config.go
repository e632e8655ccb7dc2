package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const DefaultPath = "config/example.yaml"

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr         string
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"http"`

	Postgres struct {
		DSN      string
		MaxConns int32 `mapstructure:"max_conns"`
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Telegram struct {
		Token       string
		AdminChatID int64   `mapstructure:"admin_chat_id"`
		Recipients  []int64 `mapstructure:"recipients"`
	} `mapstructure:"telegram"`

	Archive struct {
		Driver    string // none|fs|s3
		Dir       string
		Bucket    string
		Region    string
		Endpoint  string
		PathStyle bool `mapstructure:"path_style"`
		Prefix    string
		AccessKey string `mapstructure:"access_key"` // пусто — стандартная цепочка AWS
		SecretKey string `mapstructure:"secret_key"`
	} `mapstructure:"archive"`

	Stock struct {
		DefaultMinQty float64 `mapstructure:"default_min_qty"`
	} `mapstructure:"stock"`
}

// Path возвращает путь к конфигу: APP_CONFIG или DefaultPath.
func Path() string {
	if p := strings.TrimSpace(os.Getenv("APP_CONFIG")); p != "" {
		return p
	}
	return DefaultPath
}

func Load(path string) (Config, error) {
	// .env необязателен
	_ = gotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "Europe/Moscow")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("archive.driver", "none")
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("stock.default_min_qty", 0)

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if err := c.validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		return errors.New("config: postgres.dsn is required")
	}
	switch c.Archive.Driver {
	case "", "none":
	case "fs":
		if c.Archive.Dir == "" {
			return errors.New("config: archive.dir is required for fs driver")
		}
	case "s3":
		if c.Archive.Bucket == "" {
			return errors.New("config: archive.bucket is required for s3 driver")
		}
	default:
		return fmt.Errorf("config: unknown archive driver %q", c.Archive.Driver)
	}
	return nil
}
