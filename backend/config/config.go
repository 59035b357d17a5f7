package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// DevJWTSecret is used when no secret is configured. CheckSecrets rejects it.
const DevJWTSecret = "dev-secret"

const sampleAdminPassword = "admin123"

var ErrInsecureSecret = errors.New("jwt secret is unset or a placeholder")

var placeholderSecrets = map[string]bool{DevJWTSecret: true, "change-me": true}

type DB struct {
	Driver string
	Host   string
	Port   int
	User   string
	Pass   string
	Name   string
	Path   string
}

type HTTP struct {
	Host string
	Port int
}

type Upload struct {
	Dir          string
	PublicPrefix string
	MaxMB        int64
}

type Redis struct {
	Addr string
	Pass string
	DB   int
}

type Events struct {
	Brokers []string
	Topic   string
}

type RateLimit struct {
	RPS   float64
	Burst int
}

type Config struct {
	HTTP HTTP
	DB   DB
	JWT  struct {
		Secret string
		Issuer string
		ExpMin int
	}
	Upload    Upload
	Redis     Redis
	Events    Events
	RateLimit RateLimit
	Admin     struct {
		Username string
		Password string
	}
	LogLevel string
}

// Load reads the YAML file at path (skipped when path is empty) on top of the
// defaults. Any key can be overridden from the environment with the BLOG_
// prefix, e.g. BLOG_BACKEND_DB_DRIVER.
func Load(path string) (*Config, error) {
	v := newViper(path)
	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return fromViper(v), nil
}

// Watch calls fn with the freshly parsed config every time the file at path
// changes on disk.
func Watch(path string, fn func(*Config)) error {
	if path == "" {
		return nil
	}
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		fn(fromViper(v))
	})
	v.WatchConfig()
	return nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("BLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("backend.http.host", "127.0.0.1")
	v.SetDefault("backend.http.port", 8080)
	v.SetDefault("backend.db.driver", "mysql")
	v.SetDefault("backend.db.host", "127.0.0.1")
	v.SetDefault("backend.db.port", 3306)
	v.SetDefault("backend.db.user", "root")
	v.SetDefault("backend.db.pass", "")
	v.SetDefault("backend.db.name", "blog_system")
	v.SetDefault("backend.db.path", "blog.db")
	v.SetDefault("backend.upload.dir", "public/content/images")
	v.SetDefault("backend.upload.public_prefix", "/content/images")
	v.SetDefault("backend.upload.max_mb", 10)
	v.SetDefault("backend.redis.addr", "")
	v.SetDefault("backend.redis.db", 0)
	v.SetDefault("backend.events.brokers", []string{})
	v.SetDefault("backend.events.topic", "blog-articles")
	v.SetDefault("backend.ratelimit.rps", 1)
	v.SetDefault("backend.ratelimit.burst", 5)
	v.SetDefault("backend.log.level", "info")
	return v
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		HTTP: HTTP{Host: v.GetString("backend.http.host"), Port: v.GetInt("backend.http.port")},
		DB: DB{
			Driver: strings.ToLower(v.GetString("backend.db.driver")),
			Host:   v.GetString("backend.db.host"),
			Port:   v.GetInt("backend.db.port"),
			User:   v.GetString("backend.db.user"),
			Pass:   v.GetString("backend.db.pass"),
			Name:   v.GetString("backend.db.name"),
			Path:   v.GetString("backend.db.path"),
		},
		Upload: Upload{
			Dir:          v.GetString("backend.upload.dir"),
			PublicPrefix: strings.TrimSuffix(v.GetString("backend.upload.public_prefix"), "/"),
			MaxMB:        v.GetInt64("backend.upload.max_mb"),
		},
		Redis: Redis{
			Addr: v.GetString("backend.redis.addr"),
			Pass: v.GetString("backend.redis.pass"),
			DB:   v.GetInt("backend.redis.db"),
		},
		Events: Events{
			Brokers: v.GetStringSlice("backend.events.brokers"),
			Topic:   v.GetString("backend.events.topic"),
		},
		RateLimit: RateLimit{
			RPS:   v.GetFloat64("backend.ratelimit.rps"),
			Burst: v.GetInt("backend.ratelimit.burst"),
		},
		LogLevel: v.GetString("backend.log.level"),
	}
	cfg.JWT.Secret = v.GetString("backend.jwt.secret")
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = DevJWTSecret
	}
	cfg.JWT.Issuer = v.GetString("backend.jwt.issuer")
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "blog-system"
	}
	cfg.JWT.ExpMin = v.GetInt("backend.jwt.exp_min")
	if cfg.JWT.ExpMin <= 0 {
		cfg.JWT.ExpMin = 60
	}
	if cfg.Upload.MaxMB <= 0 {
		cfg.Upload.MaxMB = 10
	}
	if cfg.Upload.PublicPrefix == "" {
		cfg.Upload.PublicPrefix = "/content/images"
	}
	cfg.Admin.Username = v.GetString("backend.admin.username")
	cfg.Admin.Password = v.GetString("backend.admin.password")
	return cfg
}

// CheckSecrets fails when anyone could forge tokens because the JWT secret is
// unset or still a placeholder. A seeded admin password left at the sample
// value is only reported as a warning.
func (c *Config) CheckSecrets() (warnings []string, err error) {
	if c.Admin.Username != "" && c.Admin.Password == sampleAdminPassword {
		warnings = append(warnings, "admin account is seeded with the sample password")
	}
	if placeholderSecrets[strings.TrimSpace(c.JWT.Secret)] {
		return warnings, fmt.Errorf("%w: set backend.jwt.secret or BLOG_BACKEND_JWT_SECRET", ErrInsecureSecret)
	}
	return warnings, nil
}
