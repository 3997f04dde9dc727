// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	AWS       AWSConfig       `mapstructure:"aws"`
	Redis     RedisConfig     `mapstructure:"redis"`
	AMQP      AMQPConfig      `mapstructure:"amqp"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Admin     AdminConfig     `mapstructure:"admin"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	LogLevel       string   `mapstructure:"log_level"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type AWSConfig struct {
	Region           string `mapstructure:"region"`
	AdminTopicARN    string `mapstructure:"admin_topic_arn"`
	CustomerTopicARN string `mapstructure:"customer_topic_arn"`
	ImageBucket      string `mapstructure:"image_bucket"`
	ContactQueueURL  string `mapstructure:"contact_queue_url"`
}

type RedisConfig struct {
	URL string        `mapstructure:"url"`
	TTL time.Duration `mapstructure:"ttl"`
}

type AMQPConfig struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	AdminTo  string `mapstructure:"admin_to"`
}

// NotifyConfig selects the notifier backends, comma separated:
// log, sns, amqp, mail, hub.
type NotifyConfig struct {
	Drivers []string      `mapstructure:"drivers"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ReconcileConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type AdminConfig struct {
	Username string `mapstructure:"username"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// AuthConfig controls self registration. With VerifyEmail on, new accounts
// must confirm a code sent to their email before they can log in.
type AuthConfig struct {
	VerifyEmail bool          `mapstructure:"verify_email"`
	CodeTTL     time.Duration `mapstructure:"code_ttl"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// Load reads .env (if present) and the process environment. Keys map to
// env vars by upper-casing and replacing dots, e.g. database.dsn -> DATABASE_DSN.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// env values arrive as one comma separated string
	c.Server.AllowedOrigins = splitList(v.GetString("server.allowed_origins"))
	c.Notify.Drivers = splitList(v.GetString("notify.drivers"))

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	for _, d := range c.Notify.Drivers {
		switch d {
		case "log", "sns", "amqp", "mail", "hub":
		default:
			return fmt.Errorf("unknown notify driver %q", d)
		}
	}
	return nil
}

// HasDriver reports whether the named notifier backend is enabled.
func (n NotifyConfig) HasDriver(name string) bool {
	for _, d := range n.Drivers {
		if d == name {
			return true
		}
	}
	return false
}

func (c *Config) IsRelease() bool {
	return c.Server.Mode == "release"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.allowed_origins", "http://localhost:3000")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "restaurant.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", 24*time.Hour)

	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.admin_topic_arn", "")
	v.SetDefault("aws.customer_topic_arn", "")
	v.SetDefault("aws.image_bucket", "")
	v.SetDefault("aws.contact_queue_url", "")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.ttl", 5*time.Minute)

	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.queue", "restaurant.notifications")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "no-reply@brewcraft.local")
	v.SetDefault("smtp.admin_to", "")

	v.SetDefault("notify.drivers", "log,hub")
	v.SetDefault("notify.timeout", 10*time.Second)

	v.SetDefault("reconcile.interval", 5*time.Minute)

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.email", "admin@brewcraft.local")
	v.SetDefault("admin.password", "")

	v.SetDefault("ratelimit.requests", 50)
	v.SetDefault("ratelimit.window", time.Second)

	v.SetDefault("auth.verify_email", true)
	v.SetDefault("auth.code_ttl", 15*time.Minute)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
