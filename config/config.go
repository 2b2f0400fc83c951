package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the application-wide configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Discord   DiscordConfig   `mapstructure:"discord"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Slots     SlotConfig      `mapstructure:"slots"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port        int        `mapstructure:"port"          validate:"min=1,max=65535"`
	BaseURL     string     `mapstructure:"base_url"      validate:"required,url"`
	FrontendURL string     `mapstructure:"frontend_url"  validate:"required,url"`
	CORS        CORSConfig `mapstructure:"cors"`
}

// CORSConfig cross-origin settings
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"               validate:"required"`
	Port            int           `mapstructure:"port"               validate:"min=1,max=65535"`
	Name            string        `mapstructure:"name"               validate:"required"`
	User            string        `mapstructure:"user"               validate:"required"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	Timezone        string        `mapstructure:"timezone"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int           `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int           `mapstructure:"conn_max_idle_time"` // minutes
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
}

// DSN builds the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig redis settings
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT and session settings
type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"        validate:"required,min=16"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"  validate:"gt=0"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl" validate:"gt=0"`
	AdminDiscordIDs []string      `mapstructure:"admin_discord_ids"`
	Cookie          CookieConfig  `mapstructure:"cookie"`
}

// CookieConfig cookie security settings
type CookieConfig struct {
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site" validate:"omitempty,oneof=Lax Strict None"`
	Domain   string `mapstructure:"domain"`
}

// DiscordConfig Discord OAuth application and REST settings
type DiscordConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	RedirectURL  string   `mapstructure:"redirect_url"`
	BotToken     string   `mapstructure:"bot_token"`
	APIBaseURL   string   `mapstructure:"api_base_url" validate:"required,url"`
	Scopes       []string `mapstructure:"scopes"`
	// InviteCacheTTL how long invite lookups stay cached in redis
	InviteCacheTTL time.Duration `mapstructure:"invite_cache_ttl"`
}

// StorageConfig MinIO / S3 upload settings
type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"   validate:"required_if=Enabled true"`
	AccessKey string `mapstructure:"access_key" validate:"required_if=Enabled true"`
	SecretKey string `mapstructure:"secret_key" validate:"required_if=Enabled true"`
	Bucket    string `mapstructure:"bucket"     validate:"required_if=Enabled true"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	PublicURL string `mapstructure:"public_url"`
	MaxBytes  int64  `mapstructure:"max_bytes"`
}

// SlotConfig purchasable placement capacity
type SlotConfig struct {
	AdCapacity       int   `mapstructure:"ad_capacity"       validate:"min=1"`
	FeaturedCapacity int   `mapstructure:"featured_capacity" validate:"min=1"`
	NodeID           int64 `mapstructure:"node_id"           validate:"min=0,max=1023"`
}

// SchedulerConfig background job schedule (cron spec, seconds field enabled)
type SchedulerConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ExpireSlots   string `mapstructure:"expire_slots"`
	DrawGiveaways string `mapstructure:"draw_giveaways"`
}

// LogConfig logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"required"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// Load reads configuration from defaults, an optional config file and the environment.
// Priority: env > file > defaults. A .env file in the working directory is loaded first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FIVECRUX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// every key needs a default, otherwise AutomaticEnv does not reach Unmarshal
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.frontend_url", "http://localhost:3000")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "fivecrux")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)
	v.SetDefault("db.slow_threshold", "200ms")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl", "168h")
	v.SetDefault("auth.admin_discord_ids", []string{})
	v.SetDefault("auth.cookie.secure", false)
	v.SetDefault("auth.cookie.same_site", "Lax")

	v.SetDefault("discord.client_id", "")
	v.SetDefault("discord.client_secret", "")
	v.SetDefault("discord.bot_token", "")
	v.SetDefault("discord.api_base_url", "https://discord.com/api/v10")
	v.SetDefault("discord.redirect_url", "http://localhost:8080/api/v1/auth/discord/callback")
	v.SetDefault("discord.scopes", []string{"identify", "email", "guilds"})
	v.SetDefault("discord.invite_cache_ttl", "10m")

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.public_url", "")
	v.SetDefault("storage.bucket", "fivecrux-uploads")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.max_bytes", 5<<20)

	v.SetDefault("slots.ad_capacity", 3)
	v.SetDefault("slots.featured_capacity", 6)
	v.SetDefault("slots.node_id", 1)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.expire_slots", "0 */5 * * * *")
	v.SetDefault("scheduler.draw_giveaways", "30 * * * * *")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
