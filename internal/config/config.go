package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret    string `yaml:"secret"`
	Issuer    string `yaml:"issuer"`
	AccessTTL string `yaml:"access_ttl"`
}

type CSRFConfig struct {
	TTL string `yaml:"ttl"`
}

type SessionConfig struct {
	TTL        string `yaml:"ttl"`
	CookieName string `yaml:"cookie_name"`
}

type LockoutConfig struct {
	MaxAttempts    int    `yaml:"max_attempts"`
	FailureWindow  string `yaml:"failure_window"`
	LockDuration   string `yaml:"lock_duration"`
}

type StorageConfig struct {
	Root string `yaml:"root"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type ConfigFile struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	CSRF     CSRFConfig     `yaml:"csrf"`
	Session  SessionConfig  `yaml:"session"`
	Lockout  LockoutConfig  `yaml:"lockout"`
	Storage  StorageConfig  `yaml:"storage"`
	Twilio   TwilioConfig   `yaml:"twilio"`
	Casbin   CasbinConfig   `yaml:"casbin"`
}

type Config struct {
	Port               string
	GinMode            string
	DSN                string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	JWTSecret          string
	JWTIssuer          string
	AccessTTL          time.Duration
	CsrfTTL            time.Duration
	SessionTTL         time.Duration
	SessionCookieName  string
	LockoutMaxAttempts int
	LockoutWindow      time.Duration
	LockoutDuration    time.Duration
	StorageRoot        string
	TwilioSID          string
	TwilioToken        string
	TwilioFrom         string
	CasbinModelPath    string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads config/config.yml and resolves durations. Secrets may be
// overridden through the environment.
func Load() (*Config, error) {
	return LoadFrom(env("PLATFORM_CONFIG", "config/config.yml"))
}

// LoadFrom reads the config file at the given path.
func LoadFrom(path string) (*Config, error) {
	configFile, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	accTTL, err := time.ParseDuration(configFile.JWT.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT access TTL: %w", err)
	}

	csrfTTL, err := time.ParseDuration(configFile.CSRF.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid CSRF TTL: %w", err)
	}

	sessionTTL, err := time.ParseDuration(configFile.Session.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid session TTL: %w", err)
	}

	lockWnd, err := time.ParseDuration(configFile.Lockout.FailureWindow)
	if err != nil {
		return nil, fmt.Errorf("invalid lockout failure window: %w", err)
	}

	lockDur, err := time.ParseDuration(configFile.Lockout.LockDuration)
	if err != nil {
		return nil, fmt.Errorf("invalid lockout duration: %w", err)
	}

	cookieName := configFile.Session.CookieName
	if cookieName == "" {
		cookieName = "platform_session"
	}

	return &Config{
		Port:               fmt.Sprintf("%d", configFile.App.Port),
		GinMode:            configFile.App.GinMode,
		DSN:                env("DATABASE_DSN", configFile.Database.DSN),
		RedisAddr:          env("REDIS_ADDR", configFile.Redis.Addr),
		RedisPassword:      env("REDIS_PASSWORD", configFile.Redis.Password),
		RedisDB:            configFile.Redis.DB,
		JWTSecret:          env("JWT_SECRET", configFile.JWT.Secret),
		JWTIssuer:          configFile.JWT.Issuer,
		AccessTTL:          accTTL,
		CsrfTTL:            csrfTTL,
		SessionTTL:         sessionTTL,
		SessionCookieName:  cookieName,
		LockoutMaxAttempts: configFile.Lockout.MaxAttempts,
		LockoutWindow:      lockWnd,
		LockoutDuration:    lockDur,
		StorageRoot:        env("STORAGE_ROOT", configFile.Storage.Root),
		TwilioSID:          env("TWILIO_ACCOUNT_SID", configFile.Twilio.AccountSID),
		TwilioToken:        env("TWILIO_AUTH_TOKEN", configFile.Twilio.AuthToken),
		TwilioFrom:         configFile.Twilio.FromNumber,
		CasbinModelPath:    configFile.Casbin.ModelPath,
	}, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}
