// Package config loads the service configuration from config.yaml and
// HRMS_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/gartstein/hrms/internal/hrms/models"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	GRPCPort   int
	HTTPPort   int
	LogLevel   string
	JWTSecret  string
	Database   DatabaseConfig
	Kafka      KafkaConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
	Onboarding OnboardingConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
}

type KafkaConfig struct {
	Brokers             []string
	EventsTopic         string
	OfferTopic          string
	OfferResponsesTopic string
	ConsumerGroup       string
}

// RedisConfig is optional; an empty Addr disables the shared rate limiter.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RateLimitConfig throttles the gateway. X-Forwarded-For is trusted only on
// requests from TrustedProxies.
type RateLimitConfig struct {
	Requests       int
	Window         time.Duration
	TrustedProxies []netip.Prefix
}

// OnboardingConfig points at a checklist template file. The built-in list
// is used when TemplatePath is empty.
type OnboardingConfig struct {
	TemplatePath string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("grpc_port", 50051)
	v.SetDefault("http_port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "hrms")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.events_topic", "hrms-events")
	v.SetDefault("kafka.offer_topic", "hrms-offer-letters")
	v.SetDefault("kafka.offer_responses_topic", "hrms-offer-responses")
	v.SetDefault("kafka.consumer_group", "hrms")
	v.SetDefault("rate_limit.requests", 120)
	v.SetDefault("rate_limit.window", time.Minute)
}

// Load reads the file at path, when it exists, under env overrides and
// built-in defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HRMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	cfg := &Config{
		GRPCPort:  v.GetInt("grpc_port"),
		HTTPPort:  v.GetInt("http_port"),
		LogLevel:  v.GetString("log_level"),
		JWTSecret: v.GetString("jwt_secret"),
		Database: DatabaseConfig{
			Host:         v.GetString("database.host"),
			Port:         v.GetInt("database.port"),
			User:         v.GetString("database.user"),
			Password:     v.GetString("database.password"),
			DBName:       v.GetString("database.dbname"),
			SSLMode:      v.GetString("database.sslmode"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
		},
		Kafka: KafkaConfig{
			Brokers:             splitList(v.GetStringSlice("kafka.brokers")),
			EventsTopic:         v.GetString("kafka.events_topic"),
			OfferTopic:          v.GetString("kafka.offer_topic"),
			OfferResponsesTopic: v.GetString("kafka.offer_responses_topic"),
			ConsumerGroup:       v.GetString("kafka.consumer_group"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("rate_limit.requests"),
			Window:   v.GetDuration("rate_limit.window"),
		},
		Onboarding: OnboardingConfig{
			TemplatePath: v.GetString("onboarding.template_path"),
		},
	}
	proxies, err := parseProxies(splitList(v.GetStringSlice("rate_limit.trusted_proxies")))
	if err != nil {
		return nil, err
	}
	cfg.RateLimit.TrustedProxies = proxies
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseProxies accepts CIDR prefixes and bare addresses.
func parseProxies(in []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(in))
	for _, raw := range in {
		if p, err := netip.ParsePrefix(raw); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("rate_limit.trusted_proxies: invalid entry %q", raw)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// splitList splits comma separated env values into their items.
func splitList(in []string) []string {
	var out []string
	for _, b := range in {
		for _, part := range strings.Split(b, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("jwt_secret is required"))
	}
	if len(c.Kafka.Brokers) == 0 {
		errs = append(errs, fmt.Errorf("kafka.brokers is required"))
	}
	if c.GRPCPort <= 0 || c.HTTPPort <= 0 {
		errs = append(errs, fmt.Errorf("grpc_port and http_port must be positive"))
	}
	return errors.Join(errs...)
}

type templateFile struct {
	Documents []models.DocumentRequirement `yaml:"documents"`
}

// LoadChecklistTemplate reads the onboarding documents from a YAML file.
// An empty path yields the built-in checklist.
func LoadChecklistTemplate(path string) ([]models.DocumentRequirement, error) {
	if path == "" {
		return models.DefaultChecklist, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checklist template: %w", err)
	}
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse checklist template: %w", err)
	}
	if len(file.Documents) == 0 {
		return nil, fmt.Errorf("checklist template %s lists no documents", path)
	}
	seen := make(map[string]bool, len(file.Documents))
	for i, d := range file.Documents {
		if d.Type == "" || d.Label == "" {
			return nil, fmt.Errorf("checklist template entry %d needs type and label", i)
		}
		if seen[d.Type] {
			return nil, fmt.Errorf("checklist template repeats document type %q", d.Type)
		}
		seen[d.Type] = true
	}
	return file.Documents, nil
}
