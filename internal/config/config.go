package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"github.com/storyloom/collab/internal/collab"
)

type Config struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	AdminPort      string        `env:"ADMIN_PORT" envDefault:"9090"`
	DBPath         string        `env:"DB_PATH" envDefault:"/data/collab.db"`
	SeedFile       string        `env:"SEED_FILE"`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" envDefault:"20"`
	GinMode        string        `env:"GIN_MODE" envDefault:"release"`
	JWTSecret      string        `env:"JWT_SECRET"`
	JWTIssuer      string        `env:"JWT_ISSUER"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"15m"`
	PolicyFile     string        `env:"POLICY_FILE"`

	Limits Limits `envPrefix:"POLICY_"`
}

// Limits are the invitation policy knobs.
type Limits struct {
	InviteTTL               time.Duration `env:"INVITE_TTL" envDefault:"168h"`
	ResendCooldown          time.Duration `env:"RESEND_COOLDOWN" envDefault:"10m"`
	MaxPendingPerRecipient  int           `env:"MAX_PENDING_PER_RECIPIENT" envDefault:"10"`
	MaxCoAuthorsPerBook     int           `env:"MAX_COAUTHORS_PER_BOOK" envDefault:"5"`
	MaxPendingPerBook       int           `env:"MAX_PENDING_PER_BOOK" envDefault:"5"`
	NotificationPageSize    int           `env:"NOTIFICATION_PAGE_SIZE" envDefault:"20"`
	NotificationMaxPageSize int           `env:"NOTIFICATION_MAX_PAGE_SIZE" envDefault:"50"`
}

// policyFile is the TOML shape of POLICY_FILE. Durations are strings such as "10m".
type policyFile struct {
	InviteTTL               string `toml:"invite_ttl"`
	ResendCooldown          string `toml:"resend_cooldown"`
	MaxPendingPerRecipient  *int   `toml:"max_pending_per_recipient"`
	MaxCoAuthorsPerBook     *int   `toml:"max_coauthors_per_book"`
	MaxPendingPerBook       *int   `toml:"max_pending_per_book"`
	NotificationPageSize    *int   `toml:"notification_page_size"`
	NotificationMaxPageSize *int   `toml:"notification_max_page_size"`
}

// Load reads the environment, then applies POLICY_FILE on top when set.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.PolicyFile != "" {
		if err := cfg.applyPolicyFile(cfg.PolicyFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyPolicyFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open policy file: %w", err)
	}
	defer file.Close()

	var pf policyFile
	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&pf); err != nil {
		return fmt.Errorf("parse policy file: %w", err)
	}

	if pf.InviteTTL != "" {
		d, err := time.ParseDuration(pf.InviteTTL)
		if err != nil {
			return fmt.Errorf("policy invite_ttl: %w", err)
		}
		c.Limits.InviteTTL = d
	}
	if pf.ResendCooldown != "" {
		d, err := time.ParseDuration(pf.ResendCooldown)
		if err != nil {
			return fmt.Errorf("policy resend_cooldown: %w", err)
		}
		c.Limits.ResendCooldown = d
	}
	override(&c.Limits.MaxPendingPerRecipient, pf.MaxPendingPerRecipient)
	override(&c.Limits.MaxCoAuthorsPerBook, pf.MaxCoAuthorsPerBook)
	override(&c.Limits.MaxPendingPerBook, pf.MaxPendingPerBook)
	override(&c.Limits.NotificationPageSize, pf.NotificationPageSize)
	override(&c.Limits.NotificationMaxPageSize, pf.NotificationMaxPageSize)
	return nil
}

func override(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("rate limit rps and burst must be positive"))
	}
	if c.SweepInterval < 0 {
		errs = append(errs, errors.New("SWEEP_INTERVAL must not be negative"))
	}
	l := c.Limits
	if l.InviteTTL <= 0 || l.ResendCooldown < 0 {
		errs = append(errs, errors.New("invite ttl must be positive and resend cooldown not negative"))
	}
	if l.MaxPendingPerRecipient <= 0 || l.MaxCoAuthorsPerBook <= 0 || l.MaxPendingPerBook <= 0 {
		errs = append(errs, errors.New("capacity limits must be positive"))
	}
	if l.NotificationPageSize <= 0 || l.NotificationMaxPageSize < l.NotificationPageSize {
		errs = append(errs, errors.New("notification page size must be positive and not exceed the maximum"))
	}
	return errors.Join(errs...)
}

// Policy converts the limits for the collaboration service.
func (c *Config) Policy() collab.Policy {
	return collab.Policy{
		InviteTTL:               c.Limits.InviteTTL,
		ResendCooldown:          c.Limits.ResendCooldown,
		MaxPendingPerRecipient:  c.Limits.MaxPendingPerRecipient,
		MaxCoAuthorsPerBook:     c.Limits.MaxCoAuthorsPerBook,
		MaxPendingPerBook:       c.Limits.MaxPendingPerBook,
		NotificationPageSize:    c.Limits.NotificationPageSize,
		NotificationMaxPageSize: c.Limits.NotificationMaxPageSize,
	}
}
