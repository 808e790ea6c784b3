package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/factusapp/factusapp/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Logging  LoggingConfig  `mapstructure:"logging" validate:"required"`
	Postgres PostgresConfig `mapstructure:"postgres" validate:"required"`
	Factus   FactusConfig   `mapstructure:"factus" validate:"required"`
	Plans    PlansConfig    `mapstructure:"plans"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" default:"10"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" default:"5"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// FactusConfig holds the credentials and behaviour of the fiscal provider client
type FactusConfig struct {
	BaseURL      string        `mapstructure:"base_url" validate:"required_unless=DemoMode true"`
	ClientID     string        `mapstructure:"client_id" validate:"required_unless=DemoMode true"`
	ClientSecret string        `mapstructure:"client_secret" validate:"required_unless=DemoMode true"`
	Username     string        `mapstructure:"username" validate:"required_unless=DemoMode true"`
	Password     string        `mapstructure:"password" validate:"required_unless=DemoMode true"`
	DemoMode     bool          `mapstructure:"demo_mode"`
	Timeout      time.Duration `mapstructure:"timeout"`
	// NumberingRangeID is sent with every bill when set
	NumberingRangeID int    `mapstructure:"numbering_range_id"`
	CancelMotive     string `mapstructure:"cancel_motive"`
	// MunicipalityID is the provider's municipality code used for customers and the establishment
	MunicipalityID       int    `mapstructure:"municipality_id" validate:"gte=0"`
	EstablishmentAddress string `mapstructure:"establishment_address"`
	EstablishmentPhone   string `mapstructure:"establishment_phone"`
}

// PlansConfig holds limits that are configured per deployment rather than fixed per plan
type PlansConfig struct {
	ProductLimits ProductLimitsConfig `mapstructure:"product_limits"`
}

// ProductLimitsConfig caps the number of catalog products per plan. Zero means unbounded.
type ProductLimitsConfig struct {
	Free  int `mapstructure:"free" validate:"gte=0"`
	Basic int `mapstructure:"basic" validate:"gte=0"`
	Full  int `mapstructure:"full" validate:"gte=0"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

const (
	DefaultFactusTimeout = 30 * time.Second
	DefaultCancelMotive  = "Anulación solicitada por el emisor"

	// DefaultMunicipalityID is Bogota D.C. in the provider's municipality table
	DefaultMunicipalityID = 980
)

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/factusapp")

	v.SetEnvPrefix("FACTUSAPP")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults registers every key so that AutomaticEnv can override keys
// that are absent from the config file
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "factusapp")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "factusapp")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", time.Hour)
	v.SetDefault("factus.base_url", "")
	v.SetDefault("factus.client_id", "")
	v.SetDefault("factus.client_secret", "")
	v.SetDefault("factus.username", "")
	v.SetDefault("factus.password", "")
	v.SetDefault("factus.demo_mode", false)
	v.SetDefault("factus.timeout", DefaultFactusTimeout)
	v.SetDefault("factus.numbering_range_id", 0)
	v.SetDefault("factus.cancel_motive", DefaultCancelMotive)
	v.SetDefault("factus.municipality_id", DefaultMunicipalityID)
	v.SetDefault("factus.establishment_address", "")
	v.SetDefault("factus.establishment_phone", "")
	v.SetDefault("plans.product_limits.free", 50)
	v.SetDefault("plans.product_limits.basic", 500)
	v.SetDefault("plans.product_limits.full", 0)
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 1.0)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// and scripts. The fiscal client runs in demo mode.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Server:  ServerConfig{Address: ":8080"},
		Logging: LoggingConfig{Level: types.LogLevelDebug},
		Factus: FactusConfig{
			DemoMode:       true,
			Timeout:        DefaultFactusTimeout,
			CancelMotive:   DefaultCancelMotive,
			MunicipalityID: DefaultMunicipalityID,
		},
		Plans: PlansConfig{
			ProductLimits: ProductLimitsConfig{Free: 50, Basic: 500},
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}

// GetTimeout returns the outbound request timeout, falling back to 30s
func (c FactusConfig) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultFactusTimeout
	}
	return c.Timeout
}

// GetCancelMotive returns the configured default cancellation motive
func (c FactusConfig) GetCancelMotive() string {
	if strings.TrimSpace(c.CancelMotive) == "" {
		return DefaultCancelMotive
	}
	return c.CancelMotive
}

// GetMunicipalityID returns the configured municipality, falling back to the default
func (c FactusConfig) GetMunicipalityID() int {
	if c.MunicipalityID <= 0 {
		return DefaultMunicipalityID
	}
	return c.MunicipalityID
}

// ForPlan returns the product limit for plan, 0 meaning unbounded
func (c ProductLimitsConfig) ForPlan(plan types.SubscriptionPlan) int {
	switch plan {
	case types.SubscriptionPlanFree:
		return c.Free
	case types.SubscriptionPlanBasic:
		return c.Basic
	case types.SubscriptionPlanFull:
		return c.Full
	}
	return 0
}
