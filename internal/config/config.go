package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Parcelway platform
	ParcelwayBaseURL string `envconfig:"PARCELWAY_BASE_URL" default:"https://api.parcelway.net/v2"`
	ParcelwayAPIKey  string `envconfig:"PARCELWAY_API_KEY"`
	ParcelwayUseMock bool   `envconfig:"PARCELWAY_USE_MOCK" default:"false"`

	// Merchant defaults seeded into the development store
	DefaultCarrier     string `envconfig:"DEFAULT_CARRIER" default:"postnl"`
	DefaultPackageType string `envconfig:"DEFAULT_PACKAGE_TYPE" default:"package"`
	DefaultWeightUnit  string `envconfig:"DEFAULT_WEIGHT_UNIT" default:"gram"`
	CountryOfOrigin    string `envconfig:"COUNTRY_OF_ORIGIN" default:"NL"`
	ExportMode         string `envconfig:"EXPORT_MODE" default:"shipments"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"parcelbridge"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("parcelway.base_url", c.ParcelwayBaseURL),
		attribute.Bool("parcelway.use_mock", c.ParcelwayUseMock),
	}
}
