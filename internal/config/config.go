package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/caarlos0/env/v11"
)

// Supported credential store backends.
const (
	BackendSSM      = "ssm"
	BackendS3       = "s3"
	BackendKeyring  = "keyring"
	BackendPostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	EnvVars  EnvVars        `json:"env"`
	Prompts  *Prompts       `json:"-"`
	Location *time.Location `json:"-"`
}

// EnvVars holds environment variables required by the application.
// Fields tagged `optional:"true"` are skipped by CheckConfigEnvFields.
type EnvVars struct {
	Port               string        `env:"PORT" envDefault:"8080"`
	GinMode            string        `env:"GIN_MODE" optional:"true"`
	SkillID            string        `env:"SKILL_ID" optional:"true"`
	SecretsBackend     string        `env:"SECRETS_BACKEND" envDefault:"ssm"`
	SecretsPrefix      string        `env:"SECRETS_PREFIX" optional:"true"`
	AWSRegion          string        `env:"AWS_REGION" optional:"true"`
	AWSAccessKeyID     string        `env:"AWS_ACCESS_KEY_ID" optional:"true"`
	AWSSecretAccessKey string        `env:"AWS_SECRET_ACCESS_KEY" optional:"true"`
	S3Bucket           string        `env:"S3_BUCKET" optional:"true"`
	DatabaseUrl        string        `env:"DATABASE_URL" optional:"true"`
	KeyringDir         string        `env:"KEYRING_DIR" optional:"true"`
	KeyringPassword    string        `env:"KEYRING_PASSWORD" optional:"true"`
	FitbitAPIURL       string        `env:"FITBIT_API_URL" envDefault:"https://api.fitbit.com"`
	FitbitAuthURL      string        `env:"FITBIT_AUTH_URL" envDefault:"https://www.fitbit.com/oauth2/authorize"`
	TimeZone           string        `env:"TIME_ZONE" envDefault:"America/New_York"`
	HTTPTimeout        time.Duration `env:"HTTP_TIMEOUT" envDefault:"8s"`
	MaxCandidates      int           `env:"MAX_CANDIDATES" envDefault:"10"`
	JwtSecretKey       string        `env:"JWT_SECRET_KEY"`
	AdminKeyHash       string        `env:"ADMIN_KEY_HASH"`
	OAuthRedirectURL   string        `env:"OAUTH_REDIRECT_URL" optional:"true"`
	CORSOrigins        []string      `env:"CORS_ORIGINS" envSeparator:"," optional:"true"`
	RateLimitRPS       int           `env:"RATE_LIMIT_RPS" envDefault:"5"`
	PromptsFile        string        `env:"PROMPTS_FILE" optional:"true"`
}

// LoadConfig parses environment variables into the Config struct and
// resolves the reference time zone and speech prompts.
func LoadConfig() (*Config, error) {
	var config Config
	if err := env.Parse(&config.EnvVars); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(config.EnvVars.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE %q: %w", config.EnvVars.TimeZone, err)
	}
	config.Location = loc

	if config.EnvVars.PromptsFile != "" {
		config.Prompts, err = LoadPrompts(config.EnvVars.PromptsFile)
	} else {
		config.Prompts, err = DefaultPrompts()
	}
	if err != nil {
		return nil, err
	}

	return &config, nil
}

// CheckConfigEnvFields validates that all required EnvVars fields are set
// and that the backend-specific settings are present.
func (c *Config) CheckConfigEnvFields() error {
	if err := checkFieldsRecursive(reflect.ValueOf(c.EnvVars)); err != nil {
		return err
	}

	for name, u := range map[string]string{
		"FitbitAPIURL":  c.EnvVars.FitbitAPIURL,
		"FitbitAuthURL": c.EnvVars.FitbitAuthURL,
	} {
		if !govalidator.IsURL(u) {
			return fmt.Errorf("$%s is not a valid URL: %q", name, u)
		}
	}
	if c.EnvVars.OAuthRedirectURL != "" && !govalidator.IsURL(c.EnvVars.OAuthRedirectURL) {
		return fmt.Errorf("$OAuthRedirectURL is not a valid URL: %q", c.EnvVars.OAuthRedirectURL)
	}

	// Requests are only checked against the application id.
	if c.EnvVars.GinMode == "release" && c.EnvVars.SkillID == "" {
		return fmt.Errorf("$SkillID must be set when GIN_MODE is release")
	}

	switch c.EnvVars.SecretsBackend {
	case BackendSSM:
		if c.EnvVars.AWSRegion == "" {
			return fmt.Errorf("$AWSRegion must be set for the %s backend", BackendSSM)
		}
	case BackendS3:
		if c.EnvVars.AWSRegion == "" || c.EnvVars.S3Bucket == "" {
			return fmt.Errorf("$AWSRegion and $S3Bucket must be set for the %s backend", BackendS3)
		}
	case BackendPostgres:
		if c.EnvVars.DatabaseUrl == "" {
			return fmt.Errorf("$DatabaseUrl must be set for the %s backend", BackendPostgres)
		}
	case BackendKeyring:
	default:
		return fmt.Errorf("unknown secrets backend %q", c.EnvVars.SecretsBackend)
	}

	if c.EnvVars.MaxCandidates < 1 {
		return fmt.Errorf("$MaxCandidates must be positive")
	}
	return nil
}

func checkFieldsRecursive(v reflect.Value) error {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := v.Type().Field(i)
		if fieldType.Tag.Get("optional") == "true" {
			continue
		}
		if field.IsZero() {
			return fmt.Errorf("$%s must be set", fieldType.Name)
		}
		if field.Kind() == reflect.Struct {
			if err := checkFieldsRecursive(field); err != nil {
				return err
			}
		}
	}
	return nil
}
