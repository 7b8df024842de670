package client

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/adamwoolhether/fetchkit/client/errs"
)

// EnvConfig holds client settings read from the environment. With prefix
// "API", BaseURL is read from API_BASE_URL, Token from API_TOKEN and so on.
type EnvConfig struct {
	BaseURL       string        `envconfig:"BASE_URL" validate:"omitempty,url"`
	Token         string        `envconfig:"TOKEN"`
	TokenLocation string        `envconfig:"TOKEN_LOCATION" validate:"omitempty,oneof=query header cookie"`
	TokenProperty string        `envconfig:"TOKEN_PROPERTY"`
	Timeout       time.Duration `envconfig:"TIMEOUT" validate:"gte=0"`
	UserAgent     string        `envconfig:"USER_AGENT"`
	ThrottleRPS   int           `envconfig:"THROTTLE_RPS" validate:"gte=0"`
	ThrottleBurst int           `envconfig:"THROTTLE_BURST" validate:"gte=0"`
	RetryMax      int           `envconfig:"RETRY_MAX" validate:"gte=0"`
	ArrayFormat   string        `envconfig:"ARRAY_FORMAT" validate:"omitempty,oneof=flat brackets indices comma path"`
}

// LoadEnv reads and validates an EnvConfig.
func LoadEnv(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("loading env config: %w", err)
	}

	if err := errs.Validate(cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("validating env config: %w", err)
	}

	return cfg, nil
}
