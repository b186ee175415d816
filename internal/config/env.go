package config

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/cotton-web/cotton/internal/errors"
)

// envOverrides are environment variables that override file
// configuration at startup.
type envOverrides struct {
	Host   string `env:"COTTON_HOST"`
	Port   int    `env:"COTTON_PORT"`
	Output string `env:"COTTON_OUTPUT"`
	Bucket string `env:"COTTON_DEPLOY_BUCKET"`
	Region string `env:"COTTON_DEPLOY_REGION"`
}

// ApplyEnv loads a .env file when present and overlays COTTON_*
// environment variables onto the configuration.
func (c *Config) ApplyEnv() error {
	// Missing .env files are fine; a present-but-broken one is not.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return errors.Newf(errors.CategoryConfig, "invalid .env file: %v", err)
	}

	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return errors.Newf(errors.CategoryConfig, "invalid environment override: %v", err)
	}

	if o.Host != "" {
		c.Host = o.Host
		c.Dev.Host = o.Host
	}
	if o.Port != 0 {
		c.Port = o.Port
		c.Dev.Port = o.Port
	}
	if o.Output != "" {
		c.Build.Output = o.Output
	}
	if o.Bucket != "" {
		c.Build.Deploy.Bucket = o.Bucket
	}
	if o.Region != "" {
		c.Build.Deploy.Region = o.Region
	}

	return c.Validate()
}
