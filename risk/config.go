package risk

import "github.com/kelseyhightower/envconfig"

type Config struct {
	Endpoint       string `envconfig:"MEDSYNC_RISK_ENDPOINT" required:"true"`
	ApiKey         string `envconfig:"MEDSYNC_RISK_API_KEY"`
	TimeoutSeconds int    `envconfig:"MEDSYNC_RISK_TIMEOUT_SECONDS" default:"30"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
