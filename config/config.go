package config

import "github.com/kelseyhightower/envconfig"

type Config struct {
	HttpPort      uint16 `envconfig:"MEDSYNC_HTTP_SERVER_PORT" default:"8080" required:"true"`
	AuthSecret    string `envconfig:"MEDSYNC_AUTH_SECRET" required:"true"`
	StunServers   string `envconfig:"MEDSYNC_STUN_SERVERS" default:"stun:stun.l.google.com:19302,stun:stun1.l.google.com:19302"`
	RedisAddress  string `envconfig:"MEDSYNC_REDIS_ADDRESS" default:"localhost:6379"`
	RedisPassword string `envconfig:"MEDSYNC_REDIS_PASSWORD"`
}

func New() *Config {
	return &Config{}
}

func (c *Config) LoadFromEnv() error {
	return envconfig.Process("", c)
}

func NewConfig() (*Config, error) {
	cfg := New()
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}
