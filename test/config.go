package test

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// TEST_MAX_CLIENTS caps concurrent sessions in the integration server
	MaxClients int `envconfig:"TEST_MAX_CLIENTS" default:"8"`
	// TEST_BUFFER_SIZE sizes the per-connection outbound queue
	BufferSize   int           `envconfig:"TEST_BUFFER_SIZE" default:"64"`
	WriteTimeout time.Duration `envconfig:"TEST_WRITE_TIMEOUT" default:"2s"`
	ReadTimeout  time.Duration `envconfig:"TEST_READ_TIMEOUT" default:"2s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
