package main

import (
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=12345" validate:"gte=0,lte=65535"`
	MaxClients           int           `env:"MAX_CLIENTS,default=50" validate:"gte=1"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64" validate:"gte=1"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	HeartbeatInterval    time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
}

var validate = validator.New()

func (c Config) Validate() error {
	return validate.Struct(c)
}
