package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR,default=:8080" validate:"required"`
	GRPCAddr        string        `env:"GRPC_ADDR,default=:9090" validate:"required"`
	LogLevel        string        `env:"LOG_LEVEL,default=info" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`

	StoreDriver string `env:"STORE_DRIVER,default=memory" validate:"oneof=memory redis badger"`
	RedisAddr   string `env:"REDIS_ADDR,default=localhost:6379" validate:"required_if=StoreDriver redis,required_if=RelayDriver redis"`
	BadgerPath  string `env:"BADGER_PATH" validate:"required_if=StoreDriver badger"`

	RelayDriver  string `env:"RELAY_DRIVER,default=none" validate:"oneof=none redis nats"`
	RelayChannel string `env:"RELAY_CHANNEL,default=livechat.relay" validate:"required"`
	NatsURL      string `env:"NATS_URL,default=nats://localhost:4222" validate:"required_if=RelayDriver nats"`
	NodeID       string `env:"NODE_ID"`

	EchoToSender         bool          `env:"ECHO_TO_SENDER,default=false"`
	IdleTimeout          time.Duration `env:"IDLE_TIMEOUT,default=90s" validate:"gt=0"`
	SweepInterval        time.Duration `env:"SWEEP_INTERVAL,default=30s" validate:"gt=0"`
	PingInterval         time.Duration `env:"PING_INTERVAL,default=30s" validate:"gt=0,ltfield=IdleTimeout"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s" validate:"gt=0"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64" validate:"gt=0"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=4096" validate:"gt=0"`
	IdentityHeader       string        `env:"IDENTITY_HEADER,default=X-User-ID" validate:"required"`
}

// Load reads the configuration from the environment, after loading the
// given dotenv files when they exist.
func Load(files ...string) (Config, error) {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("godotenv.Load: %w", err)
		}
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("env.UnmarshalFromEnviron: %w", err)
	}

	if cfg.NodeID == "" {
		cfg.NodeID = uuid.NewString()
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validator.Struct: %w", err)
	}

	return cfg, nil
}

// MaxFrameSize bounds inbound websocket frames: content plus envelope fields,
// with room for multi-byte runes.
func (c Config) MaxFrameSize() int64 {
	return int64(c.MaxContentLength)*4 + 4096
}
