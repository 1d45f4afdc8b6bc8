package server

import (
	"time"

	"github.com/joeshaw/envdecode"
)

// Config holds the server's environment-driven settings
type Config struct {
	Addr           string        `env:"PALACE_ADDR,default=:8000"`
	BotDelay       time.Duration `env:"PALACE_BOT_DELAY,default=1s"`
	AllowedOrigins string        `env:"PALACE_ALLOWED_ORIGINS,default=*"`
}

// LoadConfig reads the configuration from the environment
func LoadConfig() (Config, error) {
	var cfg Config
	err := envdecode.Decode(&cfg)
	return cfg, err
}
