package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_SERVER_ADDR targets a running chat server; empty starts one in-process
	ServerAddr  string        `envconfig:"E2E_SERVER_ADDR"`
	QuitCommand string        `envconfig:"E2E_QUIT_COMMAND" default:"/quit"`
	Timeout     time.Duration `envconfig:"E2E_TIMEOUT" default:"5s"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
