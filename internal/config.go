package internal

import (
	"fmt"
	"line-chat/errors"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

var validate = validator.New()

type ServerConfig struct {
	Host            string        `env:"HOST,default=0.0.0.0"`
	Port            int           `env:"PORT,default=5050" validate:"gte=0,lte=65535"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT,default=10m" validate:"gte=0"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT,default=10s" validate:"gte=0"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s" validate:"gte=0"`
	MaxLineLength   int           `env:"MAX_LINE_LENGTH,default=65536" validate:"gte=0"`
	QuitCommand     string        `env:"QUIT_COMMAND,default=/quit" validate:"required"`
	CensoredWords   string        `env:"CENSORED_WORDS"`
	CharReplacement string        `env:"CHARACTER_REPLACEMENT,default=*" validate:"required"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO" validate:"required"`
	HealthPort      int           `env:"HEALTH_PORT,default=0" validate:"gte=0,lte=65535"`
	DebugPort       int           `env:"DEBUG_PORT,default=0" validate:"gte=0,lte=65535"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=30s" validate:"gt=0"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
}

type ClientConfig struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=127.0.0.1:5050" validate:"required,hostname_port"`
	Name          string `env:"CHAT_NAME"`
	QuitCommand   string `env:"QUIT_COMMAND,default=/quit" validate:"required"`
	Colours       bool   `env:"CHAT_COLOURS,default=true"`
	LogLevel      string `env:"LOG_LEVEL,default=WARN" validate:"required"`
}

// LoadServerConfig reads an optional .env file then the environment.
func LoadServerConfig() (ServerConfig, error) {
	_ = godotenv.Load()
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return ServerConfig{}, fmt.Errorf("config error: %w", err)
	}
	return ParseServerConfig(es)
}

func ParseServerConfig(es env.EnvSet) (ServerConfig, error) {
	var config ServerConfig
	if err := env.Unmarshal(es, &config); err != nil {
		return ServerConfig{}, fmt.Errorf("config error: %w", err)
	}
	return config, config.Validate()
}

// LoadClientConfig reads an optional .env file then the environment.
func LoadClientConfig() (ClientConfig, error) {
	_ = godotenv.Load()
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return ClientConfig{}, fmt.Errorf("config error: %w", err)
	}
	return ParseClientConfig(es)
}

func ParseClientConfig(es env.EnvSet) (ClientConfig, error) {
	var config ClientConfig
	if err := env.Unmarshal(es, &config); err != nil {
		return ClientConfig{}, fmt.Errorf("config error: %w", err)
	}
	return config, config.Validate()
}

func (c ServerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err)
	}
	if _, err := CharacterRune(c.CharReplacement); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err)
	}
	return nil
}

func (c ClientConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err)
	}
	return nil
}

func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// CensoredWordList splits CENSORED_WORDS on commas, dropping blanks and duplicates.
func (c ServerConfig) CensoredWordList() []string {
	words := lo.Map(strings.Split(c.CensoredWords, ","), func(word string, _ int) string {
		return strings.TrimSpace(word)
	})
	return lo.Uniq(lo.Compact(words))
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
