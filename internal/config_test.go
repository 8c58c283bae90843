package internal

import (
	"line-chat/errors"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestParseServerConfig_Defaults(t *testing.T) {
	req := require.New(t)

	config, err := ParseServerConfig(env.EnvSet{})

	req.NoError(err)
	req.Equal("0.0.0.0:5050", config.Address())
	req.Equal(10*time.Minute, config.IdleTimeout)
	req.Equal(10*time.Second, config.WriteTimeout)
	req.Equal(5*time.Second, config.ShutdownTimeout)
	req.Equal(65536, config.MaxLineLength)
	req.Equal("/quit", config.QuitCommand)
	req.Equal("INFO", config.LogLevel)
	req.Zero(config.HealthPort)
	req.Zero(config.DebugPort)
	req.Equal(200*time.Millisecond, config.RestartInterval)
	req.Empty(config.CensoredWordList())
}

func TestParseServerConfig_Overrides(t *testing.T) {
	req := require.New(t)

	config, err := ParseServerConfig(env.EnvSet{
		"HOST":           "127.0.0.1",
		"PORT":           "6060",
		"IDLE_TIMEOUT":   "90s",
		"QUIT_COMMAND":   "/종료",
		"CENSORED_WORDS": " badger, ,snake,badger ",
	})

	req.NoError(err)
	req.Equal("127.0.0.1:6060", config.Address())
	req.Equal(90*time.Second, config.IdleTimeout)
	req.Equal("/종료", config.QuitCommand)
	req.Equal([]string{"badger", "snake"}, config.CensoredWordList())
}

func TestParseServerConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		es   env.EnvSet
	}{
		{name: "port out of range", es: env.EnvSet{"PORT": "70000"}},
		{name: "replacement is not one character", es: env.EnvSet{"CHARACTER_REPLACEMENT": "**"}},
		{name: "negative idle timeout", es: env.EnvSet{"IDLE_TIMEOUT": "-1s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseServerConfig(tt.es)
			require.ErrorIs(t, err, errors.ErrInvalidConfig)
		})
	}
}

func TestParseClientConfig(t *testing.T) {
	req := require.New(t)

	config, err := ParseClientConfig(env.EnvSet{})
	req.NoError(err)
	req.Equal("127.0.0.1:5050", config.ServerAddress)
	req.True(config.Colours)
	req.Empty(config.Name)

	config, err = ParseClientConfig(env.EnvSet{"CHAT_SERVER_ADDR": "chat.local:7000", "CHAT_NAME": "alice", "CHAT_COLOURS": "false"})
	req.NoError(err)
	req.Equal("chat.local:7000", config.ServerAddress)
	req.Equal("alice", config.Name)
	req.False(config.Colours)

	_, err = ParseClientConfig(env.EnvSet{"CHAT_SERVER_ADDR": "no-port"})
	req.ErrorIs(err, errors.ErrInvalidConfig)
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)

	r, err := CharacterRune("#")
	req.NoError(err)
	req.Equal('#', r)

	_, err = CharacterRune("")
	req.Error(err)
}
