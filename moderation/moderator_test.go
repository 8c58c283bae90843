package moderation

import (
	"line-chat/contract"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// Censored words are chat abuse vocabulary long enough to never hide inside
// ordinary words once spaces and punctuation are stripped.
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mod, err := NewModerator([]string{"spam", "scam", "phishing"}, replacementChar, log)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{"Masks a word and keeps the line around it", "buy now spam inside", "buy now **** inside", []string{"spam"}},
		{"Every occurrence is reported", "spam spam", "**** ****", []string{"spam", "spam"}},
		{"Leet speak", "that is a $c4m", "that is a ****", []string{"scam"}},
		// p.h.1.s.h.1.n.g spans 15 runes, dots included
		{"Dots between letters", "p.h.1.s.h.1.n.g link", "*************** link", []string{"phishing"}},
		{"Uppercase and dashes", "S-P-A-M or SCAM", "******* or ****", []string{"spam", "scam"}},
		{"Hangul around a match", "안녕 spam 친구", "안녕 **** 친구", []string{"spam"}},
		{"Accented neighbours", "Un été sans scam", "Un été sans ****", []string{"scam"}},
		{"Trailing punctuation is kept", "No more scam!", "No more ****!", []string{"scam"}},
		{"Nothing to censor", "Line-Chat is amazing", "Line-Chat is amazing", nil},
		{"Empty line", "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, words := mod.Censor(tt.input)
			require.Equal(t, tt.expected, content)
			require.Equal(t, tt.words, words)
		})
	}
}

func TestModerator_Ignores_Punctuation_Only_Words(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given a word list polluted with punctuation
	mod, err := NewModerator([]string{"...", ",,,", "", "spam"}, replacementChar, log)
	req.NoError(err)

	// When a line carries the real word, it is masked
	content, words := mod.Censor("The spam is gone")
	req.Equal("The **** is gone", content)
	req.Equal([]string{"spam"}, words)

	// When a line only carries punctuation, it goes through untouched
	content, words = mod.Censor("Hello ...")
	req.Equal("Hello ...", content)
	req.Nil(words)
}

func TestModerator_No_Words_Lets_Everything_Through(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given only words that normalize to nothing
	mod, err := NewModerator([]string{"", "  ", "?."}, replacementChar, log)
	req.NoError(err)

	// Then the moderator is usable as a censor and changes nothing
	var censor contract.ICensor = mod
	content, words := censor.Censor("The spam is safe")
	req.Equal("The spam is safe", content)
	req.Nil(words)
}
