package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountRunes(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"ascii", "hello", 5},
		{"chinese", "估值合理", 4},
		{"mixed", "NVDA利好🟢", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountRunes(tt.text))
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxRunes int
		suffix   string
		want     string
	}{
		{"shorter than budget", "short", 10, "...", "short"},
		{"exactly at budget", "12345", 5, "...", "12345"},
		{"over budget", "1234567890", 5, "...", "12345..."},
		{"chinese over budget", "估值合理无明显偏离", 4, "...", "估值合理..."},
		{"zero budget", "anything", 0, "...", ""},
		{"no suffix", "1234567890", 5, "", "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateRunes(tt.text, tt.maxRunes, tt.suffix))
		})
	}
}
