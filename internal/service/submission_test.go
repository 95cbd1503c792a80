package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ctf-flag-bot/internal/model"
)

func TestJudge(t *testing.T) {
	ch := &model.Challenge{Name: "web-01", Flag: "flag{exact}"}

	tests := []struct {
		name    string
		attempt string
		want    bool
	}{
		{"exact match", "flag{exact}", true},
		{"surrounding whitespace trimmed", "  flag{exact}\n", true},
		{"case differs", "FLAG{EXACT}", false},
		{"interior whitespace preserved", "flag{ exact }", false},
		{"empty attempt", "", false},
		{"whitespace only", "   ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Judge(ch, tt.attempt))
		})
	}
}

func TestJudge_WhitespaceOnlyFlag(t *testing.T) {
	// A stored flag is compared verbatim; only the attempt is trimmed.
	ch := &model.Challenge{Name: "weird", Flag: " padded "}
	assert.False(t, Judge(ch, " padded "))
}

func TestUnsolvedOf(t *testing.T) {
	all := []string{"alpha", "beta", "gamma"}

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, unsolvedOf(all, nil))
	assert.Equal(t, []string{"alpha", "gamma"}, unsolvedOf(all, []string{"beta"}))
	assert.Empty(t, unsolvedOf(all, all))

	// Solved names outside the catalog (deleted challenges) are ignored
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, unsolvedOf(all, []string{"deleted"}))
}
