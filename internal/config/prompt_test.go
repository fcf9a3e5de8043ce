package config

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect(t *testing.T) {
	var out bytes.Buffer
	cfg, err := NewPrompter(strings.NewReader(answers), &out).Collect()
	require.NoError(t, err)
	assert.Equal(t, wantConfig, cfg)
	assert.Contains(t, out.String(), "Please enter your contract ID: ")
	assert.Contains(t, out.String(), "Please enter your cookie: ")
}

func TestCollectAsksAgainForEmptyAnswers(t *testing.T) {
	in := "Yes\nno\n\n  \n1234567\n89\n\nwassup=abc"
	var out bytes.Buffer
	cfg, err := NewPrompter(strings.NewReader(in), &out).Collect()
	require.NoError(t, err)
	assert.True(t, cfg.PrintAddress)
	assert.False(t, cfg.SaveAddress)
	assert.Equal(t, "1234567", cfg.ContractID)
	assert.Equal(t, "wassup=abc", cfg.Cookie)
	assert.Equal(t, 3, strings.Count(out.String(), "Please enter your contract ID: "))
	assert.Equal(t, 2, strings.Count(out.String(), "Please enter your cookie: "))
}

func TestCollectUnexpectedEOF(t *testing.T) {
	_, err := NewPrompter(strings.NewReader("y\ny\n123\n"), io.Discard).Collect()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestCleanCookie(t *testing.T) {
	tests := map[string]string{
		"a=b; c=d":         "a=b; c=d",
		"Cookie: a=b; c=d": "a=b; c=d",
		"  cookie:a=b  ":   "a=b",
		"COOKIE:   a=b":    "a=b",
		"Cookie:":          "",
		"notacookie: a=b":  "notacookie: a=b",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanCookie(in), in)
	}
}

func TestRestoreWithoutTerminal(t *testing.T) {
	p := NewPrompter(strings.NewReader(answers), io.Discard)
	assert.NoError(t, p.Restore())
}

func TestRestoreCallsSavedState(t *testing.T) {
	p := NewPrompter(strings.NewReader(answers), io.Discard)
	calls := 0
	p.restore = func() error { calls++; return nil }
	require.NoError(t, p.Restore())
	assert.Equal(t, 1, calls)
}
