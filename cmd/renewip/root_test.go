package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Travis-Britz/renewip"
)

func validSettings() settings {
	return settings{
		ConfigFile:  "renewip.json",
		HistoryFile: "renewip_ips.txt",
		OracleURL:   renewip.DefaultOracleURL,
		Attempts:    renewip.DefaultMaxAttempts,
		Interval:    renewip.DefaultInterval,
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := map[string]struct {
		modify  func(*settings)
		wantErr string
	}{
		"defaults":              {modify: func(s *settings) {}},
		"yaml config":           {modify: func(s *settings) { s.ConfigFile = "renewip.yaml" }},
		"one second interval":   {modify: func(s *settings) { s.Interval = time.Second }},
		"negative attempts":     {modify: func(s *settings) { s.Attempts = -1 }, wantErr: "attempts cannot be negative"},
		"unitless interval":     {modify: func(s *settings) { s.Interval = 5 }, wantErr: "interval must be at least 1s"},
		"zero interval":         {modify: func(s *settings) { s.Interval = 0 }, wantErr: "interval must be at least 1s"},
		"negative unreachable":  {modify: func(s *settings) { s.MaxUnreachable = -1 }, wantErr: "max-unreachable cannot be negative"},
		"unsupported extension": {modify: func(s *settings) { s.ConfigFile = "renewip.conf" }, wantErr: "invalid config path"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := validSettings()
			tt.modify(&s)
			err := s.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestExecuteRejectsUnitlessIntervalFromEnv(t *testing.T) {
	t.Setenv("RENEWIP_INTERVAL", "5")
	var out bytes.Buffer
	code := execute(strings.NewReader(""), &out, nil)
	assert.Equal(t, exitError, code)
	assert.Contains(t, out.String(), "interval must be at least 1s")
}

type blockingLoader struct{ release chan struct{} }

func (l blockingLoader) LoadConfiguration() (renewip.Configuration, error) {
	<-l.release
	return renewip.Configuration{}, errors.New("released")
}

func TestLoadConfigurationCancelled(t *testing.T) {
	loader := blockingLoader{release: make(chan struct{})}
	defer close(loader.release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	restored := false
	_, err := loadConfiguration(ctx, loader, func() { restored = true })

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, restored, "the terminal is restored when input is abandoned")
}

func TestLoadConfigurationCompleted(t *testing.T) {
	loader := loaderFunc(func() (renewip.Configuration, error) {
		return renewip.Configuration{ContractID: "1"}, nil
	})
	restored := false
	cfg, err := loadConfiguration(context.Background(), loader, func() { restored = true })

	require.NoError(t, err)
	assert.Equal(t, "1", cfg.ContractID)
	assert.False(t, restored)
}

type loaderFunc func() (renewip.Configuration, error)

func (f loaderFunc) LoadConfiguration() (renewip.Configuration, error) { return f() }
