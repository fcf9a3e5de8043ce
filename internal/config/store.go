// Package config persists the operator's Configuration and collects it interactively when it is missing.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Travis-Britz/renewip"
)

const (
	keyPrintIP    = "print_ip"
	keySaveIP     = "save_ip"
	keyContractID = "contract_id"
	keyDeviceID   = "device_id"
	keyCookie     = "cookie"
)

var requiredKeys = []string{keyPrintIP, keySaveIP, keyContractID, keyDeviceID, keyCookie}

// formats maps the accepted file extensions to the viper config type used for both reading and writing.
// A path without an extension is stored as JSON.
var formats = map[string]string{
	"":      "json",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
}

// Format returns the config type for path, or an error when its extension is not supported.
func Format(path string) (string, error) {
	ext := filepath.Ext(path)
	if ext == filepath.Base(path) {
		ext = ""
	}
	format, ok := formats[ext]
	if !ok {
		return "", fmt.Errorf("unsupported configuration file extension %q (use .json, .yaml, .yml or .toml)", ext)
	}
	return format, nil
}

var (
	ErrNotFound   = errors.New("configuration file does not exist")
	ErrInvalid    = errors.New("configuration file is invalid")
	ErrNoPrompter = errors.New("configuration is missing and cannot be collected interactively")
)

// Store reads the Configuration from a JSON, YAML, or TOML file chosen by extension,
// falling back to the Prompter when the file is absent, unreadable, or incomplete.
//
// Store implements renewip.ConfigLoader.
type Store struct {
	path     string
	prompter *Prompter
	logger   *zap.Logger

	// Reconfigure skips the file and always collects a fresh Configuration.
	Reconfigure bool
}

// NewStore returns a Store for the file at path. prompter may be nil,
// in which case a missing file is an error.
func NewStore(path string, prompter *Prompter, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, prompter: prompter, logger: logger}
}

func (s *Store) Path() string { return s.path }

// LoadConfiguration implements renewip.ConfigLoader.
func (s *Store) LoadConfiguration() (renewip.Configuration, error) {
	// fail before asking anything that could not be saved
	if _, err := Format(s.path); err != nil {
		return renewip.Configuration{}, err
	}
	if !s.Reconfigure {
		cfg, err := s.Read()
		if err == nil {
			return cfg, nil
		}
		s.logger.Info("configuration not usable, collecting it interactively", zap.String("path", s.path), zap.Error(err))
	}

	if s.prompter == nil {
		return renewip.Configuration{}, ErrNoPrompter
	}
	cfg, err := s.prompter.Collect()
	if err != nil {
		return renewip.Configuration{}, fmt.Errorf("collecting configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return renewip.Configuration{}, fmt.Errorf("collected configuration is invalid: %w", err)
	}
	if err := s.Save(cfg); err != nil {
		return renewip.Configuration{}, err
	}
	return cfg, nil
}

// Read loads and validates the configuration file.
// It never returns a partially filled Configuration.
func (s *Store) Read() (renewip.Configuration, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return renewip.Configuration{}, ErrNotFound
	} else if err != nil {
		return renewip.Configuration{}, fmt.Errorf("error checking \"%s\": %w", s.path, err)
	}
	format, err := Format(s.path)
	if err != nil {
		return renewip.Configuration{}, err
	}
	s.verifyPermissions()

	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType(format)
	if err := v.ReadInConfig(); err != nil {
		return renewip.Configuration{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	var missing []error
	for _, k := range requiredKeys {
		if !v.IsSet(k) {
			missing = append(missing, fmt.Errorf("%s is missing", k))
		}
	}
	if len(missing) > 0 {
		return renewip.Configuration{}, fmt.Errorf("%w: %w", ErrInvalid, errors.Join(missing...))
	}

	var cfg renewip.Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return renewip.Configuration{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return renewip.Configuration{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	s.logger.Debug("configuration loaded", zap.String("path", s.path), zap.Any("config", cfg.Redacted()))
	return cfg, nil
}

// Save writes cfg to the store's file, readable by the owner only since it contains a session cookie.
func (s *Store) Save(cfg renewip.Configuration) error {
	format, err := Format(s.path)
	if err != nil {
		return err
	}
	v := viper.New()
	v.SetConfigType(format)
	v.SetConfigPermissions(0600)
	v.Set(keyPrintIP, cfg.PrintAddress)
	v.Set(keySaveIP, cfg.SaveAddress)
	v.Set(keyContractID, cfg.ContractID)
	v.Set(keyDeviceID, cfg.DeviceID)
	v.Set(keyCookie, cfg.Cookie)

	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("unable to write \"%s\": %w", s.path, err)
	}
	// WriteConfigAs keeps the mode of an existing file
	if err := os.Chmod(s.path, 0600); err != nil {
		return fmt.Errorf("unable to restrict permissions of \"%s\": %w", s.path, err)
	}
	s.logger.Info("configuration saved", zap.String("path", s.path))
	return nil
}

// verifyPermissions warns when the file holding the cookie is readable by others.
func (s *Store) verifyPermissions() {
	var perr *PermissionError
	if err := CheckPermissions(s.path); errors.As(err, &perr) {
		s.logger.Warn("configuration file is readable by other users",
			zap.String("path", s.path),
			zap.String("expected", "-rw-------"),
			zap.Stringer("found", perr.Found))
	}
}
