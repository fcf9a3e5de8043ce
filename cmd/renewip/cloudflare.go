package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Travis-Britz/renewip"
	"github.com/Travis-Britz/renewip/internal/config"
)

func defaultKeyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cloudflare"
	}
	return filepath.Join(home, ".cloudflare")
}

// newCloudflarePublisher reads the API token from keyFile, which must be private to its owner,
// and returns a Publisher for record.
func newCloudflarePublisher(keyFile, record string) (renewip.Publisher, error) {
	if err := config.CheckPermissions(keyFile); err != nil {
		return nil, fmt.Errorf("refusing to use cloudflare key: %w", err)
	}
	key, err := readKey(keyFile)
	if err != nil {
		return nil, err
	}
	publisher, err := renewip.UsingCloudflare(key, record)
	if err != nil {
		return nil, fmt.Errorf("error creating DNS publisher: %w", err)
	}
	return publisher, nil
}

// readKey returns the first line of the key file. Anything after it is ignored.
func readKey(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("error reading cloudflare key: %w", err)
	}
	line, _, _ := strings.Cut(string(b), "\n")
	key := strings.TrimSpace(line)
	if key == "" {
		return "", errors.New("cloudflare key file is empty")
	}
	return key, nil
}
