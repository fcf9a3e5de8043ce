package renewip

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// AppendFile returns a History that appends one address per line to the file at path.
// The file is created on first use and never truncated or rotated.
func AppendFile(path string) (History, error) {
	if path == "" {
		return nil, errors.New("history path cannot be empty")
	}
	return &fileHistory{path: path}, nil
}

type fileHistory struct {
	mu   sync.Mutex
	path string
}

func (h *fileHistory) Append(addr Address) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("unable to open \"%s\": %w", h.path, err)
	}
	if _, err := fmt.Fprintln(f, addr); err != nil {
		f.Close()
		return fmt.Errorf("unable to write to \"%s\": %w", h.path, err)
	}
	return f.Close()
}
