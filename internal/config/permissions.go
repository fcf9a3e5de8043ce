package config

import (
	"fmt"
	"io/fs"
	"os"
)

// PermissionError reports a secrets file that other users can read or write.
type PermissionError struct {
	Path  string
	Found fs.FileMode
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("invalid permissions for \"%s\": expected file permissions \"-rw-------\"; found \"%s\"", e.Path, e.Found)
}

// CheckPermissions returns a *PermissionError unless the file at path is private to its owner.
// Read-only 0400 is accepted as well as 0600.
func CheckPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error checking permissions: %w", err)
	}
	if perms := info.Mode().Perm(); perms != 0600 && perms != 0400 {
		return &PermissionError{Path: path, Found: perms}
	}
	return nil
}
