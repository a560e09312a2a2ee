package fileutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ficscrape/ao3fetch/pkg/failure"
)

// EnsureDir check if a given directory plus the following path exist, then create one if not
func EnsureDir(dir string, path ...string) failure.ClassifiedError {
	targetPath := []string{dir}
	targetPath = append(targetPath, path...)

	target := filepath.Join(targetPath...)
	if err := os.MkdirAll(target, 0755); err != nil {
		return &FileError{
			Message:   fmt.Sprintf("%v", err),
			Retryable: false,
			Cause:     ErrCausePathError,
		}
	}
	return nil
}

// WriteOverwrite writes data to dir/name, replacing any previous content.
// The directory is created if it does not exist.
func WriteOverwrite(dir string, name string, data []byte) failure.ClassifiedError {
	if err := EnsureDir(dir); err != nil {
		return err
	}

	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, data, 0644); err != nil {
		return &FileError{
			Message:   fmt.Sprintf("%v", err),
			Retryable: false,
			Cause:     ErrCauseWriteError,
		}
	}
	return nil
}
