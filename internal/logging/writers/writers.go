// Package writers resolves the log_output setting into a writer.
package writers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the kind of destination a log output names.
type Kind string

const (
	KindStdout Kind = "stdout"
	KindStderr Kind = "stderr"
	KindFile   Kind = "file"
)

const fileScheme = "file://"

// CreateWriter creates an io.Writer for output:
//   - "stdout" or "-" writes to os.Stdout
//   - "stderr" or "" writes to os.Stderr
//   - "file:///var/log/coffeemaker.log" or any path containing a separator
//     appends to that file, creating parent directories
func CreateWriter(output string) (io.Writer, error) {
	switch ParseKind(output) {
	case KindStdout:
		return os.Stdout, nil
	case KindStderr:
		return os.Stderr, nil
	}
	if !isFilePath(output) {
		return nil, fmt.Errorf("unsupported output format: %s", output)
	}
	return createFileWriter(strings.TrimPrefix(output, fileScheme))
}

// ParseKind classifies output without opening anything.
func ParseKind(output string) Kind {
	switch output {
	case "stdout", "-":
		return KindStdout
	case "", "stderr":
		return KindStderr
	default:
		return KindFile
	}
}

func isFilePath(path string) bool {
	if strings.HasPrefix(path, fileScheme) {
		return true
	}
	if strings.Contains(path, "://") {
		return false
	}
	return strings.ContainsRune(path, '/') || strings.ContainsRune(path, filepath.Separator)
}

func createFileWriter(filePath string) (io.Writer, error) {
	dir := filepath.Dir(filePath)
	if dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	return file, nil
}
