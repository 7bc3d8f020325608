//go:build !linux

package activity

import (
	"errors"
	"fmt"
	"runtime"
)

func lockAllMemory() error {
	return fmt.Errorf("memory locking on %s: %w", runtime.GOOS, errors.ErrUnsupported)
}
