//go:build linux

package activity

import (
	"fmt"

	"github.com/atlanticdynamic/coffeemaker/internal/errz"
	"golang.org/x/sys/unix"
)

func lockAllMemory() error {
	if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
		return fmt.Errorf("%w: mlockall: %w", errz.ErrIOFailure, err)
	}
	return nil
}
