package device

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/atlanticdynamic/coffeemaker/internal/errz"
	"golang.org/x/sys/unix"
)

// DefaultRoot is where the machine's device nodes live.
const DefaultRoot = "/dev"

// maxValueSize bounds a single read; device values are a few digits.
const maxValueSize = 16

// FileIO accesses endpoints as files below Root, opened non-blocking.
type FileIO struct {
	Root string
}

var _ IO = (*FileIO)(nil)

// NewFileIO returns a FileIO rooted at root, or DefaultRoot when root is empty.
func NewFileIO(root string) *FileIO {
	if root == "" {
		root = DefaultRoot
	}
	return &FileIO{Root: root}
}

func (f *FileIO) path(endpoint string) (string, error) {
	if err := validEndpoint(endpoint); err != nil {
		return "", err
	}
	return filepath.Join(f.Root, endpoint), nil
}

// Read opens endpoint, reads its value and closes it again.
func (f *FileIO) Read(endpoint string) (int, error) {
	path, err := f.path(endpoint)
	if err != nil {
		return 0, err
	}

	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %w", errz.ErrIOFailure, path, err)
	}
	defer unix.Close(fd)

	buf := make([]byte, maxValueSize)
	n, err := unix.Read(fd, buf)
	if err != nil {
		return 0, wrapErrno("read", path, err)
	}
	return parseValue(endpoint, buf[:n])
}

// Write stores value at endpoint. Replace truncates the file first, Queue
// appends.
func (f *FileIO) Write(endpoint, value string, mode WriteMode, block bool) error {
	path, err := f.path(endpoint)
	if err != nil {
		return err
	}

	flags := unix.O_WRONLY | unix.O_CREAT | unix.O_CLOEXEC
	switch mode {
	case Replace:
		flags |= unix.O_TRUNC
	case Queue:
		flags |= unix.O_APPEND
	default:
		return fmt.Errorf("%w: unknown write mode %d", errz.ErrIOFailure, mode)
	}
	if !block {
		flags |= unix.O_NONBLOCK
	}

	fd, err := unix.Open(path, flags, 0o644)
	if err != nil {
		return wrapErrno("open", path, err)
	}
	defer unix.Close(fd)

	if _, err := unix.Write(fd, []byte(value)); err != nil {
		return wrapErrno("write", path, err)
	}
	return nil
}

func wrapErrno(op, path string, err error) error {
	if errors.Is(err, unix.EAGAIN) {
		return fmt.Errorf("%w: %s %s", errz.ErrWouldBlock, op, path)
	}
	return fmt.Errorf("%w: %s %s: %w", errz.ErrIOFailure, op, path, err)
}
