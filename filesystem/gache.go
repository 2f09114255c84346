package filesystem

import (
	"io"
	"os"
)

// GacheFs lets gache persist its files through the active backend instead of the OS.
type GacheFs struct{}

// OpenFile opens name on the active backend.
func (GacheFs) OpenFile(name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	return API().OpenFile(name, flag, perm)
}

// MkdirAll creates path on the active backend.
func (GacheFs) MkdirAll(path string, perm os.FileMode) error {
	return API().MkdirAll(path, perm)
}
