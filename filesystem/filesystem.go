// Package filesystem hides every disk access of the application behind a swappable afero backend.
//
// Configuration files, the rotating log directory and the result cache all go
// through API(), so tests can run against an in-memory tree.
package filesystem

import (
	"sync"

	"github.com/spf13/afero"
)

var (
	mu      sync.RWMutex
	backend = afero.Afero{Fs: afero.NewOsFs()}
)

// API returns the active backend.
func API() afero.Afero {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// SetOsFs restores the native operating system backend.
func SetOsFs() {
	set(afero.NewOsFs())
}

// SetMemMapFs switches to a volatile in-memory backend.
func SetMemMapFs() {
	set(afero.NewMemMapFs())
}

func set(fs afero.Fs) {
	mu.Lock()
	defer mu.Unlock()
	backend = afero.Afero{Fs: fs}
}
