package backend

import (
	"sync"

	speedy "github.com/balarayen/speedy-vision"
)

// EncoderFactory creates a new encoder instance.
type EncoderFactory func() speedy.Encoder

// registry holds registered encoder backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]EncoderFactory)
	// Priority order for backend selection (first available wins).
	// Native > Software (native uses the GPU, software is the fallback).
	backendPriority = []string{BackendNative, BackendSoftware}
)

// Register registers an encoder factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory EncoderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns a list of registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get returns an encoder instance by name.
// Returns nil if the backend is not registered.
func Get(name string) speedy.Encoder {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := backends[name]
	if !ok {
		return nil
	}
	return factory()
}

// Default returns the best available encoder based on priority.
// Priority order: native > software
// Returns nil if no backends are registered.
func Default() speedy.Encoder {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range backendPriority {
		if factory, ok := backends[name]; ok {
			e := factory()
			if e != nil {
				return e
			}
		}
	}

	// Fallback: return first available
	for _, factory := range backends {
		if e := factory(); e != nil {
			return e
		}
	}

	return nil
}

// MustDefault returns the default encoder or panics.
func MustDefault() speedy.Encoder {
	e := Default()
	if e == nil {
		panic("backend: no backend available")
	}
	return e
}

// NewPipeline builds a pipeline on the default encoder. This is the usual
// entry point for callers that do not care which backend runs the encoding.
func NewPipeline(opts ...speedy.Option) (*speedy.Pipeline, error) {
	e := Default()
	if e == nil {
		return nil, ErrBackendNotAvailable
	}
	return speedy.NewPipeline(e, opts...)
}

func init() {
	Register(BackendSoftware, func() speedy.Encoder {
		return NewSoftwareEncoder()
	})
}
