package backend

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/filterpipe/render"
)

// registry holds registered device factories.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]DeviceFactory)
	// Priority order for device selection (first available wins).
	// A registered GPU device beats the CPU fallback.
	devicePriority = []string{NameWGPU, NameSoftware}
)

// Register registers a device factory with the given name.
// This is typically called from init() functions in backend packages.
// If a factory with the same name is already registered, it is replaced.
func Register(name string, factory DeviceFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a factory from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered device names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a device with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Get creates the named device.
func Get(name string, width, height int) (render.Device, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	return factory(width, height)
}

// Default creates the best available device based on priority, falling
// back to any registered device in name order.
func Default(width, height int) (render.Device, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	names := Available()
	ordered := make([]string, 0, len(names))
	for _, name := range devicePriority {
		if IsRegistered(name) {
			ordered = append(ordered, name)
		}
	}
	ordered = append(ordered, names...)

	var lastErr error
	for _, name := range ordered {
		dev, err := Get(name, width, height)
		if err == nil && dev != nil {
			render.Logger().Debug("backend: selected device", "name", name)
			return dev, nil
		}
		if err != nil {
			render.Logger().Warn("backend: device unavailable", "name", name, "err", err)
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrBackendNotAvailable
}

// MustDefault returns the default device or panics.
func MustDefault(width, height int) render.Device {
	dev, err := Default(width, height)
	if err != nil {
		panic(fmt.Sprintf("backend: no device available: %v", err))
	}
	return dev
}
