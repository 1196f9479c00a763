package gpu

import (
	"fmt"
	"sort"
	"sync"
)

var (
	sourcesMu sync.RWMutex
	sources   = make(map[string]string)
)

// RegisterSource makes a GLSL compute source available under name. Packages
// owning kernels call it from init. It panics if name is registered twice.
func RegisterSource(name, glsl string) {
	sourcesMu.Lock()
	defer sourcesMu.Unlock()
	if _, dup := sources[name]; dup {
		panic(fmt.Sprintf("gpu: RegisterSource called twice for %q", name))
	}
	sources[name] = glsl
}

// Source returns the GLSL source registered under name.
func Source(name string) (string, bool) {
	sourcesMu.RLock()
	defer sourcesMu.RUnlock()
	src, ok := sources[name]
	return src, ok
}

// Sources returns the sorted names of all registered sources.
func Sources() []string {
	sourcesMu.RLock()
	defer sourcesMu.RUnlock()
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
