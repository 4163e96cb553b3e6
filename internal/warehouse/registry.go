package warehouse

import (
	"fmt"
	"sync"
)

var (
	registry = make(map[string]*Dimension)
	order    []string
	mu       sync.RWMutex
)

// Register adds a dimension to the registry. Dimensions load in the order
// they were registered.
func Register(dim *Dimension) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := registry[dim.Name]; !ok {
		order = append(order, dim.Name)
	}
	registry[dim.Name] = dim
}

// Get retrieves a dimension by name.
func Get(name string) (*Dimension, error) {
	mu.RLock()
	defer mu.RUnlock()

	dim, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown dimension: %s", name)
	}
	return dim, nil
}

// List returns all registered dimension names in load order.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, len(order))
	copy(names, order)
	return names
}

// All returns all registered dimensions in load order.
func All() []*Dimension {
	mu.RLock()
	defer mu.RUnlock()

	dims := make([]*Dimension, 0, len(order))
	for _, name := range order {
		dims = append(dims, registry[name])
	}
	return dims
}

// Select resolves names to dimensions, returning them in load order
// regardless of the order requested. No names selects every dimension.
func Select(names ...string) ([]*Dimension, error) {
	if len(names) == 0 {
		return All(), nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, err := Get(n); err != nil {
			return nil, err
		}
		want[n] = true
	}

	var dims []*Dimension
	for _, d := range All() {
		if want[d.Name] {
			dims = append(dims, d)
		}
	}
	return dims, nil
}
