// Package storage holds the durable key-value store the launcher keeps its
// placement flags in.
package storage

// Store is a flat key-value store of boolean flags.
type Store interface {
	// Get returns a value for every key in defaults, substituting the
	// default for keys that have never been written.
	Get(defaults map[string]bool) (map[string]bool, error)
	// Set writes the given keys and leaves all other keys untouched.
	Set(values map[string]bool) error
}
