package services

import (
	"sort"
	"strings"

	"ccode/pkg/ccodetypes"
)

// Collection is a named set of profiles with a default pointer. It operates
// directly on the maps of the owning store document, so changes are visible to
// the next Save.
type Collection[T any] struct {
	subject  string
	entries  map[string]T
	def      *string
	validate func(name string, value T) error
}

func newCollection[T any](subject string, entries map[string]T, def *string, validate func(string, T) error) *Collection[T] {
	return &Collection[T]{
		subject:  subject,
		entries:  entries,
		def:      def,
		validate: validate,
	}
}

// Add inserts value under name. The first entry of an empty collection becomes its default.
// Nothing is inserted when validation fails.
func (c *Collection[T]) Add(name string, value T) error {
	if strings.TrimSpace(name) == "" {
		return ccodetypes.InvalidConfig("name", c.subject+" name must not be empty")
	}
	if _, exists := c.entries[name]; exists {
		return ccodetypes.AlreadyExists(c.subject, name)
	}
	if err := c.validate(name, value); err != nil {
		return ccodetypes.WithSubject(err, c.subject, name)
	}

	wasEmpty := len(c.entries) == 0
	c.entries[name] = value
	if wasEmpty {
		*c.def = name
	}
	return nil
}

// Remove deletes name. When it was the default, the lexicographically smallest
// remaining name becomes the default, or the default is cleared if none remain.
func (c *Collection[T]) Remove(name string) error {
	if _, exists := c.entries[name]; !exists {
		return ccodetypes.NotFound(c.subject, name)
	}

	delete(c.entries, name)
	if *c.def == name {
		*c.def = ""
		if names := c.Names(); len(names) > 0 {
			*c.def = names[0]
		}
	}
	return nil
}

// Get returns the entry stored under name.
func (c *Collection[T]) Get(name string) (T, error) {
	value, exists := c.entries[name]
	if !exists {
		var zero T
		return zero, ccodetypes.NotFound(c.subject, name)
	}
	return value, nil
}

// GetDefault returns the default entry and its name.
func (c *Collection[T]) GetDefault() (string, T, error) {
	var zero T
	if *c.def == "" {
		return "", zero, ccodetypes.NoDefaultSet(c.subject)
	}
	value, err := c.Get(*c.def)
	if err != nil {
		return "", zero, err
	}
	return *c.def, value, nil
}

// DefaultName returns the default pointer, empty when unset.
func (c *Collection[T]) DefaultName() string {
	return *c.def
}

// SetDefault points the default at an existing entry.
func (c *Collection[T]) SetDefault(name string) error {
	if _, exists := c.entries[name]; !exists {
		return ccodetypes.NotFound(c.subject, name)
	}
	*c.def = name
	return nil
}

// List returns every entry sorted by name, tagged with whether it is the default.
func (c *Collection[T]) List() []ccodetypes.ProfileEntry[T] {
	names := c.Names()
	list := make([]ccodetypes.ProfileEntry[T], 0, len(names))
	for _, name := range names {
		list = append(list, ccodetypes.ProfileEntry[T]{
			Name:      name,
			Value:     c.entries[name],
			IsDefault: name == *c.def,
		})
	}
	return list
}

// Names returns the entry names in lexicographic order.
func (c *Collection[T]) Names() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entries.
func (c *Collection[T]) Len() int {
	return len(c.entries)
}

// Subject names the kind of entry held, e.g. "router profile".
func (c *Collection[T]) Subject() string {
	return c.subject
}
