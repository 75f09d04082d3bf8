// Package gallery holds the set of enrolled identities a pursuit can lock onto.
//
// A Gallery is built once at startup from a directory of reference images
// (one face per image, file base-name as identity) or from a previously
// pushed database snapshot. After construction it is read-only and safe for
// concurrent use by the recognizer and the control surface.
package gallery

import "slices"

// Descriptor is a fixed-length face embedding produced by an Encoder.
type Descriptor []float32

// Clone returns a copy of the descriptor.
func (d Descriptor) Clone() Descriptor {
	return slices.Clone(d)
}

// Entry is one enrolled identity.
type Entry struct {
	Name       string     `msgpack:"name" json:"name"`
	Descriptor Descriptor `msgpack:"descriptor" json:"-"`
}

// Gallery maps identity names to reference descriptors.
type Gallery struct {
	entries []Entry
	index   map[string]int
}

// New builds a gallery from entries. Later entries with a name already
// present replace the earlier descriptor but keep its position.
func New(entries ...Entry) *Gallery {
	g := &Gallery{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		g.put(e)
	}
	return g
}

func (g *Gallery) put(e Entry) (replaced bool) {
	if i, ok := g.index[e.Name]; ok {
		g.entries[i].Descriptor = e.Descriptor
		return true
	}
	g.index[e.Name] = len(g.entries)
	g.entries = append(g.entries, e)
	return false
}

// Has reports whether name is enrolled.
func (g *Gallery) Has(name string) bool {
	if g == nil {
		return false
	}
	_, ok := g.index[name]
	return ok
}

// Lookup returns the descriptor enrolled under name.
func (g *Gallery) Lookup(name string) (Descriptor, bool) {
	if g == nil {
		return nil, false
	}
	i, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.entries[i].Descriptor, true
}

// Names returns identity names in load order.
func (g *Gallery) Names() []string {
	if g == nil {
		return nil
	}
	names := make([]string, len(g.entries))
	for i, e := range g.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns a copy of the entries in load order.
func (g *Gallery) Entries() []Entry {
	if g == nil {
		return nil
	}
	return slices.Clone(g.entries)
}

// Len returns the number of enrolled identities.
func (g *Gallery) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}
