package datacontainer

import "slices"

// ordered is a string-keyed map that remembers insertion order.
type ordered[V any] struct {
	keys  []string
	items map[string]V
}

func newOrdered[V any]() ordered[V] {
	return ordered[V]{items: make(map[string]V)}
}

func (o *ordered[V]) get(key string) (V, bool) {
	v, ok := o.items[key]
	return v, ok
}

// set stores v under key. A new key is appended; an existing key keeps its
// position.
func (o *ordered[V]) set(key string, v V) {
	if _, ok := o.items[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.items[key] = v
}

func (o *ordered[V]) remove(key string) (V, bool) {
	v, ok := o.items[key]
	if !ok {
		return v, false
	}
	delete(o.items, key)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool { return k == key })
	return v, true
}

// rename moves the value under from to to, keeping its position.
func (o *ordered[V]) rename(from, to string) bool {
	v, ok := o.items[from]
	if !ok {
		return false
	}
	delete(o.items, from)
	o.items[to] = v
	o.keys[slices.Index(o.keys, from)] = to
	return true
}

func (o *ordered[V]) values() []V {
	out := make([]V, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, o.items[k])
	}
	return out
}

func (o *ordered[V]) names() []string {
	return slices.Clone(o.keys)
}

func (o *ordered[V]) len() int {
	return len(o.keys)
}

func (o *ordered[V]) clone(fn func(V) V) ordered[V] {
	c := ordered[V]{keys: slices.Clone(o.keys), items: make(map[string]V, len(o.items))}
	for k, v := range o.items {
		c.items[k] = fn(v)
	}
	return c
}
