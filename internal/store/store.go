// Package store implements the scoped key-value store described by the
// configuration model: three entity kinds (options, toolchains, targets),
// each a mapping from (entity, attribute) to a scalar or space-joined list
// value.
package store

import (
	"sort"
	"strings"
	"sync"
)

// Kind names one of the three entity namespaces the store keeps distinct.
type Kind string

const (
	Options    Kind = "options"
	Toolchains Kind = "toolchains"
	Targets    Kind = "targets"
)

// RootScope is the sentinel target name denoting root scope: root-level
// add_* calls apply to every target by concatenation at read time.
const RootScope = ""

// Store is the process-wide configuration store. Every method takes its
// lock, so concurrent reads and writes are safe; the configurator itself
// (including the option prober) uses it from a single goroutine.
type Store struct {
	mu      sync.RWMutex
	values  map[Kind]map[string]map[string]string
	order   map[Kind][]string
	present map[Kind]map[string]bool
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		values:  make(map[Kind]map[string]map[string]string),
		order:   make(map[Kind][]string),
		present: make(map[Kind]map[string]bool),
	}
}

func (s *Store) ensure(kind Kind, name string) map[string]string {
	if s.values[kind] == nil {
		s.values[kind] = make(map[string]map[string]string)
	}
	if s.present[kind] == nil {
		s.present[kind] = make(map[string]bool)
	}
	if !s.present[kind][name] {
		s.present[kind][name] = true
		s.order[kind] = append(s.order[kind], name)
		s.values[kind][name] = make(map[string]string)
	}
	return s.values[kind][name]
}

// Declare registers an entity name within a kind, even if no attribute is
// ever set on it. First-occurrence order is preserved by EntityNames.
func (s *Store) Declare(kind Kind, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(kind, name)
}

// Set assigns a scalar attribute, replacing any previous value.
func (s *Store) Set(kind Kind, name, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(kind, name)[key] = value
}

// Append concatenates token onto the space-joined list attribute key,
// preserving order and tolerating an unset starting value.
func (s *Store) Append(kind Kind, name, key, token string) {
	if token == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	attrs := s.ensure(kind, name)
	if cur, ok := attrs[key]; ok && cur != "" {
		attrs[key] = cur + " " + token
	} else {
		attrs[key] = token
	}
}

// AppendAll appends every token in tokens, in order.
func (s *Store) AppendAll(kind Kind, name, key string, tokens []string) {
	for _, t := range tokens {
		s.Append(kind, name, key, t)
	}
}

// Get reads a scalar attribute. For target attributes, the root-scope value
// is prepended when both root scope and the named target set the key,
// unless name is already RootScope.
func (s *Store) Get(kind Kind, name, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(kind, name, key)
}

func (s *Store) get(kind Kind, name, key string) (string, bool) {
	own, ownOK := s.rawGet(kind, name, key)
	if kind != Targets || name == RootScope {
		return own, ownOK
	}
	root, rootOK := s.rawGet(kind, RootScope, key)
	switch {
	case rootOK && ownOK:
		if root == "" {
			return own, true
		}
		if own == "" {
			return root, true
		}
		return root + " " + own, true
	case rootOK:
		return root, true
	default:
		return own, ownOK
	}
}

func (s *Store) rawGet(kind Kind, name, key string) (string, bool) {
	byName, ok := s.values[kind]
	if !ok {
		return "", false
	}
	attrs, ok := byName[name]
	if !ok {
		return "", false
	}
	v, ok := attrs[key]
	return v, ok
}

// GetOverride reads a scalar attribute with override semantics: the
// entity's own value wins when set; otherwise, for target attributes, the
// root-scope value is returned verbatim with no concatenation. This is the
// right accessor for structural/scalar fields (kind, filename, version, ...)
// where "prepend root" would corrupt a single value; GetList's list-style
// prepend remains correct for flag-like attributes.
func (s *Store) GetOverride(kind Kind, name, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if own, ok := s.rawGet(kind, name, key); ok {
		return own, true
	}
	if kind == Targets && name != RootScope {
		if root, ok := s.rawGet(kind, RootScope, key); ok {
			return root, true
		}
	}
	return "", false
}

// GetList reads a list attribute, splitting on whitespace and dropping
// empty tokens. Callers must tolerate this: list order is preserved,
// duplicates are not removed here.
func (s *Store) GetList(kind Kind, name, key string) []string {
	v, _ := s.Get(kind, name, key)
	return splitList(v)
}

func splitList(v string) []string {
	fields := strings.Fields(v)
	out := make([]string, 0, len(fields))
	out = append(out, fields...)
	return out
}

// EntityNames returns entity names for a kind in first-occurrence order.
func (s *Store) EntityNames(kind Kind) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order[kind]))
	copy(out, s.order[kind])
	return out
}

// Exists reports whether an entity has been declared.
func (s *Store) Exists(kind Kind, name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.present[kind][name]
}

// Attributes returns a copy of every attribute set directly on name (no
// root-scope prepension), for diagnostics dumps. The map is unordered; use
// SortedKeys for a deterministic key order.
func (s *Store) Attributes(kind Kind, name string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attrs, ok := s.values[kind][name]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

// SortedKeys is a small helper for deterministic diagnostics output.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
