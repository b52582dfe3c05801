package types

import "sort"

// CollisionSet contient les noms de base utilisés par plusieurs namespaces source
type CollisionSet map[string]struct{}

func NewCollisionSet() CollisionSet {
	return make(CollisionSet)
}

// Add est idempotent
func (s CollisionSet) Add(name string) {
	s[name] = struct{}{}
}

func (s CollisionSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s CollisionSet) Len() int {
	return len(s)
}

// Names retourne les noms en collision triés
func (s CollisionSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
