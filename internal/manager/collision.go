// internal/manager/collision.go
package manager

import (
	"dockermirror/internal/types"
)

// DetectCollisions parcourt toute la liste et retourne les noms de base
// utilisés sous au moins deux namespaces source différents.
// Un namespace vide est une valeur comme une autre.
func DetectCollisions(entries []types.ImageEntry) types.CollisionSet {
	firstSeen := make(map[string]string, len(entries))
	collisions := types.NewCollisionSet()

	for _, entry := range entries {
		namespace, ok := firstSeen[entry.BaseName]
		if !ok {
			firstSeen[entry.BaseName] = entry.Namespace
			continue
		}
		if namespace != entry.Namespace {
			collisions.Add(entry.BaseName)
		}
	}

	return collisions
}
