// internal/manager/rewrite.go
package manager

import (
	"strings"

	"dockermirror/internal/config"
	"dockermirror/internal/types"
)

// Destination compose la référence de destination d'une entrée:
// {registry}/{namespace}/{plateforme_}{namespace source_}{nom}{:tag}.
// Le préfixe de namespace source n'est ajouté que pour les noms en collision.
func Destination(target config.Target, entry types.ImageEntry, collisions types.CollisionSet) string {
	var b strings.Builder

	b.WriteString(target.Registry)
	b.WriteByte('/')
	b.WriteString(target.Namespace)
	b.WriteByte('/')
	b.WriteString(entry.PlatformPrefix())

	if entry.Namespace != "" && collisions.Has(entry.BaseName) {
		b.WriteString(entry.Namespace)
		b.WriteByte('_')
	}

	b.WriteString(entry.NameTag())
	return b.String()
}
