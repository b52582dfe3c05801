// internal/types/image.go

package types

import (
	"regexp"
	"strings"

	"dockermirror/pkg/utils"
)

// platformPattern reconnaît --platform <valeur> et --platform=<valeur>
var platformPattern = regexp.MustCompile(`--platform[ =](\S+)`)

// ImageEntry représente une ligne de la liste d'images à mirrorer
type ImageEntry struct {
	Line           int    `json:"line"`            // Numéro de ligne dans le fichier source
	Source         string `json:"source"`          // Référence telle qu'écrite (digest inclus)
	Platform       string `json:"platform,omitempty"`
	RepositoryPath string `json:"repository_path"` // Chemin sans tag ni digest
	BaseName       string `json:"base_name"`       // Dernier segment sans tag ni digest
	Namespace      string `json:"namespace"`       // Namespace source, vide si absent
	Tag            string `json:"tag,omitempty"`
	Digest         string `json:"digest,omitempty"`
}

// ParseImageLine analyse une ligne de la liste d'images.
// Retourne false pour les lignes vides et les commentaires.
func ParseImageLine(line string) (ImageEntry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ImageEntry{}, false
	}

	fields := strings.Fields(line)
	entry := ParseReference(fields[len(fields)-1])

	if match := platformPattern.FindStringSubmatch(line); match != nil {
		entry.Platform = match[1]
	}

	return entry, true
}

// ParseReference décompose une référence d'image source
func ParseReference(ref string) ImageEntry {
	entry := ImageEntry{Source: ref}

	name := ref
	if i := strings.Index(name, "@"); i >= 0 {
		entry.Digest = name[i+1:]
		name = name[:i]
	}

	parts := strings.Split(name, "/")
	last := parts[len(parts)-1]
	base, tag, _ := strings.Cut(last, ":")

	entry.BaseName = base
	entry.Tag = tag
	entry.RepositoryPath = name[:len(name)-len(last)] + base

	switch len(parts) {
	case 3:
		entry.Namespace = parts[1]
	case 2:
		entry.Namespace = parts[0]
	}

	return entry
}

// PlatformPrefix retourne le préfixe de plateforme pour le nom de destination
func (e ImageEntry) PlatformPrefix() string {
	if e.Platform == "" {
		return ""
	}
	return utils.SanitizePlatform(e.Platform) + "_"
}

// NameTag retourne le nom de base suivi du tag éventuel
func (e ImageEntry) NameTag() string {
	if e.Tag == "" {
		return e.BaseName
	}
	return e.BaseName + ":" + e.Tag
}

func (e ImageEntry) String() string {
	if e.Platform != "" {
		return e.Source + " (" + e.Platform + ")"
	}
	return e.Source
}
