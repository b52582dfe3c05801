// pkg/utils/utils.go
package utils

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Image name helpers
// ------------------

// SanitizePlatform remplace les "/" d'une plateforme pour l'utiliser dans un nom d'image
func SanitizePlatform(platform string) string {
	return strings.ReplaceAll(platform, "/", "_")
}

// ShortenID garde les 8 premiers caractères d'un identifiant d'exécution
func ShortenID(id string) string {
	const short = 8
	if len(id) <= short {
		return id
	}
	return id[:short]
}

// MaskSecret masque une valeur sensible pour l'affichage
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return strings.Repeat("*", 8)
}

// Output helpers
// --------------

// PrettyJSON retourne v en JSON indenté, ou le message d'erreur
func PrettyJSON(v interface{}) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("error marshaling JSON: %v", err)
	}
	return string(out)
}

// Time helpers
// -----------

// timeLayouts liste les formats rencontrés dans la base (sqlite par défaut, puis RFC3339)
var timeLayouts = []string{
	time.DateTime,
	time.RFC3339Nano,
}

// ParseTime accepte les dates écrites par sqlite ou au format RFC3339
func ParseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse time: %q", value)
}

// ParseDay lit une date YYYY-MM-DD comme minuit heure locale
func ParseDay(value string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", value)
	}
	return t, nil
}
