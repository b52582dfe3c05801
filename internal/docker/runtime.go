// internal/docker/runtime.go
package docker

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	RuntimeCLI    = "cli"
	RuntimeEngine = "engine"
)

// Runtime expose les capacités du runtime de conteneurs utilisées par le mirroir
type Runtime interface {
	// Login authentifie le runtime auprès du registry de destination.
	// Le mot de passe ne doit jamais apparaître dans les arguments d'un processus.
	Login(ctx context.Context, registry, username, password string) error
	// Pull télécharge une image, pour une plateforme donnée si non vide
	Pull(ctx context.Context, ref, platform string) error
	Tag(ctx context.Context, source, target string) error
	Push(ctx context.Context, ref string) error
	Remove(ctx context.Context, ref string) error
	Close() error
}

// NewRuntime crée le runtime demandé
func NewRuntime(kind, bin string, logger *logrus.Logger) (Runtime, error) {
	switch kind {
	case RuntimeCLI, "":
		rt, err := NewCLIRuntime(bin, logger)
		if err != nil {
			return nil, err
		}
		return rt, nil
	case RuntimeEngine:
		rt, err := NewEngineRuntime(logger)
		if err != nil {
			return nil, err
		}
		return rt, nil
	default:
		return nil, fmt.Errorf("unknown container runtime %q", kind)
	}
}

var (
	_ Runtime = (*CLIRuntime)(nil)
	_ Runtime = (*EngineRuntime)(nil)
)
