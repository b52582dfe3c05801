// internal/docker/engine.go
package docker

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/sirupsen/logrus"
)

// EngineRuntime pilote le démon Docker via l'API Engine
type EngineRuntime struct {
	cli    *client.Client
	auth   string // Authentification encodée pour les push
	logger *logrus.Logger
}

// NewEngineRuntime crée une nouvelle instance du client Docker
func NewEngineRuntime(logger *logrus.Logger) (*EngineRuntime, error) {
	logger.Debug("Creating new Docker client...")

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	// Test connection
	if _, err := cli.Ping(context.Background()); err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to connect to Docker daemon: %w", err)
	}

	logger.Debug("Successfully connected to Docker daemon")

	return &EngineRuntime{
		cli:    cli,
		logger: logger,
	}, nil
}

// Close ferme le client Docker
func (e *EngineRuntime) Close() error {
	return e.cli.Close()
}

// Login vérifie les identifiants auprès du démon et les garde pour les push.
// Le mot de passe transite dans le corps de la requête API.
func (e *EngineRuntime) Login(ctx context.Context, registryHost, username, password string) error {
	authConfig := registry.AuthConfig{
		Username:      username,
		Password:      password,
		ServerAddress: registryHost,
	}

	if _, err := e.cli.RegistryLogin(ctx, authConfig); err != nil {
		return fmt.Errorf("registry login failed: %w", err)
	}

	encoded, err := registry.EncodeAuthConfig(authConfig)
	if err != nil {
		return fmt.Errorf("failed to encode registry auth: %w", err)
	}
	e.auth = encoded
	return nil
}

// Pull télécharge une image et attend la fin du flux de progression
func (e *EngineRuntime) Pull(ctx context.Context, ref, platform string) error {
	e.logger.Debugf("Starting pull for image: %s", ref)

	reader, err := e.cli.ImagePull(ctx, ref, image.PullOptions{Platform: platform})
	if err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}
	defer reader.Close()

	if err := drainStream(reader); err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}

	e.logger.Debug("Pull completed successfully")
	return nil
}

func (e *EngineRuntime) Tag(ctx context.Context, source, target string) error {
	if err := e.cli.ImageTag(ctx, source, target); err != nil {
		return fmt.Errorf("tag failed: %w", err)
	}
	return nil
}

// Push envoie une image avec les identifiants du dernier Login
func (e *EngineRuntime) Push(ctx context.Context, ref string) error {
	e.logger.Debugf("Starting push for image: %s", ref)

	reader, err := e.cli.ImagePush(ctx, ref, image.PushOptions{RegistryAuth: e.auth})
	if err != nil {
		return fmt.Errorf("push failed: %w", err)
	}
	defer reader.Close()

	if err := drainStream(reader); err != nil {
		return fmt.Errorf("push failed: %w", err)
	}

	e.logger.Debug("Push completed successfully")
	return nil
}

// Remove supprime une référence locale, une image absente n'est pas une erreur
func (e *EngineRuntime) Remove(ctx context.Context, ref string) error {
	_, err := e.cli.ImageRemove(ctx, ref, image.RemoveOptions{
		Force:         false,
		PruneChildren: true,
	})
	if err != nil {
		if !client.IsErrNotFound(err) {
			return fmt.Errorf("failed to remove image: %w", err)
		}
		e.logger.Debugf("Image %s already removed", ref)
	}
	return nil
}

// drainStream lit un flux de messages JSON et remonte la première erreur
func drainStream(r io.Reader) error {
	return jsonmessage.DisplayJSONMessagesStream(r, io.Discard, 0, false, nil)
}
