// internal/docker/cli.go
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// CommandError est l'échec d'une commande du runtime, avec sa sortie
type CommandError struct {
	Bin    string
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	cmd := strings.TrimSpace(e.Bin + " " + strings.Join(e.Args, " "))
	if e.Output == "" {
		return fmt.Sprintf("%s: %v", cmd, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", cmd, e.Err, e.Output)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// CLIRuntime pilote un binaire compatible docker (docker, podman, nerdctl)
type CLIRuntime struct {
	bin    string
	logger *logrus.Logger
}

// NewCLIRuntime vérifie que le binaire est disponible
func NewCLIRuntime(bin string, logger *logrus.Logger) (*CLIRuntime, error) {
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("container runtime %q not found: %w", bin, err)
	}
	logger.Debugf("Using container runtime binary: %s", path)

	return &CLIRuntime{
		bin:    path,
		logger: logger,
	}, nil
}

// Login utilise --password-stdin pour ne pas exposer le mot de passe
func (c *CLIRuntime) Login(ctx context.Context, registry, username, password string) error {
	return c.run(ctx, strings.NewReader(password),
		"login", "-u", username, "--password-stdin", registry)
}

func (c *CLIRuntime) Pull(ctx context.Context, ref, platform string) error {
	args := []string{"pull"}
	if platform != "" {
		args = append(args, "--platform", platform)
	}
	args = append(args, ref)
	return c.run(ctx, nil, args...)
}

func (c *CLIRuntime) Tag(ctx context.Context, source, target string) error {
	return c.run(ctx, nil, "tag", source, target)
}

func (c *CLIRuntime) Push(ctx context.Context, ref string) error {
	return c.run(ctx, nil, "push", ref)
}

func (c *CLIRuntime) Remove(ctx context.Context, ref string) error {
	return c.run(ctx, nil, "rmi", ref)
}

// Close ne fait rien, aucun processus n'est gardé ouvert
func (c *CLIRuntime) Close() error {
	return nil
}

// run exécute une commande du runtime jusqu'à son terme.
// Une annulation du contexte tue le processus en cours.
func (c *CLIRuntime) run(ctx context.Context, stdin io.Reader, args ...string) error {
	c.logger.Debugf("Running: %s %s", c.bin, strings.Join(args, " "))

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, c.bin, args...)
	cmd.Stdin = stdin
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &CommandError{
			Bin:    c.bin,
			Args:   args,
			Output: strings.TrimSpace(output.String()),
			Err:    err,
		}
	}

	if c.logger.IsLevelEnabled(logrus.TraceLevel) {
		c.logger.Tracef("%s %s output:\n%s", c.bin, args[0], output.String())
	}
	return nil
}
