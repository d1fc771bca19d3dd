// Package docker wraps the docker binary for the narrow set of operations
// the engine itself performs against the local daemon: pulling an image
// and pruning dangling images. It follows the teacher's pattern of a thin,
// typed facade returning a CommandError on failure (pkg/kubernetes/docker.go
// in the teacher wraps an external capability behind a small Go API; here
// the capability is the docker CLI instead of an LLM call).
package docker

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/qovery-clone/cluster-engine/internal/engineerr"
)

// Runner invokes the docker binary.
type Runner struct {
	Envs []string
}

func NewRunner(envs []string) *Runner {
	return &Runner{Envs: envs}
}

func (r *Runner) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Env = append(os.Environ(), r.Envs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return stdout.String(), engineerr.NewCommandError(cmd.Args, cmd.Env, stderr.String(), exitCode)
	}
	return stdout.String(), nil
}

// Pull pulls an image reference.
func (r *Runner) Pull(ctx context.Context, image string) error {
	if _, err := r.run(ctx, "pull", image); err != nil {
		return fmt.Errorf("failed to pull image %q: %w", image, err)
	}
	return nil
}

// PruneImages removes every dangling image (`docker image prune -f`); no
// age filter is applied.
func (r *Runner) PruneImages(ctx context.Context) error {
	if _, err := r.run(ctx, "image", "prune", "-f"); err != nil {
		return fmt.Errorf("failed to prune docker images: %w", err)
	}
	return nil
}
