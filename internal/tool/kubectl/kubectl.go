// Package kubectl wraps the kubectl binary for the handful of mutations
// that are more naturally expressed as a one-shot CLI call than as typed
// client-go calls: scaling, rollout restarts, wait-for-condition, pod
// deletion and namespace labelling. Structured reads (pods, nodes, PDBs, ...) go through
// internal/k8s's typed client-go helpers instead; this wrapper exists for
// parity with spec §4.1's "kubectl" entry, whose mutation surface this
// engine realizes via subprocess the same way the teacher wraps external
// binaries (docker, terraform) rather than client-go for one-shot actions.
package kubectl

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/qovery-clone/cluster-engine/internal/engineerr"
)

// Runner invokes kubectl against a fixed kubeconfig.
type Runner struct {
	KubeconfigPath string
	Envs           []string
}

func NewRunner(kubeconfigPath string, envs []string) *Runner {
	return &Runner{KubeconfigPath: kubeconfigPath, Envs: envs}
}

func (r *Runner) run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"--kubeconfig", r.KubeconfigPath}, args...)
	cmd := exec.CommandContext(ctx, "kubectl", fullArgs...)
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

// ScaleDeployment scales a deployment to replicas.
func (r *Runner) ScaleDeployment(ctx context.Context, namespace, name string, replicas int32) error {
	_, err := r.run(ctx, "-n", namespace, "scale", "deployment", name, fmt.Sprintf("--replicas=%d", replicas))
	if err != nil {
		return fmt.Errorf("failed to scale deployment %s/%s to %d: %w", namespace, name, replicas, err)
	}
	return nil
}

// ScaleStatefulSet scales a statefulset to replicas.
func (r *Runner) ScaleStatefulSet(ctx context.Context, namespace, name string, replicas int32) error {
	_, err := r.run(ctx, "-n", namespace, "scale", "statefulset", name, fmt.Sprintf("--replicas=%d", replicas))
	if err != nil {
		return fmt.Errorf("failed to scale statefulset %s/%s to %d: %w", namespace, name, replicas, err)
	}
	return nil
}

// RolloutRestart triggers a rollout restart of the named deployment,
// matching the "rollout restart" mutation in spec §4.1.
func (r *Runner) RolloutRestart(ctx context.Context, namespace, deployment string) error {
	_, err := r.run(ctx, "-n", namespace, "rollout", "restart", "deployment", deployment)
	if err != nil {
		return fmt.Errorf("failed to restart rollout of %s/%s: %w", namespace, deployment, err)
	}
	return nil
}

// WaitForCondition runs `kubectl wait --for=condition=<condition>` against
// the given resource, bounded by timeout (a duration string like "120s").
func (r *Runner) WaitForCondition(ctx context.Context, namespace, resource, condition, timeout string) error {
	_, err := r.run(ctx, "-n", namespace, "wait", resource, "--for=condition="+condition, "--timeout="+timeout)
	if err != nil {
		return fmt.Errorf("failed waiting for condition %q on %s/%s: %w", condition, namespace, resource, err)
	}
	return nil
}

// DeletePod deletes a single pod, ignoring a pod that is already gone.
func (r *Runner) DeletePod(ctx context.Context, namespace, name string) error {
	_, err := r.run(ctx, "-n", namespace, "delete", "pod", name, "--ignore-not-found=true")
	if err != nil {
		return fmt.Errorf("failed to delete pod %s/%s: %w", namespace, name, err)
	}
	return nil
}

// LabelNamespace applies labels to a namespace, overwriting existing
// values.
func (r *Runner) LabelNamespace(ctx context.Context, namespace string, labels map[string]string) error {
	args := []string{"label", "namespace", namespace, "--overwrite"}
	for k, v := range labels {
		args = append(args, fmt.Sprintf("%s=%s", k, v))
	}
	if _, err := r.run(ctx, args...); err != nil {
		return fmt.Errorf("failed to label namespace %q: %w", namespace, err)
	}
	return nil
}
