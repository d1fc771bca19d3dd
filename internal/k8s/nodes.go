package k8s

import (
	"context"
	"fmt"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/qovery-clone/cluster-engine/internal/retry"
	"github.com/qovery-clone/cluster-engine/internal/types"
)

// NodeSelector optionally filters which nodes a readiness poll considers,
// e.g. excluding Fargate nodes when Karpenter is enabled (spec §4.4 /
// §9 design note).
type NodeSelector struct {
	LabelSelector string
	ExcludeLabels map[string]string // node must NOT carry any of these label=value pairs
}

func (c *Client) listNodes(ctx context.Context, sel NodeSelector) ([]corev1.Node, error) {
	list, err := c.Clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{LabelSelector: sel.LabelSelector})
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	if len(sel.ExcludeLabels) == 0 {
		return list.Items, nil
	}
	out := make([]corev1.Node, 0, len(list.Items))
	for _, n := range list.Items {
		excluded := false
		for k, v := range sel.ExcludeLabels {
			if n.Labels[k] == v {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, n)
		}
	}
	return out, nil
}

func isNodeReady(n corev1.Node) bool {
	for _, cond := range n.Status.Conditions {
		if cond.Type == corev1.NodeReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}

// WaitNodesReady polls node conditions until every selected node is Ready
// or the retry budget elapses (default 60 attempts x 10s, spec §4.4).
func (c *Client) WaitNodesReady(ctx context.Context, sel NodeSelector, attempts int, delay time.Duration) error {
	if attempts <= 0 {
		attempts = 60
	}
	if delay <= 0 {
		delay = 10 * time.Second
	}
	return retry.Fixed(ctx, attempts, delay, func() (bool, error) {
		nodes, err := c.listNodes(ctx, sel)
		if err != nil {
			return false, err
		}
		if len(nodes) == 0 {
			return false, fmt.Errorf("no nodes matched selector yet")
		}
		for _, n := range nodes {
			if !isNodeReady(n) {
				return false, fmt.Errorf("node %q is not Ready", n.Name)
			}
		}
		return true, nil
	})
}

// ServerVersion returns the API server's reported version string, e.g.
// "v1.29.4".
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	info, err := c.Discovery.ServerVersion()
	if err != nil {
		return "", fmt.Errorf("failed to fetch server version: %w", err)
	}
	return info.GitVersion, nil
}

// UpgradeRequiredStatus is the result of comparing the cluster's deployed
// masters/workers versions against a wished version (spec §4.4).
type UpgradeRequiredStatus struct {
	RequiredUpgradeOn   types.RequiredUpgradeOn
	DeployedMastersVersion types.VersionsNumber
	DeployedWorkersVersion types.VersionsNumber
	OlderMastersDetected bool
	OlderWorkersDetected bool
	RequestedVersion     types.VersionsNumber
}

// IsKubernetesUpgradeRequired implements spec §4.4's upgrade-required
// check: query server version (masters) and every node's kubelet version
// (workers), compare majors/minors against wished, and report which part
// (if any) still needs upgrading. Masters must be upgraded before workers.
func (c *Client) IsKubernetesUpgradeRequired(ctx context.Context, sel NodeSelector, wished types.VersionsNumber) (UpgradeRequiredStatus, error) {
	serverVersionStr, err := c.ServerVersion(ctx)
	if err != nil {
		return UpgradeRequiredStatus{}, err
	}
	masters, err := types.ParseVersionsNumber(serverVersionStr)
	if err != nil {
		return UpgradeRequiredStatus{}, fmt.Errorf("malformed server version %q: %w", serverVersionStr, err)
	}

	nodes, err := c.listNodes(ctx, sel)
	if err != nil {
		return UpgradeRequiredStatus{}, err
	}
	workers, err := lowestKubeletVersion(nodes)
	if err != nil {
		return UpgradeRequiredStatus{}, err
	}

	mastersCmp := types.CompareKubernetesVersionsForUpgrade(masters, wished)
	workersCmp := types.CompareKubernetesVersionsForUpgrade(workers, wished)

	status := UpgradeRequiredStatus{
		DeployedMastersVersion: masters,
		DeployedWorkersVersion: workers,
		OlderMastersDetected:   mastersCmp.OlderVersionDetected,
		OlderWorkersDetected:   workersCmp.OlderVersionDetected,
		RequestedVersion:       wished,
		RequiredUpgradeOn:      types.UpgradeNone,
	}

	switch {
	case mastersCmp.UpgradeRequired:
		status.RequiredUpgradeOn = types.UpgradeMasters
	case workersCmp.UpgradeRequired:
		status.RequiredUpgradeOn = types.UpgradeWorkers
	}
	return status, nil
}

func lowestKubeletVersion(nodes []corev1.Node) (types.VersionsNumber, error) {
	var lowest *types.VersionsNumber
	for _, n := range nodes {
		v, err := types.ParseVersionsNumber(n.Status.NodeInfo.KubeletVersion)
		if err != nil {
			return types.VersionsNumber{}, fmt.Errorf("malformed kubelet version on node %q: %w", n.Name, err)
		}
		if lowest == nil || v.Minor < lowest.Minor || (v.Minor == lowest.Minor && v.Major < lowest.Major) {
			lv := v
			lowest = &lv
		}
	}
	if lowest == nil {
		return types.VersionsNumber{}, fmt.Errorf("no nodes to determine worker version from")
	}
	return *lowest, nil
}

// crashLoopRestartThreshold is the default restart count at or above which a pod
// in CrashLoopBackOff is deleted before rolling the control plane.
const crashLoopRestartThreshold = 5

// DeleteCrashLoopingPods deletes pods whose top container has restarted at
// least crashLoopRestartThreshold times and is currently waiting in
// CrashLoopBackOff, per spec §4.4.
func (c *Client) DeleteCrashLoopingPods(ctx context.Context, namespace string) ([]string, error) {
	pods, err := c.Clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods in namespace %q: %w", namespace, err)
	}
	var deleted []string
	for _, p := range pods.Items {
		if !isCrashLooping(p) {
			continue
		}
		if err := c.Clientset.CoreV1().Pods(p.Namespace).Delete(ctx, p.Name, metav1.DeleteOptions{}); err != nil {
			return deleted, fmt.Errorf("failed to delete crash-looping pod %q: %w", p.Name, err)
		}
		deleted = append(deleted, p.Name)
	}
	return deleted, nil
}

func isCrashLooping(p corev1.Pod) bool {
	if len(p.Status.ContainerStatuses) == 0 {
		return false
	}
	top := p.Status.ContainerStatuses[0]
	if top.RestartCount < crashLoopRestartThreshold {
		return false
	}
	return top.State.Waiting != nil && strings.Contains(top.State.Waiting.Reason, "CrashLoopBackOff")
}
