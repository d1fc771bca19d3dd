package k8s

import (
	"context"
	"fmt"

	policyv1 "k8s.io/api/policy/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// UnhealthyPDB describes one pod disruption budget failing the upgrade
// gate.
type UnhealthyPDB struct {
	Namespace      string
	Name           string
	CurrentHealthy int32
	DesiredHealthy int32
}

// IsKubernetesUpgradable implements the "PDB gate" invariant from spec §4.4
// and §8: any PDB with currentHealthy < desiredHealthy blocks the upgrade.
// It returns every unhealthy PDB found so the caller can build a precise
// EngineError.
func (c *Client) IsKubernetesUpgradable(ctx context.Context) ([]UnhealthyPDB, error) {
	list, err := c.Clientset.PolicyV1().PodDisruptionBudgets(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list pod disruption budgets: %w", err)
	}
	var unhealthy []UnhealthyPDB
	for _, pdb := range list.Items {
		if isUnhealthy(pdb) {
			unhealthy = append(unhealthy, UnhealthyPDB{
				Namespace:      pdb.Namespace,
				Name:           pdb.Name,
				CurrentHealthy: pdb.Status.CurrentHealthy,
				DesiredHealthy: pdb.Status.DesiredHealthy,
			})
		}
	}
	return unhealthy, nil
}

func isUnhealthy(pdb policyv1.PodDisruptionBudget) bool {
	return pdb.Status.CurrentHealthy < pdb.Status.DesiredHealthy
}
