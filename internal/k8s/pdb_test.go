package k8s

import (
	"testing"

	policyv1 "k8s.io/api/policy/v1"
)

func TestIsUnhealthy(t *testing.T) {
	cases := []struct {
		name     string
		pdb      policyv1.PodDisruptionBudget
		expected bool
	}{
		{
			name: "unhealthy",
			pdb: policyv1.PodDisruptionBudget{
				Status: policyv1.PodDisruptionBudgetStatus{CurrentHealthy: 1, DesiredHealthy: 2},
			},
			expected: true,
		},
		{
			name: "healthy",
			pdb: policyv1.PodDisruptionBudget{
				Status: policyv1.PodDisruptionBudgetStatus{CurrentHealthy: 2, DesiredHealthy: 2},
			},
			expected: false,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := isUnhealthy(c.pdb); got != c.expected {
				t.Fatalf("isUnhealthy() = %v, want %v", got, c.expected)
			}
		})
	}
}

func TestGetFirstsNamespacesToDeleteSafety(t *testing.T) {
	all := []string{"default", "kube-system", "kube-public", "kube-node-lease",
		"logging", "nginx-ingress", "qovery", "cert-manager", "prometheus",
		"my-app-env", "another-app"}
	got := GetFirstsNamespacesToDelete(all)
	disallowed := map[string]bool{
		"default": true, "kube-system": true, "kube-public": true, "kube-node-lease": true,
		"logging": true, "nginx-ingress": true, "qovery": true, "cert-manager": true, "prometheus": true,
	}
	for _, ns := range got {
		if disallowed[ns] {
			t.Fatalf("GetFirstsNamespacesToDelete returned protected namespace %q", ns)
		}
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 user namespaces, got %v", got)
	}
}
