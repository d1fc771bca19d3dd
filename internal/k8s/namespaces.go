package k8s

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// systemNamespaces are never candidates for deletion by this engine.
var systemNamespaces = map[string]bool{
	"default":          true,
	"kube-node-lease":  true,
	"kube-public":      true,
	"kube-system":      true,
}

// QoveryManagedNamespaces are deleted in this fixed order during the
// delete flow's steps 3/5 (spec §4.4).
var QoveryManagedNamespaces = []string{"logging", "nginx-ingress", "qovery", "cert-manager", "prometheus"}

func isQoveryManaged(ns string) bool {
	for _, q := range QoveryManagedNamespaces {
		if q == ns {
			return true
		}
	}
	return false
}

// GetFirstsNamespacesToDelete returns the subset of all that are neither a
// system namespace nor a Qovery-managed one, implementing the "namespace
// deletion safety" invariant from spec §8.
func GetFirstsNamespacesToDelete(all []string) []string {
	out := make([]string, 0, len(all))
	for _, ns := range all {
		if systemNamespaces[ns] || isQoveryManaged(ns) {
			continue
		}
		out = append(out, ns)
	}
	return out
}

// ListNamespaces lists every namespace name in the cluster.
func (c *Client) ListNamespaces(ctx context.Context) ([]string, error) {
	list, err := c.Clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}
	names := make([]string, 0, len(list.Items))
	for _, ns := range list.Items {
		names = append(names, ns.Name)
	}
	return names, nil
}

// tfstateSecretLabels is the label set a terraform-backed secret carries;
// a namespace holding any such secret refuses deletion per E2E scenario 6.
const (
	tfstateManagedByLabel = "app.kubernetes.io/managed-by"
	tfstateManagedByValue = "terraform"
	tfstateLabel          = "tfstate"
	tfstateLabelValue     = "true"
)

// ExecDeleteNamespace deletes namespace, refusing when it contains any
// secret labelled app.kubernetes.io/managed-by=terraform,tfstate=true
// (spec §8, E2E scenario 6).
func (c *Client) ExecDeleteNamespace(ctx context.Context, namespace string) error {
	secrets, err := c.Clientset.CoreV1().Secrets(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list secrets in namespace %q: %w", namespace, err)
	}
	for _, s := range secrets.Items {
		if s.Labels[tfstateManagedByLabel] == tfstateManagedByValue && s.Labels[tfstateLabel] == tfstateLabelValue {
			return fmt.Errorf("Namespace contains terraform tfstates in secret, can't delete it !")
		}
	}
	return c.Clientset.CoreV1().Namespaces().Delete(ctx, namespace, metav1.DeleteOptions{})
}

// CreateNamespace is idempotent: AlreadyExists is swallowed, matching the
// "re-create the namespace first" step of the delete flow (spec §4.5).
func (c *Client) CreateNamespace(ctx context.Context, namespace string, labels map[string]string) error {
	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name:   namespace,
			Labels: labels,
		},
	}
	_, err := c.Clientset.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if err != nil {
		if isAlreadyExists(err) {
			return nil
		}
		return fmt.Errorf("failed to create namespace %q: %w", namespace, err)
	}
	return nil
}

func isAlreadyExists(err error) bool {
	type statusError interface{ Status() metav1.Status }
	se, ok := err.(statusError)
	return ok && se.Status().Reason == metav1.StatusReasonAlreadyExists
}
