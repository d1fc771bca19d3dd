package k8s

import (
	"context"
	"fmt"
	"time"

	apimeta "k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/qovery-clone/cluster-engine/internal/retry"
)

// certManagerResourceKinds are every cert-manager custom resource kind the
// delete flow's step 4 must sweep before the namespaces holding them are
// removed (spec §4.4): Issuers and Certificates/CertificateRequests/
// Orders/Challenges are namespace-scoped, ClusterIssuer is cluster-scoped
// and would otherwise survive its owning namespace's deletion entirely.
var certManagerResourceKinds = []schema.GroupVersionKind{
	{Group: "cert-manager.io", Version: "v1", Kind: "ClusterIssuerList"},
	{Group: "cert-manager.io", Version: "v1", Kind: "IssuerList"},
	{Group: "cert-manager.io", Version: "v1", Kind: "CertificateList"},
	{Group: "cert-manager.io", Version: "v1", Kind: "CertificateRequestList"},
	{Group: "acme.cert-manager.io", Version: "v1", Kind: "OrderList"},
	{Group: "acme.cert-manager.io", Version: "v1", Kind: "ChallengeList"},
}

// qoveryCertManagerWebhookAPIService is the aggregated-API registration the
// qovery cert-manager webhook chart installs. A cert-manager namespace
// stuck terminating on a dangling APIService is exactly the deadlock spec
// §4.4 step 4 calls out; removing it here unblocks step 5's namespace
// delete.
const qoveryCertManagerWebhookAPIService = "v1.webhook.qovery.cert-manager.io"

// DeleteCertManagerResources sweeps every cert-manager and ACME custom
// resource across all namespaces (and cluster-scoped ClusterIssuers),
// retrying each kind's list-and-delete with a short fixed backoff so a
// CRD still being reconciled by its own finalizer doesn't abort the whole
// sweep on the first pass.
func (c *Client) DeleteCertManagerResources(ctx context.Context) error {
	for _, gvk := range certManagerResourceKinds {
		if err := retry.Fixed(ctx, 5, 2*time.Second, func() (bool, error) {
			deleted, err := c.deleteAllOfKind(ctx, gvk)
			if err != nil {
				return false, err
			}
			return deleted, nil
		}); err != nil {
			return fmt.Errorf("failed to sweep %s: %w", gvk.Kind, err)
		}
	}
	return nil
}

// deleteAllOfKind lists every object of gvk's singular kind across all
// namespaces and deletes each, returning true once the list comes back
// empty (nothing left to delete, or the CRD isn't installed at all).
func (c *Client) deleteAllOfKind(ctx context.Context, listGVK schema.GroupVersionKind) (bool, error) {
	list := &unstructured.UnstructuredList{}
	list.SetGroupVersionKind(listGVK)

	if err := c.Runtime.List(ctx, list); err != nil {
		if isNoKindMatchError(err) {
			return true, nil
		}
		return false, err
	}
	if len(list.Items) == 0 {
		return true, nil
	}
	for i := range list.Items {
		obj := &list.Items[i]
		if err := c.Runtime.Delete(ctx, obj); err != nil && !isNotFoundError(err) {
			return false, fmt.Errorf("failed to delete %s %s/%s: %w", obj.GetKind(), obj.GetNamespace(), obj.GetName(), err)
		}
	}
	return false, nil
}

// DeleteCertManagerWebhookAPIService removes the qovery cert-manager
// webhook's apiregistration.k8s.io/v1 APIService object. Left in place, a
// terminating cert-manager namespace can deadlock on a conversion/admission
// webhook call routed through an APIService whose backing service is
// already gone.
func (c *Client) DeleteCertManagerWebhookAPIService(ctx context.Context) error {
	obj := &unstructured.Unstructured{}
	obj.SetGroupVersionKind(schema.GroupVersionKind{Group: "apiregistration.k8s.io", Version: "v1", Kind: "APIService"})
	obj.SetName(qoveryCertManagerWebhookAPIService)

	err := c.Runtime.Delete(ctx, obj)
	if err != nil && !isNotFoundError(err) && !isNoKindMatchError(err) {
		return fmt.Errorf("failed to delete apiservice %q: %w", qoveryCertManagerWebhookAPIService, err)
	}
	return nil
}

func isNotFoundError(err error) bool {
	return err != nil && ctrlclient.IgnoreNotFound(err) == nil
}

// isNoKindMatchError reports whether err means the CRD/APIService kind
// simply isn't installed in this cluster, which the sweep treats as
// "nothing to delete" rather than a failure.
func isNoKindMatchError(err error) bool {
	return apimeta.IsNoMatchError(err)
}
