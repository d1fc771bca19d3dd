// Package selfmanaged implements infra.Hooks for clusters this engine
// bootstraps rather than provisions through a managed-K8s API (kubeadm
// over existing VMs, with cluster state synced through an etcd cluster
// directly, grounded on go.etcd.io/etcd/client/v3 the way gke-mcp and
// sgl-project-ome reach for etcd/raft-backed coordination in this pack).
// No instance-type catalogue applies: node groups here describe arbitrary
// already-provisioned machines, so PreFlight only checks they're present.
package selfmanaged

import (
	"context"
	"fmt"

	"github.com/qovery-clone/cluster-engine/internal/chart"
	cloudselfmanaged "github.com/qovery-clone/cluster-engine/internal/cloud/selfmanaged"
	"github.com/qovery-clone/cluster-engine/internal/infra"
	"github.com/qovery-clone/cluster-engine/internal/k8s"
	"github.com/qovery-clone/cluster-engine/internal/types"
)

var _ infra.Hooks = (*Hooks)(nil)

// Hooks implements infra.Hooks for self-managed (kubeadm) clusters.
type Hooks struct {
	Readiness      *cloudselfmanaged.ReadinessProbe
	MetricsEnabled bool
	QoveryDNS      bool
}

func (h *Hooks) ValidateInstanceTypes(groups []types.NodeGroups) error {
	for _, g := range groups {
		if g.ProviderID == "" {
			return fmt.Errorf("self-managed node group %q has no pre-provisioned provider id", g.Name)
		}
	}
	return nil
}

func (h *Hooks) RenderTerraformVars(ctx context.Context, dir string, req types.InfrastructureEngineRequest) error {
	return infra.RenderTfVarsJSON(dir, req, "selfmanaged")
}

// PostDeployHooks verifies the etcd cluster backing this kubeadm control
// plane has a healthy quorum; there is no managed load balancer to bind a
// hostname to on bare kubeadm nodes, so this takes the place of the
// external-name-svc step other clouds run here.
func (h *Hooks) PostDeployHooks(ctx context.Context, kc *k8s.Client, req types.InfrastructureEngineRequest) error {
	if h.Readiness == nil {
		return nil
	}
	healthy, err := h.Readiness.ClusterHealthy(ctx)
	if err != nil {
		return fmt.Errorf("etcd readiness probe failed after deploy: %w", err)
	}
	if !healthy {
		return fmt.Errorf("etcd cluster did not report a healthy quorum after deploy")
	}
	return nil
}

func (h *Hooks) BuildCatalogue(req types.InfrastructureEngineRequest) chart.CatalogueInput {
	return chart.CatalogueInput{
		Cloud:            req.Cluster.CloudKind,
		MetricsEnabled:   h.MetricsEnabled,
		QoveryDNS:        h.QoveryDNS,
		AdvancedSettings: req.AdvancedSettings,
		ObjectStorageBackend: "s3",
	}
}

func (h *Hooks) NodeReadySelector() k8s.NodeSelector {
	return k8s.NodeSelector{}
}

// DigitalOceanKubeconfigRotationCadence is the fixed schedule the
// supplemented rotation job (SPEC_FULL.md §5) runs at for self-managed
// and Kapsule-backed clusters whose kubeconfig tokens expire.
const DigitalOceanKubeconfigRotationCadence = 12 * 60 * 60 // seconds, 12h

// RotateKubeconfigToken re-fetches and re-persists the cluster's
// kubeconfig, called by the rotate-kubeconfig subcommand, which an external
// job runs on DigitalOceanKubeconfigRotationCadence, for clouds whose
// kubeconfig auth tokens expire (spec §9 Open
// Question, resolved per SPEC_FULL.md §5).
func RotateKubeconfigToken(ctx context.Context, store k8s.ObjectStorage, id types.ClusterID, fetchFreshKubeconfig func(ctx context.Context) ([]byte, error), localPath string) error {
	fresh, err := fetchFreshKubeconfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch a fresh kubeconfig: %w", err)
	}
	return k8s.PersistKubeconfig(ctx, store, id, fresh, localPath)
}
