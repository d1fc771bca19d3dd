// Package onpremise implements infra.Hooks for bare-metal datacenter
// clusters (types.OnPremise): no cloud SDK provisions the nodes, no
// managed load balancer fronts ingress, and the engine wires no object
// storage for it.
package onpremise

import (
	"context"
	"fmt"

	"github.com/qovery-clone/cluster-engine/internal/chart"
	"github.com/qovery-clone/cluster-engine/internal/infra"
	"github.com/qovery-clone/cluster-engine/internal/k8s"
	"github.com/qovery-clone/cluster-engine/internal/types"
)

var _ infra.Hooks = (*Hooks)(nil)

// Hooks implements infra.Hooks for on-premise, bare-metal clusters.
type Hooks struct {
	MetricsEnabled bool
	QoveryDNS      bool
}

// ValidateInstanceTypes only requires each node group to carry a name:
// there is no fixed instance-type catalogue to check
// arbitrary rack hardware against.
func (h *Hooks) ValidateInstanceTypes(groups []types.NodeGroups) error {
	for _, g := range groups {
		if g.Name == "" {
			return fmt.Errorf("on-premise node group is missing a name")
		}
	}
	return nil
}

func (h *Hooks) RenderTerraformVars(ctx context.Context, dir string, req types.InfrastructureEngineRequest) error {
	return infra.RenderTfVarsJSON(dir, req, "onpremise")
}

// PostDeployHooks is a no-op: bare-metal ingress is fronted by whatever
// the operator's own network already routes (MetalLB or similar, out of
// this engine's scope), never an engine-managed external-name binding.
func (h *Hooks) PostDeployHooks(ctx context.Context, kc *k8s.Client, req types.InfrastructureEngineRequest) error {
	return nil
}

func (h *Hooks) BuildCatalogue(req types.InfrastructureEngineRequest) chart.CatalogueInput {
	return chart.CatalogueInput{
		Cloud:                types.OnPremise,
		MetricsEnabled:       h.MetricsEnabled,
		QoveryDNS:            h.QoveryDNS,
		AdvancedSettings:     req.AdvancedSettings,
		ObjectStorageBackend: "s3",
	}
}

func (h *Hooks) NodeReadySelector() k8s.NodeSelector {
	return k8s.NodeSelector{}
}
