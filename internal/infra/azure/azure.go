// Package azure implements the AKS flavour of infra.Hooks. VM sizes are
// validated against a fixed table of supported AKS node pool sizes; no
// Azure SDK call is made during validation.
package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/qovery-clone/cluster-engine/internal/chart"
	"github.com/qovery-clone/cluster-engine/internal/infra"
	"github.com/qovery-clone/cluster-engine/internal/k8s"
	"github.com/qovery-clone/cluster-engine/internal/types"
)

var _ infra.Hooks = (*Hooks)(nil)

// Hooks implements infra.Hooks for Azure/AKS.
type Hooks struct {
	Credential     azcore.TokenCredential
	MetricsEnabled bool
	QoveryDNS      bool
}

var supportedVMSizes = map[string]bool{
	"Standard_D2s_v5": true,
	"Standard_D4s_v5": true,
	"Standard_D8s_v5": true,
	"Standard_E2s_v5": true,
	"Standard_E4s_v5": true,
	"Standard_F4s_v2": true,
}

func (h *Hooks) ValidateInstanceTypes(groups []types.NodeGroups) error {
	for _, g := range groups {
		if !supportedVMSizes[g.InstanceType] {
			return fmt.Errorf("vm size %q is not a supported AKS node pool size", g.InstanceType)
		}
	}
	return nil
}

func (h *Hooks) RenderTerraformVars(ctx context.Context, dir string, req types.InfrastructureEngineRequest) error {
	return infra.RenderTfVarsJSON(dir, req, "azure")
}

// PostDeployHooks is a no-op on Azure: AKS's load balancer already exposes
// a stable public IP directly (no qovery-nginx-<id>.<domain> external-name
// binding is needed, unlike AWS/Scaleway's L4-IP-only load balancers).
func (h *Hooks) PostDeployHooks(ctx context.Context, kc *k8s.Client, req types.InfrastructureEngineRequest) error {
	return nil
}

func (h *Hooks) BuildCatalogue(req types.InfrastructureEngineRequest) chart.CatalogueInput {
	return chart.CatalogueInput{
		Cloud:            types.Azure,
		MetricsEnabled:   h.MetricsEnabled,
		QoveryDNS:        h.QoveryDNS,
		AdvancedSettings: req.AdvancedSettings,
		ObjectStorageBackend: "blob",
	}
}

func (h *Hooks) NodeReadySelector() k8s.NodeSelector {
	return k8s.NodeSelector{}
}
