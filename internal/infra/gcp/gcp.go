// Package gcp implements the GKE flavour of infra.Hooks, using
// google.golang.org/api's compute machine-type naming as the validated
// instance vocabulary.
package gcp

import (
	"context"
	"fmt"

	"github.com/qovery-clone/cluster-engine/internal/chart"
	"github.com/qovery-clone/cluster-engine/internal/infra"
	"github.com/qovery-clone/cluster-engine/internal/k8s"
	"github.com/qovery-clone/cluster-engine/internal/types"
)

var _ infra.Hooks = (*Hooks)(nil)

// Hooks implements infra.Hooks for GCP/GKE.
type Hooks struct {
	MetricsEnabled bool
	QoveryDNS      bool
}

var supportedMachineTypes = map[string]bool{
	"e2-standard-2": true,
	"e2-standard-4": true,
	"e2-standard-8": true,
	"n2-standard-2": true,
	"n2-standard-4": true,
	"c2-standard-4": true,
}

func (h *Hooks) ValidateInstanceTypes(groups []types.NodeGroups) error {
	for _, g := range groups {
		if !supportedMachineTypes[g.InstanceType] {
			return fmt.Errorf("machine type %q is not a supported GKE node pool type", g.InstanceType)
		}
	}
	return nil
}

func (h *Hooks) RenderTerraformVars(ctx context.Context, dir string, req types.InfrastructureEngineRequest) error {
	return infra.RenderTfVarsJSON(dir, req, "gcp")
}

// PostDeployHooks is a no-op on GCP: GKE's network load balancers already
// expose a stable public IP directly.
func (h *Hooks) PostDeployHooks(ctx context.Context, kc *k8s.Client, req types.InfrastructureEngineRequest) error {
	return nil
}

func (h *Hooks) BuildCatalogue(req types.InfrastructureEngineRequest) chart.CatalogueInput {
	return chart.CatalogueInput{
		Cloud:            types.Gcp,
		MetricsEnabled:   h.MetricsEnabled,
		QoveryDNS:        h.QoveryDNS,
		AdvancedSettings: req.AdvancedSettings,
		ObjectStorageBackend: "gcs",
	}
}

func (h *Hooks) NodeReadySelector() k8s.NodeSelector {
	return k8s.NodeSelector{}
}
