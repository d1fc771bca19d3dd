// Package scaleway implements the Kapsule flavour of infra.Hooks. Like
// AWS, Scaleway's L4 load balancers expose only an IP to nginx ingress, so
// it carries the same external-name-svc PostDeployHooks binding (spec
// §4.4: "On DigitalOcean/AWS..."; this pack has no DigitalOcean SDK, so
// Scaleway's Kapsule stands in for that IP-only-LB idiom). The binding
// only runs when a LoadBalancerResolver is set.
package scaleway

import (
	"context"
	"fmt"

	"github.com/qovery-clone/cluster-engine/internal/chart"
	"github.com/qovery-clone/cluster-engine/internal/infra"
	"github.com/qovery-clone/cluster-engine/internal/k8s"
	"github.com/qovery-clone/cluster-engine/internal/types"
)

var _ infra.Hooks = (*Hooks)(nil)

// Hooks implements infra.Hooks for Scaleway/Kapsule.
type Hooks struct {
	MetricsEnabled       bool
	QoveryDNS            bool
	ManagedDomain        string
	LoadBalancerResolver func(ctx context.Context, loadBalancerID string) (string, error)
}

var supportedCommercialTypes = map[string]bool{
	"DEV1-M":  true,
	"DEV1-L":  true,
	"GP1-XS":  true,
	"GP1-S":   true,
	"GP1-M":   true,
}

func (h *Hooks) ValidateInstanceTypes(groups []types.NodeGroups) error {
	for _, g := range groups {
		if !supportedCommercialTypes[g.InstanceType] {
			return fmt.Errorf("commercial type %q is not a supported Kapsule node pool type", g.InstanceType)
		}
	}
	return nil
}

func (h *Hooks) RenderTerraformVars(ctx context.Context, dir string, req types.InfrastructureEngineRequest) error {
	return infra.RenderTfVarsJSON(dir, req, "scaleway")
}

func (h *Hooks) PostDeployHooks(ctx context.Context, kc *k8s.Client, req types.InfrastructureEngineRequest) error {
	if h.LoadBalancerResolver == nil {
		return nil
	}
	svc, err := kc.Clientset.CoreV1().Services("nginx-ingress").Get(ctx, "nginx-ingress-ingress-nginx-controller", metaGetOptions())
	if err != nil {
		return fmt.Errorf("failed to read nginx-ingress service: %w", err)
	}
	if len(svc.Status.LoadBalancer.Ingress) == 0 {
		return fmt.Errorf("nginx-ingress service has no load balancer ingress yet")
	}
	lbID := svc.Status.LoadBalancer.Ingress[0].Hostname
	ip, err := h.LoadBalancerResolver(ctx, lbID)
	if err != nil {
		return fmt.Errorf("failed to resolve load balancer %q public ip: %w", lbID, err)
	}
	return installExternalNameService(ctx, kc, fmt.Sprintf("qovery-nginx-%s.%s", req.Cluster.ID.Short, h.ManagedDomain), ip)
}

func (h *Hooks) BuildCatalogue(req types.InfrastructureEngineRequest) chart.CatalogueInput {
	return chart.CatalogueInput{
		Cloud:            types.Scw,
		MetricsEnabled:   h.MetricsEnabled,
		QoveryDNS:        h.QoveryDNS,
		AdvancedSettings: req.AdvancedSettings,
		ObjectStorageBackend: "scaleway",
	}
}

func (h *Hooks) NodeReadySelector() k8s.NodeSelector {
	return k8s.NodeSelector{}
}
