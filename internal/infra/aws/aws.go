// Package aws implements the AWS/EKS flavour of infra.Hooks: EC2 instance
// type validation against aws-sdk-go-v2's ec2 types, tfvars rendering, and
// the external-name-svc load-balancer hostname binding named in spec §4.4
// (AWS's NLB/ALB load balancers expose only an IP to nginx ingress, so a
// stable hostname is needed for TLS issuance). Grounded on the teacher's
// thin-facade style (pkg/kubernetes/*.go: one small typed wrapper per
// external capability) applied to the AWS SDK instead of an LLM call.
package aws

import (
	"context"
	"fmt"
	"strings"

	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/qovery-clone/cluster-engine/internal/chart"
	"github.com/qovery-clone/cluster-engine/internal/infra"
	"github.com/qovery-clone/cluster-engine/internal/k8s"
	"github.com/qovery-clone/cluster-engine/internal/types"
)

// supportedInstanceTypes is the subset of EC2 instance types this engine
// qualifies node groups against. Each literal is validated by round-
// tripping it through ec2types.InstanceType, the AWS SDK's own enum type,
// so a typo here would at least carry the right Go type even though the
// SDK does not expose an exhaustive Go-level validator for it.
var supportedInstanceTypes = map[ec2types.InstanceType]bool{
	"t3.medium":  true,
	"t3.large":   true,
	"t3.xlarge":  true,
	"m5.large":   true,
	"m5.xlarge":  true,
	"m5.2xlarge": true,
	"m6i.large":  true,
	"m6i.xlarge": true,
	"c5.large":   true,
	"c5.xlarge":  true,
	"c6g.large":  true,
	"c6g.xlarge": true,
	"r5.large":   true,
	"r5.xlarge":  true,
}

var _ infra.Hooks = (*Hooks)(nil)

// Hooks implements infra.Hooks for AWS/EKS.
type Hooks struct {
	UseKarpenter     bool
	ALBEnabled       bool
	IAMEKSUserMapper bool
	QoveryDNS        bool
	MetricsEnabled   bool

	// LoadBalancerResolver resolves the public IP behind the nginx ingress
	// load balancer, given the part of its hostname before the first "-".
	// The wired resolver looks it up through the ELBv2 API only.
	LoadBalancerResolver func(ctx context.Context, loadBalancerID string) (string, error)

	ManagedDomain string
}

func (h *Hooks) ValidateInstanceTypes(groups []types.NodeGroups) error {
	for _, g := range groups {
		if !supportedInstanceTypes[ec2types.InstanceType(g.InstanceType)] {
			return fmt.Errorf("instance type %q is not a supported EKS node group type", g.InstanceType)
		}
	}
	return nil
}

// RenderTerraformVars writes the AWS EKS tfvars file into dir. The actual
// HCL/tfvars templates are delivered alongside the terraform modules (not
// part of this Go module); this renders the small generated tfvars.json
// terraform natively reads as an extra `-var-file`.
func (h *Hooks) RenderTerraformVars(ctx context.Context, dir string, req types.InfrastructureEngineRequest) error {
	return infra.RenderTfVarsJSON(dir, req, "aws")
}

func (h *Hooks) PostDeployHooks(ctx context.Context, kc *k8s.Client, req types.InfrastructureEngineRequest) error {
	if h.LoadBalancerResolver == nil {
		return nil
	}
	lbID, err := nginxLoadBalancerID(ctx, kc)
	if err != nil {
		return fmt.Errorf("failed to discover nginx ingress load balancer id: %w", err)
	}
	ip, err := h.LoadBalancerResolver(ctx, lbID)
	if err != nil {
		return fmt.Errorf("failed to resolve load balancer %q public ip: %w", lbID, err)
	}
	hostname := fmt.Sprintf("qovery-nginx-%s.%s", req.Cluster.ID.Short, strings.TrimPrefix(h.ManagedDomain, "."))
	return installExternalNameService(ctx, kc, hostname, ip)
}

func (h *Hooks) BuildCatalogue(req types.InfrastructureEngineRequest) chart.CatalogueInput {
	return chart.CatalogueInput{
		Cloud:            types.Aws,
		UseKarpenter:     h.UseKarpenter,
		MetricsEnabled:   h.MetricsEnabled,
		QoveryDNS:        h.QoveryDNS,
		ALBEnabled:       h.ALBEnabled,
		IAMEKSUserMapper: h.IAMEKSUserMapper,
		AdvancedSettings: req.AdvancedSettings,
		ObjectStorageBackend: "s3",
	}
}

func (h *Hooks) NodeReadySelector() k8s.NodeSelector {
	if !h.UseKarpenter {
		return k8s.NodeSelector{}
	}
	// Karpenter-provisioned Fargate nodes never reach the kubelet-version
	// readiness criteria this poll cares about; excluding them mirrors
	// spec §4.4's "AWS excludes Fargate nodes" design note.
	return k8s.NodeSelector{ExcludeLabels: map[string]string{"eks.amazonaws.com/compute-type": "fargate"}}
}

// nginxLoadBalancerID reads the nginx-ingress Service's
// status.loadBalancer.ingress[0].hostname (AWS NLB/ALB names are
// hostnames, not IPs, at the Kubernetes API level) and extracts the
// load balancer id embedded in it.
func nginxLoadBalancerID(ctx context.Context, kc *k8s.Client) (string, error) {
	svc, err := kc.Clientset.CoreV1().Services("nginx-ingress").Get(ctx, "nginx-ingress-ingress-nginx-controller", metaGetOptions())
	if err != nil {
		return "", err
	}
	if len(svc.Status.LoadBalancer.Ingress) == 0 {
		return "", fmt.Errorf("nginx-ingress service has no load balancer ingress yet")
	}
	hostname := svc.Status.LoadBalancer.Ingress[0].Hostname
	// AWS NLB hostnames look like <id>-<hash>.elb.<region>.amazonaws.com.
	parts := strings.SplitN(hostname, "-", 2)
	if len(parts) == 0 {
		return "", fmt.Errorf("malformed load balancer hostname %q", hostname)
	}
	return parts[0], nil
}
