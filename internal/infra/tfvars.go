package infra

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/qovery-clone/cluster-engine/internal/types"
)

// tfVarsContext is the generated tfvars.json payload every cloud renders,
// consumed by terraform as an extra `-var-file` alongside the hand-written
// module HCL (spec §4.4 TerraformRender).
type tfVarsContext struct {
	ClusterID        string                         `json:"cluster_id"`
	ClusterName      string                         `json:"cluster_name"`
	Cloud            string                         `json:"cloud_provider"`
	Region           string                         `json:"region"`
	Zones            []string                       `json:"zones"`
	KubernetesVersion string                        `json:"kubernetes_version"`
	NodeGroups       []types.NodeGroups             `json:"node_groups"`
	TerraformState   types.TerraformStateCredentials `json:"terraform_state"`
	KubeconfigBucket string                         `json:"kubeconfig_bucket"`
	LogsBucket       string                         `json:"logs_bucket"`
	AdvancedSettings types.AdvancedSettings          `json:"advanced_settings"`
}

// RenderTfVarsJSON marshals req into a tfvars.json file written to
// <dir>/generated.tfvars.json. It is exported so every cloud's
// RenderTerraformVars hook shares one implementation, varying only the
// cloud label, matching spec §4.4's "structurally identical modulo
// cloud-specific substeps" permission.
func RenderTfVarsJSON(dir string, req types.InfrastructureEngineRequest, cloud string) error {
	ctx := tfVarsContext{
		ClusterID:         req.Cluster.ID.Long.String(),
		ClusterName:       req.Cluster.Name,
		Cloud:             cloud,
		Region:            req.Cluster.Region,
		Zones:             req.Cluster.Zones,
		KubernetesVersion: req.Version.String(),
		NodeGroups:        req.NodeGroups,
		TerraformState:    req.TerraformState,
		KubeconfigBucket:  req.Cluster.ID.KubeconfigBucket(),
		LogsBucket:        req.Cluster.ID.LogsBucket(),
		AdvancedSettings:  req.AdvancedSettings,
	}

	body, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "generated.tfvars.json"), body, 0o644)
}
