// Package infra implements the per-cloud infrastructure action state
// machine from spec §4.4: one shared pipeline (Init → PreFlight →
// TerraformRender → TerraformApply → KubeconfigPersist → WaitNodesReady →
// HelmDeploy → PostDeployHooks → Done) driven by cloud-specific hooks
// supplied by internal/infra/{aws,azure,gcp,scaleway,selfmanaged,onpremise}.
// Centralising the state machine here and varying only the hooks matches
// the spec's explicit permission for non-AWS clouds to be "structurally
// identical modulo cloud-specific substeps" — it also means the fibonacci-
// retried destroy, the crash-loop eviction before upgrade and the PDB gate
// are implemented exactly once.
package infra

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/runtime"

	"github.com/qovery-clone/cluster-engine/internal/chart"
	"github.com/qovery-clone/cluster-engine/internal/cloud/vpc"
	"github.com/qovery-clone/cluster-engine/internal/deploy/helmlayers"
	"github.com/qovery-clone/cluster-engine/internal/engineerr"
	"github.com/qovery-clone/cluster-engine/internal/eventlog"
	"github.com/qovery-clone/cluster-engine/internal/k8s"
	"github.com/qovery-clone/cluster-engine/internal/retry"
	"github.com/qovery-clone/cluster-engine/internal/tool/terraform"
	"github.com/qovery-clone/cluster-engine/internal/types"
)

// Hooks is implemented once per cloud, supplying everything the shared
// pipeline can't know generically: instance type validation, terraform
// variable rendering, and any cloud-specific post-deploy finalisation.
type Hooks interface {
	// ValidateInstanceTypes checks every node group's InstanceType string
	// against the cloud's known instance enum (spec §4.4 PreFlight).
	ValidateInstanceTypes(groups []types.NodeGroups) error

	// RenderTerraformVars writes the cloud-specific tfvars/template context
	// into dir, ready for `terraform init/plan/apply`.
	RenderTerraformVars(ctx context.Context, dir string, req types.InfrastructureEngineRequest) error

	// PostDeployHooks runs cloud-specific finalisation after HelmDeploy,
	// e.g. the external-name-svc load-balancer hostname binding on clouds
	// whose L4 load balancers expose only IPs.
	PostDeployHooks(ctx context.Context, kc *k8s.Client, req types.InfrastructureEngineRequest) error

	// BuildCatalogue resolves the cloud's chart.CatalogueInput for req.
	BuildCatalogue(req types.InfrastructureEngineRequest) chart.CatalogueInput

	// NodeReadySelector returns the node selector WaitNodesReady/upgrade
	// polling should use (e.g. AWS excludes Fargate nodes to accommodate
	// Karpenter).
	NodeReadySelector() k8s.NodeSelector
}

// Pipeline drives one infrastructure task end to end for one cloud.
type Pipeline struct {
	Hooks      Hooks
	Terraform  *terraform.Runner
	Helm       *helmlayers.Deployer
	K8s        *k8s.Client
	Store      k8s.ObjectStorage
	Logger     *eventlog.Logger
	LocalKubeconfigPath string
	Scheme     *runtime.Scheme
}

func (p *Pipeline) details(step eventlog.InfrastructureStep, clusterID types.ClusterID) eventlog.EventDetails {
	return eventlog.EventDetails{
		ClusterID: clusterID.Long,
		Stage:     eventlog.StageInfrastructure,
		Step:      step,
	}
}

// Create drives Init → Done for a brand-new or previously-upgraded
// cluster. hasBeenUpgraded is true when this Create immediately follows
// an UpgradeCluster call in the same task: PreFlight (instance-type and
// VPC checks) is then skipped rather than re-run against
// possibly-transient post-upgrade node group state. UpgradeCluster itself
// runs neither check.
func (p *Pipeline) Create(ctx context.Context, req types.InfrastructureEngineRequest, hasBeenUpgraded bool) error {
	if !hasBeenUpgraded {
		if err := p.preFlight(req); err != nil {
			return err
		}
	} else {
		p.Logger.Infof("skipping preflight instance-type validation, cluster was just upgraded")
	}
	if err := p.checkCancel(ctx, eventlog.StepPreFlight, req.Cluster.ID); err != nil {
		return err
	}

	if err := p.terraformRenderAndApply(ctx, req, false); err != nil {
		return err
	}
	if err := p.checkCancel(ctx, eventlog.StepTerraformApply, req.Cluster.ID); err != nil {
		return err
	}

	if err := p.kubeconfigPersist(ctx, req); err != nil {
		return err
	}
	if err := p.waitNodesReady(ctx, req); err != nil {
		return err
	}
	if err := p.checkCancel(ctx, eventlog.StepWaitNodesReady, req.Cluster.ID); err != nil {
		return err
	}

	if err := p.helmDeploy(ctx, req); err != nil {
		return err
	}
	if err := p.checkCancel(ctx, eventlog.StepHelmDeploy, req.Cluster.ID); err != nil {
		return err
	}

	return p.Hooks.PostDeployHooks(ctx, p.K8s, req)
}

// Pause runs terraform with node groups scaled to zero desired size,
// skipping helm deploy and post-deploy hooks entirely.
func (p *Pipeline) Pause(ctx context.Context, req types.InfrastructureEngineRequest) error {
	if err := p.checkCancel(ctx, eventlog.StepPreFlight, req.Cluster.ID); err != nil {
		return err
	}
	paused := req
	paused.NodeGroups = make([]types.NodeGroups, len(req.NodeGroups))
	for i, ng := range req.NodeGroups {
		zero := int32(0)
		ng.DesiredNodes = &zero
		paused.NodeGroups[i] = ng
	}
	return p.terraformRenderAndApply(ctx, paused, false)
}

// UpgradeCluster implements spec §4.4's upgrade flow: required-upgrade
// detection, the PDB gate, crash-loop eviction, terraform re-apply with
// the new version, then waiting for the selected nodes to report Ready.
// It does not poll for the nodes' kubelet minor version after the apply.
func (p *Pipeline) UpgradeCluster(ctx context.Context, req types.InfrastructureEngineRequest, wished types.VersionsNumber) (k8s.UpgradeRequiredStatus, error) {
	details := p.details(eventlog.StepUpgrade, req.Cluster.ID)

	status, err := p.K8s.IsKubernetesUpgradeRequired(ctx, p.Hooks.NodeReadySelector(), wished)
	if err != nil {
		return status, engineerr.New(engineerr.TagK8sNodeNotReadyWithVersion, details, "failed to determine upgrade requirement", err)
	}
	if status.RequiredUpgradeOn == types.UpgradeNone {
		return status, nil
	}

	unhealthy, err := p.K8s.IsKubernetesUpgradable(ctx)
	if err != nil {
		return status, engineerr.New(engineerr.TagK8sPodDisruptionBudgetInvalid, details, "failed to list pod disruption budgets", err)
	}
	if len(unhealthy) > 0 {
		pdb := unhealthy[0]
		return status, engineerr.PodDisruptionBudgetInvalid(details, pdb.Name, pdb.CurrentHealthy, pdb.DesiredHealthy)
	}

	if err := p.checkCancel(ctx, eventlog.StepUpgrade, req.Cluster.ID); err != nil {
		return status, err
	}

	if _, err := p.K8s.DeleteCrashLoopingPods(ctx, ""); err != nil {
		p.Logger.Warnf("failed to evict crash-looping pods before upgrade: %v", err)
	}

	if err := p.terraformRenderAndApply(ctx, req, false); err != nil {
		return status, err
	}

	if err := p.waitNodesReady(ctx, req); err != nil {
		return status, err
	}

	return status, nil
}

// Delete runs the six-step destroy sequence from spec §4.4.
func (p *Pipeline) Delete(ctx context.Context, req types.InfrastructureEngineRequest) error {
	details := p.details(eventlog.StepDelete, req.Cluster.ID)

	// Step 1: best-effort reconciliation apply, errors logged as warnings.
	if err := p.terraformRenderAndApply(ctx, req, false); err != nil {
		p.Logger.Warnf("best-effort reconciliation apply before delete failed: %v", err)
	}

	// Step 2: delete non-Qovery-managed namespaces first.
	namespaces, err := p.K8s.ListNamespaces(ctx)
	if err != nil {
		return engineerr.New(engineerr.TagHelmChartsSetupError, details, "failed to list namespaces before delete", err)
	}
	for _, ns := range k8s.GetFirstsNamespacesToDelete(namespaces) {
		if err := p.K8s.ExecDeleteNamespace(ctx, ns); err != nil {
			p.Logger.Warnf("failed to delete namespace %q: %v", ns, err)
		}
	}

	// Step 3: uninstall Qovery-managed helm releases from the well-known
	// namespaces, in the fixed order the spec names.
	cat := chart.BuildCatalogue(p.Hooks.BuildCatalogue(req))
	byNamespace := map[string][]chart.Descriptor{}
	for _, d := range cat.All() {
		byNamespace[d.Namespace] = append(byNamespace[d.Namespace], d)
	}
	for _, ns := range k8s.QoveryManagedNamespaces {
		for _, d := range byNamespace[ns] {
			if err := p.Helm.Helm.Uninstall(d.ReleaseName()); err != nil {
				p.Logger.Warnf("failed to uninstall release %q in namespace %q: %v", d.Name, ns, err)
			}
		}
	}

	// Step 4: sweep cert-manager's custom resources across all namespaces.
	// ClusterIssuer is cluster-scoped, so it does not disappear with any
	// namespace deletion in step 5; left behind, a dangling finalizer or
	// the qovery cert-manager webhook's apiservice can also deadlock the
	// cert-manager namespace in Terminating forever, so both are cleared
	// here before that namespace is deleted.
	if err := p.K8s.DeleteCertManagerResources(ctx); err != nil {
		p.Logger.Warnf("failed to sweep cert-manager custom resources: %v", err)
	}
	if err := p.K8s.DeleteCertManagerWebhookAPIService(ctx); err != nil {
		p.Logger.Warnf("failed to delete qovery cert-manager webhook apiservice: %v", err)
	}

	// Step 5: delete the now-empty Qovery-managed namespaces.
	for _, ns := range k8s.QoveryManagedNamespaces {
		if err := p.K8s.ExecDeleteNamespace(ctx, ns); err != nil {
			p.Logger.Warnf("failed to delete qovery-managed namespace %q: %v", ns, err)
		}
	}

	// Step 6: terraform destroy with three fibonacci-backed retries.
	err = retry.Fibonacci(ctx, 3, time.Second, func() (bool, error) {
		_, destroyErr := p.Terraform.InitValidateDestroy(ctx, false)
		return destroyErr == nil, destroyErr
	})
	if err != nil {
		return engineerr.New(engineerr.TagTerraformWhileExecutingDestroy, details, "terraform destroy failed after retries", err)
	}
	return nil
}

func (p *Pipeline) preFlight(req types.InfrastructureEngineRequest) error {
	details := p.details(eventlog.StepPreFlight, req.Cluster.ID)
	if err := p.Hooks.ValidateInstanceTypes(req.NodeGroups); err != nil {
		return engineerr.New(engineerr.TagUnsupportedInstanceType, details, err.Error(), err)
	}
	if req.Options.VpcCidrBlock != "" {
		if err := vpc.CheckAvailable(req.Cluster.Region, req.Options.VpcCidrBlock); err != nil {
			return engineerr.New(engineerr.TagCannotGetAnyAvailableVPC, details, err.Error(), err)
		}
	}
	return nil
}

func (p *Pipeline) terraformRenderAndApply(ctx context.Context, req types.InfrastructureEngineRequest, dryRun bool) error {
	details := p.details(eventlog.StepTerraformRender, req.Cluster.ID)
	if err := p.Hooks.RenderTerraformVars(ctx, p.Terraform.Dir, req); err != nil {
		return engineerr.New(engineerr.TagTerraformWhileExecutingPipeline, details, "failed to render terraform variables", err)
	}

	entries, err := p.Terraform.InitValidateStateList(ctx)
	if err == nil {
		for _, legacy := range []string{"helm_release.", "kubernetes_namespace."} {
			if terraform.HasStateEntryPrefix(entries, legacy) {
				p.Logger.Warnf("legacy terraform-managed resource %q detected, removing from state before apply", legacy)
				for _, e := range entries {
					if len(e) >= len(legacy) && e[:len(legacy)] == legacy {
						if rmErr := p.Terraform.StateRemove(ctx, e); rmErr != nil {
							p.Logger.Warnf("failed to remove legacy state entry %q: %v", e, rmErr)
						}
					}
				}
			}
		}
	}

	applyDetails := p.details(eventlog.StepTerraformApply, req.Cluster.ID)
	if _, err := p.Terraform.InitValidatePlanApply(ctx, dryRun); err != nil {
		return engineerr.New(engineerr.TagTerraformWhileExecutingPipeline, applyDetails, "terraform apply failed", err)
	}
	return nil
}

func (p *Pipeline) kubeconfigPersist(ctx context.Context, req types.InfrastructureEngineRequest) error {
	details := p.details(eventlog.StepKubeconfigPersist, req.Cluster.ID)
	outputs, err := p.Terraform.Outputs(ctx)
	if err != nil {
		return engineerr.New(engineerr.TagTerraformWhileExecutingPipeline, details, "failed to read terraform outputs", err)
	}
	kubeconfig, err := terraform.OutputString(outputs, "kubeconfig")
	if err != nil {
		return engineerr.New(engineerr.TagTerraformWhileExecutingPipeline, details, "terraform output has no kubeconfig", err)
	}
	if err := k8s.PersistKubeconfig(ctx, p.Store, req.Cluster.ID, []byte(kubeconfig), p.LocalKubeconfigPath); err != nil {
		return engineerr.New(engineerr.TagObjectStorageCannotPutFile, details, "failed to persist kubeconfig", err)
	}
	if p.K8s != nil {
		if err := p.K8s.Reload(p.Scheme); err != nil {
			return engineerr.New(engineerr.TagObjectStorageCannotPutFile, details, "failed to load freshly persisted kubeconfig", err)
		}
	}
	return nil
}

func (p *Pipeline) waitNodesReady(ctx context.Context, req types.InfrastructureEngineRequest) error {
	details := p.details(eventlog.StepWaitNodesReady, req.Cluster.ID)
	if err := p.K8s.WaitNodesReady(ctx, p.Hooks.NodeReadySelector(), 60, 0); err != nil {
		return engineerr.New(engineerr.TagK8sNodeNotReady, details, "nodes did not become ready in time", err)
	}
	return nil
}

func (p *Pipeline) helmDeploy(ctx context.Context, req types.InfrastructureEngineRequest) error {
	details := p.details(eventlog.StepHelmDeploy, req.Cluster.ID)
	cat := chart.BuildCatalogue(p.Hooks.BuildCatalogue(req))
	if err := p.Helm.Deploy(ctx, cat, details, false); err != nil {
		return fmt.Errorf("helm deploy failed: %w", err)
	}
	return nil
}

func (p *Pipeline) checkCancel(ctx context.Context, step eventlog.InfrastructureStep, clusterID types.ClusterID) error {
	if ctx.Err() != nil {
		return engineerr.TaskCancellationRequested(p.details(step, clusterID))
	}
	return nil
}
