// Package helmlayers drives one cluster's helm chart catalogue to
// completion: materialising each chart's values onto disk, running a
// diff-before-apply dry-run, then applying every chart in a level
// concurrently before moving to the next level (spec §4.3 "Layered helm
// deployment"). It mirrors the teacher's pattern of a thin orchestration
// layer (pkg/kubernetes-mcp-server) coordinating lower-level typed clients
// (here internal/tool/helmcli) rather than reimplementing them.
package helmlayers

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/qovery-clone/cluster-engine/internal/chart"
	"github.com/qovery-clone/cluster-engine/internal/engineerr"
	"github.com/qovery-clone/cluster-engine/internal/eventlog"
	"github.com/qovery-clone/cluster-engine/internal/tool/helmcli"
	"github.com/qovery-clone/cluster-engine/internal/workspace"
)

// HelmClient is the subset of *helmcli.Client the deployer drives,
// narrowed to an interface so tests can substitute a fake instead of a
// live helm action.Configuration.
type HelmClient interface {
	UpgradeDiff(in helmcli.ChartInput) (string, error)
	Upgrade(in helmcli.ChartInput) error
	Uninstall(releaseName string) error
	List() ([]helmcli.ReleaseSummary, error)
}

// Deployer applies a chart.Catalogue level by level against one cluster.
type Deployer struct {
	Helm       HelmClient
	Workspace  *workspace.Workspace
	Logger     *eventlog.Logger
	CommonRoot string
	CloudRoot  string
}

// chartOutcome is one chart's apply result, collected back onto the main
// goroutine after a level's fan-out completes.
type chartOutcome struct {
	descriptor chart.Descriptor
	err        error
}

// Deploy applies every level of cat in order. Within a level, every chart
// applies concurrently; the deployer waits for the whole level before
// starting the next one, so that a later level's charts (e.g. nginx
// ingress, depending on cert-manager) never race a dependency that hasn't
// landed yet. When dryRun is true, every chart only renders its
// UpgradeDiff and is logged, never installed.
func (d *Deployer) Deploy(ctx context.Context, cat chart.Catalogue, details eventlog.EventDetails, dryRun bool) error {
	for levelIdx, level := range cat.Levels {
		if len(level) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return engineerr.TaskCancellationRequested(details)
		}

		d.Logger.Infof("applying helm level L%d (%d charts)", levelIdx, len(level))
		outcomes := d.applyLevel(ctx, level, dryRun)

		var failed []chartOutcome
		for _, o := range outcomes {
			if o.err != nil {
				failed = append(failed, o)
			}
		}
		if len(failed) > 0 {
			msgs := make([]string, 0, len(failed))
			for _, f := range failed {
				msgs = append(msgs, fmt.Sprintf("%s: %v", f.descriptor.Name, f.err))
			}
			return engineerr.New(engineerr.TagHelmChartsDeployError, details,
				fmt.Sprintf("level L%d: %d chart(s) failed", levelIdx, len(failed)),
				fmt.Errorf("%v", msgs))
		}
	}
	return nil
}

// applyLevel runs one chart apply per descriptor concurrently, recovering
// from any panic inside a worker so one broken chart can't take down the
// whole level's goroutines.
func (d *Deployer) applyLevel(ctx context.Context, level chart.Level, dryRun bool) []chartOutcome {
	outcomes := make([]chartOutcome, len(level))
	var wg sync.WaitGroup
	wg.Add(len(level))
	for i, desc := range level {
		go func(i int, desc chart.Descriptor) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = chartOutcome{descriptor: desc, err: fmt.Errorf("panic while applying chart %q: %v", desc.Name, r)}
				}
			}()
			outcomes[i] = chartOutcome{descriptor: desc, err: d.applyOne(ctx, desc, dryRun)}
		}(i, desc)
	}
	wg.Wait()
	return outcomes
}

// applyOne materialises desc's values, runs the dry-run diff, logs it, and
// (unless dryRun) applies for real.
func (d *Deployer) applyOne(ctx context.Context, desc chart.Descriptor, dryRun bool) error {
	if desc.Action == chart.ActionDestroy {
		return d.Helm.Uninstall(desc.ReleaseName())
	}

	valuesPath, err := d.materialiseValues(desc)
	if err != nil {
		return err
	}

	in := helmcli.ChartInput{
		ReleaseName: desc.ReleaseName(),
		ChartPath:   desc.ChartPath(d.CommonRoot, d.CloudRoot),
		ValuesFiles: []string{valuesPath},
		Overrides:   mergeOverrides(desc.Overrides, desc.CustomerOverrides),
		TimeoutSecs: desc.TimeoutSeconds,
	}

	// A dry-run diff failure never aborts the level: it's a diagnostic aid,
	// not a precondition for the real apply that follows.
	diff, err := d.Helm.UpgradeDiff(in)
	if err != nil {
		d.Logger.Warnf("dry-run diff for %q failed, continuing without it: %v", desc.Name, err)
	} else if _, werr := d.Workspace.WriteHelmDiff(desc.Name, diff); werr == nil {
		d.Logger.Diff(eventlog.DiffTypeHelm, desc.Name, diff)
	}

	if dryRun {
		return nil
	}
	if desc.Reinstall != nil {
		if err := d.forceReinstallIfNeeded(desc); err != nil {
			return fmt.Errorf("reinstall guard for %q failed: %w", desc.Name, err)
		}
	}
	if err := d.Helm.Upgrade(in); err != nil {
		return fmt.Errorf("apply of %q failed: %w", desc.Name, err)
	}
	return nil
}

// forceReinstallIfNeeded uninstalls desc's release first when the
// currently-installed chart version sits below desc.Reinstall.Threshold,
// for chart upgrades whose CRDs/ownership model changed in a way helm's
// own upgrade path can't reconcile in place.
func (d *Deployer) forceReinstallIfNeeded(desc chart.Descriptor) error {
	releases, err := d.Helm.List()
	if err != nil {
		return fmt.Errorf("list releases: %w", err)
	}
	for _, r := range releases {
		if r.Name != desc.ReleaseName() {
			continue
		}
		shouldReinstall, err := desc.Reinstall.ShouldForceReinstall(r.ChartVersion)
		if err != nil {
			return err
		}
		if !shouldReinstall {
			return nil
		}
		d.Logger.Infof("chart %q installed at %s is below reinstall threshold %s, forcing reinstall", desc.Name, r.ChartVersion, desc.Reinstall.Threshold)
		return d.Helm.Uninstall(desc.ReleaseName())
	}
	return nil
}

// materialiseValues resolves desc's on-disk values file, appending its
// GeneratedValuesYAML fragment (if any) as an extra layer written into the
// workspace so helmcli reads it as just another --values file.
func (d *Deployer) materialiseValues(desc chart.Descriptor) (string, error) {
	base := desc.ValuesPath(d.CommonRoot, d.CloudRoot)
	if desc.GeneratedValuesYAML == "" {
		return base, nil
	}

	var probe map[string]interface{}
	if err := yaml.Unmarshal([]byte(desc.GeneratedValuesYAML), &probe); err != nil {
		return "", fmt.Errorf("generated values fragment for %q is not valid YAML: %w", desc.Name, err)
	}

	rel := fmt.Sprintf("generated-values/%s.yaml", desc.Name)
	if err := d.Workspace.WriteFile(rel, []byte(desc.GeneratedValuesYAML)); err != nil {
		return "", fmt.Errorf("failed to materialise generated values for %q: %w", desc.Name, err)
	}
	return filepath.Join(d.Workspace.Root, rel), nil
}

func mergeOverrides(sets ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, s := range sets {
		for k, v := range s {
			out[k] = v
		}
	}
	return out
}
