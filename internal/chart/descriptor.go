// Package chart implements the helm chart catalogue (spec §4.2): one
// descriptor per platform chart, the directory-location resolution
// strategy, the resource-profile unit types, and the generic "overrides
// are a subset of the values file" unit test required of every
// descriptor.
package chart

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/blang/semver/v4"

	"github.com/qovery-clone/cluster-engine/internal/types"
)

// HelmAction selects whether a chart descriptor installs/upgrades or
// uninstalls its release.
type HelmAction int

const (
	ActionDeploy HelmAction = iota
	ActionDestroy
)

// DirectoryLocation selects which on-disk tree a chart's body/values
// resolve from: a body shared across clouds, or a cloud-specific one
// (spec §4.2, §6 "Helm chart bundle layout").
type DirectoryLocation int

const (
	CommonFolder DirectoryLocation = iota
	CloudProviderFolder
)

// VPAConfig configures a chart's Vertical Pod Autoscaler resource, when
// the chart opts into one (the VPA CRDs themselves are bootstrapped
// separately at L3, see Level 3 in the catalogue).
type VPAConfig struct {
	ContainerName string
	MinCPU        types.MilliCpu
	MaxCPU        types.MilliCpu
	MinMemory     types.MebiByte
	MaxMemory     types.MebiByte
}

// ResourceProfile is either the chart's own defaults (Default) or an
// explicit constraint expressed in semantic units.
type ResourceProfile struct {
	UseChartDefaults bool
	RequestsCPU      types.MilliCpu
	LimitsCPU        types.MilliCpu
	RequestsMemory   types.MebiByte
	LimitsMemory     types.MebiByte
}

// InstallationChecker probes the cluster after a chart installs, e.g.
// waiting for a Deployment to report Available, or a CRD to be
// Established. Checkers are expected to be idempotent and read-only
// against the cluster API (spec §5 shared-resource discipline).
type InstallationChecker interface {
	CheckInstalled(ctx context.Context, namespace, releaseName string) error
}

// ReinstallGuard forces a destroy-then-recreate of a chart when the
// installed release's chart version is below Threshold, used for
// known-breaking upgrades (spec §4.2).
type ReinstallGuard struct {
	Threshold string // semver-ish chart version string, e.g. "9.0.0"
}

// ShouldForceReinstall reports whether installedVersion is strictly below
// Threshold, meaning the caller should uninstall-then-reinstall rather than
// upgrade in place. An empty installedVersion (no release installed yet)
// never forces a reinstall; an unparsable installedVersion or Threshold is
// returned as an error.
func (g ReinstallGuard) ShouldForceReinstall(installedVersion string) (bool, error) {
	if installedVersion == "" {
		return false, nil
	}
	installed, err := semver.ParseTolerant(installedVersion)
	if err != nil {
		return false, fmt.Errorf("parse installed chart version %q: %w", installedVersion, err)
	}
	threshold, err := semver.ParseTolerant(g.Threshold)
	if err != nil {
		return false, fmt.Errorf("parse reinstall threshold %q: %w", g.Threshold, err)
	}
	return installed.LT(threshold), nil
}

// Descriptor is the single type every platform chart in the catalogue is
// expressed as.
type Descriptor struct {
	Name             string
	Location         DirectoryLocation
	ChartRelativePath string // relative to the resolved charts/ tree
	ValuesRelativePath string // relative to the resolved chart_values/ tree
	Namespace        string
	Action           HelmAction
	TimeoutSeconds   int
	Resources        ResourceProfile
	Overrides        map[string]string // dotted-path key -> value
	GeneratedValuesYAML string         // optional generated fragment, rendered at materialisation time
	CustomerOverrides   map[string]string
	VPA              *VPAConfig
	Checker          InstallationChecker
	Reinstall        *ReinstallGuard
}

// ChartPath resolves the on-disk chart body path given the two resolved
// roots (common and cloud-specific bootstrap trees).
func (d Descriptor) ChartPath(commonRoot, cloudRoot string) string {
	root := commonRoot
	if d.Location == CloudProviderFolder {
		root = cloudRoot
	}
	return filepath.Join(root, "charts", d.ChartRelativePath)
}

// ValuesPath resolves the on-disk values file path the same way.
func (d Descriptor) ValuesPath(commonRoot, cloudRoot string) string {
	root := commonRoot
	if d.Location == CloudProviderFolder {
		root = cloudRoot
	}
	return filepath.Join(root, "chart_values", d.ValuesRelativePath)
}

// ReleaseName defaults to the chart's Name; kept as a function (rather than
// a bare field) so charts installed twice under different release names
// (VPA's disabled-then-enabled install at L3/L4) can override it.
func (d Descriptor) ReleaseName() string {
	return d.Name
}

func (d Descriptor) String() string {
	marker := "📥"
	if d.Action == ActionDestroy {
		marker = "📤"
	}
	return fmt.Sprintf("%s %s", marker, d.Name)
}
