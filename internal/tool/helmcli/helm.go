// Package helmcli wraps helm.sh/helm/v3's action package the way the
// teacher repo depends on the same module (github.com/scoutflo/kubernetes-mcp-server
// carries helm.sh/helm/v3 in its go.mod as its helm surface). Every chart
// apply in the layered deployment engine goes through this package.
package helmcli

import (
	"fmt"
	"time"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/chartutil"
	"helm.sh/helm/v3/pkg/cli"
)

// Client drives helm releases against one fixed kubeconfig/namespace pair.
// The engine builds one Client per request and shares it across every chart
// apply, matching the source's "compose one environment map with
// KUBECONFIG always injected" contract.
type Client struct {
	kubeconfigPath string
	namespace      string
	cfg            *action.Configuration
}

// NewClient initialises a helm action.Configuration against the given
// kubeconfig and namespace, using the cli.New() environment settings the
// same way `helm` itself bootstraps.
func NewClient(kubeconfigPath, namespace string) (*Client, error) {
	settings := cli.New()
	settings.KubeConfig = kubeconfigPath
	settings.SetNamespace(namespace)

	cfg := new(action.Configuration)
	if err := cfg.Init(settings.RESTClientGetter(), namespace, "secrets", func(format string, v ...interface{}) {}); err != nil {
		return nil, fmt.Errorf("failed to initialize helm action configuration: %w", err)
	}
	return &Client{kubeconfigPath: kubeconfigPath, namespace: namespace, cfg: cfg}, nil
}

// ChartInput is everything needed to drive one helm release.
type ChartInput struct {
	ReleaseName string
	ChartPath   string
	ValuesFiles []string
	Overrides   map[string]string // dotted-path key -> value, e.g. Set overrides
	Values      map[string]interface{}
	TimeoutSecs int
}

// UpgradeDiff runs the helm SDK equivalent of `helm upgrade --install
// --dry-run --debug`, returning a textual diff of the rendered manifest
// against the current release (spec §4.3 step 4). The helm Go SDK has no
// first-class "diff" action (that's the `helm-diff` plugin's job); here the
// dry-run rendered manifest itself is treated as the diff payload, which is
// what gets written to helm-diffs/<chart>.diff and logged.
func (c *Client) UpgradeDiff(in ChartInput) (string, error) {
	client := action.NewUpgrade(c.cfg)
	client.DryRun = true
	client.Install = true
	client.Namespace = c.namespace
	if in.TimeoutSecs > 0 {
		client.Timeout = time.Duration(in.TimeoutSecs) * time.Second
	}

	ch, err := loader.Load(in.ChartPath)
	if err != nil {
		return "", fmt.Errorf("failed to load chart at %q: %w", in.ChartPath, err)
	}

	vals, err := mergedValues(in)
	if err != nil {
		return "", err
	}

	rel, err := client.Run(in.ReleaseName, ch, vals)
	if err != nil {
		return "", fmt.Errorf("helm dry-run upgrade of %q failed: %w", in.ReleaseName, err)
	}
	return rel.Manifest, nil
}

// Upgrade runs `helm upgrade --install` for real.
func (c *Client) Upgrade(in ChartInput) error {
	client := action.NewUpgrade(c.cfg)
	client.Install = true
	client.Namespace = c.namespace
	if in.TimeoutSecs > 0 {
		client.Timeout = time.Duration(in.TimeoutSecs) * time.Second
	}

	ch, err := loader.Load(in.ChartPath)
	if err != nil {
		return fmt.Errorf("failed to load chart at %q: %w", in.ChartPath, err)
	}

	vals, err := mergedValues(in)
	if err != nil {
		return err
	}

	if _, err := client.Run(in.ReleaseName, ch, vals); err != nil {
		return fmt.Errorf("helm upgrade of %q failed: %w", in.ReleaseName, err)
	}
	return nil
}

// Uninstall runs `helm uninstall`.
func (c *Client) Uninstall(releaseName string) error {
	client := action.NewUninstall(c.cfg)
	if _, err := client.Run(releaseName); err != nil {
		return fmt.Errorf("helm uninstall of %q failed: %w", releaseName, err)
	}
	return nil
}

// ReleaseSummary is the subset of a helm release listing surfaced to
// callers of List.
type ReleaseSummary struct {
	Name         string
	Namespace    string
	Status       string
	Version      int    // release revision number
	ChartVersion string // the installed chart's own semver, e.g. "9.1.2"
}

// List runs `helm list --all`: releases of every status in the namespace
// the configuration was initialised with.
func (c *Client) List() ([]ReleaseSummary, error) {
	client := action.NewList(c.cfg)
	client.All = true
	releases, err := client.Run()
	if err != nil {
		return nil, fmt.Errorf("helm list failed: %w", err)
	}
	out := make([]ReleaseSummary, 0, len(releases))
	for _, r := range releases {
		chartVersion := ""
		if r.Chart != nil && r.Chart.Metadata != nil {
			chartVersion = r.Chart.Metadata.Version
		}
		out = append(out, ReleaseSummary{
			Name:         r.Name,
			Namespace:    r.Namespace,
			Status:       r.Info.Status.String(),
			Version:      r.Version,
			ChartVersion: chartVersion,
		})
	}
	return out, nil
}

func mergedValues(in ChartInput) (map[string]interface{}, error) {
	vals := map[string]interface{}{}
	for _, f := range in.ValuesFiles {
		fileVals, err := chartutil.ReadValuesFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read values file %q: %w", f, err)
		}
		vals = chartutil.CoalesceTables(vals, fileVals)
	}
	vals = chartutil.CoalesceTables(vals, in.Values)
	for k, v := range in.Overrides {
		if err := setDottedPath(vals, k, v); err != nil {
			return nil, fmt.Errorf("failed to apply override %q: %w", k, err)
		}
	}
	return vals, nil
}
