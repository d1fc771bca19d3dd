package helmlayers

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qovery-clone/cluster-engine/internal/chart"
	"github.com/qovery-clone/cluster-engine/internal/eventlog"
	"github.com/qovery-clone/cluster-engine/internal/tool/helmcli"
	"github.com/qovery-clone/cluster-engine/internal/types"
	"github.com/qovery-clone/cluster-engine/internal/workspace"
)

// fakeHelmClient records every call made to it and lets tests inject
// per-chart failures, standing in for a live *helmcli.Client.
type fakeHelmClient struct {
	mu          sync.Mutex
	upgraded    []string
	diffed      []string
	uninstalled []string
	failOn      map[string]error
	listReleases []helmcli.ReleaseSummary
}

func newFakeHelmClient(failOn map[string]error) *fakeHelmClient {
	return &fakeHelmClient{failOn: failOn}
}

func (f *fakeHelmClient) UpgradeDiff(in helmcli.ChartInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.diffed = append(f.diffed, in.ReleaseName)
	if err, ok := f.failOn[in.ReleaseName]; ok {
		return "", err
	}
	return "--- rendered manifest ---", nil
}

func (f *fakeHelmClient) Upgrade(in helmcli.ChartInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failOn[in.ReleaseName]; ok {
		return err
	}
	f.upgraded = append(f.upgraded, in.ReleaseName)
	return nil
}

func (f *fakeHelmClient) Uninstall(releaseName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uninstalled = append(f.uninstalled, releaseName)
	return nil
}

func (f *fakeHelmClient) List() ([]helmcli.ReleaseSummary, error) {
	if f.listReleases == nil {
		return nil, nil
	}
	return f.listReleases, nil
}

func testDeployer(t *testing.T, helm HelmClient) (*Deployer, *workspace.Workspace) {
	t.Helper()
	id := types.NewClusterID(uuid.New())
	ws, err := workspace.NewWithFS(afero.NewMemMapFs(), "/tmp/engine-workspaces", id)
	require.NoError(t, err)

	logger := eventlog.NewLogger(silentLogrus(), eventlog.EventDetails{
		ClusterID: id.Long,
		Stage:     eventlog.StageInfrastructure,
		Step:      eventlog.StepHelmDeploy,
	})

	return &Deployer{
		Helm:       helm,
		Workspace:  ws,
		Logger:     logger,
		CommonRoot: "/bootstrap/common",
		CloudRoot:  "/bootstrap/aws",
	}, ws
}

func TestDeployAppliesEveryChartInEveryLevel(t *testing.T) {
	fake := newFakeHelmClient(nil)
	d, _ := testDeployer(t, fake)

	cat := chart.BuildCatalogue(chart.CatalogueInput{
		Cloud:            types.Aws,
		UseKarpenter:     false,
		MetricsEnabled:   true,
		AdvancedSettings: types.DefaultAdvancedSettings(),
	})

	details := eventlog.EventDetails{ClusterID: uuid.New(), Stage: eventlog.StageInfrastructure, Step: eventlog.StepHelmDeploy}
	err := d.Deploy(context.Background(), cat, details, false)
	require.NoError(t, err)

	assert.Equal(t, len(cat.All()), len(fake.upgraded))
	assert.Equal(t, len(cat.All()), len(fake.diffed))
}

func TestDeployDryRunNeverUpgrades(t *testing.T) {
	fake := newFakeHelmClient(nil)
	d, _ := testDeployer(t, fake)

	cat := chart.BuildCatalogue(chart.CatalogueInput{
		Cloud:            types.Gcp,
		AdvancedSettings: types.DefaultAdvancedSettings(),
	})

	details := eventlog.EventDetails{ClusterID: uuid.New(), Stage: eventlog.StageInfrastructure, Step: eventlog.StepHelmDeploy}
	err := d.Deploy(context.Background(), cat, details, true)
	require.NoError(t, err)

	assert.Empty(t, fake.upgraded)
	assert.NotEmpty(t, fake.diffed)
}

func TestDeployStopsAtFirstFailingLevel(t *testing.T) {
	fake := newFakeHelmClient(map[string]error{"priority-classes": fmt.Errorf("boom")})
	d, _ := testDeployer(t, fake)

	cat := chart.BuildCatalogue(chart.CatalogueInput{
		Cloud:            types.Aws,
		AdvancedSettings: types.DefaultAdvancedSettings(),
	})

	details := eventlog.EventDetails{ClusterID: uuid.New(), Stage: eventlog.StageInfrastructure, Step: eventlog.StepHelmDeploy}
	err := d.Deploy(context.Background(), cat, details, false)
	require.Error(t, err)

	assert.Equal(t, []string{"qovery-priority-class"}, fake.upgraded, "only L0's non-failing sibling applies; no later level starts once L0 fails")
}

func TestApplyOneForcesReinstallBelowThreshold(t *testing.T) {
	fake := newFakeHelmClient(nil)
	fake.listReleases = []helmcli.ReleaseSummary{{Name: "ingress-nginx", ChartVersion: "8.4.1"}}
	d, ws := testDeployer(t, fake)
	require.NoError(t, ws.FS.MkdirAll("/bootstrap/common/chart_values", 0o755))
	require.NoError(t, afero.WriteFile(ws.FS, "/bootstrap/common/chart_values/ingress.yaml", []byte("replicaCount: 1\n"), 0o644))

	desc := chart.Descriptor{
		Name:               "ingress-nginx",
		ValuesRelativePath: "ingress.yaml",
		Reinstall:          &chart.ReinstallGuard{Threshold: "9.0.0"},
	}

	var cat chart.Catalogue
	cat.Levels[0] = chart.Level{desc}
	details := eventlog.EventDetails{ClusterID: uuid.New(), Stage: eventlog.StageInfrastructure, Step: eventlog.StepHelmDeploy}
	require.NoError(t, d.Deploy(context.Background(), cat, details, false))

	assert.Contains(t, fake.uninstalled, "ingress-nginx")
	assert.Contains(t, fake.upgraded, "ingress-nginx")
}

func TestDeployRespectsCancellationBetweenLevels(t *testing.T) {
	fake := newFakeHelmClient(nil)
	d, _ := testDeployer(t, fake)

	cat := chart.BuildCatalogue(chart.CatalogueInput{
		Cloud:            types.Aws,
		AdvancedSettings: types.DefaultAdvancedSettings(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	details := eventlog.EventDetails{ClusterID: uuid.New(), Stage: eventlog.StageInfrastructure, Step: eventlog.StepHelmDeploy}
	err := d.Deploy(ctx, cat, details, false)
	require.Error(t, err)
	assert.Empty(t, fake.upgraded)
}
