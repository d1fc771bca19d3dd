package infra

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qovery-clone/cluster-engine/internal/chart"
	"github.com/qovery-clone/cluster-engine/internal/engineerr"
	"github.com/qovery-clone/cluster-engine/internal/eventlog"
	"github.com/qovery-clone/cluster-engine/internal/k8s"
	"github.com/qovery-clone/cluster-engine/internal/types"
)

type fakeHooks struct {
	validateErr error
}

func (f *fakeHooks) ValidateInstanceTypes(groups []types.NodeGroups) error { return f.validateErr }
func (f *fakeHooks) RenderTerraformVars(ctx context.Context, dir string, req types.InfrastructureEngineRequest) error {
	return nil
}
func (f *fakeHooks) PostDeployHooks(ctx context.Context, kc *k8s.Client, req types.InfrastructureEngineRequest) error {
	return nil
}
func (f *fakeHooks) BuildCatalogue(req types.InfrastructureEngineRequest) chart.CatalogueInput {
	return chart.CatalogueInput{Cloud: types.Aws}
}
func (f *fakeHooks) NodeReadySelector() k8s.NodeSelector { return k8s.NodeSelector{} }

func testPipeline(hooks Hooks) *Pipeline {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Pipeline{
		Hooks:  hooks,
		Logger: eventlog.NewLogger(base, eventlog.EventDetails{}),
	}
}

func testReq() types.InfrastructureEngineRequest {
	id := types.NewClusterID(uuid.New())
	return types.InfrastructureEngineRequest{
		Cluster: types.Cluster{ID: id},
	}
}

func TestPreFlightWrapsHooksErrorAsUnsupportedInstanceType(t *testing.T) {
	p := testPipeline(&fakeHooks{validateErr: errors.New("nope")})
	err := p.preFlight(testReq())
	require.Error(t, err)
	var engErr *engineerr.EngineError
	require.True(t, errors.As(err, &engErr))
	assert.Equal(t, engineerr.TagUnsupportedInstanceType, engErr.Tag)
}

func TestPreFlightPassesWhenHooksApprove(t *testing.T) {
	p := testPipeline(&fakeHooks{})
	assert.NoError(t, p.preFlight(testReq()))
}

func TestCheckCancelReturnsTaskCancellationAfterCancel(t *testing.T) {
	p := testPipeline(&fakeHooks{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.checkCancel(ctx, eventlog.StepPreFlight, testReq().Cluster.ID)
	require.Error(t, err)
	var engErr *engineerr.EngineError
	require.True(t, errors.As(err, &engErr))
	assert.Equal(t, engineerr.TagTaskCancellationRequested, engErr.Tag)
}

func TestCheckCancelIsNilBeforeCancellation(t *testing.T) {
	p := testPipeline(&fakeHooks{})
	assert.NoError(t, p.checkCancel(context.Background(), eventlog.StepPreFlight, testReq().Cluster.ID))
}

func TestDetailsCarriesClusterIDAndStep(t *testing.T) {
	p := testPipeline(&fakeHooks{})
	req := testReq()
	d := p.details(eventlog.StepHelmDeploy, req.Cluster.ID)
	assert.Equal(t, req.Cluster.ID.Long, d.ClusterID)
	assert.Equal(t, eventlog.StepHelmDeploy, d.Step)
	assert.Equal(t, eventlog.StageInfrastructure, d.Stage)
}
