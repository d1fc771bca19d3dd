package workspace

import (
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qovery-clone/cluster-engine/internal/types"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	id := types.NewClusterID(uuid.New())
	ws, err := NewWithFS(afero.NewMemMapFs(), "/tmp/engine-workspaces", id)
	require.NoError(t, err)
	return ws
}

func TestWriteFileCreatesParentDirs(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, ws.WriteFile("charts/nginx-ingress/values.yaml", []byte("foo: bar")))

	body, err := afero.ReadFile(ws.FS, ws.Root+"/charts/nginx-ingress/values.yaml")
	require.NoError(t, err)
	assert.Equal(t, "foo: bar", string(body))
}

func TestWriteHelmDiffPath(t *testing.T) {
	ws := newTestWorkspace(t)
	path, err := ws.WriteHelmDiff("cert-manager", "--- diff ---")
	require.NoError(t, err)
	assert.Contains(t, path, "helm-diffs/cert-manager.diff")

	body, err := afero.ReadFile(ws.FS, path)
	require.NoError(t, err)
	assert.Equal(t, "--- diff ---", string(body))
}

func TestMaterialiseBootstrapCopiesBothTrees(t *testing.T) {
	src := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(src, "/lib/aws/bootstrap/charts/alb-controller/Chart.yaml", []byte("name: alb-controller"), 0o644))
	require.NoError(t, afero.WriteFile(src, "/lib/common/bootstrap/charts/cert-manager/Chart.yaml", []byte("name: cert-manager"), 0o644))

	ws := newTestWorkspace(t)
	cloudDst, commonDst, err := ws.MaterialiseBootstrap(src, "/lib/aws/bootstrap", "/lib/common/bootstrap")
	require.NoError(t, err)

	cloudBody, err := afero.ReadFile(ws.FS, cloudDst+"/charts/alb-controller/Chart.yaml")
	require.NoError(t, err)
	assert.Equal(t, "name: alb-controller", string(cloudBody))

	commonBody, err := afero.ReadFile(ws.FS, commonDst+"/charts/cert-manager/Chart.yaml")
	require.NoError(t, err)
	assert.Equal(t, "name: cert-manager", string(commonBody))
}

func TestCleanupRemovesTree(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, ws.WriteFile("terraform/main.tf", []byte("# tf")))
	require.NoError(t, ws.Cleanup())

	exists, err := afero.DirExists(ws.FS, ws.Root)
	require.NoError(t, err)
	assert.False(t, exists)
}
