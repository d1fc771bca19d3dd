package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qovery-clone/cluster-engine/internal/types"
)

// fixtureValues stands in for each chart's real values.yaml: only the keys
// a descriptor might override need to be present for this test, so every
// dotted path used anywhere in catalogue_descriptors.go is declared here
// once, nested the way sigs.k8s.io/yaml would unmarshal it.
const fixtureValuesYAML = `
admissionController:
  enabled: false
prometheus:
  prometheusSpec:
    retention: 15d
    thanos:
      objectStorageConfig:
        key: ""
loki:
  storage:
    type: ""
thanos:
  objstoreConfig:
    type: ""
controller:
  autoscaling:
    minReplicas: 2
    maxReplicas: 25
  resources:
    requests:
      cpu: 200m
    limits:
      cpu: 500m
`

func fixtureValues(t *testing.T) map[string]interface{} {
	t.Helper()
	values, err := ParseValues([]byte(fixtureValuesYAML))
	require.NoError(t, err)
	return values
}

// TestCatalogueOverridesSubsetOfValues is the generic descriptor contract
// test required by spec §4.2/§8: every chart's inline Overrides keys must
// already exist in its values file, so a helm --set never introduces a key
// the chart itself doesn't define.
func TestCatalogueOverridesSubsetOfValues(t *testing.T) {
	values := fixtureValues(t)

	inputs := []CatalogueInput{
		{
			Cloud:            types.Aws,
			UseKarpenter:     true,
			MetricsEnabled:   true,
			QoveryDNS:        true,
			ALBEnabled:       true,
			IAMEKSUserMapper: true,
			AdvancedSettings: types.DefaultAdvancedSettings(),
			ObjectStorageBackend: "s3",
		},
		{
			Cloud:            types.Gcp,
			UseKarpenter:     false,
			MetricsEnabled:   true,
			QoveryDNS:        false,
			AdvancedSettings: types.DefaultAdvancedSettings(),
			ObjectStorageBackend: "gcs",
		},
	}

	for _, in := range inputs {
		cat := BuildCatalogue(in)
		for _, d := range cat.All() {
			if len(d.Overrides) == 0 {
				continue
			}
			err := OverridesSubsetOfValues(values, d.Overrides)
			assert.NoErrorf(t, err, "descriptor %s: %v", d.Name, err)
		}
	}
}

// TestBuildCatalogueLevelOrdering pins the level-assignment contract from
// spec §4.3 so a future chart addition can't silently land in the wrong
// level.
func TestBuildCatalogueLevelOrdering(t *testing.T) {
	cat := BuildCatalogue(CatalogueInput{
		Cloud:            types.Aws,
		UseKarpenter:     true,
		MetricsEnabled:   true,
		QoveryDNS:        true,
		ALBEnabled:       true,
		IAMEKSUserMapper: true,
		AdvancedSettings: types.DefaultAdvancedSettings(),
	})

	names := func(lvl Level) []string {
		var out []string
		for _, d := range lvl {
			out = append(out, d.Name)
		}
		return out
	}

	assert.Contains(t, names(cat.Levels[0]), "karpenter-crd")
	assert.Contains(t, names(cat.Levels[1]), "karpenter")
	assert.Contains(t, names(cat.Levels[1]), "iam-eks-user-mapper")
	assert.Contains(t, names(cat.Levels[1]), "cni-csi-addons")
	assert.Contains(t, names(cat.Levels[2]), "karpenter-configuration")
	assert.Contains(t, names(cat.Levels[2]), "aws-node-termination-handler")
	assert.Equal(t, "vpa-crds", cat.Levels[3][0].Name)
	assert.Contains(t, names(cat.Levels[4]), "prometheus-operator-crds")
	assert.Contains(t, names(cat.Levels[4]), "kube-prometheus-stack")
	assert.Contains(t, names(cat.Levels[5]), "thanos")
	assert.NotContains(t, names(cat.Levels[5]), "cluster-autoscaler", "karpenter clusters skip the classic autoscaler")
	assert.Contains(t, names(cat.Levels[6]), "cert-manager")
	assert.Contains(t, names(cat.Levels[7]), "qovery-cert-manager-webhook")
	assert.Contains(t, names(cat.Levels[8]), "aws-load-balancer-controller")
	assert.Contains(t, names(cat.Levels[9]), "nginx-ingress")
	assert.Contains(t, names(cat.Levels[10]), "qovery-engine")
}

// TestBuildCatalogueNonKarpenterUsesClusterAutoscaler exercises the
// opposite branch: no Karpenter means the classic cluster-autoscaler is
// installed at L5 instead.
func TestBuildCatalogueNonKarpenterUsesClusterAutoscaler(t *testing.T) {
	cat := BuildCatalogue(CatalogueInput{
		Cloud:            types.Gcp,
		UseKarpenter:     false,
		MetricsEnabled:   false,
		AdvancedSettings: types.DefaultAdvancedSettings(),
	})

	var found bool
	for _, d := range cat.Levels[5] {
		if d.Name == "cluster-autoscaler" {
			found = true
		}
	}
	assert.True(t, found)

	for _, d := range cat.All() {
		assert.NotEqual(t, "karpenter", d.Name)
	}
}
