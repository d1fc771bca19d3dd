package k8sdriver

import (
	"context"
	"testing"

	"github.com/google/uuid"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qovery-clone/cluster-engine/internal/k8s"
	"github.com/qovery-clone/cluster-engine/internal/types"
)

func testEnv() types.Environment {
	return types.Environment{
		ID: uuid.New(),
		Services: []types.EnvironmentService{
			{ServiceRef: types.ServiceRef{ID: uuid.New(), Name: "api"}, Kind: types.ServiceContainer},
		},
	}
}

func TestDeployServiceRecordsPhaseConfigMap(t *testing.T) {
	cs := fake.NewSimpleClientset()
	env := testEnv()
	d := NewDriver(&k8s.Client{Clientset: cs}, env, nil)

	require.NoError(t, d.DeployNamespace(context.Background(), env))
	require.NoError(t, d.DeployService(context.Background(), env.Services[0]))

	cmName := "svc-" + env.Services[0].ID.String()[:8]
	cm, err := cs.CoreV1().ConfigMaps(namespaceName(env)).Get(context.Background(), cmName, metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "deployed", cm.Labels[phaseLabel])
	assert.Equal(t, "container", cm.Labels[kindLabel])
}

func TestPauseThenDeleteServiceTransitionsPhase(t *testing.T) {
	cs := fake.NewSimpleClientset()
	env := testEnv()
	d := NewDriver(&k8s.Client{Clientset: cs}, env, nil)
	ctx := context.Background()

	require.NoError(t, d.DeployNamespace(ctx, env))
	require.NoError(t, d.DeployService(ctx, env.Services[0]))
	require.NoError(t, d.PauseService(ctx, env.Services[0]))

	cmName := "svc-" + env.Services[0].ID.String()[:8]
	cm, err := cs.CoreV1().ConfigMaps(namespaceName(env)).Get(ctx, cmName, metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "paused", cm.Labels[phaseLabel])

	require.NoError(t, d.DeleteService(ctx, env.Services[0]))
	_, err = cs.CoreV1().ConfigMaps(namespaceName(env)).Get(ctx, cmName, metav1.GetOptions{})
	assert.Error(t, err)
}

func TestDeployRouterCreatesIngress(t *testing.T) {
	cs := fake.NewSimpleClientset()
	env := testEnv()
	d := NewDriver(&k8s.Client{Clientset: cs}, env, nil)
	ctx := context.Background()
	require.NoError(t, d.DeployNamespace(ctx, env))

	router := types.Router{ServiceRef: types.ServiceRef{ID: uuid.New(), Name: "api.example.com"}, AssociatedServiceID: env.Services[0].ID}
	require.NoError(t, d.DeployRouter(ctx, router))

	ing, err := cs.NetworkingV1().Ingresses(namespaceName(env)).Get(ctx, ingressName(router), metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "api.example.com", ing.Spec.Rules[0].Host)

	require.NoError(t, d.DeleteRouter(ctx, router))
	_, err = cs.NetworkingV1().Ingresses(namespaceName(env)).Get(ctx, ingressName(router), metav1.GetOptions{})
	assert.Error(t, err)
}

func TestCleanupOrphanLoadBalancersInvokesResolverPerIngressHostname(t *testing.T) {
	cs := fake.NewSimpleClientset()
	env := testEnv()
	ns := namespaceName(env)
	svc := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "nginx-ingress", Namespace: ns},
		Spec:       corev1.ServiceSpec{Type: corev1.ServiceTypeLoadBalancer},
		Status: corev1.ServiceStatus{LoadBalancer: corev1.LoadBalancerStatus{
			Ingress: []corev1.LoadBalancerIngress{{Hostname: "orphan-lb.elb.amazonaws.com"}},
		}},
	}
	_, err := cs.CoreV1().Services(ns).Create(context.Background(), svc, metav1.CreateOptions{})
	require.NoError(t, err)

	var resolved []string
	d := NewDriver(&k8s.Client{Clientset: cs}, env, func(ctx context.Context, id string) error {
		resolved = append(resolved, id)
		return nil
	})

	require.NoError(t, d.CleanupOrphanLoadBalancers(context.Background()))
	assert.Equal(t, []string{"orphan-lb.elb.amazonaws.com"}, resolved)
}
