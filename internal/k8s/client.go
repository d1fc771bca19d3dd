// Package k8s provides the namespace/secret/service/PDB/node helpers the
// infrastructure actions and environment deployer need against a
// bootstrapped cluster's kubeconfig. It is grounded on the teacher's
// pkg/kubernetes package (client-go clientset + clientcmd + discovery
// wiring), generalized from the teacher's single in-cluster-or-local
// client into a per-task client bound to an explicit kubeconfig path, since
// this engine drives many independent clusters rather than the one it runs
// inside.
package k8s

import (
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	metricsclientset "k8s.io/metrics/pkg/client/clientset/versioned"
	"k8s.io/client-go/tools/clientcmd"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"
)

// Client bundles the clientset flavours a single cluster's lifecycle needs:
// the typed clientset for core resources, a controller-runtime client for
// generic/unstructured access (CRDs, PDBs by label), the discovery client
// for API-resource probing, and the metrics clientset for node usage.
type Client struct {
	KubeconfigPath string
	Clientset      kubernetes.Interface
	Discovery      discovery.DiscoveryInterface
	Metrics        metricsclientset.Interface
	Runtime        ctrlclient.Client
	RestConfig     *rest.Config
}

// NewClient builds a Client bound to the kubeconfig at path. The engine
// passes the local kubeconfig mirror it keeps under
// <LocalKubeconfigRoot>/<cluster_short_id>/<cluster_short_id>.yaml; no copy
// of the kubeconfig is kept inside the task workspace.
func NewClient(path string, scheme *runtime.Scheme) (*Client, error) {
	cfg, err := clientcmd.BuildConfigFromFlags("", path)
	if err != nil {
		return nil, fmt.Errorf("failed to build rest config from kubeconfig %q: %w", path, err)
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build clientset: %w", err)
	}

	disc, err := discovery.NewDiscoveryClientForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build discovery client: %w", err)
	}

	metricsCS, err := metricsclientset.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build metrics client: %w", err)
	}

	rtClient, err := ctrlclient.New(cfg, ctrlclient.Options{Scheme: scheme})
	if err != nil {
		return nil, fmt.Errorf("failed to build controller-runtime client: %w", err)
	}

	return &Client{
		KubeconfigPath: path,
		Clientset:      clientset,
		Discovery:      disc,
		Metrics:        metricsCS,
		Runtime:        rtClient,
		RestConfig:     cfg,
	}, nil
}

// NewEmptyClient returns a Client bound to path but not yet backed by any
// clientset: callers use this when path does not exist yet (a brand new
// cluster's kubeconfig has not been written) and call Reload once it has.
func NewEmptyClient(path string) *Client {
	return &Client{KubeconfigPath: path}
}

// Reload rebuilds every clientset from KubeconfigPath in place. A brand new
// cluster's kubeconfig does not exist on disk yet when the Pipeline's Client
// is first constructed (it is written by kubeconfigPersist, which runs
// before WaitNodesReady is ever called), so the pipeline reloads it once
// the file has actually landed rather than requiring it to pre-exist.
func (c *Client) Reload(scheme *runtime.Scheme) error {
	fresh, err := NewClient(c.KubeconfigPath, scheme)
	if err != nil {
		return err
	}
	*c = *fresh
	return nil
}
