package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	apiruntime "k8s.io/apimachinery/pkg/runtime"

	"github.com/qovery-clone/cluster-engine/internal/config"
	"github.com/qovery-clone/cluster-engine/internal/deploy/helmlayers"
	"github.com/qovery-clone/cluster-engine/internal/deploy/k8sdriver"
	"github.com/qovery-clone/cluster-engine/internal/engineerr"
	"github.com/qovery-clone/cluster-engine/internal/envdeploy"
	"github.com/qovery-clone/cluster-engine/internal/eventlog"
	"github.com/qovery-clone/cluster-engine/internal/infra"
	"github.com/qovery-clone/cluster-engine/internal/k8s"
	"github.com/qovery-clone/cluster-engine/internal/metrics"
	"github.com/qovery-clone/cluster-engine/internal/report"
	"github.com/qovery-clone/cluster-engine/internal/task"
	"github.com/qovery-clone/cluster-engine/internal/tool/helmcli"
	"github.com/qovery-clone/cluster-engine/internal/tool/terraform"
	"github.com/qovery-clone/cluster-engine/internal/types"
	"github.com/qovery-clone/cluster-engine/internal/workspace"
)

// requestEnvelope is the side-channel JSON document fed to the engine
// (stdin or --request-file): exactly one of Infrastructure/Environment is
// set, discriminated by Kind. The control-plane front-end that produces
// this document is out of scope here; it only needs to serialise the two
// request types' exported Go fields as JSON.
type requestEnvelope struct {
	Kind           string                              `json:"kind"`
	Infrastructure *types.InfrastructureEngineRequest   `json:"infrastructure,omitempty"`
	Environment    *types.EnvironmentEngineRequest      `json:"environment,omitempty"`
}

func loadRequest(path string) (*requestEnvelope, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open request file %q: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	var env requestEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	switch env.Kind {
	case "infrastructure":
		if env.Infrastructure == nil {
			return nil, fmt.Errorf("request kind %q carries no infrastructure payload", env.Kind)
		}
	case "environment":
		if env.Environment == nil {
			return nil, fmt.Errorf("request kind %q carries no environment payload", env.Kind)
		}
	default:
		return nil, fmt.Errorf("unknown request kind %q (want \"infrastructure\" or \"environment\")", env.Kind)
	}
	return &env, nil
}

// runtime bundles everything dispatch needs beyond the request itself.
type runtime struct {
	cfg     *config.Engine
	logBase *logrus.Logger
	metrics *metrics.Registry
}

// clientScheme builds the runtime.Scheme every k8s.Client in the engine is
// bound to: the stock client-go scheme covers every type the pipeline and
// the environment driver touch (core, apps, batch, networking).
func clientScheme() *apiruntime.Scheme {
	scheme := apiruntime.NewScheme()
	_ = clientgoscheme.AddToScheme(scheme)
	return scheme
}

// localKubeconfigPath mirrors the mirror path the create flow writes to
// under LocalKubeconfigRoot, keyed by the cluster's short id.
func localKubeconfigPath(cfg *config.Engine, id types.ClusterID) string {
	return filepath.Join(cfg.LocalKubeconfigRoot, id.Short, id.Short+".yaml")
}

func dispatch(ctx context.Context, rt *runtime, env *requestEnvelope) error {
	start := time.Now()
	var kind, action, outcome string

	var err error
	switch env.Kind {
	case "infrastructure":
		kind = "infrastructure"
		action = env.Infrastructure.Action.String()
		err = runInfrastructure(ctx, rt, *env.Infrastructure)
	case "environment":
		kind = "environment"
		action = fmt.Sprintf("%d", env.Environment.Action)
		err = runEnvironment(ctx, rt, *env.Environment)
	}

	outcome = "success"
	if err != nil {
		outcome = "failure"
	}
	rt.metrics.ObserveTask(kind, action, outcome, time.Since(start).Seconds())
	return err
}

func runInfrastructure(ctx context.Context, rt *runtime, req types.InfrastructureEngineRequest) error {
	stack, err := buildCloudStack(ctx, rt.cfg)
	if err != nil {
		return fmt.Errorf("build cloud stack: %w", err)
	}

	ws, err := workspace.New(rt.cfg.WorkspaceRoot, req.Cluster.ID)
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	kubeconfigPath := localKubeconfigPath(rt.cfg, req.Cluster.ID)
	scheme := clientScheme()

	var k8sClient *k8s.Client
	if _, statErr := os.Stat(kubeconfigPath); statErr == nil {
		k8sClient, err = k8s.NewClient(kubeconfigPath, scheme)
		if err != nil {
			return fmt.Errorf("load existing kubeconfig: %w", err)
		}
	} else {
		k8sClient = k8s.NewEmptyClient(kubeconfigPath)
	}

	details := eventlog.EventDetails{ClusterID: req.Cluster.ID.Long, Stage: eventlog.StageInfrastructure, Transmitter: "cluster-engine"}
	logger := eventlog.NewLogger(rt.logBase, details)

	// Materialise the chart bundle into this execution's own workspace
	// (spec §4.3 step 1) instead of reading lib/<cloud>/bootstrap and
	// lib/common/bootstrap in place, so a long-running task is immune to
	// the source tree changing underneath it mid-run.
	cloudRoot, commonRoot, err := ws.MaterialiseBootstrap(afero.NewOsFs(), filepath.Join(rt.cfg.BootstrapLibRoot, rt.cfg.Cloud.Kind, "bootstrap"), filepath.Join(rt.cfg.BootstrapLibRoot, "common", "bootstrap"))
	if err != nil {
		return engineerr.New(engineerr.TagCannotCopyFiles, details, "failed to materialise chart bootstrap bundle", err)
	}

	helmClient := newLazyHelmClient(kubeconfigPath, "kube-system")

	pipeline := &infra.Pipeline{
		Hooks:               stack.Hooks,
		Terraform:           terraform.NewRunner(ws.Root, nil),
		Helm:                &helmlayers.Deployer{Helm: helmClient, Workspace: ws, Logger: logger, CommonRoot: commonRoot, CloudRoot: cloudRoot},
		K8s:                 k8sClient,
		Store:               stack.Store,
		Logger:              logger,
		LocalKubeconfigPath: kubeconfigPath,
		Scheme:              scheme,
	}

	reporter := report.NewJobReporter(k8sClient, "kube-system", "")

	it := &task.InfrastructureTask{
		Pipeline:  pipeline,
		Workspace: ws,
		Store:     stack.Store,
		Reporter:  reporter,
		Logger:    logger,
	}

	ictx, taskCtx := task.NewInfrastructureContext(ctx)
	defer ictx.Cancel()
	return it.Run(taskCtx, ictx, req)
}

func runEnvironment(ctx context.Context, rt *runtime, req types.EnvironmentEngineRequest) error {
	kubeconfigPath := localKubeconfigPath(rt.cfg, req.ClusterID)
	k8sClient, err := k8s.NewClient(kubeconfigPath, clientScheme())
	if err != nil {
		return fmt.Errorf("load kubeconfig for environment deploy: %w", err)
	}

	details := eventlog.EventDetails{ClusterID: req.ClusterID.Long, Stage: eventlog.StageEnvironment, Transmitter: "cluster-engine"}
	logger := eventlog.NewLogger(rt.logBase, details)

	driver := k8sdriver.NewDriver(k8sClient, req.Environment, nil)
	deployer := &envdeploy.Deployer{Driver: driver, Logger: logger}
	et := &task.EnvironmentTask{Deployer: deployer, Logger: logger}
	return et.Run(ctx, envdeploy.NoAbort, req)
}

// lazyHelmClient defers building the real helm action.Configuration until
// the kubeconfig it needs actually exists on disk: for a brand-new cluster
// the Pipeline's Helm field is wired up before kubeconfigPersist has run,
// but helmDeploy, which touches it during Create, always runs after. Delete
// also uses it, to uninstall charts.
type lazyHelmClient struct {
	kubeconfigPath string
	namespace      string

	once   sync.Once
	client *helmcli.Client
	err    error
}

func newLazyHelmClient(kubeconfigPath, namespace string) *lazyHelmClient {
	return &lazyHelmClient{kubeconfigPath: kubeconfigPath, namespace: namespace}
}

func (l *lazyHelmClient) resolve() (*helmcli.Client, error) {
	l.once.Do(func() {
		l.client, l.err = helmcli.NewClient(l.kubeconfigPath, l.namespace)
	})
	return l.client, l.err
}

func (l *lazyHelmClient) UpgradeDiff(in helmcli.ChartInput) (string, error) {
	c, err := l.resolve()
	if err != nil {
		return "", err
	}
	return c.UpgradeDiff(in)
}

func (l *lazyHelmClient) Upgrade(in helmcli.ChartInput) error {
	c, err := l.resolve()
	if err != nil {
		return err
	}
	return c.Upgrade(in)
}

func (l *lazyHelmClient) Uninstall(releaseName string) error {
	c, err := l.resolve()
	if err != nil {
		return err
	}
	return c.Uninstall(releaseName)
}

func (l *lazyHelmClient) List() ([]helmcli.ReleaseSummary, error) {
	c, err := l.resolve()
	if err != nil {
		return nil, err
	}
	return c.List()
}
