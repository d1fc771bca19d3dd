package envdeploy

import (
	"context"
	"fmt"

	"github.com/qovery-clone/cluster-engine/internal/eventlog"
	"github.com/qovery-clone/cluster-engine/internal/types"
)

// ServiceDriver performs the actual per-kind, per-action work; envdeploy
// only owns ordering and concurrency, never the mechanics of deploying a
// database versus a container versus a terraform service.
type ServiceDriver interface {
	DeployNamespace(ctx context.Context, env types.Environment) error
	PauseNamespace(ctx context.Context, env types.Environment) error
	DeleteNamespace(ctx context.Context, env types.Environment) error

	DeployService(ctx context.Context, svc types.EnvironmentService) error
	PauseService(ctx context.Context, svc types.EnvironmentService) error
	DeleteService(ctx context.Context, svc types.EnvironmentService) error
	RestartService(ctx context.Context, svc types.EnvironmentService) error

	DeployRouter(ctx context.Context, r types.Router) error
	PauseRouter(ctx context.Context, r types.Router) error
	DeleteRouter(ctx context.Context, r types.Router) error
	RestartRouter(ctx context.Context, r types.Router) error

	// CleanupOrphanLoadBalancers removes any L4 load balancer (AWS NLB)
	// left behind by a deleted router, run once after Create succeeds.
	CleanupOrphanLoadBalancers(ctx context.Context) error
}

// Deployer drives one Environment through an action using Driver.
type Deployer struct {
	Driver ServiceDriver
	Logger *eventlog.Logger
}

func parallelism(hint int) int {
	if hint < 1 {
		return 1
	}
	return hint
}

// Create deploys the namespace, then every service in declared order with
// bounded concurrency; each service's associated router (if any) deploys
// immediately after that service, strictly ordered within the pair.
func (d *Deployer) Create(ctx context.Context, req types.EnvironmentEngineRequest, abort AbortProbe) error {
	env := req.Environment
	d.logf("deploying namespace for environment %s", env.ID)
	if err := d.Driver.DeployNamespace(ctx, env); err != nil {
		return fmt.Errorf("deploy namespace: %w", err)
	}

	tasks := make([]Task, 0, len(env.Services))
	for _, svc := range env.Services {
		svc := svc
		tasks = append(tasks, Task{
			Name: svc.Name,
			Run: func(ctx context.Context) error {
				if err := d.Driver.DeployService(ctx, svc); err != nil {
					return fmt.Errorf("deploy service: %w", err)
				}
				if router, ok := env.RouterFor(svc.ID); ok {
					if err := d.Driver.DeployRouter(ctx, router); err != nil {
						return fmt.Errorf("deploy router %q: %w", router.Name, err)
					}
				}
				return nil
			},
		})
	}

	if err := RunBounded(ctx, tasks, parallelism(req.MaxParallelDeploy), abort); err != nil {
		return err
	}
	d.logf("cleaning up orphan load balancers for environment %s", env.ID)
	return d.Driver.CleanupOrphanLoadBalancers(ctx)
}

func (d *Deployer) logf(format string, a ...any) {
	if d.Logger != nil {
		d.Logger.Infof(format, a...)
	}
}

// Pause pauses every service in reverse declared order (router first, then
// the service), then the namespace.
func (d *Deployer) Pause(ctx context.Context, req types.EnvironmentEngineRequest, abort AbortProbe) error {
	env := req.Environment
	tasks := reverseTasks(env, func(ctx context.Context, svc types.EnvironmentService, router types.Router, hasRouter bool) error {
		if hasRouter {
			if err := d.Driver.PauseRouter(ctx, router); err != nil {
				return fmt.Errorf("pause router %q: %w", router.Name, err)
			}
		}
		if err := d.Driver.PauseService(ctx, svc); err != nil {
			return fmt.Errorf("pause service: %w", err)
		}
		return nil
	})
	if err := RunBounded(ctx, tasks, parallelism(req.MaxParallelDeploy), abort); err != nil {
		return err
	}
	return d.Driver.PauseNamespace(ctx, env)
}

// Delete re-creates the namespace first so on-delete jobs can still run,
// then deletes every service in reverse declared order (router first),
// finally deleting the namespace.
func (d *Deployer) Delete(ctx context.Context, req types.EnvironmentEngineRequest, abort AbortProbe) error {
	env := req.Environment
	if err := d.Driver.DeployNamespace(ctx, env); err != nil {
		return fmt.Errorf("recreate namespace before delete: %w", err)
	}

	tasks := reverseTasks(env, func(ctx context.Context, svc types.EnvironmentService, router types.Router, hasRouter bool) error {
		if hasRouter {
			if err := d.Driver.DeleteRouter(ctx, router); err != nil {
				return fmt.Errorf("delete router %q: %w", router.Name, err)
			}
		}
		if err := d.Driver.DeleteService(ctx, svc); err != nil {
			return fmt.Errorf("delete service: %w", err)
		}
		return nil
	})
	if err := RunBounded(ctx, tasks, parallelism(req.MaxParallelDeploy), abort); err != nil {
		return err
	}
	return d.Driver.DeleteNamespace(ctx, env)
}

// Restart restarts every service in declared order, service then router.
func (d *Deployer) Restart(ctx context.Context, req types.EnvironmentEngineRequest, abort AbortProbe) error {
	env := req.Environment
	tasks := make([]Task, 0, len(env.Services))
	for _, svc := range env.Services {
		svc := svc
		tasks = append(tasks, Task{
			Name: svc.Name,
			Run: func(ctx context.Context) error {
				if err := d.Driver.RestartService(ctx, svc); err != nil {
					return fmt.Errorf("restart service: %w", err)
				}
				if router, ok := env.RouterFor(svc.ID); ok {
					if err := d.Driver.RestartRouter(ctx, router); err != nil {
						return fmt.Errorf("restart router %q: %w", router.Name, err)
					}
				}
				return nil
			},
		})
	}
	return RunBounded(ctx, tasks, parallelism(req.MaxParallelDeploy), abort)
}

func reverseTasks(env types.Environment, run func(ctx context.Context, svc types.EnvironmentService, router types.Router, hasRouter bool) error) []Task {
	tasks := make([]Task, 0, len(env.Services))
	for i := len(env.Services) - 1; i >= 0; i-- {
		svc := env.Services[i]
		router, ok := env.RouterFor(svc.ID)
		tasks = append(tasks, Task{
			Name: svc.Name,
			Run: func(ctx context.Context) error {
				return run(ctx, svc, router, ok)
			},
		})
	}
	return tasks
}
