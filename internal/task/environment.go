package task

import (
	"context"
	"fmt"

	"github.com/qovery-clone/cluster-engine/internal/envdeploy"
	"github.com/qovery-clone/cluster-engine/internal/eventlog"
	"github.com/qovery-clone/cluster-engine/internal/types"
)

// EnvironmentTask drives one EnvironmentEngineRequest through envdeploy.
type EnvironmentTask struct {
	Deployer *envdeploy.Deployer
	Logger   *eventlog.Logger
}

// Run dispatches req.Action to the matching envdeploy.Deployer method.
func (t *EnvironmentTask) Run(ctx context.Context, abort envdeploy.AbortProbe, req types.EnvironmentEngineRequest) error {
	switch req.Action {
	case types.EnvActionCreate:
		return t.Deployer.Create(ctx, req, abort)
	case types.EnvActionPause:
		return t.Deployer.Pause(ctx, req, abort)
	case types.EnvActionDelete:
		return t.Deployer.Delete(ctx, req, abort)
	case types.EnvActionRestart:
		return t.Deployer.Restart(ctx, req, abort)
	default:
		return fmt.Errorf("unknown environment action %v", req.Action)
	}
}
