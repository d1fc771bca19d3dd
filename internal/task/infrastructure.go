package task

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qovery-clone/cluster-engine/internal/engineerr"
	"github.com/qovery-clone/cluster-engine/internal/eventlog"
	"github.com/qovery-clone/cluster-engine/internal/infra"
	"github.com/qovery-clone/cluster-engine/internal/k8s"
	"github.com/qovery-clone/cluster-engine/internal/report"
	"github.com/qovery-clone/cluster-engine/internal/types"
	"github.com/qovery-clone/cluster-engine/internal/workspace"
)

// InfrastructureTask drives one InfrastructureEngineRequest end to end:
// runs the right Pipeline action, polls a JobReporter alongside it, and
// archives the workspace to object storage on termination.
type InfrastructureTask struct {
	Pipeline  *infra.Pipeline
	Workspace *workspace.Workspace
	Store     k8s.ObjectStorage
	Reporter  *report.JobReporter
	Logger    *eventlog.Logger
}

// Run executes req.Action against the pipeline, reporting progress and
// archiving the workspace regardless of outcome.
func (t *InfrastructureTask) Run(ctx context.Context, ictx *InfrastructureContext, req types.InfrastructureEngineRequest) error {
	defer ictx.markTerminated()

	reportCtx, stopReporting := context.WithCancel(context.Background())
	defer stopReporting()
	if t.Reporter != nil {
		go func() {
			_ = t.Reporter.Run(reportCtx, 0, func(warnings []report.Warning) {
				for _, w := range warnings {
					t.Logger.Warnf("warning on %s: %s: %s", w.InvolvedObjectUID, w.Reason, w.Message)
				}
			})
		}()
	}

	err := t.run(ctx, req)

	defer t.archiveWorkspace(context.Background(), req)

	if err != nil && t.Reporter != nil {
		cause := report.CauseUnknown
		var engErr *engineerr.EngineError
		switch {
		case ctx.Err() != nil:
			cause = report.CauseCancellation
		case errors.As(err, &engErr) && engErr.Tag == engineerr.TagJobFailure:
			cause = report.CauseJobExhaustion
		}
		recap := t.Reporter.BuildRecap(cause, 0, "")
		t.Logger.Errorf("%s", recap.Message())
	}

	return err
}

func (t *InfrastructureTask) run(ctx context.Context, req types.InfrastructureEngineRequest) error {
	switch req.Action {
	case types.ActionCreate:
		return t.Pipeline.Create(ctx, req, false)
	case types.ActionPause:
		return t.Pipeline.Pause(ctx, req)
	case types.ActionDelete:
		return t.Pipeline.Delete(ctx, req)
	case types.ActionRestart:
		// Infrastructure restart is a pause followed by a fresh create;
		// there is no separate cloud-side "restart" verb to call.
		if err := t.Pipeline.Pause(ctx, req); err != nil {
			return err
		}
		return t.Pipeline.Create(ctx, req, false)
	default:
		return fmt.Errorf("unknown infrastructure action %v", req.Action)
	}
}

func (t *InfrastructureTask) archiveWorkspace(ctx context.Context, req types.InfrastructureEngineRequest) {
	if !workspace.ShouldArchiveWorkspace() || req.Archive == nil || t.Workspace == nil || t.Store == nil {
		return
	}
	tarPath := filepath.Join(os.TempDir(), req.Cluster.ID.Short+".tar.gz")
	defer os.Remove(tarPath)

	if err := t.Workspace.ArchiveToTarGz(tarPath); err != nil {
		t.Logger.Warnf("failed to archive workspace: %v", err)
		return
	}
	data, err := os.ReadFile(tarPath)
	if err != nil {
		t.Logger.Warnf("failed to read workspace archive: %v", err)
		return
	}
	if err := t.Store.PutObject(ctx, req.Archive.Bucket, req.Archive.Key, data); err != nil {
		t.Logger.Warnf("failed to upload workspace archive: %v", err)
	}
}
