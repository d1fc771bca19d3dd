// Package eventlog carries the structured event model shared by every
// stage of an infrastructure or environment task: which stage emitted an
// event, at what severity, and (for helm) what kind of diff it carries.
// It wraps github.com/sirupsen/logrus the way the teacher wraps klog for
// CLI-facing logs: this package is for the per-task audit trail that is
// eventually surfaced to both operators and end users.
package eventlog

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Stage identifies which macro-phase of the engine emitted an event.
type Stage int

const (
	StageInfrastructure Stage = iota
	StageEnvironment
	StageGeneral
)

func (s Stage) String() string {
	switch s {
	case StageInfrastructure:
		return "Infrastructure"
	case StageEnvironment:
		return "Environment"
	default:
		return "General"
	}
}

// InfrastructureStep names the sub-phase within StageInfrastructure, used
// both for log tagging and for the EngineError stage tag.
type InfrastructureStep int

const (
	StepPreFlight InfrastructureStep = iota
	StepTerraformRender
	StepTerraformApply
	StepKubeconfigPersist
	StepWaitNodesReady
	StepHelmDeploy
	StepPostDeployHooks
	StepUpgrade
	StepDelete
)

func (s InfrastructureStep) String() string {
	switch s {
	case StepPreFlight:
		return "PreFlight"
	case StepTerraformRender:
		return "TerraformRender"
	case StepTerraformApply:
		return "TerraformApply"
	case StepKubeconfigPersist:
		return "KubeconfigPersist"
	case StepWaitNodesReady:
		return "WaitNodesReady"
	case StepHelmDeploy:
		return "HelmDeploy"
	case StepPostDeployHooks:
		return "PostDeployHooks"
	case StepUpgrade:
		return "Upgrade"
	case StepDelete:
		return "Delete"
	default:
		return "Unknown"
	}
}

// Transmitter identifies the logical component that produced an event, for
// operator-facing correlation (e.g. "layered-helm-deployer").
type Transmitter string

// EventDetails is attached to every EngineEvent and EngineError so that a
// reader can tell at a glance which cluster, which stage and which
// transmitter produced it.
type EventDetails struct {
	ClusterID   uuid.UUID
	Stage       Stage
	Step        InfrastructureStep
	Transmitter Transmitter
}

// InfrastructureDiffType tags a diff payload, e.g. the helm upgrade --dry-run
// output logged at level InfrastructureDiffType::Helm in spec §4.3.
type InfrastructureDiffType int

const (
	DiffTypeHelm InfrastructureDiffType = iota
	DiffTypeTerraform
)

func (d InfrastructureDiffType) String() string {
	if d == DiffTypeTerraform {
		return "Terraform"
	}
	return "Helm"
}

// Logger wraps a logrus.Entry pre-populated with EventDetails fields so
// every emitted event carries cluster/stage/transmitter context without
// callers repeating it.
type Logger struct {
	entry *logrus.Entry
}

// NewLogger builds a Logger bound to the given details, using base as the
// underlying logrus.Logger (callers may pass logrus.StandardLogger()).
func NewLogger(base *logrus.Logger, details EventDetails) *Logger {
	return &Logger{entry: base.WithFields(logrus.Fields{
		"cluster_id":  details.ClusterID.String(),
		"stage":       details.Stage.String(),
		"step":        details.Step.String(),
		"transmitter": string(details.Transmitter),
	})}
}

// WithStep returns a copy of the logger scoped to a different step, used
// when a task transitions between macro-steps.
func (l *Logger) WithStep(step InfrastructureStep) *Logger {
	return &Logger{entry: l.entry.WithField("step", step.String())}
}

func (l *Logger) Info(msg string)                  { l.entry.Info(msg) }
func (l *Logger) Infof(format string, a ...any)    { l.entry.Infof(format, a...) }
func (l *Logger) Warn(msg string)                  { l.entry.Warn(msg) }
func (l *Logger) Warnf(format string, a ...any)    { l.entry.Warnf(format, a...) }
func (l *Logger) Error(msg string)                 { l.entry.Error(msg) }
func (l *Logger) Errorf(format string, a ...any)   { l.entry.Errorf(format, a...) }

// Diff emits a captured diff payload (e.g. a helm upgrade --dry-run output)
// tagged with its InfrastructureDiffType, matching spec §4.3 step 4.
func (l *Logger) Diff(kind InfrastructureDiffType, chartName, diff string) {
	l.entry.WithFields(logrus.Fields{
		"diff_type": kind.String(),
		"chart":     chartName,
	}).Info(diff)
}
