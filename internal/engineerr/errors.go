// Package engineerr implements the EngineError / CommandError taxonomy from
// spec §7: every fatal condition in the pipeline is represented by a fixed
// tag plus an operator-facing and a user-safe message. github.com/pkg/errors
// is used for the wrapping/stack-trace idiom (no suitable wrapper lives in
// the teacher repo, which has no error taxonomy of its own; cluster-api-
// operator and openshift-hypershift both reach for pkg/errors for this).
package engineerr

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/qovery-clone/cluster-engine/internal/eventlog"
)

// Tag is the fixed, enumerable error kind from spec §7's table.
type Tag string

const (
	TagUnsupportedInstanceType           Tag = "unsupported_instance_type"
	TagUnsupportedVersion                Tag = "unsupported_version_error"
	TagCannotGetSupportedVersions        Tag = "cannot_get_supported_versions_error"
	TagCannotGetAnyAvailableVPC          Tag = "cannot_get_any_available_vpc"
	TagTerraformWhileExecutingPipeline   Tag = "terraform_error_while_executing_pipeline"
	TagTerraformWhileExecutingDestroy    Tag = "terraform_error_while_executing_destroy_pipeline"
	TagTerraformStateDoesNotExist        Tag = "terraform_state_does_not_exist"
	TagTerraformCannotRemoveEntry        Tag = "terraform_cannot_remove_entry_out"
	TagObjectStorageCannotCreateBucket   Tag = "object_storage_cannot_create_bucket_error"
	TagObjectStorageCannotPutFile        Tag = "object_storage_cannot_put_file_into_bucket_error"
	TagK8sNodeNotReady                   Tag = "k8s_node_not_ready"
	TagK8sNodeNotReadyWithVersion        Tag = "k8s_node_not_ready_with_requested_version"
	TagK8sLoadBalancerConfigurationIssue Tag = "k8s_loadbalancer_configuration_issue"
	TagK8sPodDisruptionBudgetInvalid     Tag = "k8s_pod_disruption_budget_invalid_state"
	TagHelmChartsSetupError              Tag = "helm_charts_setup_error"
	TagHelmChartsDeployError             Tag = "helm_charts_deploy_error"
	TagCannotUninstallHelmChart          Tag = "cannot_uninstall_helm_chart"
	TagMissingRequiredEnvVariable         Tag = "missing_required_env_variable"
	TagTaskCancellationRequested         Tag = "task_cancellation_requested"
	TagJobFailure                        Tag = "JobFailure"
	TagCannotCopyFiles                   Tag = "cannot_copy_files_from_one_directory_to_another"
)

// EngineError is the fatal-error envelope surfaced to both operators and
// end users, per spec §7.
type EngineError struct {
	Tag              Tag
	EventDetails     eventlog.EventDetails
	QoveryLogMessage string // full message, operator-facing
	UserLogMessage   string // safe message, free of credentials
	RawMessage       string
	RawMessageSafe   string
	Link             string
	HintMessage      string
	cause            error
}

func (e *EngineError) Error() string {
	if e.QoveryLogMessage != "" {
		return fmt.Sprintf("[%s] %s", e.Tag, e.QoveryLogMessage)
	}
	return fmt.Sprintf("[%s] %s", e.Tag, e.UserLogMessage)
}

func (e *EngineError) Unwrap() error { return e.cause }

// New builds an EngineError, wrapping cause (if any) with pkg/errors so a
// stack trace is captured at the construction site.
func New(tag Tag, details eventlog.EventDetails, userMessage string, cause error) *EngineError {
	var wrapped error
	if cause != nil {
		wrapped = errors.WithStack(cause)
	}
	qovery := userMessage
	if cause != nil {
		qovery = fmt.Sprintf("%s: %v", userMessage, cause)
	}
	return &EngineError{
		Tag:              tag,
		EventDetails:     details,
		QoveryLogMessage: qovery,
		UserLogMessage:   userMessage,
		cause:            wrapped,
	}
}

// UnsupportedInstanceType builds the error raised when a node group's
// instance type string does not parse into the cloud's instance enum.
func UnsupportedInstanceType(details eventlog.EventDetails, instanceType string) *EngineError {
	return New(TagUnsupportedInstanceType, details,
		fmt.Sprintf("❌ instance type `%s` is not supported on this cloud provider", instanceType), nil)
}

// PodDisruptionBudgetInvalid builds the PDB-gate error from spec §4.4 /
// E2E scenario 3: it must be raised before any terraform invocation.
func PodDisruptionBudgetInvalid(details eventlog.EventDetails, pdbName string, currentHealthy, desiredHealthy int32) *EngineError {
	return New(TagK8sPodDisruptionBudgetInvalid, details,
		fmt.Sprintf("❌ pod disruption budget `%s` is unhealthy (currentHealthy=%d desiredHealthy=%d), upgrade aborted",
			pdbName, currentHealthy, desiredHealthy), nil)
}

// TaskCancellationRequested builds the error raised when the abort probe
// trips between macro-steps.
func TaskCancellationRequested(details eventlog.EventDetails) *EngineError {
	return New(TagTaskCancellationRequested, details, "task cancellation was requested", nil)
}

// JobFailure builds the error surfaced when a user job exhausts its
// restart budget or exceeds its max duration, per spec §7.
func JobFailure(details eventlog.EventDetails, jobType string, maxRestarts int32, maxDuration string, cause error) *EngineError {
	e := New(TagJobFailure, details,
		fmt.Sprintf("❌ %s failed ! (max_restarts=%d max_duration=%s) see https://discuss.qovery.com for help", jobType, maxRestarts, maxDuration),
		cause)
	e.Link = "https://discuss.qovery.com"
	return e
}
