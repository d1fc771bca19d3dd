package types

import "github.com/google/uuid"

// InfrastructureAction is the requested action for an infrastructure task.
type InfrastructureAction int

const (
	ActionCreate InfrastructureAction = iota
	ActionPause
	ActionDelete
	ActionRestart
)

func (a InfrastructureAction) String() string {
	switch a {
	case ActionCreate:
		return "CREATE"
	case ActionPause:
		return "PAUSE"
	case ActionDelete:
		return "DELETE"
	case ActionRestart:
		return "RESTART"
	default:
		return "UNKNOWN"
	}
}

// CloudCredentials is an opaque, cloud-specific credential bundle. Its
// contents are never logged in full; only a redacted summary is attached
// to qovery_log_message.
type CloudCredentials map[string]string

// TerraformStateCredentials carries the terraform remote-state backend
// location (S3 bucket + DynamoDB table on AWS, equivalent per cloud).
type TerraformStateCredentials struct {
	Bucket string
	Key    string
	Region string
	Table  string // lock table, e.g. DynamoDB on AWS
}

// ArchiveLocation is where the workspace tarball is uploaded at task end.
type ArchiveLocation struct {
	Bucket      string
	Key         string
	Credentials CloudCredentials
}

// InfrastructureMetadata carries the optional per-request flags from spec
// §6.
type InfrastructureMetadata struct {
	IsFirstClusterDeployment   bool
	ResourceExpirationInSeconds *int64
	TestCluster                bool
	DryRun                     bool
}

// InfrastructureEngineRequest is the immutable deployment intent for one
// infrastructure task, as delivered by the control plane.
type InfrastructureEngineRequest struct {
	ID                 uuid.UUID
	OrganizationLongID uuid.UUID
	Cluster            Cluster
	Version            KubernetesVersion
	NodeGroups         []NodeGroups
	AdvancedSettings   AdvancedSettings
	Options            ClusterOptions
	CloudCredentials   CloudCredentials
	TerraformState     TerraformStateCredentials
	DNSProviderConfig  map[string]string
	ContainerRegistry  map[string]string
	Action             InfrastructureAction
	Features           []string
	Metadata           InfrastructureMetadata
	Archive            *ArchiveLocation
}

// HasFeature reports whether the named feature flag was requested.
func (r InfrastructureEngineRequest) HasFeature(name string) bool {
	for _, f := range r.Features {
		if f == name {
			return true
		}
	}
	return false
}

// ServiceRef identifies one deployable service inside an environment.
type ServiceRef struct {
	ID   uuid.UUID
	Name string
}

// ServiceKind enumerates the six deployable service kinds an environment
// may contain.
type ServiceKind int

const (
	ServiceDatabase ServiceKind = iota
	ServiceJob
	ServiceContainer
	ServiceApplication
	ServiceHelmChart
	ServiceTerraform
)

// Router couples an externally reachable hostname to a backing service.
type Router struct {
	ServiceRef
	AssociatedServiceID uuid.UUID
}

// EnvironmentService is one entry in the environment's declared service
// order; Kind discriminates which of the six collections it came from.
type EnvironmentService struct {
	ServiceRef
	Kind ServiceKind
}

// Environment is the full graph of user services plus routers deployed
// onto a bootstrapped cluster.
type Environment struct {
	ID       uuid.UUID
	Services []EnvironmentService // declared order, excludes routers
	Routers  []Router
}

// RouterFor returns the router whose AssociatedServiceID matches the given
// service, if any — this is the "associated router" coupling from the
// glossary.
func (e Environment) RouterFor(serviceID uuid.UUID) (Router, bool) {
	for _, r := range e.Routers {
		if r.AssociatedServiceID == serviceID {
			return r, true
		}
	}
	return Router{}, false
}

// EnvironmentAction is the requested action for an environment task.
type EnvironmentAction int

const (
	EnvActionCreate EnvironmentAction = iota
	EnvActionPause
	EnvActionDelete
	EnvActionRestart
)

// EnvironmentEngineRequest is the immutable deployment intent for one
// environment task, targeting one already-bootstrapped cluster.
type EnvironmentEngineRequest struct {
	ID                uuid.UUID
	ClusterID         ClusterID
	Environment       Environment
	Action            EnvironmentAction
	MaxParallelDeploy int
}
