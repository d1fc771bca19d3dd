// Package types holds the value types and identifiers shared across the
// infrastructure and environment deployment engines: cluster identity,
// Kubernetes version ladder, node groups, advanced settings and cluster
// options. None of these types own any subprocess or network resource.
package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CloudKind identifies the cloud a cluster is provisioned on.
type CloudKind int

const (
	CloudUnknown CloudKind = iota
	Aws
	Azure
	Gcp
	Scw
	OnPremise
)

func (k CloudKind) String() string {
	switch k {
	case Aws:
		return "Aws"
	case Azure:
		return "Azure"
	case Gcp:
		return "Gcp"
	case Scw:
		return "Scw"
	case OnPremise:
		return "OnPremise"
	default:
		return "Unknown"
	}
}

// KubernetesKind identifies the managed-K8s flavor used on top of CloudKind.
type KubernetesKind int

const (
	KindUnknown KubernetesKind = iota
	Eks
	EksAnywhere
	Aks
	Gke
	Kapsule
	SelfManaged
)

func (k KubernetesKind) String() string {
	switch k {
	case Eks:
		return "Eks"
	case EksAnywhere:
		return "EksAnywhere"
	case Aks:
		return "Aks"
	case Gke:
		return "Gke"
	case Kapsule:
		return "Kapsule"
	case SelfManaged:
		return "SelfManaged"
	default:
		return "Unknown"
	}
}

// ClusterID is the stable long identifier (a UUID) plus its derived short
// identifier, used throughout object-storage bucket names and workspace
// paths (e.g. "qovery-kubeconfigs-<short_id>").
type ClusterID struct {
	Long  uuid.UUID
	Short string
}

// NewClusterID derives a ClusterID from a long identifier, truncating it to
// the first 8 hex characters (without dashes) for the short id, matching
// the bucket/path naming scheme described in the wire-format section.
func NewClusterID(long uuid.UUID) ClusterID {
	hex := strings.ReplaceAll(long.String(), "-", "")
	short := hex
	if len(short) > 8 {
		short = short[:8]
	}
	return ClusterID{Long: long, Short: short}
}

// ParseClusterID parses a long identifier from its string form.
func ParseClusterID(s string) (ClusterID, error) {
	long, err := uuid.Parse(s)
	if err != nil {
		return ClusterID{}, fmt.Errorf("invalid cluster long id %q: %w", s, err)
	}
	return NewClusterID(long), nil
}

// KubeconfigBucket returns the per-cluster object storage bucket name for
// the kubeconfig, e.g. "qovery-kubeconfigs-<short_id>".
func (c ClusterID) KubeconfigBucket() string {
	return "qovery-kubeconfigs-" + c.Short
}

// KubeconfigObjectKey returns the object key within KubeconfigBucket.
func (c ClusterID) KubeconfigObjectKey() string {
	return c.Short + ".yaml"
}

// LogsBucket returns the per-cluster operational-logs bucket name.
func (c ClusterID) LogsBucket() string {
	return "qovery-logs-" + c.Short
}

// Cluster is the identity record shared by every infrastructure action.
type Cluster struct {
	ID                ClusterID
	Name              string
	OrganizationID     uuid.UUID
	CloudKind         CloudKind
	KubernetesKind    KubernetesKind
	Region            string
	Zones             []string
	CreatedAt         time.Time
}
