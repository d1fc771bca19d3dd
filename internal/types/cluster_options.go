package types

// VpcMode selects whether the cluster's network egress traffic routes
// through managed NAT gateways.
type VpcMode int

const (
	WithNatGateways VpcMode = iota
	WithoutNatGateways
)

// DNSProviderKind selects who resolves the cluster's managed domain names.
type DNSProviderKind int

const (
	QoveryDNS DNSProviderKind = iota
	CloudflareDNS
	Route53DNS
)

// ClusterOptions carries the per-cloud network and control-plane
// configuration for a cluster. It is immutable per operation, same as
// AdvancedSettings.
type ClusterOptions struct {
	VpcCidrBlock     string
	SubnetsByZone    map[string]string
	VpcMode          VpcMode
	UserSuppliedVpcID string // empty unless the customer brought their own VPC

	ControlPlaneURL string

	JWTToken    string
	GrantToken  string

	DNSProvider     DNSProviderKind
	ManagedDNSDomain string
	TLSContactEmail string

	Karpenter *KarpenterOptions

	Metrics *MetricsOptions
}

// KarpenterOptions configures the Karpenter autoscaler when a cloud uses it
// in place of explicit node pools.
type KarpenterOptions struct {
	SpotEnabled         bool
	DefaultInstanceTypes []string
	DiskSizeGiB         int32
}

// MetricsOptions toggles the kube-prometheus-stack / thanos metrics layer.
type MetricsOptions struct {
	Enabled          bool
	RetentionInDays  int32
}
