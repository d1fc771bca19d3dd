package types

import "time"

// AdvancedSettings is the large options bag of per-cluster tunables. It is
// treated as immutable for the duration of a single infrastructure
// operation: nothing in the deploy pipeline mutates a shared instance.
type AdvancedSettings struct {
	LoadBalancerSize              string
	NginxHPAMinReplicas           int32
	NginxHPAMaxReplicas           int32
	NginxRequestsCPU              string
	NginxRequestsMemory           string
	NginxLimitCPU                 string
	NginxLimitMemory              string
	NginxVCpuRequestPerPod        string
	NginxControllerLogFormatUpstream string

	ALBEnableStickySessions bool

	DefaultStorageClass string

	LogsRetentionInWeeks int32

	LokiLogRetentionInWeeks int32

	PleaseConverge time.Duration // TTL used by terraform-drift reconciliation loops

	RegistryImageCacheTTL time.Duration
}

// DefaultAdvancedSettings returns a copy of the settings with conservative production
// defaults, mirroring the source's per-field defaults.
func DefaultAdvancedSettings() AdvancedSettings {
	return AdvancedSettings{
		LoadBalancerSize:        "lb-s",
		NginxHPAMinReplicas:     2,
		NginxHPAMaxReplicas:     25,
		NginxRequestsCPU:        "200m",
		NginxRequestsMemory:     "256Mi",
		NginxLimitCPU:           "500m",
		NginxLimitMemory:        "768Mi",
		NginxVCpuRequestPerPod:  "1",
		DefaultStorageClass:     "aws-ebs-gp2-0",
		LogsRetentionInWeeks:    4,
		LokiLogRetentionInWeeks: 4,
		PleaseConverge:          0,
		RegistryImageCacheTTL:   72 * time.Hour,
	}
}
