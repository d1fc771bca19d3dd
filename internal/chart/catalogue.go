package chart

import "github.com/qovery-clone/cluster-engine/internal/types"

// CatalogueInput is everything the catalogue builder needs to decide which
// charts are included and how they are parameterised, mirroring the
// "chart-config-prerequisites" struct from spec §4.3.
type CatalogueInput struct {
	Cloud             types.CloudKind
	UseKarpenter      bool
	MetricsEnabled    bool
	QoveryDNS         bool // true when DNSProviderKind == QoveryDNS
	ALBEnabled        bool
	IAMEKSUserMapper  bool // AWS only, required when IAM role mapping is needed
	AdvancedSettings  types.AdvancedSettings
	ObjectStorageBackend string // "s3" | "blob" | "gcs" | "scaleway", feeds thanos/loki storage config
}

// Level is one entry in the helm DAG: every descriptor in a level applies
// in parallel (spec §4.3, glossary "Level (of charts)").
type Level []Descriptor

// Catalogue is the full ordered DAG for one cluster bootstrap, L0 through
// L10 exactly as spec §4.3 enumerates them.
type Catalogue struct {
	Levels [11]Level
}

// BuildCatalogue assembles the fixed chart set for in, level by level as
// listed in the comments below. Clouds other than AWS simply omit the
// Karpenter/ALB/IAM-mapper-specific descriptors; the level shape itself
// never changes cloud to cloud (spec §4.4: "SCW/GCP/Azure are structurally
// identical modulo cloud-specific substeps").
func BuildCatalogue(in CatalogueInput) Catalogue {
	var c Catalogue

	// L0: priority classes, and on AWS/Karpenter the Karpenter CRDs.
	c.Levels[0] = append(c.Levels[0], priorityClassesChart(), qoveryPriorityClassChart())
	if in.Cloud == types.Aws && in.UseKarpenter {
		c.Levels[0] = append(c.Levels[0], karpenterCRDsChart())
	}

	// L1: CoreDNS config and the cloud's CNI/CSI addon bundle (and
	// Karpenter itself on AWS/Karpenter); IAM-EKS user mapper if required.
	if in.Cloud == types.Aws && in.UseKarpenter {
		c.Levels[1] = append(c.Levels[1], coreDNSConfigChart(), cniCSIAddonsChart(), karpenterControllerChart())
	} else {
		c.Levels[1] = append(c.Levels[1], coreDNSConfigChart(), cniCSIAddonsChart())
	}
	if in.Cloud == types.Aws && in.IAMEKSUserMapper {
		c.Levels[1] = append(c.Levels[1], iamEKSUserMapperChart())
	}

	// L2: Karpenter configuration (AWS only); AWS node-termination handler.
	if in.Cloud == types.Aws {
		if in.UseKarpenter {
			c.Levels[2] = append(c.Levels[2], karpenterConfigurationChart())
		}
		c.Levels[2] = append(c.Levels[2], awsNodeTermHandlerChart())
	}

	// L3: a disabled VPA chart to install CRDs without enabling the
	// admission webhook (glossary: "VPA CRD bootstrap").
	c.Levels[3] = append(c.Levels[3], vpaChart(false))

	// L4: storage classes, VPA enabled, prometheus stack (if metrics
	// enabled), promtail.
	c.Levels[4] = append(c.Levels[4], storageClassChart(in.Cloud), vpaChart(true))
	if in.MetricsEnabled {
		c.Levels[4] = append(c.Levels[4], prometheusOperatorCRDsChart(), kubePrometheusStackChart(in.ObjectStorageBackend), promtailChart())
	}

	// L5: cluster autoscaler (non-karpenter), prometheus-adapter,
	// kube-state-metrics, thanos, loki, grafana. No CoreDNS chart is applied
	// at this level; CoreDNS config is applied at L1 only.
	if !(in.Cloud == types.Aws && in.UseKarpenter) {
		c.Levels[5] = append(c.Levels[5], clusterAutoscalerChart())
	}
	if in.MetricsEnabled {
		c.Levels[5] = append(c.Levels[5],
			prometheusAdapterChart(), kubeStateMetricsChart(),
			thanosChart(in.Cloud, in.ObjectStorageBackend),
			lokiChart(in.Cloud, in.ObjectStorageBackend), grafanaChart())
	}

	// L6: cert-manager.
	c.Levels[6] = append(c.Levels[6], certManagerChart(in.AdvancedSettings))

	// L7: qovery cert-manager webhook (if Qovery DNS is chosen).
	if in.QoveryDNS {
		c.Levels[7] = append(c.Levels[7], qoveryCertManagerWebhookChart())
	}

	// L8: metrics-server, external-dns, ALB controller (if enabled).
	c.Levels[8] = append(c.Levels[8], metricsServerChart(), externalDNSChart())
	if in.Cloud == types.Aws && in.ALBEnabled {
		c.Levels[8] = append(c.Levels[8], albControllerChart())
	}

	// L9: nginx ingress.
	c.Levels[9] = append(c.Levels[9], nginxIngressChart(in.AdvancedSettings))

	// L10: cert-manager-configs, qovery cluster agent, qovery shell agent,
	// qovery engine, k8s-event-logger.
	c.Levels[10] = append(c.Levels[10],
		certManagerConfigsChart(in.AdvancedSettings), qoveryClusterAgentChart(),
		qoveryShellAgentChart(), qoveryEngineChart(), k8sEventLoggerChart())

	return c
}

// All returns every descriptor in the catalogue, flattened, in level order
// — used by the generic override-subset test and by log-the-plan.
func (c Catalogue) All() []Descriptor {
	var out []Descriptor
	for _, lvl := range c.Levels {
		out = append(out, lvl...)
	}
	return out
}
