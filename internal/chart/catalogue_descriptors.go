package chart

import "github.com/qovery-clone/cluster-engine/internal/types"

// This file holds the one-function-per-chart constructors for the
// catalogue assembled in catalogue.go. Namespaces and timeouts follow
// spec §4.2/§5's concurrency notes (e.g. prometheus-operator's 480s,
// loki-on-gcp's 1200s for IAM propagation lag).

func priorityClassesChart() Descriptor {
	return Descriptor{
		Name:               "priority-classes",
		Location:           CommonFolder,
		ChartRelativePath:  "priority-classes",
		ValuesRelativePath: "priority-classes.yaml",
		Namespace:          "kube-system",
		Action:             ActionDeploy,
		TimeoutSeconds:     120,
	}
}

func qoveryPriorityClassChart() Descriptor {
	return Descriptor{
		Name:               "qovery-priority-class",
		Location:           CommonFolder,
		ChartRelativePath:  "qovery-priority-class",
		ValuesRelativePath: "qovery-priority-class.yaml",
		Namespace:          "qovery",
		Action:             ActionDeploy,
		TimeoutSeconds:     120,
	}
}

func karpenterCRDsChart() Descriptor {
	return Descriptor{
		Name:               "karpenter-crd",
		Location:           CloudProviderFolder,
		ChartRelativePath:  "karpenter-crd",
		ValuesRelativePath: "karpenter-crd.yaml",
		Namespace:          "kube-system",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
	}
}

func coreDNSConfigChart() Descriptor {
	return Descriptor{
		Name:               "coredns-config",
		Location:           CloudProviderFolder,
		ChartRelativePath:  "coredns-config",
		ValuesRelativePath: "coredns-config.yaml",
		Namespace:          "kube-system",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
	}
}

func karpenterControllerChart() Descriptor {
	return Descriptor{
		Name:               "karpenter",
		Location:           CloudProviderFolder,
		ChartRelativePath:  "karpenter",
		ValuesRelativePath: "karpenter.yaml",
		Namespace:          "kube-system",
		Action:             ActionDeploy,
		TimeoutSeconds:     480,
	}
}

func iamEKSUserMapperChart() Descriptor {
	return Descriptor{
		Name:               "iam-eks-user-mapper",
		Location:           CloudProviderFolder,
		ChartRelativePath:  "iam-eks-user-mapper",
		ValuesRelativePath: "iam-eks-user-mapper.yaml",
		Namespace:          "kube-system",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
	}
}

// cniCSIAddonsChart installs the cloud's CNI/CSI addon bundle (e.g. the
// VPC CNI plugin and EBS CSI driver on AWS) alongside CoreDNS config at
// L1, before any workload that could need pod networking or persistent
// volumes schedules.
func cniCSIAddonsChart() Descriptor {
	return Descriptor{
		Name:               "cni-csi-addons",
		Location:           CloudProviderFolder,
		ChartRelativePath:  "cni-csi-addons",
		ValuesRelativePath: "cni-csi-addons.yaml",
		Namespace:          "kube-system",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
	}
}

func karpenterConfigurationChart() Descriptor {
	return Descriptor{
		Name:               "karpenter-configuration",
		Location:           CloudProviderFolder,
		ChartRelativePath:  "karpenter-configuration",
		ValuesRelativePath: "karpenter-configuration.yaml",
		Namespace:          "kube-system",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
	}
}

func awsNodeTermHandlerChart() Descriptor {
	return Descriptor{
		Name:               "aws-node-termination-handler",
		Location:           CloudProviderFolder,
		ChartRelativePath:  "aws-node-term-handler",
		ValuesRelativePath: "aws-node-term-handler.yaml",
		Namespace:          "kube-system",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
	}
}

// vpaChart is the "VPA CRD bootstrap" descriptor (glossary): installed
// once disabled at L3 to land CRDs, then again enabled at L4.
func vpaChart(enabled bool) Descriptor {
	name := "vpa-crds"
	overrides := map[string]string{"admissionController.enabled": "false"}
	if enabled {
		name = "vpa"
		overrides = map[string]string{"admissionController.enabled": "true"}
	}
	return Descriptor{
		Name:               name,
		Location:           CommonFolder,
		ChartRelativePath:  "vpa",
		ValuesRelativePath: "vpa.yaml",
		Namespace:          "kube-system",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
		Overrides:          overrides,
	}
}

func storageClassChart(cloud types.CloudKind) Descriptor {
	return Descriptor{
		Name:               "storageclass",
		Location:           CloudProviderFolder,
		ChartRelativePath:  "storageclass",
		ValuesRelativePath: "storageclass.yaml",
		Namespace:          "kube-system",
		Action:             ActionDeploy,
		TimeoutSeconds:     120,
	}
}

// prometheusOperatorCRDsChart lands the prometheus-operator CRDs ahead of
// kube-prometheus-stack in the same level, mirroring the VPA CRD-bootstrap
// pattern at L3: the operator chart assumes its CRDs already exist rather
// than installing them itself.
func prometheusOperatorCRDsChart() Descriptor {
	return Descriptor{
		Name:               "prometheus-operator-crds",
		Location:           CommonFolder,
		ChartRelativePath:  "prometheus-operator-crds",
		ValuesRelativePath: "prometheus-operator-crds.yaml",
		Namespace:          "prometheus",
		Action:             ActionDeploy,
		TimeoutSeconds:     180,
	}
}

func kubePrometheusStackChart(objectStorageBackend string) Descriptor {
	overrides := map[string]string{
		"prometheus.prometheusSpec.retention": "15d",
	}
	if objectStorageBackend != "" {
		overrides["prometheus.prometheusSpec.thanos.objectStorageConfig.key"] = "thanos-object-storage"
	}
	return Descriptor{
		Name:               "kube-prometheus-stack",
		Location:           CloudProviderFolder,
		ChartRelativePath:  "kube-prometheus-stack",
		ValuesRelativePath: "kube-prometheus-stack.yaml",
		Namespace:          "prometheus",
		Action:             ActionDeploy,
		TimeoutSeconds:     480,
		Overrides:          overrides,
	}
}

func promtailChart() Descriptor {
	return Descriptor{
		Name:               "promtail",
		Location:           CommonFolder,
		ChartRelativePath:  "promtail",
		ValuesRelativePath: "promtail.yaml",
		Namespace:          "logging",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
	}
}

func clusterAutoscalerChart() Descriptor {
	return Descriptor{
		Name:               "cluster-autoscaler",
		Location:           CloudProviderFolder,
		ChartRelativePath:  "cluster-autoscaler",
		ValuesRelativePath: "cluster-autoscaler.yaml",
		Namespace:          "kube-system",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
	}
}

func prometheusAdapterChart() Descriptor {
	return Descriptor{
		Name:               "prometheus-adapter",
		Location:           CommonFolder,
		ChartRelativePath:  "prometheus-adapter",
		ValuesRelativePath: "prometheus-adapter.yaml",
		Namespace:          "prometheus",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
	}
}

func kubeStateMetricsChart() Descriptor {
	return Descriptor{
		Name:               "kube-state-metrics",
		Location:           CommonFolder,
		ChartRelativePath:  "kube-state-metrics",
		ValuesRelativePath: "kube-state-metrics.yaml",
		Namespace:          "prometheus",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
	}
}

func lokiChart(cloud types.CloudKind, objectStorageBackend string) Descriptor {
	timeout := 480
	if cloud == types.Gcp {
		// IAM propagation lag on GCP workload identity bindings.
		timeout = 1200
	}
	return Descriptor{
		Name:               "loki",
		Location:           CloudProviderFolder,
		ChartRelativePath:  "loki",
		ValuesRelativePath: "loki.yaml",
		Namespace:          "logging",
		Action:             ActionDeploy,
		TimeoutSeconds:     timeout,
		Overrides: map[string]string{
			"loki.storage.type": objectStorageBackend,
		},
	}
}

// thanosChart installs the long-term-retention query/store/compactor
// layer sitting in front of kube-prometheus-stack's object-storage-backed
// block storage, the same object-storage-backend parameter loki uses.
func thanosChart(cloud types.CloudKind, objectStorageBackend string) Descriptor {
	return Descriptor{
		Name:               "thanos",
		Location:           CloudProviderFolder,
		ChartRelativePath:  "thanos",
		ValuesRelativePath: "thanos.yaml",
		Namespace:          "prometheus",
		Action:             ActionDeploy,
		TimeoutSeconds:     480,
		Overrides: map[string]string{
			"thanos.objstoreConfig.type": objectStorageBackend,
		},
	}
}

func grafanaChart() Descriptor {
	return Descriptor{
		Name:               "grafana",
		Location:           CommonFolder,
		ChartRelativePath:  "grafana",
		ValuesRelativePath: "grafana.yaml",
		Namespace:          "prometheus",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
	}
}

func certManagerChart(settings types.AdvancedSettings) Descriptor {
	return Descriptor{
		Name:               "cert-manager",
		Location:           CommonFolder,
		ChartRelativePath:  "cert-manager",
		ValuesRelativePath: "cert-manager.yaml",
		Namespace:          "cert-manager",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
	}
}

func qoveryCertManagerWebhookChart() Descriptor {
	return Descriptor{
		Name:               "qovery-cert-manager-webhook",
		Location:           CommonFolder,
		ChartRelativePath:  "qovery-cert-manager-webhook",
		ValuesRelativePath: "qovery-cert-manager-webhook.yaml",
		Namespace:          "cert-manager",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
	}
}

func metricsServerChart() Descriptor {
	return Descriptor{
		Name:               "metrics-server",
		Location:           CommonFolder,
		ChartRelativePath:  "metrics-server",
		ValuesRelativePath: "metrics-server.yaml",
		Namespace:          "kube-system",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
	}
}

func externalDNSChart() Descriptor {
	return Descriptor{
		Name:               "external-dns",
		Location:           CommonFolder,
		ChartRelativePath:  "external-dns",
		ValuesRelativePath: "external-dns.yaml",
		Namespace:          "kube-system",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
	}
}

func albControllerChart() Descriptor {
	return Descriptor{
		Name:               "aws-load-balancer-controller",
		Location:           CloudProviderFolder,
		ChartRelativePath:  "aws-load-balancer-controller",
		ValuesRelativePath: "aws-load-balancer-controller.yaml",
		Namespace:          "kube-system",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
	}
}

func nginxIngressChart(settings types.AdvancedSettings) Descriptor {
	return Descriptor{
		Name:               "nginx-ingress",
		Location:           CommonFolder,
		ChartRelativePath:  "nginx-ingress",
		ValuesRelativePath: "nginx-ingress.yaml",
		Namespace:          "nginx-ingress",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
		Overrides: map[string]string{
			"controller.autoscaling.minReplicas": intToStr(settings.NginxHPAMinReplicas),
			"controller.autoscaling.maxReplicas": intToStr(settings.NginxHPAMaxReplicas),
			"controller.resources.requests.cpu":  settings.NginxRequestsCPU,
			"controller.resources.limits.cpu":    settings.NginxLimitCPU,
		},
	}
}

func certManagerConfigsChart(settings types.AdvancedSettings) Descriptor {
	return Descriptor{
		Name:               "cert-manager-configs",
		Location:           CommonFolder,
		ChartRelativePath:  "cert-manager-configs",
		ValuesRelativePath: "cert-manager-configs.yaml",
		Namespace:          "cert-manager",
		Action:             ActionDeploy,
		TimeoutSeconds:     120,
	}
}

func qoveryClusterAgentChart() Descriptor {
	return Descriptor{
		Name:               "qovery-cluster-agent",
		Location:           CommonFolder,
		ChartRelativePath:  "qovery-cluster-agent",
		ValuesRelativePath: "qovery-cluster-agent.yaml",
		Namespace:          "qovery",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
	}
}

func qoveryShellAgentChart() Descriptor {
	return Descriptor{
		Name:               "qovery-shell-agent",
		Location:           CommonFolder,
		ChartRelativePath:  "qovery-shell-agent",
		ValuesRelativePath: "qovery-shell-agent.yaml",
		Namespace:          "qovery",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
	}
}

func qoveryEngineChart() Descriptor {
	return Descriptor{
		Name:               "qovery-engine",
		Location:           CommonFolder,
		ChartRelativePath:  "qovery-engine",
		ValuesRelativePath: "qovery-engine.yaml",
		Namespace:          "qovery",
		Action:             ActionDeploy,
		TimeoutSeconds:     300,
	}
}

func k8sEventLoggerChart() Descriptor {
	return Descriptor{
		Name:               "k8s-event-logger",
		Location:           CommonFolder,
		ChartRelativePath:  "k8s-event-logger",
		ValuesRelativePath: "k8s-event-logger.yaml",
		Namespace:          "kube-system",
		Action:             ActionDeploy,
		TimeoutSeconds:     120,
	}
}

func intToStr(v int32) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [12]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
