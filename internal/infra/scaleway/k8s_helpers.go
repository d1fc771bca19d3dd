package scaleway

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/qovery-clone/cluster-engine/internal/k8s"
)

func metaGetOptions() metav1.GetOptions {
	return metav1.GetOptions{}
}

// installExternalNameService creates (or updates) the ExternalName Service
// binding hostname to the load balancer's resolved IP, mirroring the AWS
// hooks' own copy of this helper (each cloud package owns its narrow slice
// of k8s object wiring rather than sharing a generic "create me a service"
// utility, matching the teacher's one-small-facade-per-capability style).
func installExternalNameService(ctx context.Context, kc *k8s.Client, hostname, ip string) error {
	svc := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "qovery-nginx-external-name",
			Namespace: "nginx-ingress",
			Annotations: map[string]string{
				"qovery.com/external-ip": ip,
			},
		},
		Spec: corev1.ServiceSpec{
			Type:         corev1.ServiceTypeExternalName,
			ExternalName: hostname,
		},
	}
	_, err := kc.Clientset.CoreV1().Services(svc.Namespace).Create(ctx, svc, metav1.CreateOptions{})
	if err == nil {
		return nil
	}
	existing, getErr := kc.Clientset.CoreV1().Services(svc.Namespace).Get(ctx, svc.Name, metav1.GetOptions{})
	if getErr != nil {
		return err
	}
	existing.Spec.ExternalName = hostname
	existing.Annotations = svc.Annotations
	_, err = kc.Clientset.CoreV1().Services(svc.Namespace).Update(ctx, existing, metav1.UpdateOptions{})
	return err
}
