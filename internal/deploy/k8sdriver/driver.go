// Package k8sdriver implements envdeploy.ServiceDriver against a bare
// Kubernetes API: it owns namespace lifecycle directly and records every
// service/router's current lifecycle phase as a labelled ConfigMap in the
// environment's namespace. It deliberately does not provision the
// workload itself (no image, ports or resource requests are modelled on
// types.EnvironmentService) — that is a separate concern envdeploy's own
// package doc already delegates elsewhere; this driver only gives the
// ordering/concurrency engine in internal/envdeploy something real to
// call so CleanupOrphanLoadBalancers and the per-action verbs are
// actually exercised end to end.
package k8sdriver

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/qovery-clone/cluster-engine/internal/envdeploy"
	"github.com/qovery-clone/cluster-engine/internal/k8s"
	"github.com/qovery-clone/cluster-engine/internal/types"
)

// LoadBalancerResolver is called by CleanupOrphanLoadBalancers with the
// hostname of every ingress of the namespace's LoadBalancer services, to
// clean up orphaned load balancers after a Create; it returns only an
// error. nil disables cleanup (the common case for clouds whose L4
// load balancers are auto-reclaimed by the managed-K8s API on Service
// delete).
type LoadBalancerResolver func(ctx context.Context, loadBalancerID string) error

var _ envdeploy.ServiceDriver = (*Driver)(nil)

// Driver implements envdeploy.ServiceDriver against one cluster's API,
// scoped to a single environment's namespace for the lifetime of one
// Deployer action.
type Driver struct {
	Client           *k8s.Client
	CleanupOrphanLBs LoadBalancerResolver
	currentNamespace string
}

// NewDriver scopes a Driver to env's namespace.
func NewDriver(client *k8s.Client, env types.Environment, cleanup LoadBalancerResolver) *Driver {
	return &Driver{Client: client, CleanupOrphanLBs: cleanup, currentNamespace: namespaceName(env)}
}

const phaseLabel = "cluster-engine.qovery.io/phase"
const kindLabel = "cluster-engine.qovery.io/kind"

func namespaceName(env types.Environment) string {
	return "env-" + env.ID.String()[:8]
}

func (d *Driver) DeployNamespace(ctx context.Context, env types.Environment) error {
	return d.Client.CreateNamespace(ctx, namespaceName(env), map[string]string{"cluster-engine.qovery.io/environment": env.ID.String()})
}

func (d *Driver) PauseNamespace(ctx context.Context, env types.Environment) error {
	return nil // pausing never removes the namespace itself, only what's inside it
}

func (d *Driver) DeleteNamespace(ctx context.Context, env types.Environment) error {
	return d.Client.ExecDeleteNamespace(ctx, namespaceName(env))
}

func (d *Driver) recordPhase(ctx context.Context, ns string, ref types.ServiceRef, kind, phase string) error {
	name := "svc-" + ref.ID.String()[:8]
	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: ns,
			Labels:    map[string]string{phaseLabel: phase, kindLabel: kind},
		},
		Data: map[string]string{"name": ref.Name, "phase": phase},
	}
	_, err := d.Client.Clientset.CoreV1().ConfigMaps(ns).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		_, err = d.Client.Clientset.CoreV1().ConfigMaps(ns).Create(ctx, cm, metav1.CreateOptions{})
		return err
	}
	if err != nil {
		return err
	}
	_, err = d.Client.Clientset.CoreV1().ConfigMaps(ns).Update(ctx, cm, metav1.UpdateOptions{})
	return err
}

func (d *Driver) deletePhaseRecord(ctx context.Context, ns string, ref types.ServiceRef) error {
	name := "svc-" + ref.ID.String()[:8]
	err := d.Client.Clientset.CoreV1().ConfigMaps(ns).Delete(ctx, name, metav1.DeleteOptions{})
	if apierrors.IsNotFound(err) {
		return nil
	}
	return err
}

func (d *Driver) DeployService(ctx context.Context, svc types.EnvironmentService) error {
	return d.recordPhase(ctx, d.namespaceFor(ctx, svc), svc.ServiceRef, serviceKindLabel(svc.Kind), "deployed")
}

func (d *Driver) PauseService(ctx context.Context, svc types.EnvironmentService) error {
	return d.recordPhase(ctx, d.namespaceFor(ctx, svc), svc.ServiceRef, serviceKindLabel(svc.Kind), "paused")
}

func (d *Driver) DeleteService(ctx context.Context, svc types.EnvironmentService) error {
	return d.deletePhaseRecord(ctx, d.namespaceFor(ctx, svc), svc.ServiceRef)
}

func (d *Driver) RestartService(ctx context.Context, svc types.EnvironmentService) error {
	return d.recordPhase(ctx, d.namespaceFor(ctx, svc), svc.ServiceRef, serviceKindLabel(svc.Kind), "restarted")
}

// namespaceFor is a placeholder indirection point: today every service in
// one EnvironmentEngineRequest shares the same namespace, derived from the
// environment id carried alongside it at dispatch time. It is kept as a
// method (not a free function) so a future per-service namespace override
// only has to change this one seam.
func (d *Driver) namespaceFor(ctx context.Context, svc types.EnvironmentService) string {
	return d.currentNamespace
}

func ingressName(r types.Router) string {
	return "router-" + r.ID.String()[:8]
}

func (d *Driver) DeployRouter(ctx context.Context, r types.Router) error {
	ns := d.currentNamespace
	pathType := networkingv1.PathTypePrefix
	ingress := &networkingv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{Name: ingressName(r), Namespace: ns, Labels: map[string]string{"cluster-engine.qovery.io/router": r.ID.String()}},
		Spec: networkingv1.IngressSpec{
			Rules: []networkingv1.IngressRule{{
				Host: r.Name,
				IngressRuleValue: networkingv1.IngressRuleValue{HTTP: &networkingv1.HTTPIngressRuleValue{
					Paths: []networkingv1.HTTPIngressPath{{
						Path:     "/",
						PathType: &pathType,
						Backend: networkingv1.IngressBackend{
							Service: &networkingv1.IngressServiceBackend{
								Name: "svc-" + r.AssociatedServiceID.String()[:8],
								Port: networkingv1.ServiceBackendPort{Number: 80},
							},
						},
					}},
				}},
			}},
		},
	}
	_, err := d.Client.Clientset.NetworkingV1().Ingresses(ns).Create(ctx, ingress, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		_, err = d.Client.Clientset.NetworkingV1().Ingresses(ns).Update(ctx, ingress, metav1.UpdateOptions{})
	}
	return err
}

func (d *Driver) PauseRouter(ctx context.Context, r types.Router) error {
	return d.DeleteRouter(ctx, r) // an ingress has no "paused" state; pausing its service is what matters
}

func (d *Driver) DeleteRouter(ctx context.Context, r types.Router) error {
	err := d.Client.Clientset.NetworkingV1().Ingresses(d.currentNamespace).Delete(ctx, ingressName(r), metav1.DeleteOptions{})
	if apierrors.IsNotFound(err) {
		return nil
	}
	return err
}

func (d *Driver) RestartRouter(ctx context.Context, r types.Router) error {
	return d.DeployRouter(ctx, r)
}

func (d *Driver) CleanupOrphanLoadBalancers(ctx context.Context) error {
	if d.CleanupOrphanLBs == nil {
		return nil
	}
	svcs, err := d.Client.Clientset.CoreV1().Services(d.currentNamespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("list services for orphan load balancer cleanup: %w", err)
	}
	for _, s := range svcs.Items {
		if s.Spec.Type != corev1.ServiceTypeLoadBalancer {
			continue
		}
		for _, ingress := range s.Status.LoadBalancer.Ingress {
			if ingress.Hostname == "" {
				continue
			}
			if err := d.CleanupOrphanLBs(ctx, ingress.Hostname); err != nil {
				return fmt.Errorf("cleanup orphan load balancer %q: %w", ingress.Hostname, err)
			}
		}
	}
	return nil
}

func serviceKindLabel(k types.ServiceKind) string {
	switch k {
	case types.ServiceDatabase:
		return "database"
	case types.ServiceJob:
		return "job"
	case types.ServiceContainer:
		return "container"
	case types.ServiceApplication:
		return "application"
	case types.ServiceHelmChart:
		return "helm_chart"
	case types.ServiceTerraform:
		return "terraform"
	default:
		return "unknown"
	}
}
