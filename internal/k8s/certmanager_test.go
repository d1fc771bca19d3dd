package k8s

import (
	"context"
	"testing"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
)

// registerUnstructuredGVKs wires the cert-manager/apiregistration kinds into
// a fresh scheme as unstructured types, the way karpenter_controller_test.go
// registers EC2NodeClass — the fake client needs a scheme entry to resolve
// List() and Delete() on a GVK it never sees a typed Go struct for.
func registerUnstructuredGVKs(t *testing.T, gvks ...schema.GroupVersionKind) *runtime.Scheme {
	t.Helper()
	scheme := runtime.NewScheme()
	for _, gvk := range gvks {
		scheme.AddKnownTypeWithName(gvk, &unstructured.Unstructured{})
		listGVK := gvk
		listGVK.Kind += "List"
		scheme.AddKnownTypeWithName(listGVK, &unstructured.UnstructuredList{})
	}
	return scheme
}

func unstructuredObj(gvk schema.GroupVersionKind, namespace, name string) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{}
	obj.SetGroupVersionKind(gvk)
	obj.SetNamespace(namespace)
	obj.SetName(name)
	return obj
}

func TestDeleteCertManagerResourcesSweepsEveryKind(t *testing.T) {
	clusterIssuerGVK := schema.GroupVersionKind{Group: "cert-manager.io", Version: "v1", Kind: "ClusterIssuer"}
	issuerGVK := schema.GroupVersionKind{Group: "cert-manager.io", Version: "v1", Kind: "Issuer"}
	certGVK := schema.GroupVersionKind{Group: "cert-manager.io", Version: "v1", Kind: "Certificate"}

	scheme := registerUnstructuredGVKs(t, clusterIssuerGVK, issuerGVK, certGVK)

	clusterIssuer := unstructuredObj(clusterIssuerGVK, "", "letsencrypt-prod")
	issuer := unstructuredObj(issuerGVK, "cert-manager", "qovery-issuer")
	cert := unstructuredObj(certGVK, "cert-manager", "qovery-tls")

	fakeClient := fake.NewClientBuilder().
		WithScheme(scheme).
		WithObjects(clusterIssuer, issuer, cert).
		Build()

	c := &Client{Runtime: fakeClient}

	if err := c.DeleteCertManagerResources(context.Background()); err != nil {
		t.Fatalf("DeleteCertManagerResources returned error: %v", err)
	}

	assertGone(t, fakeClient, clusterIssuerGVK, "", "letsencrypt-prod")
	assertGone(t, fakeClient, issuerGVK, "cert-manager", "qovery-issuer")
	assertGone(t, fakeClient, certGVK, "cert-manager", "qovery-tls")
}

func TestDeleteCertManagerResourcesToleratesMissingCRDs(t *testing.T) {
	// No GVKs registered at all: every List() call comes back as a
	// no-kind-match, which must be treated as "already clean", not an error.
	scheme := runtime.NewScheme()
	fakeClient := fake.NewClientBuilder().WithScheme(scheme).Build()
	c := &Client{Runtime: fakeClient}

	if err := c.DeleteCertManagerResources(context.Background()); err != nil {
		t.Fatalf("expected no error when cert-manager CRDs are absent, got: %v", err)
	}
}

func TestDeleteCertManagerWebhookAPIServiceDeletesWhenPresent(t *testing.T) {
	apiServiceGVK := schema.GroupVersionKind{Group: "apiregistration.k8s.io", Version: "v1", Kind: "APIService"}
	scheme := registerUnstructuredGVKs(t, apiServiceGVK)

	svc := unstructuredObj(apiServiceGVK, "", qoveryCertManagerWebhookAPIService)
	fakeClient := fake.NewClientBuilder().WithScheme(scheme).WithObjects(svc).Build()
	c := &Client{Runtime: fakeClient}

	if err := c.DeleteCertManagerWebhookAPIService(context.Background()); err != nil {
		t.Fatalf("DeleteCertManagerWebhookAPIService returned error: %v", err)
	}

	assertGone(t, fakeClient, apiServiceGVK, "", qoveryCertManagerWebhookAPIService)
}

func TestDeleteCertManagerWebhookAPIServiceToleratesMissingAPIService(t *testing.T) {
	apiServiceGVK := schema.GroupVersionKind{Group: "apiregistration.k8s.io", Version: "v1", Kind: "APIService"}
	scheme := registerUnstructuredGVKs(t, apiServiceGVK)

	fakeClient := fake.NewClientBuilder().WithScheme(scheme).Build()
	c := &Client{Runtime: fakeClient}

	if err := c.DeleteCertManagerWebhookAPIService(context.Background()); err != nil {
		t.Fatalf("expected no error when the apiservice is already absent, got: %v", err)
	}
}

func assertGone(t *testing.T, cl ctrlclient.Client, gvk schema.GroupVersionKind, namespace, name string) {
	t.Helper()
	obj := &unstructured.Unstructured{}
	obj.SetGroupVersionKind(gvk)
	err := cl.Get(context.Background(), ctrlclient.ObjectKey{Namespace: namespace, Name: name}, obj)
	if err == nil {
		t.Fatalf("expected %s %s/%s to be deleted, but it still exists", gvk.Kind, namespace, name)
	}
	if !isNotFoundError(err) {
		t.Fatalf("expected a not-found error for %s %s/%s, got: %v", gvk.Kind, namespace, name, err)
	}
}
