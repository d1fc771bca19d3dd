// Package azure wires the Azure SDK clients the engine needs beyond AKS
// node-group validation: Blob-backed kubeconfig persistence and the
// armnetwork client used to resolve a public IP resource, by name, to its
// address, grounded on the same azcore/azidentity/armnetwork stack
// hypershift and sgl-project-ome keep alongside their Azure providers.
package azure

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/qovery-clone/cluster-engine/internal/k8s"
)

// ObjectStorage implements k8s.ObjectStorage against Azure Blob Storage.
// bucket maps to a container name, key to a blob name within it.
type ObjectStorage struct {
	Client *azblob.Client
}

var _ k8s.ObjectStorage = (*ObjectStorage)(nil)

func (o *ObjectStorage) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	_, err := o.Client.UploadBuffer(ctx, bucket, key, data, nil)
	if err != nil {
		return fmt.Errorf("blob upload %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (o *ObjectStorage) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	resp, err := o.Client.DownloadStream(ctx, bucket, key, nil)
	if err != nil {
		return nil, fmt.Errorf("blob download %s/%s: %w", bucket, key, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (o *ObjectStorage) EnsureBucket(ctx context.Context, bucket string) error {
	_, err := o.Client.CreateContainer(ctx, bucket, nil)
	if err == nil {
		return nil
	}
	if bytes.Contains([]byte(err.Error()), []byte("ContainerAlreadyExists")) {
		return nil
	}
	return fmt.Errorf("blob create container %s: %w", bucket, err)
}

// LoadBalancerResolver resolves an AKS load balancer's public IP resource
// name to its address, for clouds whose infra.Hooks need it; AKS itself
// needs none of this (its PostDeployHooks is a no-op) but the client is
// kept here for any future Azure-flavoured cloud that does.
type LoadBalancerResolver struct {
	Client        *armnetwork.PublicIPAddressesClient
	ResourceGroup string
}

func (r *LoadBalancerResolver) Resolve(ctx context.Context, publicIPName string) (string, error) {
	resp, err := r.Client.Get(ctx, r.ResourceGroup, publicIPName, nil)
	if err != nil {
		return "", fmt.Errorf("get public ip %s: %w", publicIPName, err)
	}
	if resp.Properties == nil || resp.Properties.IPAddress == nil {
		return "", fmt.Errorf("public ip %s has no address assigned yet", publicIPName)
	}
	return *resp.Properties.IPAddress, nil
}
