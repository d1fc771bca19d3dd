package k8s

import (
	"context"
	"fmt"
	"os"

	"github.com/qovery-clone/cluster-engine/internal/types"
)

// ObjectStorage is the minimal interface the kubeconfig persistence layer
// needs from an object-storage client; concrete cloud implementations
// (S3, Blob, GCS) live in internal/cloud/<cloud>.
type ObjectStorage interface {
	PutObject(ctx context.Context, bucket, key string, data []byte) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	EnsureBucket(ctx context.Context, bucket string) error
}

// PersistKubeconfig writes the kubeconfig bytes to the cluster's
// object-storage bucket (qovery-kubeconfigs-<short_id>/<short_id>.yaml)
// and mirrors it to localPath for tool wrappers to use, per spec §3's
// lifecycle note and §6's object-storage layout.
func PersistKubeconfig(ctx context.Context, store ObjectStorage, id types.ClusterID, kubeconfig []byte, localPath string) error {
	bucket := id.KubeconfigBucket()
	if err := store.EnsureBucket(ctx, bucket); err != nil {
		return fmt.Errorf("failed to ensure kubeconfig bucket %q: %w", bucket, err)
	}
	if err := store.PutObject(ctx, bucket, id.KubeconfigObjectKey(), kubeconfig); err != nil {
		return fmt.Errorf("failed to upload kubeconfig to %s/%s: %w", bucket, id.KubeconfigObjectKey(), err)
	}
	if err := os.WriteFile(localPath, kubeconfig, 0o600); err != nil {
		return fmt.Errorf("failed to write local kubeconfig mirror at %q: %w", localPath, err)
	}
	return nil
}

// FetchKubeconfig re-fetches the kubeconfig from object storage on demand,
// per spec §3's "re-fetched on demand" lifecycle note.
func FetchKubeconfig(ctx context.Context, store ObjectStorage, id types.ClusterID) ([]byte, error) {
	data, err := store.GetObject(ctx, id.KubeconfigBucket(), id.KubeconfigObjectKey())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch kubeconfig for cluster %s: %w", id.Short, err)
	}
	return data, nil
}
