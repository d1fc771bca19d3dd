// Package gcp wires the Google API client the engine needs beyond GKE
// node-group validation: GCS-backed kubeconfig persistence, grounded on
// google.golang.org/api the same way hypershift, sgl-project-ome and
// gke-mcp drive GCP through the generic API client rather than a
// per-service SDK.
package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/storage/v1"

	"github.com/qovery-clone/cluster-engine/internal/k8s"
)

// ObjectStorage implements k8s.ObjectStorage against Google Cloud Storage.
type ObjectStorage struct {
	Service   *storage.Service
	ProjectID string
}

var _ k8s.ObjectStorage = (*ObjectStorage)(nil)

func (o *ObjectStorage) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	obj := &storage.Object{Bucket: bucket, Name: key}
	_, err := o.Service.Objects.Insert(bucket, obj).Media(bytes.NewReader(data)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gcs put object %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (o *ObjectStorage) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	resp, err := o.Service.Objects.Get(bucket, key).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("gcs get object %s/%s: %w", bucket, key, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (o *ObjectStorage) EnsureBucket(ctx context.Context, bucket string) error {
	_, err := o.Service.Buckets.Get(bucket).Context(ctx).Do()
	if err == nil {
		return nil
	}
	_, err = o.Service.Buckets.Insert(o.ProjectID, &storage.Bucket{Name: bucket}).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == 409 {
			return nil
		}
		return fmt.Errorf("gcs create bucket %s: %w", bucket, err)
	}
	return nil
}
