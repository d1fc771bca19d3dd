// Package aws wires the AWS SDK v2 clients the engine needs beyond what
// node-group validation already covers in internal/infra/aws: S3-backed
// kubeconfig persistence and NLB IP resolution for the external-name-svc
// PostDeployHooks binding, grounded the way hypershift keeps a typed AWS
// client alongside its provider implementation.
package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/qovery-clone/cluster-engine/internal/k8s"
)

// ObjectStorage implements k8s.ObjectStorage against S3.
type ObjectStorage struct {
	Client *s3.Client
}

var _ k8s.ObjectStorage = (*ObjectStorage)(nil)

func (o *ObjectStorage) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	_, err := o.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("s3 put object %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (o *ObjectStorage) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := o.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get object %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (o *ObjectStorage) EnsureBucket(ctx context.Context, bucket string) error {
	_, err := o.Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}
	_, err = o.Client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		var already *s3types.BucketAlreadyOwnedByYou
		if errors.As(err, &already) {
			return nil
		}
		return fmt.Errorf("s3 create bucket %s: %w", bucket, err)
	}
	return nil
}

// LoadBalancerResolver resolves a network load balancer's hostname prefix
// (as surfaced by the nginx-ingress Service's status.loadBalancer.ingress)
// to its stable public IP, the shape infra/aws.Hooks.LoadBalancerResolver
// needs for the external-name-svc PostDeployHooks binding.
type LoadBalancerResolver struct {
	Client *elbv2.Client
}

// Resolve matches the func(ctx, loadBalancerID string) (string, error)
// signature infra/aws.Hooks expects.
func (r *LoadBalancerResolver) Resolve(ctx context.Context, loadBalancerDNSPrefix string) (string, error) {
	out, err := r.Client.DescribeLoadBalancers(ctx, &elbv2.DescribeLoadBalancersInput{})
	if err != nil {
		return "", fmt.Errorf("describe load balancers: %w", err)
	}
	for _, lb := range out.LoadBalancers {
		if lb.DNSName == nil {
			continue
		}
		if len(*lb.DNSName) < len(loadBalancerDNSPrefix) || (*lb.DNSName)[:len(loadBalancerDNSPrefix)] != loadBalancerDNSPrefix {
			continue
		}
		if lb.Type == elbv2types.LoadBalancerTypeEnumNetwork {
			for _, az := range lb.AvailabilityZones {
				for _, addr := range az.LoadBalancerAddresses {
					if addr.IpAddress != nil {
						return *addr.IpAddress, nil
					}
				}
			}
		}
	}
	return "", fmt.Errorf("no network load balancer found matching dns prefix %q", loadBalancerDNSPrefix)
}
