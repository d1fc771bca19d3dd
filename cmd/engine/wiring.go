package main

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	clientv3 "go.etcd.io/etcd/client/v3"
	"google.golang.org/api/option"
	gcpstorage "google.golang.org/api/storage/v1"

	"github.com/qovery-clone/cluster-engine/internal/cloud/aws"
	"github.com/qovery-clone/cluster-engine/internal/cloud/azure"
	"github.com/qovery-clone/cluster-engine/internal/cloud/gcp"
	cloudselfmanaged "github.com/qovery-clone/cluster-engine/internal/cloud/selfmanaged"
	"github.com/qovery-clone/cluster-engine/internal/config"
	"github.com/qovery-clone/cluster-engine/internal/infra"
	infraaws "github.com/qovery-clone/cluster-engine/internal/infra/aws"
	infraazure "github.com/qovery-clone/cluster-engine/internal/infra/azure"
	infragcp "github.com/qovery-clone/cluster-engine/internal/infra/gcp"
	infraonpremise "github.com/qovery-clone/cluster-engine/internal/infra/onpremise"
	infrascaleway "github.com/qovery-clone/cluster-engine/internal/infra/scaleway"
	infraselfmanaged "github.com/qovery-clone/cluster-engine/internal/infra/selfmanaged"
	"github.com/qovery-clone/cluster-engine/internal/k8s"
)

// cloudStack bundles everything buildCloudStack resolves for one cloud
// kind: the Pipeline's Hooks and the object storage backing kubeconfig and
// workspace archival.
type cloudStack struct {
	Hooks   infra.Hooks
	Store   k8s.ObjectStorage
}

// buildCloudStack wires a real cloud SDK client set per cfg.Cloud.Kind.
// Every cloud's object storage is S3 or S3-compatible except Azure/GCP,
// which get their own native blob clients, and on-premise, which gets none.
func buildCloudStack(ctx context.Context, cfg *config.Engine) (*cloudStack, error) {
	switch cfg.Cloud.Kind {
	case "aws":
		return buildAWSStack(ctx, cfg)
	case "azure":
		return buildAzureStack(ctx, cfg)
	case "gcp":
		return buildGCPStack(ctx, cfg)
	case "scaleway":
		return buildScalewayStack(ctx, cfg)
	case "selfmanaged":
		return buildSelfManagedStack(ctx, cfg)
	case "onpremise":
		return &cloudStack{
			Hooks: &infraonpremise.Hooks{MetricsEnabled: true, QoveryDNS: false},
			Store: nil, // on-premise racks rarely carry a bucket-compatible store; archival is skipped
		}, nil
	default:
		return nil, fmt.Errorf("unknown cloud kind %q (want one of aws, azure, gcp, scaleway, selfmanaged, onpremise)", cfg.Cloud.Kind)
	}
}

func buildAWSStack(ctx context.Context, cfg *config.Engine) (*cloudStack, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Cloud.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws sdk config: %w", err)
	}
	elbClient := elbv2.NewFromConfig(awsCfg)
	resolver := &aws.LoadBalancerResolver{Client: elbClient}

	return &cloudStack{
		Hooks: &infraaws.Hooks{
			UseKarpenter:         true,
			ALBEnabled:           true,
			IAMEKSUserMapper:     true,
			MetricsEnabled:       true,
			QoveryDNS:            true,
			LoadBalancerResolver: resolver.Resolve,
			ManagedDomain:        cfg.Cloud.ManagedDomain,
		},
		Store: &aws.ObjectStorage{Client: s3.NewFromConfig(awsCfg)},
	}, nil
}

func buildAzureStack(ctx context.Context, cfg *config.Engine) (*cloudStack, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("build azure default credential: %w", err)
	}

	blobClient, err := azblob.NewClient(fmt.Sprintf("https://%sarchive.blob.core.windows.net/", cfg.Cloud.AzureSubscriptionID), cred, nil)
	if err != nil {
		return nil, fmt.Errorf("build azblob client: %w", err)
	}

	return &cloudStack{
		// AKS's PostDeployHooks is a no-op: its ingress load balancer
		// already exposes a stable public IP directly, so no armnetwork
		// public-IP resolver is needed here (internal/cloud/azure keeps
		// one for any future Azure-flavoured cloud that does).
		Hooks: &infraazure.Hooks{Credential: cred, MetricsEnabled: true, QoveryDNS: true},
		Store: &azure.ObjectStorage{Client: blobClient},
	}, nil
}

func buildGCPStack(ctx context.Context, cfg *config.Engine) (*cloudStack, error) {
	svc, err := gcpstorage.NewService(ctx, option.WithScopes(gcpstorage.DevstorageReadWriteScope))
	if err != nil {
		return nil, fmt.Errorf("build gcs service: %w", err)
	}
	return &cloudStack{
		Hooks: &infragcp.Hooks{MetricsEnabled: true, QoveryDNS: true},
		Store: &gcp.ObjectStorage{Service: svc, ProjectID: cfg.Cloud.GCPProjectID},
	}, nil
}

func buildScalewayStack(ctx context.Context, cfg *config.Engine) (*cloudStack, error) {
	// Scaleway Object Storage is S3-compatible; the pack carries no native
	// Scaleway SDK, so the AWS S3 client is reused against its endpoint
	// (DESIGN.md documents why no dedicated Scaleway SDK was wired).
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Cloud.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws sdk config for scaleway s3 endpoint: %w", err)
	}
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = awssdk.String(fmt.Sprintf("https://s3.%s.scw.cloud", cfg.Cloud.Region))
	})
	return &cloudStack{
		Hooks: &infrascaleway.Hooks{
			MetricsEnabled: true,
			QoveryDNS:      true,
			ManagedDomain:  cfg.Cloud.ManagedDomain,
			// No LoadBalancerResolver is wired here, so PostDeployHooks
			// skips the external-name service binding on Scaleway.
		},
		Store: &aws.ObjectStorage{Client: s3Client},
	}, nil
}

func buildSelfManagedStack(ctx context.Context, cfg *config.Engine) (*cloudStack, error) {
	var readiness *cloudselfmanaged.ReadinessProbe
	if len(cfg.Cloud.EtcdEndpoints) > 0 {
		etcdClient, err := clientv3.New(clientv3.Config{Endpoints: cfg.Cloud.EtcdEndpoints})
		if err != nil {
			return nil, fmt.Errorf("build etcd client: %w", err)
		}
		readiness = &cloudselfmanaged.ReadinessProbe{Client: etcdClient}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Cloud.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws sdk config for self-managed archive store: %w", err)
	}
	return &cloudStack{
		Hooks: &infraselfmanaged.Hooks{Readiness: readiness, MetricsEnabled: true, QoveryDNS: false},
		Store: &aws.ObjectStorage{Client: s3.NewFromConfig(awsCfg)},
	}, nil
}
