// Package selfmanaged wires go.etcd.io/etcd/client/v3 as the readiness
// probe for self-managed (kubeadm) clusters: unlike a managed control
// plane, there is no cloud API to poll for "control plane healthy", so
// the engine asks etcd directly, the way cluster-api-operator and
// hypershift keep an etcd client alongside their bootstrap providers.
package selfmanaged

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// ReadinessProbe checks that a quorum of the cluster's etcd members
// answer a linearizable read within timeout.
type ReadinessProbe struct {
	Client  *clientv3.Client
	Timeout time.Duration
}

// ClusterHealthy reports whether etcd has a healthy quorum by attempting
// a linearizable Get against a sentinel key; etcd itself fails the
// request if quorum can't be reached.
func (p *ReadinessProbe) ClusterHealthy(ctx context.Context) (bool, error) {
	timeout := p.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := p.Client.Get(ctx, "qovery-readiness-probe")
	if err != nil {
		return false, fmt.Errorf("etcd quorum read failed: %w", err)
	}
	return true, nil
}

// MemberCount returns the number of etcd members currently registered,
// used to detect a partially-bootstrapped control plane.
func (p *ReadinessProbe) MemberCount(ctx context.Context) (int, error) {
	resp, err := p.Client.MemberList(ctx)
	if err != nil {
		return 0, fmt.Errorf("etcd member list failed: %w", err)
	}
	return len(resp.Members), nil
}
