// Package task wraps one engine request (infrastructure or environment),
// drives it through the right action, and reports progress: it is the
// boundary between the dispatch layer and internal/infra / internal/envdeploy.
package task

import (
	"context"
	"sync"
)

// InfrastructureContext owns the lifecycle of one infrastructure task: a
// broadcast "terminated" signal callers can await, and a best-effort
// cancel (per spec §5, cancellation is best-effort — the current
// subprocess is never killed, only the next checkCancel point sees it).
type InfrastructureContext struct {
	cancel     context.CancelFunc
	terminated chan struct{}
	once       sync.Once
}

// NewInfrastructureContext derives a cancellable context from parent and
// returns the context object alongside it.
func NewInfrastructureContext(parent context.Context) (*InfrastructureContext, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	return &InfrastructureContext{cancel: cancel, terminated: make(chan struct{})}, ctx
}

// AwaitTerminated returns a channel closed once the task has fully ended,
// successfully or not.
func (c *InfrastructureContext) AwaitTerminated() <-chan struct{} {
	return c.terminated
}

// Cancel requests best-effort cancellation; it does not kill any
// in-flight subprocess, it only makes the next checkCancel point in the
// pipeline observe ctx.Err().
func (c *InfrastructureContext) Cancel() {
	c.cancel()
}

func (c *InfrastructureContext) markTerminated() {
	c.once.Do(func() { close(c.terminated) })
}
