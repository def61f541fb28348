// Package lifecycle coordinates subsystem startup and shutdown hooks.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Coordinator manages startup and shutdown hooks for the service lifecycle.
// Startup hooks run concurrently; readiness flips once all have returned.
// Shutdown hooks should block on <-Context().Done() before cleaning up.
type Coordinator struct {
	ctx        context.Context
	cancel     context.CancelFunc
	startupWg  sync.WaitGroup
	shutdownWg sync.WaitGroup
	ready      bool
	startupErr error
	readyMu    sync.RWMutex
}

// New creates a Coordinator with a cancellable root context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context returns the coordinator's context, cancelled on shutdown.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup registers a function to run concurrently during startup.
func (c *Coordinator) OnStartup(fn func()) {
	c.startupWg.Go(fn)
}

// OnShutdown registers a function to run concurrently during shutdown.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdownWg.Go(fn)
}

// Ready reports whether all startup hooks have completed.
func (c *Coordinator) Ready() bool {
	c.readyMu.RLock()
	defer c.readyMu.RUnlock()
	return c.ready
}

// FailStartup records a startup failure. Readiness never flips once any
// subsystem has failed to start; the first error wins.
func (c *Coordinator) FailStartup(err error) {
	c.readyMu.Lock()
	defer c.readyMu.Unlock()
	if c.startupErr == nil {
		c.startupErr = err
	}
}

// StartupErr returns the first recorded startup failure, if any.
func (c *Coordinator) StartupErr() error {
	c.readyMu.RLock()
	defer c.readyMu.RUnlock()
	return c.startupErr
}

// WaitForStartup blocks until all startup hooks finish, then marks ready
// unless a hook reported a failure.
func (c *Coordinator) WaitForStartup() {
	c.startupWg.Wait()
	c.readyMu.Lock()
	if c.startupErr == nil {
		c.ready = true
	}
	c.readyMu.Unlock()
}

// Shutdown cancels the context and waits for shutdown hooks to complete
// within the given timeout.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdownWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
