package em

import (
	"context"
	"sync"

	"github.com/arloliu/emreg/errs"
)

// Controller pauses, resumes and stops a running fit from another goroutine.
//
// The engine consults the controller at every iteration boundary. While paused
// the fitting goroutine blocks until Resume, Stop or context cancellation.
// A Controller may be shared by several runs; Stop affects all of them.
type Controller struct {
	mu      sync.Mutex
	cond    *sync.Cond
	paused  bool
	stopped bool
}

// NewController creates a running controller.
func NewController() *Controller {
	c := &Controller{}
	c.cond = sync.NewCond(&c.mu)

	return c
}

// Pause makes runs block at their next iteration boundary.
func (c *Controller) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

// Resume releases paused runs.
func (c *Controller) Resume() {
	c.mu.Lock()
	c.paused = false
	c.cond.Broadcast()
	c.mu.Unlock()
}

// Stop makes runs exit at their next iteration boundary. It cannot be undone.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

// Paused reports whether the controller is paused.
func (c *Controller) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.paused
}

// Stopped reports whether Stop was called.
func (c *Controller) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stopped
}

// Wait blocks while the controller is paused. It returns an error matching
// errs.ErrCancelled once stopped, or the context error once ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	stopWake := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer stopWake()

	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		if c.stopped {
			return errs.ErrCancelled
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !c.paused {
			return nil
		}
		c.cond.Wait()
	}
}
