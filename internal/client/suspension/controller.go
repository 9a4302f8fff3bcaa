// Package suspension implements server directed backoff for all requests
// of one session.
//
// A response with a suspension status and a positive suspension time moves
// the Controller from Active to Suspended until the window ends. Requests
// issued while Suspended are deferred and replayed afterwards; Do wraps an
// operation into that await, run, retry loop.
//
// The domain state "suspended" is unrelated to goroutines blocking on I/O.
package suspension

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/vaultblob/internal/logging"
)

// Controller owns the suspension window shared by all callers of a session.
// The zero value is not usable; construct it with NewController.
type Controller struct {
	clock   Clock
	log     logging.Logger
	ordered bool

	mu        sync.Mutex
	suspended bool
	resumeAt  time.Time

	// ordered replay
	queue  []chan struct{}
	busy   bool
	waking bool
}

type Option func(*Controller)

func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithOrderedReplay releases deferred callers one at a time in the order
// they arrived. The next caller is released after the previous one called
// its release func.
func WithOrderedReplay() Option {
	return func(c *Controller) { c.ordered = true }
}

func NewController(opts ...Option) *Controller {
	c := &Controller{clock: SystemClock{}, log: logging.NewDiscardLogger()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsSuspended reports whether the window is still running. An elapsed
// window is cleared here.
func (c *Controller) IsSuspended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suspendedLocked()
}

// ResumeAt returns the end of the current window, or the zero time when
// Active.
func (c *Controller) ResumeAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.suspendedLocked() {
		return time.Time{}
	}
	return c.resumeAt
}

func (c *Controller) suspendedLocked() bool {
	if !c.suspended {
		return false
	}
	if !c.clock.Now().Before(c.resumeAt) {
		c.suspended = false
		c.resumeAt = time.Time{}
	}
	return c.suspended
}

// ActivateIfInactive starts a window of length d unless one is already
// counting down. A running window is never shortened or replaced.
func (c *Controller) ActivateIfInactive(d time.Duration) bool {
	if d <= 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.suspendedLocked() {
		return false
	}
	c.suspended = true
	c.resumeAt = c.clock.Now().Add(d)
	c.log.Warn(context.Background(), "requests suspended by server", "duration", d, "resume_at", c.resumeAt)
	return true
}

func noop() {}

// Await blocks while the controller is Suspended. The returned release func
// must be called once the caller has issued its request; it is a no-op
// unless ordered replay is enabled.
func (c *Controller) Await(ctx context.Context) (func(), error) {
	if c.ordered && ctx.Value(replayKey{}) != c {
		return c.awaitOrdered(ctx)
	}
	return c.awaitWindow(ctx)
}

// replayKey marks the context of an operation run by Do. Requests nested in
// such an operation wait for the window but never queue behind their parent.
type replayKey struct{}

func (c *Controller) awaitWindow(ctx context.Context) (func(), error) {
	for {
		c.mu.Lock()
		if !c.suspendedLocked() {
			c.mu.Unlock()
			return noop, nil
		}
		wait := c.resumeAt.Sub(c.clock.Now())
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.clock.After(wait):
		}
	}
}

func (c *Controller) awaitOrdered(ctx context.Context) (func(), error) {
	c.mu.Lock()
	if !c.suspendedLocked() && len(c.queue) == 0 && !c.busy {
		c.mu.Unlock()
		return noop, nil
	}

	ticket := make(chan struct{})
	c.queue = append(c.queue, ticket)
	c.scheduleLocked()
	c.mu.Unlock()

	select {
	case <-ticket:
	case <-ctx.Done():
		c.mu.Lock()
		defer c.mu.Unlock()
		select {
		case <-ticket:
			// granted concurrently, hand the turn to the next caller
			c.busy = false
			c.scheduleLocked()
		default:
			c.removeLocked(ticket)
		}
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.busy = false
			c.scheduleLocked()
		})
	}, nil
}

// scheduleLocked releases the head of the queue when the window is over and
// no released caller is still pending.
func (c *Controller) scheduleLocked() {
	if c.busy || len(c.queue) == 0 {
		return
	}
	if c.suspendedLocked() {
		if c.waking {
			return
		}
		c.waking = true
		timer := c.clock.After(c.resumeAt.Sub(c.clock.Now()))
		go func() {
			<-timer
			c.mu.Lock()
			defer c.mu.Unlock()
			c.waking = false
			c.scheduleLocked()
		}()
		return
	}

	head := c.queue[0]
	c.queue = c.queue[1:]
	c.busy = true
	close(head)
}

func (c *Controller) removeLocked(ticket chan struct{}) {
	for i, t := range c.queue {
		if t == ticket {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			return
		}
	}
}

// Do runs op once the controller is Active. When op fails with a *Signal
// the window is activated and op is replayed with the same arguments after
// it ends. There is no retry bound. Any other result is returned as is.
func Do[T any](ctx context.Context, c *Controller, op func(ctx context.Context) (T, error)) (T, error) {
	if c == nil {
		return op(ctx)
	}

	var zero T
	for {
		release, err := c.Await(ctx)
		if err != nil {
			return zero, err
		}

		res, err := op(context.WithValue(ctx, replayKey{}, c))

		var sig *Signal
		if errors.As(err, &sig) && sig.Duration > 0 {
			c.ActivateIfInactive(sig.Duration)
			release()
			continue
		}
		release()
		return res, err
	}
}
