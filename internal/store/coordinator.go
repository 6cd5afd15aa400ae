// Package store implements the key-value environment (C2), the mmap arena
// backing UnitInfoByCode, and the reader-quiesce coordinator that guards
// the arena's growth protocol (C7).
package store

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Coordinator is the reader-count barrier from spec §4.C7 / §5: many
// readers run concurrently without suspension; the single writer blocks on
// a "readers drained" condition only while growing the arena. Named maps
// other than UnitInfoByCode don't need this — Badger's own MVCC isolates
// them — so Coordinator's scope is deliberately narrow.
type Coordinator struct {
	mu       sync.Mutex
	cond     *sync.Cond
	readers  int
	resizing bool

	// sem bounds the configurable maximum concurrent reader count from
	// spec §5; acquired per read transaction, released on discard.
	sem *semaphore.Weighted

	hook ResizeHook
}

// ResizeHook lets an external layer observe the growth protocol, e.g. to
// leave an on-disk marker recording that a resize is in flight (spec
// §4.C10's "lingering temp state" fault-recovery signal). Both methods are
// called while the resize mutex is held and no readers are admitted.
type ResizeHook interface {
	BeforeGrow() error
	AfterGrow() error
}

// NewCoordinator builds a Coordinator allowing up to maxReaders concurrent
// read transactions.
func NewCoordinator(maxReaders int64) *Coordinator {
	c := &Coordinator{sem: semaphore.NewWeighted(maxReaders)}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// SetResizeHook installs (or clears, with nil) the resize observer.
func (c *Coordinator) SetResizeHook(hook ResizeHook) {
	c.mu.Lock()
	c.hook = hook
	c.mu.Unlock()
}

// EnterReader blocks while the reader cap is reached and while a resize is
// in progress (new readers are held back until it completes, per spec
// §4.C7), then admits the reader.
func (c *Coordinator) EnterReader(ctx context.Context) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	c.mu.Lock()
	for c.resizing {
		c.cond.Wait()
	}
	c.readers++
	c.mu.Unlock()
	return nil
}

// ExitReader releases a reader admitted by EnterReader.
func (c *Coordinator) ExitReader() {
	c.mu.Lock()
	c.readers--
	if c.readers == 0 {
		c.cond.Broadcast()
	}
	c.mu.Unlock()
	c.sem.Release(1)
}

// QuiesceForResize waits for every outstanding read transaction to end,
// runs grow while no new readers can enter, then lets readers resume. It
// implements the four-step protocol from spec §4.C7: enter resize state,
// wait for drain, run the size increase, resume.
func (c *Coordinator) QuiesceForResize(grow func() error) error {
	c.mu.Lock()
	c.resizing = true
	for c.readers > 0 {
		c.cond.Wait()
	}
	// Readers are drained and blocked from entering; safe to grow.
	hook := c.hook
	var err error
	if hook != nil {
		err = hook.BeforeGrow()
	}
	if err == nil {
		err = grow()
	}
	if hook != nil {
		if herr := hook.AfterGrow(); herr != nil && err == nil {
			err = herr
		}
	}
	c.resizing = false
	c.cond.Broadcast()
	c.mu.Unlock()
	return err
}

// ActiveReaders reports the current outstanding read-transaction count,
// exposed for tests asserting the "zero readers, resize succeeds
// immediately" boundary behavior from spec §8.
func (c *Coordinator) ActiveReaders() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readers
}
