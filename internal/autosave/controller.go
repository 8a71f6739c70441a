package autosave

import (
	"context"
	"sync"
	"time"
)

// SaveFunc performs one save and returns the saved-at marker.
type SaveFunc func(ctx context.Context) (time.Time, error)

// DeleteFunc removes one record.
type DeleteFunc func(ctx context.Context, id int64) error

// timer is the part of *time.Timer the controller uses.
type timer interface {
	Stop() bool
}

type scheduleFunc func(d time.Duration, f func()) timer

func afterFunc(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}

// Controller debounces edits into saves over a Session. Each Changed call
// restarts the delay; SaveNow skips it. A dispatched save runs to completion.
type Controller struct {
	mu       sync.Mutex
	session  *Session
	delay    time.Duration
	save     SaveFunc
	schedule scheduleFunc
	pending  timer
	gen      uint64
	onChange func(*Session)
	inflight sync.WaitGroup
}

// NewController wires a session to a save function.
func NewController(session *Session, delay time.Duration, save SaveFunc) *Controller {
	return &Controller{
		session:  session,
		delay:    delay,
		save:     save,
		schedule: afterFunc,
	}
}

// OnChange registers a callback invoked, under the controller lock, after
// every state transition.
func (c *Controller) OnChange(f func(*Session)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = f
}

// Changed records an edit to row id and (re)starts the debounce window.
func (c *Controller) Changed(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.session.Edit(id); err != nil {
		return err
	}
	c.scheduleLocked()
	c.notifyLocked()
	return nil
}

// Cancel drops a pending debounced save. The session stays PendingSave.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

// SaveNow saves immediately, cancelling any pending debounce.
func (c *Controller) SaveNow(ctx context.Context) error {
	c.mu.Lock()
	c.cancelLocked()
	if err := c.session.BeginSave(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.inflight.Add(1)
	c.notifyLocked()
	c.mu.Unlock()

	return c.run(ctx)
}

// Delete removes row id through del. The row is tagged deleting and edits
// are refused until del returns. A debounced save that was waiting is held
// back and restarted once the delete settles, so it never races it.
func (c *Controller) Delete(ctx context.Context, id int64, del DeleteFunc) error {
	c.mu.Lock()
	if err := c.session.BeginDelete(id); err != nil {
		c.mu.Unlock()
		return err
	}
	c.cancelLocked()
	c.inflight.Add(1)
	c.notifyLocked()
	c.mu.Unlock()
	defer c.inflight.Done()

	err := del(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.session.DeleteFailed(id, err)
	} else {
		c.session.DeleteSucceeded(id)
	}
	if c.session.State() == PendingSave {
		c.scheduleLocked()
	}
	c.notifyLocked()
	return err
}

// Wait blocks until no save or delete is in flight.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Session exposes the session for rendering. Callers must not mutate it.
func (c *Controller) Session() *Session {
	return c.session
}

// Do runs f with the controller lock held, for reads that must not race a
// save in progress.
func (c *Controller) Do(f func(*Session)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f(c.session)
}

func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.pending == nil {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	if err := c.session.BeginSave(); err != nil {
		c.mu.Unlock()
		return
	}
	c.inflight.Add(1)
	c.notifyLocked()
	c.mu.Unlock()

	_ = c.run(context.Background())
}

// run performs the save; BeginSave has already been applied.
func (c *Controller) run(ctx context.Context) error {
	defer c.inflight.Done()

	at, err := c.save(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.session.SaveFailed(err)
	} else {
		c.session.SaveSucceeded(at)
	}
	c.notifyLocked()
	return err
}

func (c *Controller) scheduleLocked() {
	c.cancelLocked()
	gen := c.gen
	c.pending = c.schedule(c.delay, func() { c.fire(gen) })
}

func (c *Controller) cancelLocked() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.gen++
}

func (c *Controller) notifyLocked() {
	if c.onChange != nil {
		c.onChange(c.session)
	}
}
