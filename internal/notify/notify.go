// Package notify delivers transient notices about finished menu requests.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Level tells success notices apart from failures.
type Level string

const (
	LevelSuccess Level = "success"
	LevelFailure Level = "failure"
)

// Notification is a single toast-style notice.
type Notification struct {
	Level  Level
	Title  string
	Detail string
	At     time.Time
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Flash buffers notifications until a front end drains them. Safe for
// concurrent use.
type Flash struct {
	mu      sync.Mutex
	pending []Notification
}

// NewFlash returns an empty buffer.
func NewFlash() *Flash {
	return &Flash{}
}

func (f *Flash) Notify(_ context.Context, n Notification) error {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, n)
	return nil
}

// Drain returns every buffered notification, oldest first, and empties the
// buffer.
func (f *Flash) Drain() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.pending
	f.pending = nil
	return out
}

// Multi fans a notification out to every notifier. All of them are tried;
// errors are joined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, nt := range m {
		if nt == nil {
			continue
		}
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) error { return nil }
