package miniapp

import (
	"sync"
	"time"
)

// ToastDuration is how long a toast stays on screen.
const ToastDuration = 2500 * time.Millisecond

type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

type Toast struct {
	Message  string
	Severity Severity
}

// ToastView draws and removes the toast element.
type ToastView interface {
	Present(t Toast)
	Dismiss()
}

// Haptics mirrors the WebApp HapticFeedback.notificationOccurred call.
type Haptics interface {
	NotificationOccurred(kind string)
}

// Toaster shows one toast at a time. A new toast replaces the visible one.
type Toaster struct {
	view    ToastView
	haptics Haptics
	sched   Scheduler

	mu      sync.Mutex
	seq     uint64
	timer   Timer
	current *Toast
}

func NewToaster(view ToastView, haptics Haptics, sched Scheduler) *Toaster {
	if sched == nil {
		sched = SystemScheduler
	}
	return &Toaster{view: view, haptics: haptics, sched: sched}
}

func (t *Toaster) Info(msg string)    { t.Show(msg, SeverityInfo) }
func (t *Toaster) Success(msg string) { t.Show(msg, SeveritySuccess) }
func (t *Toaster) Error(msg string)   { t.Show(msg, SeverityError) }

func (t *Toaster) Show(msg string, sev Severity) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != nil {
		t.timer.Stop()
		t.view.Dismiss()
	}
	toast := Toast{Message: msg, Severity: sev}
	t.current = &toast
	t.view.Present(toast)
	if t.haptics != nil && sev != SeverityInfo {
		t.haptics.NotificationOccurred(sev.String())
	}

	t.seq++
	seq := t.seq
	t.timer = t.sched.AfterFunc(ToastDuration, func() { t.expire(seq) })
}

// Current returns the visible toast, if any.
func (t *Toaster) Current() (Toast, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return Toast{}, false
	}
	return *t.current, true
}

func (t *Toaster) expire(seq uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if seq != t.seq || t.current == nil {
		return
	}
	t.current = nil
	t.timer = nil
	t.view.Dismiss()
}
